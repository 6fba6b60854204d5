// Package views holds the per-screen list schemas, query filters and stats built on
// the table engine.
package views

import (
	"errors"
	"fmt"
	"strings"

	"chitti-admin/internal/models"
	"chitti-admin/internal/table"
)

var ErrBadFilter = errors.New("invalid filter")

const All = "all"

func isAll(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || strings.EqualFold(raw, All)
}

// StatusFilter keeps rows whose approval status equals raw. "all" and "" keep every row.
func StatusFilter[T any](raw string, status func(T) models.ApprovalStatus) (table.Filter[T], error) {
	if isAll(raw) {
		return nil, nil
	}
	want, err := models.ParseApprovalStatus(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: status: %v", ErrBadFilter, err)
	}
	return func(row T) bool { return status(row).OrPending() == want }, nil
}

func badFilter(name, raw string) error {
	return fmt.Errorf("%w: %s %q", ErrBadFilter, name, raw)
}
