package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ApprovalStatus is the tri-state workflow flag shared by members and payments.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

var Statuses = []ApprovalStatus{StatusPending, StatusApproved, StatusRejected}

// ParseApprovalStatus accepts any letter case and surrounding blanks.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	if v := ApprovalStatus(strings.ToLower(strings.TrimSpace(s))); v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("unknown approval status %q", s)
}

// Valid reports exact membership; use ParseApprovalStatus for user input.
func (s ApprovalStatus) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// OrPending maps a missing status to pending. Rows decoded without the field keep "".
func (s ApprovalStatus) OrPending() ApprovalStatus {
	if s == "" {
		return StatusPending
	}
	return s
}

// UnmarshalJSON reads null or "" as pending; anything outside the enumeration is an error.
func (s *ApprovalStatus) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*s = StatusPending
		return nil
	}
	v, err := ParseApprovalStatus(*raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
