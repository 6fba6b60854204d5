package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID             ID              `json:"id"`
	Phone          string          `json:"phone"`
	Name           string          `json:"name,omitempty"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	UTRNumber      string          `json:"utr_number"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	// CreatedAt is kept exactly as the backend rendered it; it is half of the update key.
	CreatedAt string `json:"created_at"`
}

// PaymentKey identifies a payment row for /update-payment. The backend matches on
// (phone, created_at), not on id.
type PaymentKey struct {
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

func (p Payment) Key() PaymentKey {
	return PaymentKey{Phone: p.Phone, CreatedAt: p.CreatedAt}
}

func (k PaymentKey) String() string {
	return k.Phone + "@" + k.CreatedAt
}

func (k PaymentKey) Validate() error {
	if strings.TrimSpace(k.Phone) == "" {
		return errors.New("phone is required")
	}
	if strings.TrimSpace(k.CreatedAt) == "" {
		return errors.New("created_at is required")
	}
	return nil
}

// Created parses created_at into loc for month filtering; the raw string is never rewritten.
// Timestamps without an offset are read as loc wall time.
func (p Payment) Created(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := ParseTimestampIn(p.CreatedAt, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

type NewPayment struct {
	Phone      string          `json:"phone"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	UTRNumber  string          `json:"utr_number"`
}

type PaymentStatusUpdate struct {
	Phone          string         `json:"phone"`
	CreatedAt      string         `json:"created_at"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp renderings the backend is known to emit.
func ParseTimestamp(s string) (time.Time, error) {
	return ParseTimestampIn(s, time.UTC)
}

func ParseTimestampIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
