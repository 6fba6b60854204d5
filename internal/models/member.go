package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects paid_amount, weight_gm and rates as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const dateLayout = "2006-01-02"

type Member struct {
	Phone          string         `json:"phone"`
	FullName       string         `json:"full_name"`
	Address        string         `json:"address"`
	SelectedPack   FlexString     `json:"selected_pack,omitempty"`
	TotalMonths    int            `json:"total_months,omitempty"`
	StartDate      string         `json:"start_date"`
	LastMonthPaid  *string        `json:"last_month_paid"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

// RemainingMonths counts whole calendar months from now until start_date plus
// total_months, floored at zero. ok is false when either is missing. selected_pack is a
// rupee amount and never stands in for the plan size.
func (m Member) RemainingMonths(now time.Time) (months int, ok bool) {
	plan := m.TotalMonths
	if plan <= 0 || strings.TrimSpace(m.StartDate) == "" {
		return 0, false
	}
	start, err := ParseDate(m.StartDate)
	if err != nil {
		return 0, false
	}
	end := start.AddDate(0, plan, 0)
	diff := (end.Year()-now.Year())*12 + int(end.Month()) - int(now.Month())
	if diff < 0 {
		diff = 0
	}
	return diff, true
}

// MemberView is a Member as returned by the approval screen, with the derived remaining months.
type MemberView struct {
	Member
	RemainingMonths *int `json:"remaining_months"`
}

func NewMemberView(m Member, now time.Time) MemberView {
	v := MemberView{Member: m}
	if r, ok := m.RemainingMonths(now); ok {
		v.RemainingMonths = &r
	}
	return v
}

// NewMember is the registration payload. Password only ever travels inbound to the backend.
type NewMember struct {
	Phone       string `json:"phone"`
	FullName    string `json:"full_name"`
	Address     string `json:"address"`
	Password    string `json:"password"`
	StartDate   string `json:"start_date"`
	TotalMonths int    `json:"total_months"`
}

type MemberStatusUpdate struct {
	Phone          string         `json:"phone"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	LastMonthPaid  *string        `json:"last_month_paid,omitempty"`
}

// MemberRecord is the /customers/all read model. Depending on the backend build it may
// carry the computed EMI columns as well.
type MemberRecord struct {
	Member
	PaymentsCount   *int             `json:"payments_count,omitempty"`
	RemainingMonths *int             `json:"remaining_months,omitempty"`
	TotalPaid       *decimal.Decimal `json:"total_paid,omitempty"`
}

// MemberSummary is the /gold_users_summary read model.
type MemberSummary struct {
	Phone           string          `json:"phone"`
	FullName        string          `json:"full_name"`
	TotalMonths     int             `json:"total_months"`
	PaymentsCount   int             `json:"payments_count"`
	RemainingMonths int             `json:"remaining_months"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
}

// Progress is the share of the plan already paid, capped at 100.
func (s MemberSummary) Progress() float64 {
	if s.TotalMonths <= 0 {
		return 0
	}
	p := float64(s.PaymentsCount) / float64(s.TotalMonths) * 100
	if p > 100 {
		p = 100
	}
	return p
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		if t, err := ParseTimestamp(s); err == nil {
			return t, nil
		}
	}
	return time.Parse(dateLayout, s)
}
