package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"chitti-admin/internal/models"
	"chitti-admin/internal/table"
)

var Payments = table.Schema[models.Payment]{
	Fields: []table.Field[models.Payment]{
		table.TextField("id", "ID", func(p models.Payment) string { return p.ID.String() }),
		table.TextField("name", "Name", func(p models.Payment) string { return p.Name }),
		table.TextField("phone", "Phone", func(p models.Payment) string { return p.Phone }),
		table.TextField("utr_number", "UTR Number", func(p models.Payment) string { return p.UTRNumber }),
		table.NumberField("paid_amount", "Amount", func(p models.Payment) decimal.Decimal { return p.PaidAmount }),
		table.TextField("approval_status", "Status", func(p models.Payment) string { return string(p.ApprovalStatus.OrPending()) }),
		table.TextField("created_at", "Created At", func(p models.Payment) string { return p.CreatedAt }),
	},
	Search: []string{"name", "phone", "utr_number"},
	CSV:    []string{"phone", "name", "paid_amount", "utr_number", "approval_status", "created_at"},
}

func PaymentStatusFilter(raw string) (table.Filter[models.Payment], error) {
	return StatusFilter(raw, func(p models.Payment) models.ApprovalStatus { return p.ApprovalStatus })
}

// PaymentMonthFilter keeps payments created in one calendar month, read in loc.
// month is "all", "current" or "01".."12"; year only applies to numbered months and
// defaults to the current year. Rows with an unreadable created_at never match.
func PaymentMonthFilter(month, year string, now time.Time, loc *time.Location) (table.Filter[models.Payment], error) {
	if isAll(month) {
		return nil, nil
	}
	now = now.In(loc)
	wantYear, wantMonth := now.Year(), now.Month()
	if !strings.EqualFold(strings.TrimSpace(month), "current") {
		m, err := strconv.Atoi(strings.TrimSpace(month))
		if err != nil || m < 1 || m > 12 {
			return nil, badFilter("month", month)
		}
		wantMonth = time.Month(m)
		if strings.TrimSpace(year) != "" {
			y, err := strconv.Atoi(strings.TrimSpace(year))
			if err != nil || y < 1 {
				return nil, badFilter("year", year)
			}
			wantYear = y
		}
	}
	return func(p models.Payment) bool {
		t, ok := p.Created(loc)
		return ok && t.Year() == wantYear && t.Month() == wantMonth
	}, nil
}

type PaymentStats struct {
	Total          int             `json:"total"`
	Approved       int             `json:"approved"`
	Pending        int             `json:"pending"`
	Rejected       int             `json:"rejected"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}

func (s *PaymentStats) add(p models.Payment) {
	s.Total++
	switch p.ApprovalStatus.OrPending() {
	case models.StatusApproved:
		s.Approved++
		s.ApprovedAmount = s.ApprovedAmount.Add(p.PaidAmount)
	case models.StatusPending:
		s.Pending++
	case models.StatusRejected:
		s.Rejected++
	}
}

func SummarizePayments(rows []models.Payment) PaymentStats {
	st := PaymentStats{ApprovedAmount: decimal.Zero}
	for _, p := range rows {
		st.add(p)
	}
	return st
}

type MonthStats struct {
	Month string `json:"month"`
	Label string `json:"label"`
	PaymentStats
}

type YearStats struct {
	Year   int          `json:"year"`
	Months []MonthStats `json:"months"`
}

// MonthlyPayments buckets every payment by creation month for year-1..year+1.
func MonthlyPayments(rows []models.Payment, year int, loc *time.Location) []YearStats {
	out := make([]YearStats, 0, 3)
	index := make(map[int]int, 3)
	for y := year - 1; y <= year+1; y++ {
		ys := YearStats{Year: y, Months: make([]MonthStats, 12)}
		for m := 1; m <= 12; m++ {
			ys.Months[m-1] = MonthStats{
				Month:        fmt.Sprintf("%02d", m),
				Label:        time.Month(m).String(),
				PaymentStats: PaymentStats{ApprovedAmount: decimal.Zero},
			}
		}
		index[y] = len(out)
		out = append(out, ys)
	}
	for _, p := range rows {
		t, ok := p.Created(loc)
		if !ok {
			continue
		}
		i, ok := index[t.Year()]
		if !ok {
			continue
		}
		out[i].Months[int(t.Month())-1].add(p)
	}
	return out
}
