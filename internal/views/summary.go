package views

import (
	"strings"

	"github.com/shopspring/decimal"

	"chitti-admin/internal/models"
	"chitti-admin/internal/table"
)

// Summary backs the all-customers EMI overview. Its CSV columns are fixed by the
// export users already import into spreadsheets.
var Summary = table.Schema[models.MemberSummary]{
	Fields: []table.Field[models.MemberSummary]{
		table.TextField("phone", "Phone", func(s models.MemberSummary) string { return s.Phone }),
		table.TextField("full_name", "Customer Name", func(s models.MemberSummary) string { return s.FullName }),
		table.IntField("total_months", "Total EMIs", func(s models.MemberSummary) int { return s.TotalMonths }),
		table.IntField("payments_count", "Paid EMIs", func(s models.MemberSummary) int { return s.PaymentsCount }),
		table.IntField("remaining_months", "Remaining EMIs", func(s models.MemberSummary) int { return s.RemainingMonths }),
		table.NumberField("total_paid", "Amount Paid", func(s models.MemberSummary) decimal.Decimal { return s.TotalPaid }),
		table.NumberField("progress", "Progress", func(s models.MemberSummary) decimal.Decimal {
			return decimal.NewFromFloat(s.Progress())
		}),
	},
	Search: []string{"full_name", "phone"},
	CSV:    []string{"phone", "full_name", "total_months", "payments_count", "remaining_months", "total_paid"},
}

var (
	amount50k   = decimal.NewFromInt(50000)
	amount50k1  = decimal.NewFromInt(50001)
	amount100k  = decimal.NewFromInt(100000)
	amount100k1 = decimal.NewFromInt(100001)
)

// SummaryFilters parses the three bucket filters of the summary screen.
func SummaryFilters(paymentState, remainingRange, paidRange string) ([]table.Filter[models.MemberSummary], error) {
	var out []table.Filter[models.MemberSummary]

	if !isAll(paymentState) {
		switch strings.ToLower(strings.TrimSpace(paymentState)) {
		case "completed":
			out = append(out, func(s models.MemberSummary) bool { return s.RemainingMonths == 0 })
		case "pending":
			out = append(out, func(s models.MemberSummary) bool { return s.PaymentsCount == 0 })
		case "partial":
			out = append(out, func(s models.MemberSummary) bool { return s.PaymentsCount > 0 && s.RemainingMonths > 0 })
		default:
			return nil, badFilter("payment_state", paymentState)
		}
	}

	if !isAll(remainingRange) {
		lo, hi := 0, -1
		switch strings.TrimSpace(remainingRange) {
		case "0-3":
			lo, hi = 0, 3
		case "4-6":
			lo, hi = 4, 6
		case "7-12":
			lo, hi = 7, 12
		case "13+":
			lo = 13
		default:
			return nil, badFilter("remaining", remainingRange)
		}
		out = append(out, func(s models.MemberSummary) bool {
			return s.RemainingMonths >= lo && (hi < 0 || s.RemainingMonths <= hi)
		})
	}

	if !isAll(paidRange) {
		var f table.Filter[models.MemberSummary]
		switch strings.TrimSpace(paidRange) {
		case "0-50000":
			f = func(s models.MemberSummary) bool {
				return !s.TotalPaid.IsNegative() && s.TotalPaid.LessThanOrEqual(amount50k)
			}
		case "50001-100000":
			f = func(s models.MemberSummary) bool {
				return s.TotalPaid.GreaterThanOrEqual(amount50k1) && s.TotalPaid.LessThanOrEqual(amount100k)
			}
		case "100001+":
			f = func(s models.MemberSummary) bool { return s.TotalPaid.GreaterThanOrEqual(amount100k1) }
		default:
			return nil, badFilter("total_paid", paidRange)
		}
		out = append(out, f)
	}
	return out, nil
}

type SummaryStats struct {
	Users         int             `json:"users"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalEMIs     int             `json:"total_emis"`
	RemainingEMIs int             `json:"remaining_emis"`
}

// SummarizeMembers totals the filtered rows. TotalEMIs counts paid instalments.
func SummarizeMembers(rows []models.MemberSummary) SummaryStats {
	st := SummaryStats{Users: len(rows), TotalPaid: decimal.Zero}
	for _, r := range rows {
		st.TotalPaid = st.TotalPaid.Add(r.TotalPaid)
		st.TotalEMIs += r.PaymentsCount
		st.RemainingEMIs += r.RemainingMonths
	}
	return st
}
