package views

import (
	"time"

	"github.com/shopspring/decimal"

	"chitti-admin/internal/models"
	"chitti-admin/internal/table"
)

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func lastPaid(m models.Member) string {
	if m.LastMonthPaid == nil {
		return ""
	}
	return *m.LastMonthPaid
}

// Members backs the approval screen.
var Members = table.Schema[models.MemberView]{
	Fields: []table.Field[models.MemberView]{
		table.TextField("phone", "Phone", func(v models.MemberView) string { return v.Phone }),
		table.TextField("full_name", "Name", func(v models.MemberView) string { return v.FullName }),
		table.TextField("selected_pack", "Pack", func(v models.MemberView) string { return string(v.SelectedPack) }),
		table.IntField("total_months", "Plan Months", func(v models.MemberView) int { return v.TotalMonths }),
		table.TextField("start_date", "Start Date", func(v models.MemberView) string { return v.StartDate }),
		table.TextField("last_month_paid", "Last Month Paid", func(v models.MemberView) string { return lastPaid(v.Member) }),
		table.TextField("approval_status", "Status", func(v models.MemberView) string { return string(v.ApprovalStatus.OrPending()) }),
		table.IntField("remaining_months", "Remaining Months", func(v models.MemberView) int { return derefInt(v.RemainingMonths) }),
	},
	Search: []string{"full_name", "phone", "selected_pack"},
	CSV:    []string{"phone", "full_name", "selected_pack", "start_date", "last_month_paid", "approval_status", "remaining_months"},
}

func MemberViews(rows []models.Member, now time.Time) []models.MemberView {
	out := make([]models.MemberView, len(rows))
	for i, m := range rows {
		out[i] = models.NewMemberView(m, now)
	}
	return out
}

func MemberStatusFilter(raw string) (table.Filter[models.MemberView], error) {
	return StatusFilter(raw, func(v models.MemberView) models.ApprovalStatus { return v.ApprovalStatus })
}

// MemberRecords backs the raw /customers/all listing and its export.
var MemberRecords = table.Schema[models.MemberRecord]{
	Fields: []table.Field[models.MemberRecord]{
		table.TextField("phone", "Phone", func(r models.MemberRecord) string { return r.Phone }),
		table.TextField("full_name", "Customer Name", func(r models.MemberRecord) string { return r.FullName }),
		table.TextField("address", "Address", func(r models.MemberRecord) string { return r.Address }),
		table.TextField("selected_pack", "Pack", func(r models.MemberRecord) string { return string(r.SelectedPack) }),
		table.IntField("total_months", "Plan Months", func(r models.MemberRecord) int { return r.TotalMonths }),
		table.TextField("start_date", "Start Date", func(r models.MemberRecord) string { return r.StartDate }),
		table.TextField("last_month_paid", "Last Month Paid", func(r models.MemberRecord) string { return lastPaid(r.Member) }),
		table.TextField("approval_status", "Status", func(r models.MemberRecord) string { return string(r.ApprovalStatus.OrPending()) }),
		table.IntField("payments_count", "Paid EMIs", func(r models.MemberRecord) int { return derefInt(r.PaymentsCount) }),
		table.IntField("remaining_months", "Remaining EMIs", func(r models.MemberRecord) int { return derefInt(r.RemainingMonths) }),
		table.NumberField("total_paid", "Amount Paid", func(r models.MemberRecord) decimal.Decimal {
			if r.TotalPaid == nil {
				return decimal.Zero
			}
			return *r.TotalPaid
		}),
	},
	Search: []string{"full_name", "phone"},
	CSV:    []string{"phone", "full_name", "address", "selected_pack", "start_date", "last_month_paid", "approval_status", "payments_count", "remaining_months", "total_paid"},
}

func MemberRecordStatusFilter(raw string) (table.Filter[models.MemberRecord], error) {
	return StatusFilter(raw, func(r models.MemberRecord) models.ApprovalStatus { return r.ApprovalStatus })
}
