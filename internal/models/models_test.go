package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestApprovalStatusDecode(t *testing.T) {
	var rows []struct {
		S ApprovalStatus `json:"s"`
	}
	require.NoError(t, json.Unmarshal([]byte(`[{"s":null},{"s":""},{"s":"Approved"},{"s":"rejected"}]`), &rows))
	require.Equal(t, StatusPending, rows[0].S)
	require.Equal(t, StatusPending, rows[1].S)
	require.Equal(t, StatusApproved, rows[2].S)
	require.Equal(t, StatusRejected, rows[3].S)

	var bad struct {
		S ApprovalStatus `json:"s"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"s":"on-hold"}`), &bad))
}

func TestApprovalStatusValid(t *testing.T) {
	require.True(t, StatusApproved.Valid())
	require.False(t, ApprovalStatus("Approved").Valid())
	require.Equal(t, StatusPending, ApprovalStatus("").OrPending())

	got, err := ParseApprovalStatus(" Approved ")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got)
	_, err = ParseApprovalStatus("done")
	require.Error(t, err)
}

func TestIDKeepsNumbersAndStrings(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[12, "12", "a-b", null]`), &ids))
	require.Equal(t, []ID{"12", "12", "a-b", ""}, ids)

	b, err := json.Marshal([]ID{"12", "a-b"})
	require.NoError(t, err)
	require.Equal(t, `[12,"a-b"]`, string(b))
}

func TestRemainingMonths(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	r, ok := Member{StartDate: "2025-01-10", TotalMonths: 12}.RemainingMonths(now)
	require.True(t, ok)
	require.Equal(t, 7, r)

	r, ok = Member{StartDate: "2022-01-10", TotalMonths: 12}.RemainingMonths(now)
	require.True(t, ok)
	require.Equal(t, 0, r)

	_, ok = Member{StartDate: "", TotalMonths: 12}.RemainingMonths(now)
	require.False(t, ok)

	// selected_pack is the monthly amount, not a month count.
	_, ok = Member{SelectedPack: "5000", StartDate: "2025-01-01"}.RemainingMonths(now)
	require.False(t, ok)
	v := NewMemberView(Member{SelectedPack: "5000", StartDate: "2025-01-01"}, now)
	require.Nil(t, v.RemainingMonths)

	var m Member
	require.NoError(t, json.Unmarshal([]byte(`{"selected_pack":5000,"start_date":"2025-01-01"}`), &m))
	require.Equal(t, FlexString("5000"), m.SelectedPack)
	_, ok = m.RemainingMonths(now)
	require.False(t, ok)

	v = NewMemberView(Member{StartDate: "2025-06-01T00:00:00", TotalMonths: 24}, now)
	require.NotNil(t, v.RemainingMonths)
	require.Equal(t, 24, *v.RemainingMonths)
}

func TestSummaryProgress(t *testing.T) {
	require.Equal(t, 50.0, MemberSummary{TotalMonths: 12, PaymentsCount: 6}.Progress())
	require.Equal(t, 100.0, MemberSummary{TotalMonths: 12, PaymentsCount: 15}.Progress())
	require.Equal(t, 0.0, MemberSummary{}.Progress())
}

func TestPaymentCreatedAtRoundTrip(t *testing.T) {
	const raw = `{"id":3,"phone":"9876543210","paid_amount":1200.5,"utr_number":"UTR98765","approval_status":"pending","created_at":"2025-03-31T23:30:00.123456"}`
	var p Payment
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Equal(t, "2025-03-31T23:30:00.123456", p.Key().CreatedAt)
	require.True(t, p.PaidAmount.Equal(decimal.RequireFromString("1200.5")))

	ist := time.FixedZone("IST", 5*3600+1800)
	created, ok := p.Created(ist)
	require.True(t, ok)
	require.Equal(t, time.March, created.Month())

	p.CreatedAt = "2025-03-31T20:00:00+00:00"
	created, ok = p.Created(ist)
	require.True(t, ok)
	require.Equal(t, time.April, created.Month())
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, s := range []string{
		"2025-01-02T03:04:05Z",
		"2025-01-02T03:04:05.999+05:30",
		"2025-01-02T03:04:05",
		"2025-01-02 03:04:05.123456",
		"2025-01-02 03:04:05+00:00",
		"2025-01-02",
	} {
		_, err := ParseTimestamp(s)
		require.NoError(t, err, s)
	}
	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestPaymentKeyValidate(t *testing.T) {
	require.Error(t, PaymentKey{Phone: "9876543210"}.Validate())
	require.NoError(t, PaymentKey{Phone: "9876543210", CreatedAt: "x"}.Validate())
}
