package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chitti-admin/internal/models"
)

func TestApproveMemberSendsSingleUpdate(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("PUT", "/update-customer", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	w := env.do(t, "PUT", "/v1/members/9876543210/status", map[string]any{
		"approval_status": "approved",
		"last_month_paid": "2025-06-01",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Equal(t, "Customer updated successfully", decode(t, w)["message"])

	calls := env.backend.callsTo("PUT", "/update-customer")
	require.Len(t, calls, 1)
	require.Equal(t, 1, env.backend.count())
	require.JSONEq(t, `{"phone":"9876543210","approval_status":"approved","last_month_paid":"2025-06-01"}`, string(calls[0].Body))

	var entry models.AuditEntry
	require.NoError(t, env.db.Where("entity = ?", "member").First(&entry).Error)
	require.Equal(t, "status", entry.Action)
	require.Equal(t, []string{"approval_status", "last_month_paid"}, []string(entry.Fields))
}

func TestRejectMemberOmitsBlankLastPaid(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("PUT", "/update-customer", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Customer rejected"}`))
	})

	w := env.do(t, "PUT", "/v1/members/9876543210/status", map[string]any{
		"approval_status": "Rejected",
		"last_month_paid": "  ",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Equal(t, "Customer rejected", decode(t, w)["message"])

	calls := env.backend.callsTo("PUT", "/update-customer")
	require.Len(t, calls, 1)
	require.JSONEq(t, `{"phone":"9876543210","approval_status":"rejected"}`, string(calls[0].Body))
}

func TestMemberStatusBadInputNeverReachesBackend(t *testing.T) {
	env := setupEnv(t)

	for _, date := range []string{"01/06/2025", "2025-13-01", "2025-02-30"} {
		w := env.do(t, "PUT", "/v1/members/9876543210/status", map[string]any{
			"approval_status": "approved",
			"last_month_paid": date,
		})
		require.Equal(t, 422, w.Code, date)
		body := decode(t, w)
		require.Equal(t, "validation_failed", body["error"])
		require.NotEmpty(t, body["message"])
		require.Equal(t, "Date must be YYYY-MM-DD", body["fields"].(map[string]any)["last_month_paid"])
	}

	w := env.do(t, "PUT", "/v1/members/9876543210/status", map[string]any{"approval_status": "done"})
	require.Equal(t, 422, w.Code)
	require.NotEmpty(t, decode(t, w)["message"])

	w = env.do(t, "PUT", "/v1/members/9876543210/status", map[string]any{})
	require.Equal(t, 400, w.Code)

	require.Equal(t, 0, env.backend.count())
}

func TestMemberStatusUpdatesOnOneRowDoNotOverlap(t *testing.T) {
	env := setupEnv(t)
	var inFlight, peak atomic.Int32
	env.backend.on("PUT", "/update-customer", func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		_, _ = w.Write([]byte(`{}`))
	})

	statuses := []string{"approved", "rejected", "approved"}
	codes := make([]int, len(statuses))
	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			codes[i] = env.do(t, "PUT", "/v1/members/9876543210/status", map[string]any{"approval_status": status}).Code
		}(i, status)
	}
	wg.Wait()

	require.Equal(t, []int{200, 200, 200}, codes)

	require.Len(t, env.backend.callsTo("PUT", "/update-customer"), 3)
	require.EqualValues(t, 1, peak.Load())
}

const allCustomers = `[
	{"phone":"9876500001","full_name":"Asha","address":"Chennai","selected_pack":5000,"total_months":12,"start_date":"2025-01-01","last_month_paid":"2025-05-01","approval_status":"approved","payments_count":5,"remaining_months":7,"total_paid":25000},
	{"phone":"9876500002","full_name":"Ravi","address":"Madurai","selected_pack":"2000","total_months":24,"start_date":"2025-02-01","last_month_paid":null,"approval_status":null},
	{"phone":"9876500003","full_name":"Meena","address":"Salem, TN","selected_pack":3000,"total_months":12,"start_date":"2024-07-01","last_month_paid":"2025-06-01","approval_status":"approved","payments_count":12,"remaining_months":0,"total_paid":36000}
]`

func TestListAllMembersAndExportShareFilters(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/customers/all", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(allCustomers))
	})

	w := env.do(t, "GET", "/v1/members/all?status=approved&sort=full_name&order=desc", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	var page struct {
		Rows  []models.MemberRecord `json:"rows"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 2, page.Total)
	require.Equal(t, "Meena", page.Rows[0].FullName)
	require.Equal(t, "Asha", page.Rows[1].FullName)

	w = env.do(t, "GET", "/v1/members/export?status=approved", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "customers_2025-06-15.csv")
	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 1+page.Total)
	require.Contains(t, w.Body.String(), `"Salem, TN"`)

	w = env.do(t, "GET", "/v1/members/all?status=archived", nil)
	require.Equal(t, 400, w.Code)
}

func TestListMembersDerivesRemainingMonths(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/customers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(allCustomers))
	})

	w := env.do(t, "GET", "/v1/members?status=pending", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	var page struct {
		Rows []models.MemberView `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Rows, 1)
	require.Equal(t, "Ravi", page.Rows[0].FullName)
	require.NotNil(t, page.Rows[0].RemainingMonths)
	require.Equal(t, 20, *page.Rows[0].RemainingMonths)
}
