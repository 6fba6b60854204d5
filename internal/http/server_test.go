package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chitti-admin/internal/audit"
	"chitti-admin/internal/auth"
	"chitti-admin/internal/backend"
	"chitti-admin/internal/config"
	"chitti-admin/internal/database"
	"chitti-admin/internal/forms"
	"chitti-admin/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type backendCall struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// fakeBackend records every request and answers from per-route handlers.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []backendCall
	handlers map[string]http.HandlerFunc
}

func (f *fakeBackend) on(method, path string, h http.HandlerFunc) {
	f.handlers[method+" "+path] = h
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, backendCall{Method: r.Method, Path: r.URL.Path, Body: body, Header: r.Header.Clone()})
	h := f.handlers[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if h == nil {
		http.NotFound(w, r)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

func (f *fakeBackend) callsTo(method, path string) []backendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backendCall
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testEnv struct {
	router  *gin.Engine
	backend *fakeBackend
	db      *gorm.DB
	token   string
}

var fixedNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	fb := &fakeBackend{handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		AllowOrigins:      "*",
		TZDefault:         "Asia/Kolkata",
		BackendBaseURL:    srv.URL,
		BackendTimeoutSec: 5,
		JWTSecret:         "test-secret",
		SessionTTLMin:     60,
		AdminUsername:     "Admin",
		PageSize:          10,
		MaxPaymentAmount:  1000000,
		MaxUploadMB:       1,
	}
	authSvc := auth.NewService(db, cfg)
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), "Admin", "KLS-test-pw"))
	validator, err := forms.New(cfg)
	require.NoError(t, err)

	s := newServer(cfg, Deps{
		API:   backend.NewClient(cfg),
		Forms: validator,
		Auth:  authSvc,
		Audit: audit.NewRecorder(db),
	})
	s.now = func() time.Time { return fixedNow }
	env := &testEnv{router: s.routes(), backend: fb, db: db}

	w := env.do(t, "POST", "/v1/auth/login", map[string]any{"username": "Admin", "password": "KLS-test-pw"})
	require.Equal(t, 200, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	env.token = login.Token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestInvalidPaymentNeverReachesBackend(t *testing.T) {
	env := setupEnv(t)
	env.token = ""

	w := env.do(t, "POST", "/v1/payments", map[string]any{
		"phone":       "987654321",
		"paid_amount": 0,
		"utr_number":  "UTR12345678",
	})
	require.Equal(t, 422, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	require.Contains(t, fields, "phone")
	require.Contains(t, fields, "paid_amount")
	require.Equal(t, 0, env.backend.count())
}

func TestSubmitPaymentIsPublic(t *testing.T) {
	env := setupEnv(t)
	env.token = ""
	env.backend.on("POST", "/create-payment", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	w := env.do(t, "POST", "/v1/payments", map[string]any{
		"phone":       "9876543210",
		"paid_amount": "2500.50",
		"utr_number":  "UTR12345678",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	require.Equal(t, "Payment submitted successfully!", decode(t, w)["message"])

	calls := env.backend.callsTo("POST", "/create-payment")
	require.Len(t, calls, 1)
	require.JSONEq(t, `{"phone":"9876543210","paid_amount":2500.5,"utr_number":"UTR12345678"}`, string(calls[0].Body))
}

func TestCreateMemberUsesDefaultSuccessMessage(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("POST", "/create-customer", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	w := env.do(t, "POST", "/v1/members", map[string]any{
		"phone":        "9876543210",
		"full_name":    "Asha",
		"address":      "Chennai",
		"password":     "secret",
		"start_date":   "2025-01-01",
		"total_months": 12,
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	require.Equal(t, "Customer added successfully!", decode(t, w)["message"])

	var entries []models.AuditEntry
	require.NoError(t, env.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, "member", entries[0].Entity)
	require.Equal(t, "9876543210", entries[0].EntityKey)
	require.Equal(t, "Admin", entries[0].Username)
	require.Equal(t, models.OutcomeOK, entries[0].Outcome)
	require.NotContains(t, []string(entries[0].Fields), "password")
}

func TestBackendValidationErrorIsFlattened(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("POST", "/create-customer", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","phone"],"msg":"field required"}]}`))
	})

	w := env.do(t, "POST", "/v1/members", map[string]any{
		"phone":        "9876543210",
		"full_name":    "Asha",
		"address":      "Chennai",
		"password":     "secret",
		"start_date":   "2025-01-01",
		"total_months": 12,
	})
	require.Equal(t, 422, w.Code)
	body := decode(t, w)
	require.Contains(t, body["message"], "phone: field required")
	require.Equal(t, "field required", body["fields"].(map[string]any)["phone"])
}

func TestBackendOutageIsBadGateway(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/customers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	w := env.do(t, "GET", "/v1/members", nil)
	require.Equal(t, 502, w.Code)
	require.Equal(t, backend.GenericMessage, decode(t, w)["message"])
}

func TestApprovePaymentSendsSingleUpdate(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("PUT", "/update-payment", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Payment approved"}`))
	})

	const createdAt = "2025-03-04T10:11:12.123456"
	w := env.do(t, "PUT", "/v1/payments/status", map[string]any{
		"phone":           "9876543210",
		"created_at":      createdAt,
		"approval_status": "approved",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Equal(t, "Payment approved", decode(t, w)["message"])

	calls := env.backend.callsTo("PUT", "/update-payment")
	require.Len(t, calls, 1)
	require.Equal(t, 1, env.backend.count())
	var sent models.PaymentStatusUpdate
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	require.Equal(t, createdAt, sent.CreatedAt)
	require.Equal(t, models.StatusApproved, sent.ApprovalStatus)
}

func TestPaymentStatusRejectsUnknownStatus(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, "PUT", "/v1/payments/status", map[string]any{
		"phone":           "9876543210",
		"created_at":      "2025-03-04T10:11:12",
		"approval_status": "done",
	})
	require.Equal(t, 422, w.Code)
	require.Equal(t, 0, env.backend.count())
}

func TestBulkStatusStopsAtFirstFailure(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("PUT", "/update-payment", func(w http.ResponseWriter, r *http.Request) {
		var in models.PaymentStatusUpdate
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.CreatedAt == "2025-03-02T09:00:00" {
			w.WriteHeader(500)
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	w := env.do(t, "POST", "/v1/payments/bulk-status", map[string]any{
		"approval_status": "rejected",
		"items": []map[string]string{
			{"phone": "9876543210", "created_at": "2025-03-01T09:00:00"},
			{"phone": "9876543210", "created_at": "2025-03-02T09:00:00"},
			{"phone": "9876543210", "created_at": "2025-03-03T09:00:00"},
		},
	})
	require.Equal(t, 502, w.Code)
	body := decode(t, w)
	require.EqualValues(t, 1, body["updated"])
	require.Equal(t, "2025-03-02T09:00:00", body["failed"].(map[string]any)["created_at"])
	require.Len(t, env.backend.callsTo("PUT", "/update-payment"), 2)

	var failed int64
	require.NoError(t, env.db.Model(&models.AuditEntry{}).Where("outcome = ?", models.OutcomeFailed).Count(&failed).Error)
	require.EqualValues(t, 1, failed)
}

func TestListPaymentsFiltersByMonthAndReportsStats(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/payments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"phone":"9876543210","paid_amount":1000,"utr_number":"UTR00000001","approval_status":"approved","created_at":"2025-06-01T10:00:00"},
			{"id":2,"phone":"9876543211","paid_amount":2000,"utr_number":"UTR00000002","approval_status":null,"created_at":"2025-06-20T10:00:00"},
			{"id":3,"phone":"9876543212","paid_amount":3000,"utr_number":"UTR00000003","approval_status":"approved","created_at":"2025-05-31T23:00:00"}
		]`))
	})

	w := env.do(t, "GET", "/v1/payments?month=current", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	body := decode(t, w)
	require.EqualValues(t, 2, body["total"])
	stats := body["stats"].(map[string]any)
	require.EqualValues(t, 2, stats["total"])
	require.EqualValues(t, 1, stats["approved"])
	require.EqualValues(t, 1, stats["pending"])
	require.EqualValues(t, 1000, stats["approved_amount"])

	w = env.do(t, "GET", "/v1/payments?month=13", nil)
	require.Equal(t, 400, w.Code)
}

func TestGuardRejectsMissingAndRevokedTokens(t *testing.T) {
	env := setupEnv(t)
	token := env.token

	env.token = ""
	w := env.do(t, "GET", "/v1/members", nil)
	require.Equal(t, 401, w.Code)
	require.Equal(t, 0, env.backend.count())

	env.token = token
	w = env.do(t, "GET", "/v1/auth/session", nil)
	require.Equal(t, 200, w.Code)
	require.Equal(t, "Admin", decode(t, w)["username"])

	w = env.do(t, "POST", "/v1/auth/logout", nil)
	require.Equal(t, 200, w.Code)

	w = env.do(t, "GET", "/v1/members", nil)
	require.Equal(t, 401, w.Code)
	require.Equal(t, "session_ended", decode(t, w)["error"])
}

func TestSummaryExportWritesFilteredRows(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/gold_users_summary", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"phone":"9876543210","full_name":"Asha, K","total_months":12,"payments_count":12,"remaining_months":0,"total_paid":60000},
			{"phone":"9876543211","full_name":"Ravi","total_months":12,"payments_count":4,"remaining_months":8,"total_paid":20000},
			{"phone":"9876543212","full_name":"Meena","total_months":24,"payments_count":0,"remaining_months":24,"total_paid":0}
		]}`))
	})

	w := env.do(t, "GET", "/v1/members/summary/export?payment_state=completed", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "gold_users_2025-06-15.csv")

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	require.Equal(t, "Phone,Customer Name,Total EMIs,Paid EMIs,Remaining EMIs,Amount Paid", lines[0])
	require.Len(t, lines, 2)
	require.Equal(t, `9876543210,"Asha, K",12,12,0,60000`, lines[1])

	w = env.do(t, "GET", "/v1/members/summary", nil)
	require.Equal(t, 200, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	require.EqualValues(t, 3, stats["users"])
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateCollectionItemForwardsMultipart(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("POST", "/gold", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Ring", r.FormValue("name"))
		require.Equal(t, "Gold", r.FormValue("type"))
		require.Equal(t, "Male", r.FormValue("gender"))
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":7,"name":"Ring","type":"Gold","weight_gm":4.5,"gender":"Male","image_url":"https://cdn/ring.png"}]}`))
	})

	body, ct := multipartBody(t, map[string]string{"name": "Ring", "weight_gm": "4.5"}, "ring.png", pngBytes())
	req := httptest.NewRequest("POST", "/v1/collections", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, 201, w.Code, w.Body.String())
	resp := decode(t, w)
	require.Equal(t, "New item added successfully!", resp["message"])
	require.EqualValues(t, 7, resp["item"].(map[string]any)["id"])
	require.Len(t, env.backend.callsTo("POST", "/gold"), 1)
}

func TestCreateCollectionItemRejectsNonImage(t *testing.T) {
	env := setupEnv(t)

	body, ct := multipartBody(t, map[string]string{"name": "Ring", "weight_gm": "4.5"}, "notes.txt", []byte("just some text"))
	req := httptest.NewRequest("POST", "/v1/collections", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, 422, w.Code)
	require.Contains(t, decode(t, w)["fields"], "image")
	require.Equal(t, 0, env.backend.count())
}

const storedRates = `{"data":[
	{"id":3,"metal_type":"Gold","purity":"22K","rate_per_gram":6000,"rate_per_carat":30000,"currency":"USD","effective_date":"2025-05-01","updated_by":"ops"},
	{"id":4,"metal_type":"Silver","purity":"999","rate_per_gram":90,"rate_per_carat":null,"currency":"INR","effective_date":"2025-05-01","updated_by":"ops"}
]}`

func TestUpdateMetalRateMergesStoredRow(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/get-metal-rates", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(storedRates))
	})
	env.backend.on("PUT", "/update-metal-rate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	w := env.do(t, "PUT", "/v1/metal-rates/3", map[string]any{
		"purity":        "916",
		"rate_per_gram": "6150.25",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Equal(t, "Updated successfully!", decode(t, w)["message"])

	calls := env.backend.callsTo("PUT", "/update-metal-rate")
	require.Len(t, calls, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	require.EqualValues(t, 3, sent["id"])
	require.Equal(t, "916", sent["purity"])
	require.EqualValues(t, 6150.25, sent["rate_per_gram"])
	require.EqualValues(t, 30000, sent["rate_per_carat"])
	require.Equal(t, "USD", sent["currency"])
	require.Equal(t, "Admin", sent["updated_by"])
	require.NotContains(t, sent, "metal_type")
	require.NotContains(t, sent, "effective_date")

	var entry models.AuditEntry
	require.NoError(t, env.db.Where("entity = ?", "metal_rate").First(&entry).Error)
	require.Equal(t, []string{"purity", "rate_per_gram"}, []string(entry.Fields))
}

func TestUpdateMetalRateUnknownID(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/get-metal-rates", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(storedRates))
	})

	w := env.do(t, "PUT", "/v1/metal-rates/99", map[string]any{"rate_per_gram": 10})
	require.Equal(t, 404, w.Code)
	require.Empty(t, env.backend.callsTo("PUT", "/update-metal-rate"))
}

func TestListAndCreateMetalRates(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("GET", "/get-metal-rates", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(storedRates))
	})
	env.backend.on("POST", "/create-metal-rate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Rate saved"}`))
	})

	w := env.do(t, "GET", "/v1/metal-rates?search=silver", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	body := decode(t, w)
	require.EqualValues(t, 1, body["total"])
	require.Equal(t, []any{"Gold", "Silver"}, body["metal_types"])

	w = env.do(t, "POST", "/v1/metal-rates", map[string]any{
		"metal_type":     "Platinum",
		"purity":         "950",
		"rate_per_gram":  "3100",
		"effective_date": "2025-06-01",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	require.Equal(t, "Rate saved", decode(t, w)["message"])

	calls := env.backend.callsTo("POST", "/create-metal-rate")
	require.Len(t, calls, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	require.Equal(t, "INR", sent["currency"])
	require.Equal(t, "Admin", sent["updated_by"])
	require.Nil(t, sent["rate_per_carat"])
}

func TestListAuditNewestFirst(t *testing.T) {
	env := setupEnv(t)
	env.backend.on("DELETE", "/gold/5", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"deleted"}`))
	})
	env.backend.on("DELETE", "/gold/6", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"deleted"}`))
	})

	require.Equal(t, 200, env.do(t, "DELETE", "/v1/collections/5", nil).Code)
	require.Equal(t, 200, env.do(t, "DELETE", "/v1/collections/6", nil).Code)

	w := env.do(t, "GET", "/v1/audit?entity=collection", nil)
	require.Equal(t, 200, w.Code)
	body := decode(t, w)
	require.EqualValues(t, 2, body["total"])
	rows := body["rows"].([]any)
	require.Equal(t, "6", rows[0].(map[string]any)["entity_key"])
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	require.Len(t, w.Header().Get("X-Request-ID"), 36)
}
