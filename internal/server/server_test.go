package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kkfinancial/loan-consult/internal/calculator"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/internal/store"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testRecipients = []string{"owner@example.com", "desk@example.com"}

type testServer struct {
	handler http.Handler
	store   *store.Memory
}

func newTestServer(t *testing.T, limiter *RateLimiter) testServer {
	t.Helper()
	mem := store.NewMemory(
		store.WithIDGenerator(testutil.SequentialIDs("lead")),
		store.WithClock(testutil.Clock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), time.Minute)),
	)
	svc := leads.NewService(zap.NewNop(), mem, nil, testRecipients)
	h := NewHandler(zap.NewNop(), DefaultConfig(), Dependencies{
		Leads:    svc,
		Grouping: format.Indian,
		Version:  "1.2.3",
		Limiter:  limiter,
	})
	return testServer{handler: h, store: mem}
}

func (s testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s testServer) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, "API is running", env.Message)
	_, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	assert.NoError(t, err)

	rr = srv.do(t, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var version map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &version))
	assert.Equal(t, "1.2.3", version["version"])
}

func TestCreateConsultation(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodPost, "/api/consultations", testutil.ValidConsultation())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, "lead-1", env.ID)
	assert.Equal(t, "Consultation request submitted successfully", env.Message)
	assert.True(t, strings.HasPrefix(env.Mailto, "mailto:owner@example.com,desk@example.com?subject="), env.Mailto)

	stored, err := srv.store.Get(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", stored.FullName)
	assert.Equal(t, leads.StatusPending, stored.Status)
}

func TestCreateConsultationUnusualAmount(t *testing.T) {
	srv := newTestServer(t, nil)

	req := testutil.ValidConsultation()
	req.LoanAmount = "1e400"
	rr := srv.do(t, http.MethodPost, "/api/consultations", req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, decodeEnvelope(t, rr).Mailto, "1e400")

	rr = srv.do(t, http.MethodGet, "/api/consultations", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestCreateConsultationConsentDefaultsToTrue(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodPost, "/api/consultations", `{
		"fullName": "Ravi Kumar",
		"phone": "9123456789",
		"email": "ravi@example.com",
		"loanType": "personal"
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := srv.store.Get(context.Background(), decodeEnvelope(t, rr).ID)
	require.NoError(t, err)
	assert.True(t, stored.Consent)
	assert.Equal(t, "Mumbai", stored.City)

	rr = srv.do(t, http.MethodPost, "/api/consultations", `{
		"fullName": "Ravi Kumar",
		"phone": "9123456789",
		"email": "ravi@example.com",
		"loanType": "personal",
		"consent": false
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stored, err = srv.store.Get(context.Background(), decodeEnvelope(t, rr).ID)
	require.NoError(t, err)
	assert.False(t, stored.Consent)
}

func TestCreateConsultationValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	req := testutil.ValidConsultation()
	req.Phone = "12345"
	req.Email = "not-an-email"
	rr := srv.do(t, http.MethodPost, "/api/consultations", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	fields := map[string]string{}
	for _, f := range env.Errors {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Please enter a valid 10-digit mobile number", fields["phone"])
	assert.Equal(t, "Please enter a valid email address", fields["email"])

	list, err := srv.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateConsultationBadBody(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodPost, "/api/consultations", `{"fullName": `)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", decodeEnvelope(t, rr).Message)
}

func TestCreateConsultationBodyTooLarge(t *testing.T) {
	mem := store.NewMemory()
	cfg := DefaultConfig()
	cfg.SetBodySizeBytes(64)
	h := NewHandler(zap.NewNop(), cfg, Dependencies{Leads: leads.NewService(nil, mem, nil, testRecipients)})

	body := `{"fullName": "` + strings.Repeat("a", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/consultations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestListGetAndUpdateConsultations(t *testing.T) {
	srv := newTestServer(t, nil)

	first := testutil.ValidConsultation()
	second := testutil.ValidConsultation()
	second.FullName = "Meera Shah"
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/consultations", first).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/consultations", second).Code)

	rr := srv.do(t, http.MethodGet, "/api/consultations", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed struct {
		Success bool         `json:"success"`
		Count   int          `json:"count"`
		Data    []leads.Lead `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.True(t, listed.Success)
	require.Equal(t, 2, listed.Count)
	assert.Equal(t, "lead-2", listed.Data[0].ID, "newest first")
	assert.Equal(t, "lead-1", listed.Data[1].ID)

	rr = srv.do(t, http.MethodGet, "/api/consultations/lead-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = srv.do(t, http.MethodGet, "/api/consultations/missing", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Consultation request not found", decodeEnvelope(t, rr).Message)

	rr = srv.do(t, http.MethodPatch, "/api/consultations/lead-1/status", statusPayload{Status: "contacted"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stored, err := srv.store.Get(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, leads.StatusContacted, stored.Status)

	rr = srv.do(t, http.MethodPatch, "/api/consultations/lead-1/status", statusPayload{Status: "archived"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid status value", decodeEnvelope(t, rr).Message)

	rr = srv.do(t, http.MethodPatch, "/api/consultations/missing/status", statusPayload{Status: "completed"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateFeedback(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodPost, "/api/feedback", map[string]interface{}{
		"serviceCategory": "Housing Loans",
		"rating":          5,
		"feedbackMessage": "Very smooth process",
		"feedbackConsent": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	env := decodeEnvelope(t, rr)
	assert.Equal(t, "Thank you for your feedback", env.Message)
	assert.Contains(t, env.Mailto, "Customer%20Feedback")

	rr = srv.do(t, http.MethodPost, "/api/feedback", map[string]interface{}{
		"serviceCategory": "Housing Loans",
		"rating":          0,
		"feedbackMessage": "ok",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, decodeEnvelope(t, rr).Errors, 3)
}

func TestSubmissionRateLimit(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(2, time.Minute, func() time.Time { return now })
	srv := newTestServer(t, limiter)

	for i := 0; i < 2; i++ {
		rr := srv.do(t, http.MethodPost, "/api/consultations", testutil.ValidConsultation())
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := srv.do(t, http.MethodPost, "/api/consultations", testutil.ValidConsultation())
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
	assert.Equal(t, "Too many submissions, please try again shortly", decodeEnvelope(t, rr).Message)

	// Reads are never throttled.
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/consultations", nil).Code)
}

func TestEMIEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		body       string
		computable bool
		monthly    string
		months     int
	}{
		{
			name:       "numbers with unit",
			body:       `{"principal": 2500000, "rate": 8.5, "tenure": 20, "tenureUnit": "years"}`,
			computable: true,
			monthly:    "₹21,696",
			months:     240,
		},
		{
			name:       "strings with embedded unit",
			body:       `{"principal": "25,00,000", "rate": "8.5", "tenure": "20y"}`,
			computable: true,
			monthly:    "₹21,696",
			months:     240,
		},
		{
			name:       "bare tenure is months",
			body:       `{"principal": "100000", "rate": "12", "tenure": "12"}`,
			computable: true,
			monthly:    "₹8,885",
			months:     12,
		},
		{
			name: "zero rate",
			body: `{"principal": 100000, "rate": 0, "tenure": 12, "tenureUnit": "months"}`,
		},
		{
			name: "blank principal",
			body: `{"principal": "", "rate": 10, "tenure": 5, "tenureUnit": "years"}`,
		},
		{
			name: "total overflows",
			body: `{"principal": "1e308", "rate": 10, "tenure": 360}`,
		},
		{
			name:       "fractional bare tenure rounds",
			body:       `{"principal": "100000", "rate": "12", "tenure": "12.4"}`,
			computable: true,
			monthly:    "₹8,885",
			months:     12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(t, http.MethodPost, "/api/emi", tt.body)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			var resp emiResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, tt.computable, resp.Computable)
			if !tt.computable {
				assert.Nil(t, resp.Result)
				assert.Nil(t, resp.Display)
				return
			}
			require.NotNil(t, resp.Display)
			assert.Equal(t, tt.monthly, resp.Display.MonthlyEMI)
			assert.Equal(t, tt.months, resp.Parameters.TenureMonths)
		})
	}
}

func TestEMIEndpointSchedule(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodPost, "/api/emi", `{"principal": 500000, "rate": 9, "tenure": 2, "tenureUnit": "years", "schedule": true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp emiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Schedule, 24)
	require.Len(t, resp.Yearly, 2)
	assert.Zero(t, resp.Schedule[23].Balance)
	assert.Zero(t, resp.Yearly[1].ClosingBalance)
}

func TestEMIEndpointScheduleIsBounded(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodPost, "/api/emi", `{"principal": 100000, "rate": 0.001, "tenure": 1000000, "tenureUnit": "years", "schedule": true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp emiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Computable)
	assert.Nil(t, resp.Schedule)
	assert.Nil(t, resp.Yearly)
}

func TestEMIEndpointTenureUnitsAgree(t *testing.T) {
	srv := newTestServer(t, nil)

	months := func(body string) int {
		rr := srv.do(t, http.MethodPost, "/api/emi", body)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp emiResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.True(t, resp.Computable, body)
		return resp.Parameters.TenureMonths
	}

	bare := months(`{"principal": 100000, "rate": 10, "tenure": "240.5"}`)
	withUnit := months(`{"principal": 100000, "rate": 10, "tenure": "240.5", "tenureUnit": "months"}`)
	assert.Equal(t, 241, bare)
	assert.Equal(t, withUnit, bare)
}

func TestAPINotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodGet, "/api/unknown", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Not found", decodeEnvelope(t, rr).Message)
}

func TestPagesRender(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"Unlock Your Financial Future", "Housing Loans", "+91 93722 67693"}},
		{"/about", []string{"Mrs. Kumkum Dubey", "Company Founded"}},
		{"/services", []string{"Loan Against Property", "Frequently Asked Questions"}},
		{"/calculator", []string{"₹21,696", "Monthly EMI", "20 years"}},
		{"/contact", []string{"Request a Consultation", "Share Your Feedback", "Mumbai"}},
		{"/contact?loanType=vehicle", []string{`<option value="vehicle" selected>`}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := srv.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			for _, want := range tt.want {
				assert.Contains(t, rr.Body.String(), want)
			}
		})
	}
}

func TestCalculatorPage(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodGet, "/calculator?principal=0&rate=8.5&tenure=20&unit=years", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="placeholder"`)
	assert.NotContains(t, rr.Body.String(), `id="monthlyEMI"`)

	rr = srv.do(t, http.MethodGet, "/calculator?principal=500000&rate=9&tenure=24&unit=months&schedule=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Yearly Breakdown")
	assert.Contains(t, body, "2 years")
	assert.Contains(t, body, `max="50000000"`)

	rr = srv.do(t, http.MethodGet, "/calculator?principal=1e308&rate=10&tenure=30&unit=years", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="placeholder"`)

	rr = srv.do(t, http.MethodGet, "/calculator?principal=100000&rate=0.001&tenure=1000000&unit=years&schedule=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="monthlyEMI"`)
	assert.NotContains(t, rr.Body.String(), "Yearly Breakdown")
}

func TestContactFormSubmit(t *testing.T) {
	srv := newTestServer(t, nil)

	form := url.Values{
		"fullName": {"Asha Rao"},
		"phone":    {"9876543210"},
		"email":    {"asha@example.com"},
		"loanType": {"housing"},
		"consent":  {"1"},
	}
	rr := srv.postForm(t, "/contact", form)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Thank you, Asha Rao!")
	assert.Contains(t, body, "lead-1")
	assert.Contains(t, body, "mailto:owner@example.com")

	form.Set("phone", "555")
	rr = srv.postForm(t, "/contact", form)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please enter a valid 10-digit mobile number")
	assert.Contains(t, rr.Body.String(), `value="Asha Rao"`)
}

func TestContactFormRateLimited(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	srv := newTestServer(t, newRateLimiter(1, time.Minute, func() time.Time { return now }))

	form := url.Values{
		"fullName": {"Asha Rao"},
		"phone":    {"9876543210"},
		"email":    {"asha@example.com"},
		"loanType": {"housing"},
	}
	require.Equal(t, http.StatusOK, srv.postForm(t, "/contact", form).Code)

	rr := srv.postForm(t, "/contact", form)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "+91 93722 67693")
}

func TestFeedbackFormSubmit(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.postForm(t, "/contact/feedback", url.Values{
		"serviceCategory": {"Overall Experience"},
		"rating":          {"4"},
		"feedbackMessage": {"Helpful and quick"},
		"feedbackConsent": {"1"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Thank you for your feedback!")

	rr = srv.postForm(t, "/contact/feedback", url.Values{
		"serviceCategory": {"Overall Experience"},
		"feedbackMessage": {"Helpful and quick"},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please provide a rating by clicking the stars")
	assert.Contains(t, rr.Body.String(), "Please agree to our feedback terms")
}

func TestPageNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(t, http.MethodGet, "/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Page Not Found")
}

func TestStaticAssetsServed(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/static/style.css", "/static/calculator.js"} {
		rr := srv.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Body.Bytes(), path)
	}
}

func TestLiveCalculator(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/emi"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readSnapshot := func() calculator.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var snap calculator.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	initial := readSnapshot()
	assert.True(t, initial.Computable)
	assert.Equal(t, "₹21,696", initial.Display.MonthlyEMI)

	zero := "0"
	require.NoError(t, conn.WriteJSON(calculator.Update{Principal: &zero}))
	snap := readSnapshot()
	assert.False(t, snap.Computable)
	assert.Nil(t, snap.Display)

	// Malformed frames are ignored and the session keeps going.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	principal, unit, tenure := "100000", "months", "12"
	require.NoError(t, conn.WriteJSON(calculator.Update{Principal: &principal, Tenure: &tenure, Unit: &unit}))
	snap = readSnapshot()
	assert.True(t, snap.Computable)
	assert.Equal(t, 12, snap.Parameters.TenureMonths)
	assert.Greater(t, snap.Version, initial.Version)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://allowed.example"})

	req := httptest.NewRequest(http.MethodGet, "http://site.example/ws/emi", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "https://allowed.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://site.example")
	assert.True(t, check(req), "same origin")

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
