package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendly/internal/auth"
	"spendly/internal/cache"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/services"
	"spendly/internal/storage/memory"
	"spendly/internal/summary"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New()
	dashboards := cache.NewLRUCache[summary.Dashboard](100, time.Minute)

	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Output: io.Discard})
	}
	srv := NewServer(":0", Deps{
		Users:      auth.NewService(store, bcrypt.MinCost),
		Records:    services.NewRecordService(store, store, nil, dashboards),
		Budgets:    services.NewBudgetService(store, store),
		Store:      store,
		Dashboards: dashboards,
	}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[messageResponse](t, rr).Message
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	ready := decode[map[string]any](t, do(t, srv, http.MethodGet, "/readyz", nil))
	checks := ready["checks"].(map[string]any)
	if checks["store"] != "ok" || checks["broker"] != "disabled" {
		t.Errorf("unexpected checks %v", checks)
	}
}

func TestReadyFailsWhenStoreIsDown(t *testing.T) {
	srv := newTestServer(t, Options{})
	srv.store = failingPinger{}

	rr := do(t, srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestReadyIgnoresBrokerFailure(t *testing.T) {
	srv := newTestServer(t, Options{})
	srv.broker = failingPinger{}

	rr := do(t, srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with broker down, got %d", rr.Code)
	}
	checks := decode[map[string]any](t, rr)["checks"].(map[string]any)
	if !strings.HasPrefix(checks["broker"].(string), "failed") {
		t.Errorf("broker check = %v", checks["broker"])
	}
}

func TestRegisterTwice(t *testing.T) {
	srv := newTestServer(t, Options{})
	body := map[string]string{"username": "ana", "email": "ana@example.com", "password": "secret"}

	rr := do(t, srv, http.MethodPost, "/api/user/registerUser", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("first register status=%d", rr.Code)
	}
	if got := message(t, rr); got != "User ana has been created!" {
		t.Errorf("message = %q", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/user/registerUser", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("second register status=%d", rr.Code)
	}
	if got := message(t, rr); got != "User already exists" {
		t.Errorf("message = %q", got)
	}

	users := decode[[]core.User](t, do(t, srv, http.MethodGet, "/api/user/getUsers", nil))
	if len(users) != 1 || users[0].Email != "ana@example.com" {
		t.Fatalf("unexpected users %+v", users)
	}
	if users[0].Password == "secret" {
		t.Error("password must be stored hashed")
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"email":`},
		{"empty email", map[string]string{"username": "x", "password": "p"}},
		{"empty password", map[string]string{"username": "x", "email": "x@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/user/registerUser", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/user/registerUser",
		map[string]string{"username": "ana", "email": "ana@example.com", "password": "secret"})

	tests := []struct {
		name       string
		email      string
		password   string
		wantStatus int
		wantMsg    string
	}{
		{"correct credentials", "ana@example.com", "secret", http.StatusOK, "Login successful!"},
		{"wrong password", "ana@example.com", "nope", http.StatusUnauthorized, "Wrong mailID or password!"},
		{"unknown email", "bob@example.com", "secret", http.StatusBadRequest, "Register before logging in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/user/loginUser",
				map[string]string{"email": tt.email, "password": tt.password})
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d, want %d", rr.Code, tt.wantStatus)
			}
			if got := message(t, rr); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestBudgetSetTwiceThenUpdate(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"

	if rr := do(t, srv, http.MethodGet, "/api/user/getBudget/"+email, nil); strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("missing budget should be null, got %s", rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPut, "/api/user/updateBudget", map[string]any{"email": email, "budget": 50}); strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("updating a missing budget should answer null, got %s", rr.Body.String())
	}

	rr := do(t, srv, http.MethodPost, "/api/user/setBudget", map[string]any{"email": email, "budget": 100})
	if rr.Code != http.StatusOK || decode[core.Budget](t, rr).Budget != 100 {
		t.Fatalf("first set: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/user/setBudget", map[string]any{"email": email, "budget": 200})
	if got := decode[core.Budget](t, rr).Budget; got != 100 {
		t.Fatalf("second set must keep the first budget, got %v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/user/updateBudget", map[string]any{"email": email, "budget": "200"})
	if got := decode[core.Budget](t, rr).Budget; got != 200 {
		t.Fatalf("update should change the budget, got %v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/user/getBudget/"+email, nil)
	if got := decode[core.Budget](t, rr).Budget; got != 200 {
		t.Errorf("getBudget = %v, want 200", got)
	}
}

func TestBudgetRejectsNegative(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodPost, "/api/user/setBudget", map[string]any{"email": "a@b.c", "budget": -5})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRecordLegacyLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"

	rr := do(t, srv, http.MethodPost, "/api/user/addRecord", map[string]any{
		"email": email, "date": "01-03-2024", "category": "going out", "amount": "250", "notes": "",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("addRecord status=%d body=%s", rr.Code, rr.Body.String())
	}
	saved := decode[core.Record](t, rr)
	if saved.ID == "" || saved.Amount != 250 {
		t.Fatalf("unexpected saved record %+v", saved)
	}

	records := decode[[]core.Record](t, do(t, srv, http.MethodGet, "/api/user/getRecords/"+email, nil))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	path := "/api/user/deleteRecord/" + email + "/01-03-2024/going%20out/250/"
	for i := 0; i < 2; i++ {
		rr = do(t, srv, http.MethodDelete, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("delete %d status=%d", i, rr.Code)
		}
		if got := decode[string](t, rr); got != "Successfully deleted!" {
			t.Errorf("delete body = %q", got)
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/user/getRecords/"+email, nil)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", rr.Body.String())
	}
}

func TestDeleteRecordWithNotesAndBadAmount(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"
	do(t, srv, http.MethodPost, "/api/user/addRecord", map[string]any{
		"email": email, "date": "02-03-2024", "category": "food", "amount": 12.5, "notes": "lunch/dinner",
	})

	rr := do(t, srv, http.MethodDelete, "/api/user/deleteRecord/"+email+"/02-03-2024/food/abc/x", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad amount status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/user/deleteRecord/"+email+"/02-03-2024/food/12.5/lunch%2Fdinner", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	records := decode[[]core.Record](t, do(t, srv, http.MethodGet, "/api/user/getRecords/"+email, nil))
	if len(records) != 0 {
		t.Errorf("record with escaped notes not deleted: %+v", records)
	}
}

func TestAddRecordValidation(t *testing.T) {
	srv := newTestServer(t, Options{})
	tests := []struct {
		name string
		body any
	}{
		{"missing email", map[string]any{"date": "01-01-2024", "category": "food", "amount": 1}},
		{"non numeric amount", map[string]any{"email": "a@b.c", "date": "01-01-2024", "category": "food", "amount": "ten"}},
		{"amount as bool", map[string]any{"email": "a@b.c", "date": "01-01-2024", "category": "food", "amount": true}},
		{"NaN amount", map[string]any{"email": "a@b.c", "date": "01-01-2024", "category": "food", "amount": "NaN"}},
		{"infinite amount", map[string]any{"email": "a@b.c", "date": "01-01-2024", "category": "food", "amount": "Infinity"}},
		{"number out of range", `{"email":"a@b.c","date":"01-01-2024","category":"food","amount":1e400}`},
		{"trailing data", `{"email":"a@b.c"} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/user/addRecord", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRegisterLongPassword(t *testing.T) {
	srv := newTestServer(t, Options{})
	password := strings.Repeat("x", 80)

	rr := do(t, srv, http.MethodPost, "/api/user/registerUser", map[string]any{"username": "long", "email": "long@example.com", "password": password})
	if rr.Code != http.StatusOK {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodPost, "/api/user/loginUser", map[string]any{"email": "long@example.com", "password": password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestNonFiniteValuesAreRejected(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "nan@example.com"

	requests := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/user/addRecord", map[string]any{"email": email, "date": "01-03-2024", "category": "food", "amount": "NaN"}},
		{http.MethodPost, "/api/user/setBudget", map[string]any{"email": email, "budget": "Inf"}},
		{http.MethodPut, "/api/user/updateBudget", map[string]any{"email": email, "budget": "-Infinity"}},
		{http.MethodDelete, "/api/user/deleteRecord/" + email + "/01-03-2024/food/NaN/x", nil},
	}
	for _, req := range requests {
		rr := do(t, srv, req.method, req.path, req.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s %s status=%d body=%s", req.method, req.path, rr.Code, rr.Body.String())
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/user/getRecords/"+email, nil)
	if rr.Code != http.StatusOK || len(decode[[]core.Record](t, rr)) != 0 {
		t.Fatalf("getRecords status=%d body=%q", rr.Code, rr.Body.String())
	}
	for _, path := range []string{"/api/user/dashboard/" + email, "/api/user/budgetStatus/" + email} {
		if rr := do(t, srv, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Errorf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestPaddedEmailResolvesOnEveryRoute(t *testing.T) {
	srv := newTestServer(t, Options{})
	const padded = " pad@example.com "

	if rr := do(t, srv, http.MethodPost, "/api/user/registerUser", map[string]any{"username": "pad", "email": padded, "password": "pw"}); rr.Code != http.StatusOK {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/api/user/loginUser", map[string]any{"email": "pad@example.com", "password": "pw"}); rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	do(t, srv, http.MethodPost, "/api/user/setBudget", map[string]any{"email": padded, "budget": 100})
	saved := decode[core.Record](t, do(t, srv, http.MethodPost, "/api/user/addRecord", map[string]any{
		"email": padded, "date": "01-03-2024", "category": "food", "amount": 10,
	}))

	for _, email := range []string{"pad@example.com", "%20pad@example.com%20"} {
		if got := decode[[]core.Record](t, do(t, srv, http.MethodGet, "/api/user/getRecords/"+email, nil)); len(got) != 1 {
			t.Errorf("getRecords/%s returned %d records", email, len(got))
		}
		if got := decode[core.Budget](t, do(t, srv, http.MethodGet, "/api/user/getBudget/"+email, nil)); got.Budget != 100 {
			t.Errorf("getBudget/%s = %+v", email, got)
		}
		if got := decode[summary.Dashboard](t, do(t, srv, http.MethodGet, "/api/user/dashboard/"+email, nil)); got.Total != 10 {
			t.Errorf("dashboard/%s total = %v", email, got.Total)
		}
	}

	rr := do(t, srv, http.MethodDelete, "/api/user/records/%20pad@example.com/"+saved.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUpdateAndDeleteRecordByID(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"

	saved := decode[core.Record](t, do(t, srv, http.MethodPost, "/api/user/addRecord", map[string]any{
		"email": email, "date": "01-03-2024", "category": "food", "amount": 10,
	}))

	rr := do(t, srv, http.MethodPut, "/api/user/updateRecord/"+saved.ID, map[string]any{
		"email": email, "date": "02-03-2024", "category": "grocery", "amount": 42, "notes": "market",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	updated := decode[core.Record](t, rr)
	if updated.ID != saved.ID || updated.Category != "grocery" || updated.Amount != 42 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	rr = do(t, srv, http.MethodPut, "/api/user/updateRecord/missing", map[string]any{
		"email": email, "date": "02-03-2024", "category": "grocery", "amount": 42,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("update of unknown id status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/user/records/"+email+"/"+saved.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/user/records/"+email+"/"+saved.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
}

func TestDashboardAndFilteredRecords(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"
	for _, rec := range []map[string]any{
		{"email": email, "date": "15-03-2024", "category": "food", "amount": 100},
		{"email": email, "date": "01-01-2024", "category": "food", "amount": 50},
		{"email": email, "date": "20-03-2024", "category": "grocery", "amount": 600},
	} {
		if rr := do(t, srv, http.MethodPost, "/api/user/addRecord", rec); rr.Code != http.StatusOK {
			t.Fatalf("addRecord status=%d", rr.Code)
		}
	}

	d := decode[summary.Dashboard](t, do(t, srv, http.MethodGet,
		"/api/user/dashboard/"+email+"?filterType=month&filterValue=03-2024", nil))
	if d.Total != 700 || len(d.Records) != 2 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if len(d.Trend) != 2 || d.Trend[0].Date != "15-03-2024" {
		t.Errorf("trend not chronological: %+v", d.Trend)
	}

	all := decode[summary.Dashboard](t, do(t, srv, http.MethodGet, "/api/user/dashboard/"+email, nil))
	if all.Total != 750 || len(all.Recent) != 3 {
		t.Errorf("unfiltered dashboard %+v", all)
	}

	filtered := decode[[]core.Record](t, do(t, srv, http.MethodGet, "/api/user/records/"+email+"?category=food&sort=asc", nil))
	if len(filtered) != 2 || filtered[0].Date != "01-01-2024" {
		t.Errorf("unexpected filtered records %+v", filtered)
	}

	expensive := decode[[]core.Record](t, do(t, srv, http.MethodGet, "/api/user/records/"+email+"?price=3", nil))
	if len(expensive) != 1 || expensive[0].Amount != 600 {
		t.Errorf("unexpected price filter result %+v", expensive)
	}

	for _, path := range []string{
		"/api/user/records/" + email + "?price=9",
		"/api/user/records/" + email + "?category=rent",
		"/api/user/dashboard/" + email + "?filterType=week&filterValue=1",
	} {
		if rr := do(t, srv, http.MethodGet, path, nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s status=%d, want 400", path, rr.Code)
		}
	}
}

func TestDashboardReflectsNewRecords(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"
	add := func(amount float64) {
		do(t, srv, http.MethodPost, "/api/user/addRecord", map[string]any{
			"email": email, "date": "01-03-2024", "category": "food", "amount": amount,
		})
	}

	add(10)
	first := decode[summary.Dashboard](t, do(t, srv, http.MethodGet, "/api/user/dashboard/"+email, nil))
	add(5)
	second := decode[summary.Dashboard](t, do(t, srv, http.MethodGet, "/api/user/dashboard/"+email, nil))

	if first.Total != 10 || second.Total != 15 {
		t.Errorf("totals = %v then %v, want 10 then 15", first.Total, second.Total)
	}
}

func TestBudgetStatus(t *testing.T) {
	srv := newTestServer(t, Options{})
	const email = "ana@example.com"
	today := core.FormatDate(time.Now())

	do(t, srv, http.MethodPost, "/api/user/setBudget", map[string]any{"email": email, "budget": 100})
	do(t, srv, http.MethodPost, "/api/user/addRecord", map[string]any{
		"email": email, "date": today, "category": "food", "amount": 80,
	})

	rr := do(t, srv, http.MethodGet, "/api/user/budgetStatus/"+email, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	status := decode[summary.BudgetStatus](t, rr)
	if status.Spent != 80 || status.Remaining != 20 {
		t.Errorf("unexpected status %+v", status)
	}
	if status.Alert == nil || status.Alert.Level != summary.AlertOver75 {
		t.Errorf("expected over_75 alert, got %+v", status.Alert)
	}
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, Options{})
	cats := decode[[]string](t, do(t, srv, http.MethodGet, "/api/user/categories", nil))
	if len(cats) != 7 || cats[0] != "food" {
		t.Errorf("unexpected categories %v", cats)
	}
}

func TestMiddlewareHeadersAndMetrics(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/user/categories", nil)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	rr = do(t, srv, http.MethodGet, "/metrics", nil)
	body := rr.Body.String()
	for _, want := range []string{"http_requests_total 1", "dashboard_cache_hits_total", "rate_limit_hits_total 0"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/user/categories", nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodGet, "/api/user/categories", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	if rr := do(t, srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Errorf("health checks are not rate limited, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Options{AllowedOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/user/addRecord", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	srv := newTestServer(t, Options{})
	srv.records = nil

	rr := do(t, srv, http.MethodGet, "/api/user/getRecords/ana@example.com", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status=%d, want 500", rr.Code)
	}
}
