package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nihss-scoring-service/internal/app"
	"nihss-scoring-service/internal/domain"
	"nihss-scoring-service/internal/infra/memory"
)

func TestRESTAssessmentLifecycle(t *testing.T) {
	router := NewRouter(newTestService(), RouterOptions{})

	rec := do(t, router, http.MethodPost, "/api/assessments/", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var started domain.Assessment
	decode(t, rec, &started)

	rec = do(t, router, http.MethodPost, "/api/assessments/"+started.ID+"/selections", `{"itemId":"1b","option":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var snap domain.Assessment
	decode(t, rec, &snap)
	if snap.Total != 2 {
		t.Fatalf("expected total 2, got %d", snap.Total)
	}

	rec = do(t, router, http.MethodPost, "/api/assessments/"+started.ID+"/selections", `{"itemId":"1a","code":"3"}`)
	decode(t, rec, &snap)
	if snap.Total != 36 || snap.Severity != "Severe Stroke" {
		t.Fatalf("expected coma total 36, got %+v", snap)
	}

	rec = do(t, router, http.MethodPost, "/api/assessments/"+started.ID+"/finalize", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on finalize, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/records/"+started.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected archived record, got %d", rec.Code)
	}
	var record domain.Record
	decode(t, rec, &record)
	if record.Total != 36 || !record.ComaActive {
		t.Fatalf("unexpected record %+v", record)
	}

	rec = do(t, router, http.MethodGet, "/api/assessments/"+started.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected finalized assessment to be gone, got %d", rec.Code)
	}
}

func TestRESTErrorStatuses(t *testing.T) {
	service := newTestService()
	router := NewRouter(service, RouterOptions{})

	rec := do(t, router, http.MethodPost, "/api/assessments/", "")
	var started domain.Assessment
	decode(t, rec, &started)
	base := "/api/assessments/" + started.ID

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"missing item", `{"option":1}`, http.StatusBadRequest},
		{"unknown item", `{"itemId":"13","option":0}`, http.StatusUnprocessableEntity},
		{"unknown option", `{"itemId":"1b","option":9}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		rec := do(t, router, http.MethodPost, base+"/selections", tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}

	do(t, router, http.MethodPost, base+"/selections", `{"itemId":"1a","option":3}`)
	rec = do(t, router, http.MethodPost, base+"/selections", `{"itemId":"4","option":0}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for locked item, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/assessments/nope/reset", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodDelete, base, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on discard, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/api/records/"+started.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected no record after discard, got %d", rec.Code)
	}
}

func TestRESTStoreFailureIsServerError(t *testing.T) {
	service := app.NewAssessmentService(unavailableSessions{}, memory.NewRecordRepository(memory.NewStaticRecordStore(), 0))
	router := NewRouter(service, RouterOptions{})

	rec := do(t, router, http.MethodGet, "/api/assessments/a-1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the session store is down, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/api/assessments/a-1/selections", `{"itemId":"1a","option":0}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on select, got %d", rec.Code)
	}
}

var errStoreDown = errors.New("session store unavailable")

type unavailableSessions struct{}

func (unavailableSessions) Create(context.Context, string) (*app.Session, error) {
	return nil, errStoreDown
}

func (unavailableSessions) Get(context.Context, string) (*app.Session, error) {
	return nil, errStoreDown
}

func (unavailableSessions) Save(context.Context, *app.Session) error {
	return errStoreDown
}

func (unavailableSessions) Delete(context.Context, string) {}

func TestScaleEndpoint(t *testing.T) {
	router := NewRouter(newTestService(), RouterOptions{})
	rec := do(t, router, http.MethodGet, "/api/scale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []struct {
		ID           string `json:"id"`
		ComaOverride *int   `json:"comaOverride"`
		Options      []struct {
			Code   string `json:"code"`
			Points int    `json:"points"`
		} `json:"options"`
	}
	decode(t, rec, &items)
	if len(items) != 15 {
		t.Fatalf("expected 15 items, got %d", len(items))
	}
	if items[0].ID != "1a" || items[0].ComaOverride != nil {
		t.Fatalf("expected 1a first without override, got %+v", items[0])
	}
	if items[6].ID != "5a" || items[6].ComaOverride == nil || *items[6].ComaOverride != 4 {
		t.Fatalf("expected 5a override 4, got %+v", items[6])
	}
	if last := items[6].Options[len(items[6].Options)-1]; last.Code != "UN" || last.Points != 0 {
		t.Fatalf("expected untestable option last, got %+v", last)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(newTestService(), RouterOptions{})
	rec := do(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
