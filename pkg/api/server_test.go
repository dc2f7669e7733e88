package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/internal/testutil"
	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
	"github.com/trahulprabhu38/prometheus-prod/pkg/store"
)

func newTestServer(t *testing.T, st store.Store, sink observability.Sink, opts ...ServerOption) *Server {
	t.Helper()
	s, err := New(st, sink, severity.New(), opts...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestNewValidation(t *testing.T) {
	if _, err := New(store.NewMemory(10), nil, severity.New()); err == nil {
		t.Fatal("expected error for nil sink")
	}
	if _, err := New(store.NewMemory(10), testutil.NewCaptureSink(), nil); err == nil {
		t.Fatal("expected error for nil classifier")
	}
	if _, err := New(nil, testutil.NewCaptureSink(), severity.New()); err != nil {
		t.Fatalf("nil store must be allowed for degraded operation: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	sink := testutil.NewCaptureSink()
	s := newTestServer(t, store.NewMemory(10), sink)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	for _, key := range []string{"uptimeSeconds", "memoryBytes", "pid"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing %s in payload: %+v", key, payload)
		}
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Type != "health" || events[0].Level != observability.LevelInfo {
		t.Fatalf("unexpected health event: %+v", events)
	}
}

func TestLogsGetWithoutStore(t *testing.T) {
	s := newTestServer(t, nil, testutil.NewCaptureSink())

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a store, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"message":"x"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a store on ingest, got %d", rec.Code)
	}
}

func TestLogsGetFilters(t *testing.T) {
	st := store.NewMemory(100)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	seed := []observability.Event{
		{Timestamp: base, Level: observability.LevelInfo, Message: "a", Type: "http"},
		{Timestamp: base.Add(time.Hour), Level: observability.LevelError, Message: "b", Type: "http"},
		{Timestamp: base.Add(2 * time.Hour), Level: observability.LevelInfo, Message: "c", Type: "database"},
	}
	for _, event := range seed {
		if err := st.Create(context.Background(), event); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	s := newTestServer(t, st, testutil.NewCaptureSink())

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?level=info&type=http", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	if payload["count"] != float64(1) {
		t.Fatalf("expected 1 matching record, got %+v", payload)
	}

	rec = httptest.NewRecorder()
	since := base.Add(30 * time.Minute).Format(time.RFC3339)
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?since="+since, nil))
	if payload := decodeBody(t, rec); payload["count"] != float64(2) {
		t.Fatalf("expected 2 records after cutoff, got %+v", payload)
	}

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?limit=1", nil))
	if payload := decodeBody(t, rec); payload["count"] != float64(1) {
		t.Fatalf("expected limit to cap results, got %+v", payload)
	}
}

func TestLogsGetRejectsBadParams(t *testing.T) {
	s := newTestServer(t, store.NewMemory(10), testutil.NewCaptureSink())

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?since=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed since, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?limit=many", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed limit, got %d", rec.Code)
	}
}

func TestLogsPostIngestsRecord(t *testing.T) {
	st := store.NewMemory(10)
	s := newTestServer(t, st, testutil.NewCaptureSink())

	body := `{"message":"deploy finished","level":"warn","type":"deploy","service":"api","attempt":2,"canary":true}`
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	records, err := st.Query(context.Background(), store.Query{})
	if err != nil {
		t.Fatalf("query store: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records))
	}
	record := records[0]
	if record.Message != "deploy finished" || record.Level != observability.LevelWarn || record.Type != "deploy" {
		t.Fatalf("unexpected stored record: %+v", record)
	}
	if record.Attributes["service"] != "api" {
		t.Fatalf("expected extra fields as attributes: %+v", record.Attributes)
	}
	if record.Attributes["attempt"] != float64(2) {
		t.Fatalf("expected numeric attribute: %+v", record.Attributes)
	}
	if record.Attributes["canary"] != true {
		t.Fatalf("expected boolean attribute: %+v", record.Attributes)
	}
}

func TestLogsPostDefaults(t *testing.T) {
	st := store.NewMemory(10)
	s := newTestServer(t, st, testutil.NewCaptureSink())

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"message":"bare"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	records, err := st.Query(context.Background(), store.Query{})
	if err != nil {
		t.Fatalf("query store: %v", err)
	}
	if records[0].Level != observability.LevelInfo || records[0].Type != "ingested" {
		t.Fatalf("expected info/ingested defaults, got %+v", records[0])
	}
}

func TestLogsPostRejectsBadPayloads(t *testing.T) {
	s := newTestServer(t, store.NewMemory(10), testutil.NewCaptureSink())

	for name, body := range map[string]string{
		"invalid JSON":    `{"message":`,
		"missing message": `{"level":"info"}`,
		"non-object":      `[1, 2, 3]`,
	} {
		rec := httptest.NewRecorder()
		s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestSimulateError(t *testing.T) {
	sink := testutil.NewCaptureSink()
	s := newTestServer(t, nil, sink)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/error", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["errorCode"] != "ERR_SIM_500" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Level != observability.LevelError || event.Type != "app-error" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Attributes["errorCode"] != "ERR_SIM_500" || event.Attributes["simulated"] != true {
		t.Fatalf("unexpected attributes: %+v", event.Attributes)
	}
}

func TestSimulateWarning(t *testing.T) {
	sink := testutil.NewCaptureSink()
	s := newTestServer(t, nil, sink, WithSeed(11))

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/warning", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	usage, ok := payload["memoryUsagePercent"].(float64)
	if !ok || usage < 85 || usage > 95 {
		t.Fatalf("expected usage in [85, 95], got %+v", payload)
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Level != observability.LevelWarn || events[0].Type != "performance" {
		t.Fatalf("unexpected event: %+v", events)
	}
}

func TestSimulateAuthFail(t *testing.T) {
	sink := testutil.NewCaptureSink()
	s := newTestServer(t, nil, sink)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/auth-fail", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Level != observability.LevelWarn || event.Type != "security" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Attributes["event"] != "failed-login" || event.Attributes["reason"] != "invalid-credentials" {
		t.Fatalf("unexpected attributes: %+v", event.Attributes)
	}
}

func TestSimulateSlow(t *testing.T) {
	sink := testutil.NewCaptureSink()
	var slept time.Duration
	s := newTestServer(t, nil, sink,
		WithSleepFunc(func(d time.Duration) { slept = d }),
		WithDelayFunc(func(*rand.Rand) time.Duration { return 3500 * time.Millisecond }),
	)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/slow", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if slept != 3500*time.Millisecond {
		t.Fatalf("expected the drawn delay to be slept, got %v", slept)
	}
	payload := decodeBody(t, rec)
	if payload["status"] != "completed" || payload["durationMs"] != float64(3500) {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Level != observability.LevelWarn || event.Type != "performance" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Attributes["exceededThreshold"] != true {
		t.Fatalf("3500ms should exceed the threshold: %+v", event.Attributes)
	}
	if event.Attributes["durationMs"] != int64(3500) {
		t.Fatalf("unexpected durationMs: %+v", event.Attributes)
	}
}

func TestSimulateSlowUnderThreshold(t *testing.T) {
	sink := testutil.NewCaptureSink()
	s := newTestServer(t, nil, sink,
		WithSleepFunc(func(time.Duration) {}),
		WithDelayFunc(func(*rand.Rand) time.Duration { return 1200 * time.Millisecond }),
	)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/slow", nil))

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Attributes["exceededThreshold"] != false {
		t.Fatalf("1200ms must not exceed the threshold: %+v", events[0].Attributes)
	}
}

func TestDefaultDelayWithinBounds(t *testing.T) {
	s := newTestServer(t, nil, testutil.NewCaptureSink(), WithSeed(4))
	for i := 0; i < 200; i++ {
		d := s.drawDelay()
		if d < SlowMinDelay || d > SlowMaxDelay {
			t.Fatalf("delay %v outside [%v, %v]", d, SlowMinDelay, SlowMaxDelay)
		}
	}
}

func TestRoutesRejectWrongMethods(t *testing.T) {
	s := newTestServer(t, store.NewMemory(10), testutil.NewCaptureSink())

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/logs", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/simulate/error", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
