package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-haptics/migrations"
)

func ptr[T any](v T) *T { return &v }

type testEnv struct {
	server  *Server
	http    *httptest.Server
	ctrl    *haptic.Controller
	backend *haptic.Backend
}

// newTestEnv wires a real controller over the simulated backend and an
// in-memory history database.
func newTestEnv(t *testing.T, sim config.SimulatedConfig, checks ...HealthCheck) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, config.APIConfig{Host: "127.0.0.1", Port: 0}, sim, checks...)
}

func newTestEnvWithConfig(t *testing.T, apiCfg config.APIConfig, sim config.SimulatedConfig, checks ...HealthCheck) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	repo := history.NewSQLiteRepository(db.DB)

	hcfg := config.HapticsConfig{
		Backend:     config.BackendSimulated,
		DeviceClass: actuator.DefaultDeviceClass,
		MaxRetries:  1,
		Simulated:   sim,
	}
	backend, err := haptic.OpenBackend(hcfg)
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	ctrl := haptic.NewController(backend.NewSession(hcfg, nil), haptic.Options{History: repo})
	t.Cleanup(func() { ctrl.Close() }) //nolint:errcheck // Test cleanup

	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	srv, err := New(Deps{
		Config:     apiCfg,
		Logger:     log,
		Controller: ctrl,
		History:    repo,
		Checks:     checks,
		DB:         db,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return &testEnv{server: srv, http: ts, ctrl: ctrl, backend: backend}
}

func trackpadConfig() config.SimulatedConfig {
	return config.SimulatedConfig{Devices: []config.SimulatedDevice{{
		Name:               "Magic Trackpad",
		Product:            ptr("Magic Trackpad 2"),
		ActuationSupported: ptr(true),
		BuiltIn:            ptr(false),
		MultitouchID:       ptr("144115188092132096"),
	}}}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.http.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

func decodeError(t *testing.T, data []byte) Error {
	t.Helper()
	var e Error
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decoding error body %s: %v", data, err)
	}
	return e
}

func TestNewRequiresDependencies(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{}, "test", io.Discard)
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() without controller should fail")
	}
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestActuateEndpoint(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	resp, data := env.do(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 6, "param1": 0.5}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var res haptic.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !res.Success || res.Attempts != 1 || res.Pattern != 6 || res.DeviceID != "144115188092132096" {
		t.Errorf("result = %+v", res)
	}
	if got := env.backend.Simulated.Counters().LastInput; got.Pattern != 6 || got.Param1 != 0.5 {
		t.Errorf("driver input = %+v", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestActuateValidation(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid json", `{"pattern":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"missing pattern", `{"flags": 1}`, http.StatusBadRequest, ErrCodeValidation},
		{"pattern wrong type", `{"pattern": "strong"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"too large", `{"pattern": 6, "pad": "` + strings.Repeat("x", maxRequestBodySize) + `"}`, http.StatusRequestEntityTooLarge, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.do(t, http.MethodPost, "/api/v1/haptics/actuate", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			if e := decodeError(t, data); e.Code != tt.wantCode || e.Status != tt.wantStatus {
				t.Errorf("error = %+v", e)
			}
		})
	}

	if c := env.backend.Simulated.Counters(); c.Actuates != 0 {
		t.Errorf("invalid requests reached the driver: %+v", c)
	}
}

func TestActuateErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		sim        config.SimulatedConfig
		wantStatus int
		wantCode   string
	}{
		{"no device", config.SimulatedConfig{}, http.StatusServiceUnavailable, ErrCodeDeviceNotFound},
		{"open refused", func() config.SimulatedConfig {
			c := trackpadConfig()
			c.FailOpen = true
			return c
		}(), http.StatusServiceUnavailable, ErrCodeDeviceBusy},
		{"actuation failed", func() config.SimulatedConfig {
			c := trackpadConfig()
			c.FailActuations = 5
			return c
		}(), http.StatusBadGateway, ErrCodeActuationFailed},
		{"close failed", func() config.SimulatedConfig {
			c := trackpadConfig()
			c.FailActuations = 1
			c.FailClose = true
			return c
		}(), http.StatusInternalServerError, ErrCodeActuatorFaulted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.sim)
			resp, data := env.do(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 4}`)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			if e := decodeError(t, data); e.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", e.Code, tt.wantCode)
			}
		})
	}
}

func TestActuatorErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{haptic.ErrControllerClosed, http.StatusServiceUnavailable},
		{fmt.Errorf("actuate: %w", context.Canceled), statusClientClosedRequest},
		{fmt.Errorf("%w: %w", actuator.ErrSessionFaulted, &actuator.CloseError{}), http.StatusInternalServerError},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := actuatorErrorStatus(tt.err); got != tt.wantStatus {
			t.Errorf("actuatorErrorStatus(%v) = %d, want %d", tt.err, got, tt.wantStatus)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	_, data := env.do(t, http.MethodGet, "/api/v1/haptics/status", "")
	var before haptic.Status
	if err := json.Unmarshal(data, &before); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if before.State != "closed" || before.ServiceOpen || before.MaxRetries != 1 {
		t.Errorf("status before actuation = %+v", before)
	}

	env.do(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 3}`)

	_, data = env.do(t, http.MethodGet, "/api/v1/haptics/status", "")
	var after haptic.Status
	if err := json.Unmarshal(data, &after); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if after.State != "open" || !after.ServiceOpen || after.DeviceID == "" || after.OpenedAt == nil {
		t.Errorf("status after actuation = %+v", after)
	}
}

func TestPatternsEndpoint(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	resp, data := env.do(t, http.MethodGet, "/api/v1/haptics/patterns", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var patterns PatternsResponse
	if err := json.Unmarshal(data, &patterns); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(patterns.Named) != 4 || patterns.Named[3] != (PatternInfo{ID: 6, Name: "strong"}) {
		t.Errorf("named = %+v", patterns.Named)
	}
	if len(patterns.Known) != len(actuator.KnownPatterns) {
		t.Errorf("known = %+v", patterns.Known)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	for _, p := range []int{3, 4, 6} {
		resp, data := env.do(t, http.MethodPost, "/api/v1/haptics/actuate", fmt.Sprintf(`{"pattern": %d}`, p))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("actuate status = %d (%s)", resp.StatusCode, data)
		}
	}

	_, data := env.do(t, http.MethodGet, "/api/v1/haptics/history?limit=2", "")
	var hist HistoryResponse
	if err := json.Unmarshal(data, &hist); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if hist.Count != 2 || hist.Limit != 2 {
		t.Fatalf("history = %+v", hist)
	}
	if hist.Events[0].Pattern != 6 || hist.Events[1].Pattern != 4 {
		t.Errorf("events not newest first: %d, %d", hist.Events[0].Pattern, hist.Events[1].Pattern)
	}
	if hist.Events[0].Source != haptic.SourceAPI {
		t.Errorf("source = %q", hist.Events[0].Source)
	}

	_, data = env.do(t, http.MethodGet, "/api/v1/haptics/history?limit=1000", "")
	if err := json.Unmarshal(data, &hist); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if hist.Limit != history.MaxLimit || hist.Count != 3 {
		t.Errorf("clamped history = limit %d count %d", hist.Limit, hist.Count)
	}

	for _, bad := range []string{"0", "-1", "ten"} {
		resp, _ := env.do(t, http.MethodGet, "/api/v1/haptics/history?limit="+bad, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", bad, resp.StatusCode)
		}
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())
	env.server.history = nil
	ts := httptest.NewServer(env.server.buildRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/haptics/history")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "mqtt", Check: func(context.Context) error { return errors.New("not connected") }}

	env := newTestEnv(t, trackpadConfig(), ok)
	resp, data := env.do(t, http.MethodGet, "/api/v1/health", "")
	var health HealthResponse
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "ok" || health.Components["database"] != "ok" {
		t.Errorf("healthy: status %d body %+v", resp.StatusCode, health)
	}
	if health.Components["actuator"] != "closed" {
		t.Errorf("actuator component = %q", health.Components["actuator"])
	}

	env = newTestEnv(t, trackpadConfig(), ok, down)
	resp, data = env.do(t, http.MethodGet, "/api/v1/health", "")
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable || health.Status != "degraded" || health.Components["mqtt"] != "not connected" {
		t.Errorf("degraded: status %d body %+v", resp.StatusCode, health)
	}
}

func TestHealthReportsFaultedActuator(t *testing.T) {
	sim := trackpadConfig()
	sim.FailActuations = 1
	sim.FailClose = true
	env := newTestEnv(t, sim)

	env.do(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 6}`)

	resp, data := env.do(t, http.MethodGet, "/api/v1/health", "")
	if resp.StatusCode != http.StatusServiceUnavailable || !bytes.Contains(data, []byte("failed to close handle")) {
		t.Errorf("status %d body %s", resp.StatusCode, data)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())
	env.do(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 6}`)

	_, data := env.do(t, http.MethodGet, "/api/v1/metrics", "")
	var metrics SystemMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if metrics.Version != "test" || metrics.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", metrics)
	}
	if metrics.Haptics.Attempts != 1 || metrics.Database == nil {
		t.Errorf("haptics = %+v database = %+v", metrics.Haptics, metrics.Database)
	}
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	resp, data := env.do(t, http.MethodGet, "/api/v1/nope", "")
	if resp.StatusCode != http.StatusNotFound || decodeError(t, data).Code != ErrCodeNotFound {
		t.Errorf("404: status %d body %s", resp.StatusCode, data)
	}
	resp, data = env.do(t, http.MethodGet, "/api/v1/haptics/actuate", "")
	if resp.StatusCode != http.StatusMethodNotAllowed || decodeError(t, data).Code != ErrCodeMethodNotAllow {
		t.Errorf("405: status %d body %s", resp.StatusCode, data)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())
	h := env.server.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/api/v1/haptics/patterns", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestServerStartClose(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())
	srv := env.server

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/api/v1/haptics/patterns")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
