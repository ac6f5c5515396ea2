package haptic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/influxdb"
)

func ptr[T any](v T) *T { return &v }

func trackpad() config.SimulatedDevice {
	return config.SimulatedDevice{
		Name:               "Magic Trackpad",
		Product:            ptr("Magic Trackpad 2"),
		ActuationSupported: ptr(true),
		BuiltIn:            ptr(false),
		MultitouchID:       ptr("144115188092132096"),
	}
}

func simulatedConfig(devices ...config.SimulatedDevice) config.HapticsConfig {
	return config.HapticsConfig{
		Backend:     config.BackendSimulated,
		DeviceClass: actuator.DefaultDeviceClass,
		MaxRetries:  actuator.DefaultMaxRetries,
		Simulated:   config.SimulatedConfig{Devices: devices},
	}
}

type mockRecorder struct {
	mu     sync.Mutex
	events []history.Event
	err    error
}

func (m *mockRecorder) Record(_ context.Context, e *history.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return m.err
}

type mockMetrics struct {
	mu      sync.Mutex
	metrics []influxdb.ActuationMetric
}

func (m *mockMetrics) WriteActuationMetric(metric influxdb.ActuationMetric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = append(m.metrics, metric)
}

type fixture struct {
	ctrl    *Controller
	backend *Backend
	history *mockRecorder
	metrics *mockMetrics
}

func newFixture(t *testing.T, cfg config.HapticsConfig) *fixture {
	t.Helper()
	backend, err := OpenBackend(cfg)
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	f := &fixture{backend: backend, history: &mockRecorder{}, metrics: &mockMetrics{}}
	f.ctrl = NewController(backend.NewSession(cfg, nil), Options{History: f.history, Metrics: f.metrics})
	return f
}

func TestActuateSuccess(t *testing.T) {
	f := newFixture(t, simulatedConfig(trackpad()))
	defer f.ctrl.Close()

	cmd := Command{Pattern: actuator.PatternStrong, Flags: 0, Param1: 0.5, Param2: 1, Source: SourceAPI}
	res, err := f.ctrl.Actuate(testContext(t), cmd)
	if err != nil {
		t.Fatalf("Actuate() error = %v", err)
	}
	if !res.Success || res.Attempts != 1 {
		t.Errorf("result = %+v, want one successful attempt", res)
	}
	if res.DeviceID != "144115188092132096" {
		t.Errorf("DeviceID = %q", res.DeviceID)
	}
	if res.ID == "" {
		t.Error("result has no id")
	}
	if got := f.backend.Simulated.Counters().LastInput; got != cmd.Request() {
		t.Errorf("service received %+v, want %+v", got, cmd.Request())
	}

	if len(f.history.events) != 1 {
		t.Fatalf("history events = %d, want 1", len(f.history.events))
	}
	ev := f.history.events[0]
	if ev.ID != res.ID || ev.Source != SourceAPI || ev.Pattern != 6 || !ev.Success || ev.Error != "" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Param1 != 0.5 || ev.Param2 != 1 {
		t.Errorf("event params = %v, %v", ev.Param1, ev.Param2)
	}

	if len(f.metrics.metrics) != 1 || !f.metrics.metrics[0].Success || f.metrics.metrics[0].Source != SourceAPI {
		t.Errorf("metrics = %+v", f.metrics.metrics)
	}
}

func TestActuateReusesHandle(t *testing.T) {
	f := newFixture(t, simulatedConfig(trackpad()))
	defer f.ctrl.Close()

	for i := 0; i < 3; i++ {
		if _, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternWeak}); err != nil {
			t.Fatalf("Actuate() error = %v", err)
		}
	}

	c := f.backend.Simulated.Counters()
	if c.Creates != 1 || c.Opens != 1 || c.Actuates != 3 {
		t.Errorf("counters = %+v, want one create/open and three actuations", c)
	}
	if s := f.ctrl.Status(); s.Discoveries != 1 || s.Attempts != 3 || s.State != "open" || !s.ServiceOpen {
		t.Errorf("status = %+v", s)
	}
}

func TestActuateRetriesOnce(t *testing.T) {
	cfg := simulatedConfig(trackpad())
	cfg.Simulated.FailActuations = 1
	f := newFixture(t, cfg)
	defer f.ctrl.Close()

	res, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternMedium})
	if err != nil {
		t.Fatalf("Actuate() error = %v", err)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if c := f.backend.Simulated.Counters(); c.Closes != 1 || c.Opens != 2 {
		t.Errorf("counters = %+v, want one close and a reopen", c)
	}
	if s := f.ctrl.Status(); s.Retries != 1 || s.Failures != 0 {
		t.Errorf("status = %+v", s)
	}
}

func TestActuateFailsAfterRetries(t *testing.T) {
	cfg := simulatedConfig(trackpad())
	cfg.Simulated.FailActuations = 10
	f := newFixture(t, cfg)
	defer f.ctrl.Close()

	res, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternMedium, Source: SourceMQTT})

	var actErr *actuator.ActuationError
	if !errors.As(err, &actErr) {
		t.Fatalf("error = %v, want *ActuationError", err)
	}
	if actuator.IsFatal(err) {
		t.Error("actuation failure reported as fatal")
	}
	if res.Success || res.Attempts != 2 || res.Status != actuator.StatusNotReady.String() {
		t.Errorf("result = %+v", res)
	}
	if len(f.history.events) != 1 || f.history.events[0].Error == "" || f.history.events[0].Success {
		t.Errorf("history = %+v", f.history.events)
	}
}

func TestActuateNoDevice(t *testing.T) {
	f := newFixture(t, simulatedConfig())
	defer f.ctrl.Close()

	res, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternWeak})
	var discErr *actuator.DiscoveryError
	if !errors.As(err, &discErr) {
		t.Fatalf("error = %v, want *DiscoveryError", err)
	}
	if res.Attempts != 0 || res.DeviceID != "" || res.Status != "" {
		t.Errorf("result = %+v", res)
	}
	if s := f.ctrl.Status(); s.State != "closed" {
		t.Errorf("State = %q, want closed", s.State)
	}
}

func TestActuateCloseFailureIsFatal(t *testing.T) {
	cfg := simulatedConfig(trackpad())
	cfg.Simulated.FailActuations = 1
	cfg.Simulated.FailClose = true
	f := newFixture(t, cfg)

	_, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternStrong})
	if !actuator.IsFatal(err) {
		t.Fatalf("error = %v, want fatal close error", err)
	}

	s := f.ctrl.Status()
	if s.State != "faulted" || s.Fault == "" {
		t.Errorf("status = %+v, want faulted with fault text", s)
	}

	_, err = f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternStrong})
	if !errors.Is(err, actuator.ErrSessionFaulted) {
		t.Errorf("second Actuate() error = %v, want ErrSessionFaulted", err)
	}

	if err := f.ctrl.Close(); !actuator.IsFatal(err) {
		t.Errorf("Close() error = %v, want fatal", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, simulatedConfig(trackpad()))

	if _, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternWeak}); err != nil {
		t.Fatalf("Actuate() error = %v", err)
	}
	if err := f.ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.ctrl.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if c := f.backend.Simulated.Counters(); c.Closes != 1 || c.OpenRefs != 0 {
		t.Errorf("counters = %+v, want exactly one close", c)
	}

	if _, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternWeak}); !errors.Is(err, ErrControllerClosed) {
		t.Errorf("Actuate() after Close error = %v, want ErrControllerClosed", err)
	}
	if !f.ctrl.Status().Closed {
		t.Error("Status().Closed = false")
	}
}

func TestActuateCancelledContext(t *testing.T) {
	f := newFixture(t, simulatedConfig(trackpad()))
	defer f.ctrl.Close()

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	if _, err := f.ctrl.Actuate(ctx, Command{Pattern: actuator.PatternWeak}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if c := f.backend.Simulated.Counters(); c.Actuates != 0 {
		t.Errorf("actuations = %d, want 0", c.Actuates)
	}
}

func TestHistoryFailureDoesNotFailActuation(t *testing.T) {
	f := newFixture(t, simulatedConfig(trackpad()))
	defer f.ctrl.Close()
	f.history.err = errors.New("disk full")

	if _, err := f.ctrl.Actuate(testContext(t), Command{Pattern: actuator.PatternWeak}); err != nil {
		t.Errorf("Actuate() error = %v", err)
	}
}

func TestActuateConcurrent(t *testing.T) {
	f := newFixture(t, simulatedConfig(trackpad()))
	defer f.ctrl.Close()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ctrl.Actuate(context.Background(), Command{Pattern: actuator.PatternWeak}); err != nil {
				t.Errorf("Actuate() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if c := f.backend.Simulated.Counters(); c.Opens != 1 || c.Actuates != n {
		t.Errorf("counters = %+v, want one open and %d actuations", c, n)
	}
}
