package haptic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/influxdb"
)

// Command sources recorded with every actuation.
const (
	SourceAPI  = "api"
	SourceMQTT = "mqtt"
	SourceCLI  = "cli"
)

// Command is one actuation request from an outer surface.
type Command struct {
	Pattern actuator.ActuationID
	Flags   uint32
	Param1  float32
	Param2  float32

	// Source is SourceAPI, SourceMQTT or SourceCLI.
	Source string
}

// Request converts the command to the session request. Values pass through
// unvalidated.
func (c Command) Request() actuator.Request {
	return actuator.Request{Pattern: c.Pattern, Flags: c.Flags, Param1: c.Param1, Param2: c.Param2}
}

// Result describes a completed Actuate call, successful or not.
type Result struct {
	ID       string        `json:"id"`
	DeviceID string        `json:"device_id,omitempty"`
	Pattern  int32         `json:"pattern"`
	Attempts int           `json:"attempts"`
	Success  bool          `json:"success"`
	Status   string        `json:"status,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Status is a snapshot of the controller's session.
type Status struct {
	State       string     `json:"state"`
	DeviceID    string     `json:"device_id,omitempty"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	ServiceOpen bool       `json:"service_open"`
	MaxRetries  int        `json:"max_retries"`
	Discoveries int        `json:"discoveries"`
	Attempts    int        `json:"attempts"`
	Retries     int        `json:"retries"`
	Failures    int        `json:"failures"`
	Fault       string     `json:"fault,omitempty"`
	Closed      bool       `json:"closed"`
}

// Recorder stores actuation events. *history.SQLiteRepository satisfies it.
type Recorder interface {
	Record(ctx context.Context, event *history.Event) error
}

// MetricsWriter receives one metric per actuation. *influxdb.Client
// satisfies it.
type MetricsWriter interface {
	WriteActuationMetric(m influxdb.ActuationMetric)
}

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds the optional collaborators of a Controller.
type Options struct {
	// History records every actuation. Optional.
	History Recorder

	// Metrics receives one point per actuation. Optional.
	Metrics MetricsWriter

	Logger Logger
}

// Controller serialises access to a single actuator session.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Actuations run one at a time.
type Controller struct {
	mu      sync.Mutex
	session *actuator.Session
	history Recorder
	metrics MetricsWriter
	logger  Logger

	fault    error
	closed   bool
	closeErr error
}

// NewController takes ownership of session. The caller must Close the
// controller on every exit path.
func NewController(session *actuator.Session, opts Options) *Controller {
	c := &Controller{
		session: session,
		history: opts.History,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	return c
}

// Actuate performs cmd on the trackpad, opening it on first use.
//
// The Result is filled in even when an error is returned, so callers can
// report the attempt count and status of a failed actuation.
//
// Returns:
//   - Result: Event id, device, attempts, last status and duration
//   - error: ErrControllerClosed, ctx.Err(), or an actuator error
//     (*DiscoveryError, *OpenError, *ActuationError, *CloseError or
//     ErrSessionFaulted)
func (c *Controller) Actuate(ctx context.Context, cmd Command) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{ID: uuid.NewString(), Pattern: int32(cmd.Pattern)}
	if c.closed {
		return res, ErrControllerClosed
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("actuate: %w", err)
	}

	before := c.session.Stats()
	start := time.Now()
	err := c.session.Actuate(cmd.Request())
	res.Duration = time.Since(start)
	res.Attempts = c.session.Stats().Attempts - before.Attempts
	res.Success = err == nil
	res.Status = statusOf(err)
	res.DeviceID = c.deviceIDOf(err)

	if actuator.IsFatal(err) && c.fault == nil {
		c.fault = err
	}

	c.logResult(cmd, res, err)
	c.record(ctx, cmd, res, err)
	return res, err
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.session.Stats()
	s := Status{
		State:       c.session.State().String(),
		ServiceOpen: c.session.ServiceOpen(),
		MaxRetries:  c.session.MaxRetries(),
		Discoveries: st.Discoveries,
		Attempts:    st.Attempts,
		Retries:     st.Retries,
		Failures:    st.Failures,
		Closed:      c.closed,
	}
	if h, ok := c.session.Handle(); ok {
		s.DeviceID = formatDeviceID(h.DeviceID())
		openedAt := h.OpenedAt()
		s.OpenedAt = &openedAt
	}
	if c.fault != nil {
		s.Fault = c.fault.Error()
	}
	return s
}

// Close closes the session. Later calls return the first result. A non-nil
// error is fatal (see actuator.IsFatal).
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.closeErr
	}
	c.closed = true

	if err := c.session.Close(); err != nil {
		c.closeErr = err
		if c.fault == nil {
			c.fault = err
		}
		c.logger.Error("actuator session close failed", "error", err)
		return err
	}
	c.logger.Debug("actuator session closed")
	return nil
}

func (c *Controller) deviceIDOf(err error) string {
	if h, ok := c.session.Handle(); ok {
		return formatDeviceID(h.DeviceID())
	}

	var actErr *actuator.ActuationError
	var openErr *actuator.OpenError
	var closeErr *actuator.CloseError
	var discErr *actuator.DiscoveryError
	switch {
	case errors.As(err, &actErr):
		return formatDeviceID(actErr.Handle.DeviceID())
	case errors.As(err, &openErr):
		return formatDeviceID(openErr.DeviceID)
	case errors.As(err, &closeErr):
		return formatDeviceID(closeErr.Handle.DeviceID())
	case errors.As(err, &discErr) && discErr.Chosen:
		return formatDeviceID(discErr.DeviceID)
	}
	return ""
}

func (c *Controller) logResult(cmd Command, res Result, err error) {
	args := []any{
		"event_id", res.ID,
		"source", cmd.Source,
		"pattern", actuator.PatternName(cmd.Pattern),
		"attempts", res.Attempts,
		"duration", res.Duration,
	}
	switch {
	case err == nil:
		c.logger.Debug("actuation complete", args...)
	case actuator.IsFatal(err):
		c.logger.Error("actuation hit unrecoverable actuator state", append(args, "error", err)...)
	default:
		c.logger.Warn("actuation failed", append(args, "error", err)...)
	}
}

// record writes the history event and metric. The request context may be
// cancelled once the actuation is done; the event is still stored.
func (c *Controller) record(ctx context.Context, cmd Command, res Result, err error) {
	if c.history != nil {
		event := &history.Event{
			ID:       res.ID,
			Source:   cmd.Source,
			Pattern:  int32(cmd.Pattern),
			Flags:    cmd.Flags,
			Param1:   cmd.Param1,
			Param2:   cmd.Param2,
			DeviceID: res.DeviceID,
			Attempts: res.Attempts,
			Success:  res.Success,
			Status:   res.Status,
			Duration: res.Duration,
		}
		if err != nil {
			event.Error = err.Error()
		}
		if recErr := c.history.Record(context.WithoutCancel(ctx), event); recErr != nil {
			c.logger.Warn("recording actuation history failed", "event_id", res.ID, "error", recErr)
		}
	}

	if c.metrics != nil {
		c.metrics.WriteActuationMetric(influxdb.ActuationMetric{
			DeviceID: res.DeviceID,
			Source:   cmd.Source,
			Pattern:  int32(cmd.Pattern),
			Attempts: res.Attempts,
			Duration: res.Duration,
			Success:  res.Success,
		})
	}
}

// statusOf returns the driver status behind err, or "" when err did not
// come from the driver.
func statusOf(err error) string {
	if err == nil {
		return actuator.StatusSuccess.String()
	}

	var actErr *actuator.ActuationError
	var openErr *actuator.OpenError
	var closeErr *actuator.CloseError
	switch {
	case errors.As(err, &actErr):
		return actErr.Status.String()
	case errors.As(err, &openErr):
		return openErr.Status.String()
	case errors.As(err, &closeErr):
		return closeErr.Status.String()
	}
	return ""
}

func formatDeviceID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
