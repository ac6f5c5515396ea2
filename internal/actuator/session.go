package actuator

import (
	"fmt"
	"time"
)

// DefaultMaxRetries is how many close-reopen-retry cycles Actuate performs
// after the first attempt fails.
const DefaultMaxRetries = 1

// Options configures a Session.
type Options struct {
	// DeviceClass is the registry class searched during discovery.
	// Default: DefaultDeviceClass.
	DeviceClass string

	// MaxRetries is the number of times Actuate closes, rediscovers and
	// retries after a failed actuation. Zero disables retrying; negative
	// values are treated as zero.
	MaxRetries int

	// Logger receives diagnostics. Optional.
	Logger Logger

	// Now is the clock used to stamp handles. Optional; tests override it.
	Now func() time.Time
}

// DefaultOptions returns Options with the default class and retry budget.
func DefaultOptions() Options {
	return Options{
		DeviceClass: DefaultDeviceClass,
		MaxRetries:  DefaultMaxRetries,
	}
}

// Stats are cumulative counters for one Session.
type Stats struct {
	Discoveries int // successful discoveries (handles opened)
	Attempts    int // actuate calls issued to the service
	Retries     int // close-reopen-retry cycles
	Failures    int // Actuate calls that returned an ActuationError
}

// Session owns at most one open actuator handle.
//
// The handle is discovered lazily on first use, cached across calls and
// replaced when an actuation fails. If a handle is held it has been opened
// and not yet closed. A Session must be closed with Close when it is no
// longer needed.
//
// Thread Safety:
//   - A Session is not safe for concurrent use.
type Session struct {
	registry DeviceRegistry
	service  ActuationService
	class    string
	retries  int
	logger   Logger
	now      func() time.Time

	state  State
	handle Handle
	fault  error
	stats  Stats
}

// NewSession creates a closed session. No device is touched until the first
// OpenActuator or Actuate call.
//
// Parameters:
//   - registry: Device registry used for discovery
//   - service: Actuation service used for open/close/actuate
//   - opts: Session options (see DefaultOptions)
//
// Returns:
//   - *Session: Session in StateClosed
func NewSession(registry DeviceRegistry, service ActuationService, opts Options) *Session {
	s := &Session{
		registry: registry,
		service:  service,
		class:    opts.DeviceClass,
		retries:  opts.MaxRetries,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.class == "" {
		s.class = DefaultDeviceClass
	}
	if s.retries < 0 {
		s.retries = 0
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Handle returns the held handle and whether one is held.
func (s *Session) Handle() (Handle, bool) {
	return s.handle, s.state == StateOpen
}

// Stats returns the session counters.
func (s *Session) Stats() Stats { return s.stats }

// MaxRetries returns the configured retry budget.
func (s *Session) MaxRetries() int { return s.retries }

// ServiceOpen asks the actuation service whether the held handle is open.
// It is informational only and returns false when no handle is held.
func (s *Session) ServiceOpen() bool {
	if s.state != StateOpen {
		return false
	}
	return s.service.IsOpen(s.handle.ref)
}

// OpenActuator returns the cached handle, discovering and opening a device
// first if none is held. While the session is open repeated calls return
// the same handle without touching the registry.
//
// Returns:
//   - Handle: The open handle
//   - error: *DiscoveryError or *OpenError (session stays closed), or
//     ErrSessionFaulted
func (s *Session) OpenActuator() (Handle, error) {
	switch s.state {
	case StateOpen:
		return s.handle, nil
	case StateFaulted:
		return Handle{}, s.faultError()
	}

	h, err := s.discover()
	if err != nil {
		return Handle{}, err
	}

	s.handle = h
	s.state = StateOpen
	s.stats.Discoveries++
	return h, nil
}

// discover finds the device and opens an actuator for it.
func (s *Session) discover() (Handle, error) {
	desc, err := FindDevice(s.registry, s.class, s.logger)
	if err != nil {
		return Handle{}, err
	}

	ref, err := s.service.Create(desc.DeviceID)
	if err != nil {
		return Handle{}, &DiscoveryError{
			DeviceClass: s.class,
			Chosen:      true,
			DeviceID:    desc.DeviceID,
			Err:         fmt.Errorf("%w: %w", ErrCreateFailed, err),
		}
	}

	if status := s.service.Open(ref); !status.OK() {
		if r, ok := s.service.(Releaser); ok {
			r.Release(ref)
		}
		return Handle{}, &OpenError{DeviceID: desc.DeviceID, Status: status}
	}

	h := Handle{ref: ref, deviceID: desc.DeviceID, openedAt: s.now()}
	s.logger.Info("actuator opened", "handle", h.String(), "product", desc.ProductName)
	return h, nil
}

// CloseActuator closes the held handle. Closing a closed session is a
// no-op. If the service refuses to close, the session becomes faulted and
// a *CloseError is returned; the handle is not reused.
func (s *Session) CloseActuator() error {
	switch s.state {
	case StateClosed:
		return nil
	case StateFaulted:
		return s.faultError()
	}

	h := s.handle
	if status := s.service.Close(h.ref); !status.OK() {
		err := &CloseError{Handle: h, Status: status}
		s.state = StateFaulted
		s.handle = Handle{}
		s.fault = err
		s.logger.Error("actuator close failed", "handle", h.String(), "status", status.String())
		return err
	}

	s.handle = Handle{}
	s.state = StateClosed
	s.logger.Debug("actuator closed", "handle", h.String())
	return nil
}

// Actuate performs req on the actuator.
//
// A failed actuation is treated as a stale handle: the handle is closed, a
// fresh device is discovered and the actuation is issued again, up to
// MaxRetries times. A close failure during this cycle aborts immediately
// with the fatal *CloseError.
//
// Parameters:
//   - req: Pattern and tuning values, passed through unvalidated
//
// Returns:
//   - error: nil on success; *DiscoveryError, *OpenError, *CloseError or
//     *ActuationError otherwise
func (s *Session) Actuate(req Request) error {
	h, err := s.OpenActuator()
	if err != nil {
		return err
	}

	status := s.actuateOnce(h, req)
	if status.OK() {
		return nil
	}

	for retry := 1; retry <= s.retries; retry++ {
		s.logger.Warn("actuation failed with cached handle, reopening",
			"handle", h.String(),
			"request", req.String(),
			"status", status.String(),
			"retry", retry,
		)
		s.stats.Retries++

		if err := s.CloseActuator(); err != nil {
			return err
		}
		if h, err = s.OpenActuator(); err != nil {
			return err
		}

		status = s.actuateOnce(h, req)
		if status.OK() {
			return nil
		}
	}

	s.stats.Failures++
	return &ActuationError{
		Handle:   h,
		Request:  req,
		Status:   status,
		Attempts: s.retries + 1,
	}
}

// ActuatePattern actuates pattern with all tuning values zeroed.
func (s *Session) ActuatePattern(pattern ActuationID) error {
	return s.Actuate(NewRequest(pattern))
}

func (s *Session) actuateOnce(h Handle, req Request) StatusCode {
	s.stats.Attempts++
	return s.service.Actuate(h.ref, req.Pattern, req.Flags, req.Param1, req.Param2)
}

// Close releases the session. It must run on every exit path that created
// the session. A non-nil error means the actuator could not be released and
// is unrecoverable (see IsFatal).
func (s *Session) Close() error {
	return s.CloseActuator()
}

func (s *Session) faultError() error {
	return fmt.Errorf("%w: %w", ErrSessionFaulted, s.fault)
}
