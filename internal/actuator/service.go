package actuator

// DeviceRegistry is the OS device registry.
type DeviceRegistry interface {
	// MatchingServices returns the devices registered under className.
	// It returns an error wrapping ErrNoMatchingDevices when there are none.
	MatchingServices(className string) (ServiceIterator, error)

	// Properties reads the property set of one device. Failures should wrap
	// ErrPropertiesUnreadable.
	Properties(svc ServiceRef) (Properties, error)
}

// ServiceIterator yields devices in enumeration order. It is finite and
// cannot be restarted; every discovery asks the registry for a new one.
type ServiceIterator interface {
	// Next returns the next device, or false when exhausted.
	Next() (ServiceRef, bool)

	// Close releases the iterator and any device it still holds.
	Close() error
}

// ActuationService is the low-level actuation primitive.
type ActuationService interface {
	// Create makes a reference for the actuator of deviceID.
	Create(deviceID uint64) (DeviceRef, error)

	Open(ref DeviceRef) StatusCode
	Close(ref DeviceRef) StatusCode
	Actuate(ref DeviceRef, pattern ActuationID, flags uint32, param1, param2 float32) StatusCode

	// IsOpen is informational; the session never relies on it.
	IsOpen(ref DeviceRef) bool
}

// Releaser is implemented by actuation services whose references must be
// freed when an open fails and Close will therefore never be called.
type Releaser interface {
	Release(ref DeviceRef)
}

// Logger defines the logging interface used by the actuator package.
// Compatible with logging.Logger and slog.Logger.
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
