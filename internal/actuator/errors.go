package actuator

import (
	"errors"
	"fmt"
)

// Domain errors for the actuator package.
//
// Typed errors below unwrap to one of these, so callers can branch with
// errors.Is():
//
//	if errors.Is(err, actuator.ErrNoEligibleDevice) {
//	    // no haptics-capable trackpad on this machine
//	}
var (
	// ErrNoMatchingDevices is returned when the registry has no device of
	// the requested class.
	ErrNoMatchingDevices = errors.New("actuator: no matching device class found")

	// ErrNoEligibleDevice is returned when devices of the class exist but
	// none has the properties needed to drive its actuator.
	ErrNoEligibleDevice = errors.New("actuator: no eligible haptics-capable device found")

	// ErrCreateFailed is returned when the actuation service cannot create
	// a reference from a device identifier.
	ErrCreateFailed = errors.New("actuator: failed to create handle from device id")

	// ErrOpenFailed is returned when opening a created reference fails.
	ErrOpenFailed = errors.New("actuator: failed to open handle")

	// ErrActuationFailed is returned when actuation still fails after the
	// configured retries.
	ErrActuationFailed = errors.New("actuator: actuation failed")

	// ErrCloseFailed is returned when closing a handle fails. It is fatal.
	ErrCloseFailed = errors.New("actuator: failed to close handle")

	// ErrSessionFaulted is returned by every operation on a session whose
	// handle could not be closed.
	ErrSessionFaulted = errors.New("actuator: session faulted")

	// ErrInvalidDeviceID is returned when a device identifier property
	// cannot be parsed.
	ErrInvalidDeviceID = errors.New("actuator: invalid device id")

	// ErrPropertiesUnreadable is returned by registries when a device's
	// property set cannot be read.
	ErrPropertiesUnreadable = errors.New("actuator: properties unreadable")

	// ErrUnsupportedPlatform is returned by backends that cannot run on the
	// current OS.
	ErrUnsupportedPlatform = errors.New("actuator: unsupported platform")
)

// DiscoveryError describes why no actuator could be found or created.
// Discovery errors are recoverable: retrying later may succeed.
type DiscoveryError struct {
	// DeviceClass is the registry class that was searched.
	DeviceClass string

	// Chosen is set when a candidate was selected and the failure happened
	// while creating its handle. DeviceID is only meaningful when set.
	Chosen   bool
	DeviceID uint64

	// Candidates is the number of devices examined.
	Candidates int

	Err error
}

func (e *DiscoveryError) Error() string {
	if e.Chosen {
		return fmt.Sprintf("discovery of %q (device %d): %v", e.DeviceClass, e.DeviceID, e.Err)
	}
	return fmt.Sprintf("discovery of %q (%d candidates): %v", e.DeviceClass, e.Candidates, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// OpenError is returned when the actuation service refuses to open a
// freshly created reference. It is recoverable.
type OpenError struct {
	DeviceID uint64
	Status   StatusCode
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%v: device %d: status %s", ErrOpenFailed, e.DeviceID, e.Status)
}

func (e *OpenError) Unwrap() error { return ErrOpenFailed }

// ActuationError is the final failure of an actuation, reported after the
// retry budget is spent. Status is the code of the last attempt.
type ActuationError struct {
	Handle   Handle
	Request  Request
	Status   StatusCode
	Attempts int
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("%v: %s %s after %d attempts: status %s",
		ErrActuationFailed, e.Handle, e.Request, e.Attempts, e.Status)
}

func (e *ActuationError) Unwrap() error { return ErrActuationFailed }

// CloseError means a handle could not be closed. The driver is in an
// unknown state; callers should treat it as unrecoverable.
type CloseError struct {
	Handle Handle
	Status StatusCode
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("%v: %s: status %s", ErrCloseFailed, e.Handle, e.Status)
}

func (e *CloseError) Unwrap() error { return ErrCloseFailed }

// IsFatal reports whether err leaves the actuator in an unknown state.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCloseFailed) || errors.Is(err, ErrSessionFaulted)
}
