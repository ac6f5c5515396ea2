package actuator

import (
	"fmt"
	"time"
)

// StatusCode is the result code of an ActuationService operation.
// StatusSuccess is the only success value; anything else is a failure.
type StatusCode int32

// StatusSuccess mirrors kIOReturnSuccess.
const StatusSuccess StatusCode = 0

// Common IOReturn values, used only to make diagnostics readable.
const (
	StatusError        StatusCode = -536870212 // 0xe00002bc kIOReturnError
	StatusNoMemory     StatusCode = -536870211 // 0xe00002bd kIOReturnNoMemory
	StatusNoResources  StatusCode = -536870210 // 0xe00002be kIOReturnNoResources
	StatusBadArgument  StatusCode = -536870206 // 0xe00002c2 kIOReturnBadArgument
	StatusNotOpen      StatusCode = -536870195 // 0xe00002cd kIOReturnNotOpen
	StatusNotReady     StatusCode = -536870184 // 0xe00002d8 kIOReturnNotReady
	StatusNotAttached  StatusCode = -536870183 // 0xe00002d9 kIOReturnNotAttached
	StatusOffline      StatusCode = -536870185 // 0xe00002d7 kIOReturnOffline
	StatusUnsupported  StatusCode = -536870201 // 0xe00002c7 kIOReturnUnsupported
	StatusExclusive    StatusCode = -536870203 // 0xe00002c5 kIOReturnExclusiveAccess
	StatusNoDevice     StatusCode = -536870208 // 0xe00002c0 kIOReturnNoDevice
	StatusNotPermitted StatusCode = -536870174 // 0xe00002e2 kIOReturnNotPermitted
)

var statusNames = map[StatusCode]string{
	StatusSuccess:      "kIOReturnSuccess",
	StatusError:        "kIOReturnError",
	StatusNoMemory:     "kIOReturnNoMemory",
	StatusNoResources:  "kIOReturnNoResources",
	StatusBadArgument:  "kIOReturnBadArgument",
	StatusNotOpen:      "kIOReturnNotOpen",
	StatusNotReady:     "kIOReturnNotReady",
	StatusNotAttached:  "kIOReturnNotAttached",
	StatusOffline:      "kIOReturnOffline",
	StatusUnsupported:  "kIOReturnUnsupported",
	StatusExclusive:    "kIOReturnExclusiveAccess",
	StatusNoDevice:     "kIOReturnNoDevice",
	StatusNotPermitted: "kIOReturnNotPermitted",
}

// OK reports whether the status is the success sentinel.
func (s StatusCode) OK() bool {
	return s == StatusSuccess
}

// String renders the code as hex, with the IOReturn name when it is known.
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return fmt.Sprintf("0x%08x (%s)", uint32(s), name)
	}
	return fmt.Sprintf("0x%08x", uint32(s))
}

// ServiceRef is an opaque reference to one registry-enumerated device.
type ServiceRef uint64

// DeviceRef is an opaque reference handed out by the ActuationService.
// It is only meaningful to the service that created it.
type DeviceRef uint64

// ActuationID selects one of the predefined haptic waveforms.
type ActuationID int32

// Predefined actuation patterns. Valid ids seen in MultitouchSupport are
// 1, 2, 3, 4, 5, 6, 15 and 16; the driver reports anything else as a failure.
const (
	PatternNone   ActuationID = 0
	PatternWeak   ActuationID = 3
	PatternMedium ActuationID = 4
	PatternStrong ActuationID = 6
)

// KnownPatterns lists the actuation ids known to be accepted by the driver.
var KnownPatterns = []ActuationID{1, 2, 3, 4, 5, 6, 15, 16}

// PatternName returns a short name for the named patterns, or "" otherwise.
func PatternName(id ActuationID) string {
	switch id {
	case PatternNone:
		return "none"
	case PatternWeak:
		return "weak"
	case PatternMedium:
		return "medium"
	case PatternStrong:
		return "strong"
	default:
		return ""
	}
}

// Request is one actuation: a pattern plus three tuning values that are
// passed through to the driver untouched. Their meaning is unknown; Flags
// behaves like a 32-bit bit field and zero values are always accepted.
type Request struct {
	Pattern ActuationID
	Flags   uint32
	Param1  float32
	Param2  float32
}

// NewRequest returns a request for pattern with all tuning values zeroed.
func NewRequest(pattern ActuationID) Request {
	return Request{Pattern: pattern}
}

// String implements fmt.Stringer.
func (r Request) String() string {
	return fmt.Sprintf("pattern=%d flags=0x%x param1=%g param2=%g", r.Pattern, r.Flags, r.Param1, r.Param2)
}

// Handle identifies an opened actuator. Handles are only created by a
// Session after a successful open and become invalid once it closes them;
// the zero Handle is never valid.
type Handle struct {
	ref      DeviceRef
	deviceID uint64
	openedAt time.Time
}

// Ref returns the service reference backing the handle.
func (h Handle) Ref() DeviceRef { return h.ref }

// DeviceID returns the multitouch device identifier the handle was created from.
func (h Handle) DeviceID() uint64 { return h.deviceID }

// OpenedAt returns when the handle was opened.
func (h Handle) OpenedAt() time.Time { return h.openedAt }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// String implements fmt.Stringer.
func (h Handle) String() string {
	if h.IsZero() {
		return "handle(none)"
	}
	return fmt.Sprintf("handle(ref=%#x device=%d)", uint64(h.ref), h.deviceID)
}

// State is the lifecycle state of a Session.
type State int

const (
	// StateClosed means no handle is held.
	StateClosed State = iota

	// StateOpen means a handle is held and believed valid.
	StateOpen

	// StateFaulted means closing a handle failed. The driver state is
	// unknown and the session refuses further work.
	StateFaulted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
