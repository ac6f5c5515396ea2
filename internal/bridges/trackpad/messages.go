package trackpad

import (
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/mqtt"
)

// CommandActuate is the only command the bridge accepts.
const CommandActuate = "actuate"

// CommandMessage is sent from Core to the bridge.
// Topic: graylogic/command/haptic/{device_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	DeviceID string `json:"device_id"`

	// Command must be "actuate".
	Command string `json:"command"`

	// Parameters holds pattern (required), flags, param1 and param2.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated.
	// Values: "api", "automation", "voice", "scene"
	Source string `json:"source"`

	UserID string `json:"user_id,omitempty"`
}

// AckStatus is the acknowledgement status of a command.
type AckStatus string

const (
	// AckAccepted means the actuation was performed.
	AckAccepted AckStatus = "accepted"

	// AckFailed means the command was rejected or the actuation failed.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from the bridge to Core for every command.
// Topic: graylogic/ack/haptic/{device_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`

	// EventID is the actuation history id, when an actuation was attempted.
	EventID string `json:"event_id,omitempty"`

	// Attempts is how many times the driver was asked to actuate.
	Attempts int `json:"attempts"`

	DurationMS float64 `json:"duration_ms"`

	// Error is set when Status is "failed".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Retries is the number of close-reopen retries made.
	Retries int `json:"retries,omitempty"`
}

// Error codes for command failures.
const (
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeActuationFailed   = "ACTUATION_FAILED"
	ErrCodeFatal             = "FATAL"
)

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthStarting  HealthStatus = "starting"
	HealthStopping  HealthStatus = "stopping"
)

// HealthMessage reports bridge status.
// Topic: graylogic/health/haptic
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`

	// Device is the actuator session snapshot.
	Device *DeviceStatus `json:"device,omitempty"`

	Statistics *BridgeStatistics `json:"statistics,omitempty"`

	// Reason explains a degraded or unhealthy status.
	Reason string `json:"reason,omitempty"`
}

// DeviceStatus is the part of the controller status published in health.
type DeviceStatus struct {
	State       string `json:"state"`
	DeviceID    string `json:"device_id,omitempty"`
	ServiceOpen bool   `json:"service_open"`
	Attempts    int    `json:"attempts"`
	Retries     int    `json:"retries"`
	Failures    int    `json:"failures"`
}

// BridgeStatistics counts commands handled since start.
type BridgeStatistics struct {
	CommandsReceived uint64 `json:"commands_received"`
	CommandsAccepted uint64 `json:"commands_accepted"`
	CommandsFailed   uint64 `json:"commands_failed"`
}

// NewAckMessage creates an acknowledgement for a completed actuation.
func NewAckMessage(cmd CommandMessage, deviceID string, res haptic.Result) AckMessage {
	return AckMessage{
		CommandID:  cmd.ID,
		Timestamp:  time.Now().UTC(),
		DeviceID:   deviceID,
		Status:     AckAccepted,
		Protocol:   mqtt.ProtocolHaptic,
		EventID:    res.ID,
		Attempts:   res.Attempts,
		DurationMS: float64(res.Duration) / float64(time.Millisecond),
	}
}

// NewAckError creates a failed acknowledgement.
func NewAckError(cmd CommandMessage, deviceID string, res haptic.Result, code, message string) AckMessage {
	ack := NewAckMessage(cmd, deviceID, res)
	ack.Status = AckFailed
	ack.Error = &AckError{
		Code:    code,
		Message: message,
		Retries: max(res.Attempts-1, 0),
	}
	return ack
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(bridgeID, version string, status HealthStatus, startTime time.Time, device haptic.Status, stats BridgeStatistics) HealthMessage {
	return HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Device: &DeviceStatus{
			State:       device.State,
			DeviceID:    device.DeviceID,
			ServiceOpen: device.ServiceOpen,
			Attempts:    device.Attempts,
			Retries:     device.Retries,
			Failures:    device.Failures,
		},
		Statistics: &stats,
	}
}

// ParseCommand converts an actuate command into a controller command.
//
// Returns:
//   - haptic.Command: The actuation request with Source set from the message
//   - error: Wraps ErrInvalidCommand or ErrInvalidParameters
func ParseCommand(msg CommandMessage) (haptic.Command, error) {
	if msg.Command != CommandActuate {
		return haptic.Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, msg.Command)
	}

	pattern, ok, err := integerParam(msg.Parameters, "pattern", math.MinInt32, math.MaxInt32)
	if err != nil {
		return haptic.Command{}, err
	}
	if !ok {
		return haptic.Command{}, fmt.Errorf("%w: pattern is required", ErrInvalidParameters)
	}
	flags, _, err := integerParam(msg.Parameters, "flags", 0, math.MaxUint32)
	if err != nil {
		return haptic.Command{}, err
	}
	param1, err := floatParam(msg.Parameters, "param1")
	if err != nil {
		return haptic.Command{}, err
	}
	param2, err := floatParam(msg.Parameters, "param2")
	if err != nil {
		return haptic.Command{}, err
	}

	source := msg.Source
	if source == "" {
		source = haptic.SourceMQTT
	}
	return haptic.Command{
		Pattern: actuator.ActuationID(pattern),
		Flags:   uint32(flags),
		Param1:  param1,
		Param2:  param2,
		Source:  source,
	}, nil
}

// integerParam reads an integral JSON number within [lo, hi].
func integerParam(params map[string]any, key string, lo, hi float64) (int64, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	n, isNum := raw.(float64)
	if !isNum || n != math.Trunc(n) || n < lo || n > hi {
		return 0, false, fmt.Errorf("%w: %s must be an integer in [%.0f, %.0f]", ErrInvalidParameters, key, lo, hi)
	}
	return int64(n), true, nil
}

func floatParam(params map[string]any, key string) (float32, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, nil
	}
	n, isNum := raw.(float64)
	if !isNum || math.Abs(n) > math.MaxFloat32 {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidParameters, key)
	}
	return float32(n), nil
}
