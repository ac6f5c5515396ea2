package trackpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/mqtt"
)

const (
	// commandTopicParts is the number of levels in graylogic/command/haptic/{device}.
	commandTopicParts = 4

	// commandTimeout bounds one actuation started from MQTT.
	commandTimeout = 5 * time.Second

	ackQoS = 1
)

// Bridge receives actuation commands over MQTT and acknowledges them.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	deviceID string
	mqtt     MQTTClient
	actuator Actuator
	health   *HealthReporter

	received atomic.Uint64
	accepted atomic.Uint64
	failed   atomic.Uint64

	wg        sync.WaitGroup
	stopMu    sync.Mutex
	stopped   bool
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the subset of *mqtt.Client the bridge uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Actuator runs actuations. *haptic.Controller satisfies it.
type Actuator interface {
	Actuate(ctx context.Context, cmd haptic.Command) (haptic.Result, error)
	Status() haptic.Status
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// DeviceID is the topic level commands are addressed to.
	DeviceID string

	// Version is reported in health messages.
	Version string

	// HealthInterval is how often health is published. Default: 30s.
	HealthInterval time.Duration

	MQTTClient MQTTClient
	Actuator   Actuator

	// Logger is optional.
	Logger Logger
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Actuator == nil {
		return nil, fmt.Errorf("actuator is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		deviceID:  opts.DeviceID,
		mqtt:      opts.MQTTClient,
		actuator:  opts.Actuator,
		ctx:       ctx,
		ctxCancel: cancel,
		logger:    opts.Logger,
	}
	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  mqtt.ProtocolHaptic,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Device:    opts.Actuator,
		Stats:     b.Statistics,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}
	return b, nil
}

// Start subscribes to the command topic and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	topic := mqtt.Topics{}.BridgeCommand(mqtt.ProtocolHaptic, b.deviceID)
	if err := b.mqtt.Subscribe(topic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)

	b.health.Start(ctx)

	b.logInfo("bridge started", "device_id", b.deviceID)
	return nil
}

// Stop unsubscribes, cancels in-flight commands, publishes "stopping" and
// waits for handlers to return. Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		topic := mqtt.Topics{}.BridgeCommand(mqtt.ProtocolHaptic, b.deviceID)
		if err := b.mqtt.Unsubscribe(topic); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
			b.logError("failed to unsubscribe from commands", err)
		}

		b.stopMu.Lock()
		b.stopped = true
		b.stopMu.Unlock()

		b.ctxCancel()
		b.wg.Wait()
		b.health.Stop()

		b.logInfo("bridge stopped")
	})
}

// Statistics returns the command counters.
func (b *Bridge) Statistics() BridgeStatistics {
	return BridgeStatistics{
		CommandsReceived: b.received.Load(),
		CommandsAccepted: b.accepted.Load(),
		CommandsFailed:   b.failed.Load(),
	}
}

// handleMQTTMessage routes one message from the command subscription.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != commandTopicParts || parts[1] != "command" || parts[2] != mqtt.ProtocolHaptic {
		return fmt.Errorf("unexpected topic %q", topic)
	}
	if parts[3] != b.deviceID {
		b.logDebug("ignoring command for other device", "topic", topic)
		return nil
	}

	b.stopMu.Lock()
	if b.stopped {
		b.stopMu.Unlock()
		return nil
	}
	b.wg.Add(1)
	b.stopMu.Unlock()
	defer b.wg.Done()

	b.handleCommand(payload)
	return nil
}

// handleCommand decodes, runs and acknowledges one command.
func (b *Bridge) handleCommand(payload []byte) {
	b.received.Add(1)

	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		// The command id is unknown; the ack goes out with an empty one.
		b.failed.Add(1)
		b.publishAck(NewAckError(CommandMessage{}, b.deviceID, haptic.Result{},
			ErrCodeInvalidCommand, fmt.Sprintf("malformed command payload: %v", err)))
		return
	}

	b.logInfo("received command",
		"command_id", msg.ID,
		"command", msg.Command,
		"source", msg.Source)

	cmd, err := ParseCommand(msg)
	if err != nil {
		code := ErrCodeInvalidParameters
		if errors.Is(err, ErrInvalidCommand) {
			code = ErrCodeInvalidCommand
		}
		b.failed.Add(1)
		b.publishAck(NewAckError(msg, b.deviceID, haptic.Result{}, code, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	res, err := b.actuator.Actuate(ctx, cmd)
	if err != nil {
		b.failed.Add(1)
		b.publishAck(NewAckError(msg, b.deviceID, res, errorCode(err), err.Error()))
		return
	}

	b.accepted.Add(1)
	b.publishAck(NewAckMessage(msg, b.deviceID, res))
}

// errorCode maps a controller error to an ack error code.
func errorCode(err error) string {
	var actErr *actuator.ActuationError
	switch {
	case actuator.IsFatal(err):
		return ErrCodeFatal
	case errors.As(err, &actErr):
		return ErrCodeActuationFailed
	default:
		// Discovery and open failures, a closed controller and a cancelled
		// context all mean the device could not be reached right now.
		return ErrCodeDeviceUnreachable
	}
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}

	topic := mqtt.Topics{}.BridgeAck(mqtt.ProtocolHaptic, b.deviceID)
	if err := b.mqtt.Publish(topic, payload, ackQoS, false); err != nil {
		b.logError("failed to publish ack", err)
	}
	if ack.Error != nil {
		b.logWarn("command failed",
			"command_id", ack.CommandID,
			"code", ack.Error.Code,
			"message", ack.Error.Message)
	}
}

// SetLogger sets the logger for the bridge and its health reporter.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
	b.health.SetLogger(logger)
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}
