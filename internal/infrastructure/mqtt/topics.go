package mqtt

import "fmt"

// Topic layout. Bridge topics use the flat scheme
// graylogic/{category}/{protocol}/{device}.
const (
	TopicPrefix       = "graylogic"
	TopicPrefixSystem = "graylogic/system"

	// ProtocolHaptic is the protocol segment used by the haptic bridge.
	ProtocolHaptic = "haptic"
)

// Topics provides builders for Gray Logic MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.BridgeCommand(mqtt.ProtocolHaptic, "trackpad")
//	// Returns: "graylogic/command/haptic/trackpad"
type Topics struct{}

// BridgeCommand returns the topic commands to a bridge device arrive on.
//
// Example: graylogic/command/haptic/trackpad
func (Topics) BridgeCommand(protocol, deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, deviceID)
}

// BridgeAck returns the topic command acknowledgements are published on.
//
// Example: graylogic/ack/haptic/trackpad
func (Topics) BridgeAck(protocol, deviceID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, protocol, deviceID)
}

// BridgeState returns the topic device state is published on.
//
// Example: graylogic/state/haptic/trackpad
func (Topics) BridgeState(protocol, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, protocol, deviceID)
}

// BridgeHealth returns the bridge health topic.
//
// Example: graylogic/health/haptic
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, protocol)
}

// AllBridgeCommands matches commands for every device of one protocol.
//
// Pattern: graylogic/command/haptic/+
func (Topics) AllBridgeCommands(protocol string) string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, protocol)
}

// SystemStatus returns the online/offline topic of one client.
//
// Example: graylogic/system/status/graylogic-haptics
func (Topics) SystemStatus(clientID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixSystem, clientID)
}
