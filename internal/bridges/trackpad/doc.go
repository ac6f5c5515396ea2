// Package trackpad bridges the Gray Logic MQTT bus to the haptic trackpad.
//
// Core publishes actuation commands to graylogic/command/haptic/{device_id}.
// The bridge decodes each command, runs it through the haptic controller
// and publishes an acknowledgement to graylogic/ack/haptic/{device_id}.
// A HealthReporter publishes a retained status to graylogic/health/haptic
// on a fixed interval.
//
// # Command Payload
//
//	{
//	  "id": "6a1f...",
//	  "timestamp": "2026-03-01T09:00:00Z",
//	  "device_id": "trackpad",
//	  "command": "actuate",
//	  "parameters": {"pattern": 6, "flags": 0, "param1": 0.0, "param2": 0.0},
//	  "source": "automation"
//	}
//
// Only "pattern" is required. Parameter values pass through to the driver
// unvalidated apart from their JSON types.
package trackpad
