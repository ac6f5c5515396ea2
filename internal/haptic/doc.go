// Package haptic is the daemon-side owner of the actuator session.
//
// A Controller wraps one actuator.Session behind a mutex so the REST API,
// the MQTT bridge and the CLI can share it. Every Actuate call is timed,
// logged, recorded in the actuation history and written as a metric.
//
// OpenBackend picks the registry and actuation service named by
// haptics.backend: the IOKit binding on macOS or the simulated backend.
package haptic
