// Package config handles loading and validating Gray Logic Haptics configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The haptics section selects the actuator backend. "iokit" drives the real
// trackpad on macOS; "simulated" builds registry devices from
// haptics.simulated.devices and can inject open, close and actuation faults.
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/haptics.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Haptics.Backend)
package config
