package haptic

import (
	"fmt"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/actuator/iokit"
	"github.com/nerrad567/gray-logic-haptics/internal/actuator/simulated"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
)

// Backend is a device registry paired with the actuation service that
// drives the devices it finds.
type Backend struct {
	Name     string
	Registry actuator.DeviceRegistry
	Service  actuator.ActuationService

	// Simulated is set for the simulated backend so callers can inspect
	// counters or change faults at runtime.
	Simulated *simulated.Service
}

// OpenBackend builds the backend selected by cfg.Backend.
//
// Returns:
//   - *Backend: Registry and service ready for actuator.NewSession
//   - error: actuator.ErrUnsupportedPlatform for iokit off macOS, or
//     ErrUnknownBackend
func OpenBackend(cfg config.HapticsConfig) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendIOKit:
		reg, err := iokit.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("opening iokit registry: %w", err)
		}
		svc, err := iokit.NewService()
		if err != nil {
			return nil, fmt.Errorf("opening iokit actuation service: %w", err)
		}
		return &Backend{Name: cfg.Backend, Registry: reg, Service: svc}, nil

	case config.BackendSimulated:
		svc := simulated.NewService(simulated.FaultsFromConfig(cfg.Simulated))
		return &Backend{
			Name:      cfg.Backend,
			Registry:  simulated.NewRegistry(cfg.DeviceClass, cfg.Simulated.Devices),
			Service:   svc,
			Simulated: svc,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// NewSession creates a closed session over the backend using the class and
// retry budget from cfg.
func (b *Backend) NewSession(cfg config.HapticsConfig, logger actuator.Logger) *actuator.Session {
	return actuator.NewSession(b.Registry, b.Service, actuator.Options{
		DeviceClass: cfg.DeviceClass,
		MaxRetries:  cfg.MaxRetries,
		Logger:      logger,
	})
}

// Discover runs discovery without opening anything.
func (b *Backend) Discover(class string, logger actuator.Logger) (actuator.Descriptor, error) {
	return actuator.FindDevice(b.Registry, class, logger)
}
