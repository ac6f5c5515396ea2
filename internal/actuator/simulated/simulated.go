// Package simulated provides an in-process device registry and actuation
// service for hosts without haptic hardware.
//
// Devices come from the haptics.simulated section of the configuration.
// Every call is counted and open, close and actuation failures can be
// injected, which makes the backend useful for demos and for exercising
// the retry path end to end.
package simulated

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
)

// Registry is a fixed list of registry entries of one device class.
type Registry struct {
	class   string
	devices []actuator.Properties
}

// NewRegistry builds a registry from configured devices. All devices are
// registered under class.
func NewRegistry(class string, devices []config.SimulatedDevice) *Registry {
	r := &Registry{class: class}
	for _, d := range devices {
		r.devices = append(r.devices, properties(d))
	}
	return r
}

func properties(d config.SimulatedDevice) actuator.Properties {
	props := actuator.Properties{
		actuator.PropertyDeviceName: actuator.String(d.Name),
	}
	if d.Product != nil {
		props[actuator.PropertyProduct] = actuator.String(*d.Product)
	}
	if d.ActuationSupported != nil {
		props[actuator.PropertyActuationSupported] = actuator.Bool(*d.ActuationSupported)
	}
	if d.BuiltIn != nil {
		props[actuator.PropertyBuiltIn] = actuator.Bool(*d.BuiltIn)
	}
	if d.MultitouchID != nil {
		// The real registry hands the id over as an opaque number whose
		// description is the decimal text.
		props[actuator.PropertyMultitouchID] = actuator.Unknown(*d.MultitouchID)
	}
	return props
}

// MatchingServices implements actuator.DeviceRegistry.
func (r *Registry) MatchingServices(className string) (actuator.ServiceIterator, error) {
	if className != r.class {
		return nil, fmt.Errorf("%w: class %q is not registered", actuator.ErrNoMatchingDevices, className)
	}
	return &iterator{n: len(r.devices)}, nil
}

// Properties implements actuator.DeviceRegistry. Service refs start at 1.
func (r *Registry) Properties(svc actuator.ServiceRef) (actuator.Properties, error) {
	i := int(svc) - 1
	if i < 0 || i >= len(r.devices) {
		return nil, fmt.Errorf("%w: service %d", actuator.ErrPropertiesUnreadable, svc)
	}
	return r.devices[i], nil
}

type iterator struct {
	n, next int
}

func (it *iterator) Next() (actuator.ServiceRef, bool) {
	if it.next >= it.n {
		return 0, false
	}
	it.next++
	return actuator.ServiceRef(it.next), true
}

func (it *iterator) Close() error { return nil }

// Faults configures injected failures.
type Faults struct {
	// FailActuations makes the first N actuations return StatusNotReady.
	FailActuations int
	// FailOpen makes every open return StatusExclusive.
	FailOpen bool
	// FailClose makes every close return StatusError.
	FailClose bool
}

// FaultsFromConfig extracts the fault settings of the simulated section.
func FaultsFromConfig(cfg config.SimulatedConfig) Faults {
	return Faults{
		FailActuations: cfg.FailActuations,
		FailOpen:       cfg.FailOpen,
		FailClose:      cfg.FailClose,
	}
}

// Counters are the number of calls each operation has received.
type Counters struct {
	Creates   int
	Opens     int
	Closes    int
	Actuates  int
	Releases  int
	OpenRefs  int
	LastID    uint64
	LastInput actuator.Request
}

// Service is a thread-safe fake actuation service.
type Service struct {
	mu       sync.Mutex
	faults   Faults
	next     actuator.DeviceRef
	devices  map[actuator.DeviceRef]uint64
	open     map[actuator.DeviceRef]bool
	counters Counters
}

// NewService creates a service with the given faults.
func NewService(faults Faults) *Service {
	return &Service{
		faults:  faults,
		devices: make(map[actuator.DeviceRef]uint64),
		open:    make(map[actuator.DeviceRef]bool),
	}
}

// Create implements actuator.ActuationService.
func (s *Service) Create(deviceID uint64) (actuator.DeviceRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Creates++
	s.counters.LastID = deviceID
	s.next++
	s.devices[s.next] = deviceID
	return s.next, nil
}

// Open implements actuator.ActuationService.
func (s *Service) Open(ref actuator.DeviceRef) actuator.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Opens++
	if _, ok := s.devices[ref]; !ok {
		return actuator.StatusBadArgument
	}
	if s.faults.FailOpen {
		return actuator.StatusExclusive
	}
	s.open[ref] = true
	return actuator.StatusSuccess
}

// Close implements actuator.ActuationService.
func (s *Service) Close(ref actuator.DeviceRef) actuator.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Closes++
	if !s.open[ref] {
		return actuator.StatusNotOpen
	}
	if s.faults.FailClose {
		return actuator.StatusError
	}
	delete(s.open, ref)
	delete(s.devices, ref)
	return actuator.StatusSuccess
}

// Actuate implements actuator.ActuationService.
func (s *Service) Actuate(ref actuator.DeviceRef, pattern actuator.ActuationID, flags uint32, param1, param2 float32) actuator.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Actuates++
	s.counters.LastInput = actuator.Request{Pattern: pattern, Flags: flags, Param1: param1, Param2: param2}
	if !s.open[ref] {
		return actuator.StatusNotOpen
	}
	if s.faults.FailActuations > 0 {
		s.faults.FailActuations--
		return actuator.StatusNotReady
	}
	return actuator.StatusSuccess
}

// IsOpen implements actuator.ActuationService.
func (s *Service) IsOpen(ref actuator.DeviceRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[ref]
}

// Release implements actuator.Releaser.
func (s *Service) Release(ref actuator.DeviceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Releases++
	delete(s.open, ref)
	delete(s.devices, ref)
}

// SetFaults replaces the injected faults.
func (s *Service) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

// Counters returns a snapshot of the call counters.
func (s *Service) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters
	c.OpenRefs = len(s.open)
	return c
}
