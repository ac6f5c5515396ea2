//go:build !darwin || !cgo

package iokit

import (
	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
)

// Registry is unavailable on this platform.
type Registry struct{}

// NewRegistry always fails with actuator.ErrUnsupportedPlatform.
func NewRegistry() (*Registry, error) {
	return nil, actuator.ErrUnsupportedPlatform
}

// MatchingServices implements actuator.DeviceRegistry.
func (r *Registry) MatchingServices(string) (actuator.ServiceIterator, error) {
	return nil, actuator.ErrUnsupportedPlatform
}

// Properties implements actuator.DeviceRegistry.
func (r *Registry) Properties(actuator.ServiceRef) (actuator.Properties, error) {
	return nil, actuator.ErrUnsupportedPlatform
}

// Service is unavailable on this platform.
type Service struct{}

// NewService always fails with actuator.ErrUnsupportedPlatform.
func NewService() (*Service, error) {
	return nil, actuator.ErrUnsupportedPlatform
}

// Create implements actuator.ActuationService.
func (s *Service) Create(uint64) (actuator.DeviceRef, error) {
	return 0, actuator.ErrUnsupportedPlatform
}

// Open implements actuator.ActuationService.
func (s *Service) Open(actuator.DeviceRef) actuator.StatusCode { return actuator.StatusUnsupported }

// Close implements actuator.ActuationService.
func (s *Service) Close(actuator.DeviceRef) actuator.StatusCode { return actuator.StatusUnsupported }

// Actuate implements actuator.ActuationService.
func (s *Service) Actuate(actuator.DeviceRef, actuator.ActuationID, uint32, float32, float32) actuator.StatusCode {
	return actuator.StatusUnsupported
}

// IsOpen implements actuator.ActuationService.
func (s *Service) IsOpen(actuator.DeviceRef) bool { return false }
