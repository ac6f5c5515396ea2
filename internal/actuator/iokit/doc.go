// Package iokit binds the actuator package to macOS.
//
// Registry implements actuator.DeviceRegistry on top of the IOKit registry
// (IOServiceMatching, IOServiceGetMatchingServices,
// IORegistryEntryCreateCFProperties). Service implements
// actuator.ActuationService with the private MultitouchSupport framework
// (MTActuatorCreateFromDeviceID, MTActuatorOpen, MTActuatorActuate,
// MTActuatorClose, MTActuatorIsOpen).
//
// Core Foundation values are converted to actuator.Value at the boundary:
// CFString, CFBoolean and integer CFNumber map to their kinds, kCFNull maps
// to null and everything else (including float CFNumbers) becomes Unknown
// carrying its CFCopyDescription text.
//
// The binding needs darwin and cgo. On every other build NewRegistry and
// NewService return actuator.ErrUnsupportedPlatform.
package iokit
