package actuator

import (
	"errors"
	"fmt"
)

// Descriptor is what discovery learned about the chosen device. It is not
// retained by the session once a handle exists.
type Descriptor struct {
	Service            ServiceRef
	DeviceName         string
	ProductName        string
	ActuationSupported bool
	BuiltIn            bool
	DeviceID           uint64
}

// FindDevice returns the first device of class that can drive a haptic
// actuator.
//
// Candidates are examined in registry enumeration order. A candidate is
// skipped when its properties cannot be read, when Product,
// ActuationSupported or "MT Built-In" is absent or null, or when its
// "Multitouch ID" is absent or does not parse. The first candidate that
// passes all checks wins; later candidates are never looked at.
//
// Parameters:
//   - reg: Device registry to query
//   - class: Registry class name (usually DefaultDeviceClass)
//   - logger: Receives a diagnostic for every rejected candidate (may be nil)
//
// Returns:
//   - Descriptor: The chosen device
//   - error: *DiscoveryError wrapping ErrNoMatchingDevices or ErrNoEligibleDevice
func FindDevice(reg DeviceRegistry, class string, logger Logger) (Descriptor, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	iter, err := reg.MatchingServices(class)
	if err != nil {
		if !errors.Is(err, ErrNoMatchingDevices) {
			err = fmt.Errorf("%w: %w", ErrNoMatchingDevices, err)
		}
		return Descriptor{}, &DiscoveryError{DeviceClass: class, Err: err}
	}
	defer func() {
		if closeErr := iter.Close(); closeErr != nil {
			logger.Debug("closing registry iterator", "error", closeErr)
		}
	}()

	candidates := 0
	for {
		svc, ok := iter.Next()
		if !ok {
			break
		}
		candidates++

		desc, reason, err := inspectCandidate(reg, svc)
		if err != nil {
			logger.Warn("skipping actuator candidate",
				"service", uint64(svc),
				"reason", reason,
				"error", err,
			)
			continue
		}
		if reason != "" {
			logger.Debug("skipping actuator candidate", "service", uint64(svc), "reason", reason)
			continue
		}

		logger.Info("actuator device found",
			"service", uint64(svc),
			"product", desc.ProductName,
			"device_id", desc.DeviceID,
			"candidates_examined", candidates,
		)
		return desc, nil
	}

	if candidates == 0 {
		return Descriptor{}, &DiscoveryError{DeviceClass: class, Err: ErrNoMatchingDevices}
	}
	return Descriptor{}, &DiscoveryError{DeviceClass: class, Candidates: candidates, Err: ErrNoEligibleDevice}
}

// inspectCandidate checks one device. A non-empty reason with a nil error is
// an ordinary mismatch (not every multitouch device has an actuator); a
// non-nil error is a candidate that looked right but was broken.
func inspectCandidate(reg DeviceRegistry, svc ServiceRef) (Descriptor, string, error) {
	props, err := reg.Properties(svc)
	if err != nil {
		return Descriptor{}, "properties unreadable", err
	}

	if name, null := props.firstMissing(PropertyProduct, PropertyActuationSupported, PropertyBuiltIn); name != "" {
		if null {
			return Descriptor{}, "null property " + name, fmt.Errorf("property %q is null", name)
		}
		return Descriptor{}, "missing property " + name, nil
	}

	idValue, ok := props.Lookup(PropertyMultitouchID)
	if !ok {
		return Descriptor{}, "missing property " + PropertyMultitouchID, nil
	}
	id, err := ParseDeviceID(idValue)
	if err != nil {
		return Descriptor{}, "unparsable " + PropertyMultitouchID, err
	}

	product, _ := props.Lookup(PropertyProduct)
	supported, _ := props.Lookup(PropertyActuationSupported)
	builtIn, _ := props.Lookup(PropertyBuiltIn)
	name, _ := props.Lookup(PropertyDeviceName)

	return Descriptor{
		Service:            svc,
		DeviceName:         text(name),
		ProductName:        text(product),
		ActuationSupported: truthy(supported),
		BuiltIn:            truthy(builtIn),
		DeviceID:           id,
	}, "", nil
}

func text(v Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	return v.Description()
}

func truthy(v Value) bool {
	if b, ok := v.Bool(); ok {
		return b
	}
	if n, ok := v.Int(); ok {
		return n != 0
	}
	return false
}
