package actuator

import (
	"fmt"
	"strconv"
	"strings"
)

// Registry names used to find the trackpad actuator.
const (
	// DefaultDeviceClass is the registry class of multitouch devices.
	DefaultDeviceClass = "AppleMultitouchDevice"

	// PropertyProduct is the HID product (display) name, kIOHIDProductKey.
	PropertyProduct = "Product"

	// PropertyActuationSupported is present on devices with a haptic engine.
	PropertyActuationSupported = "ActuationSupported"

	// PropertyBuiltIn marks the built-in (not Bluetooth) multitouch device.
	PropertyBuiltIn = "MT Built-In"

	// PropertyMultitouchID is the device identifier MultitouchSupport
	// creates actuators from.
	PropertyMultitouchID = "Multitouch ID"

	// PropertyDeviceName is the registry entry name.
	PropertyDeviceName = "IORegistryEntryName"
)

// Kind tags the dynamic type of a registry property value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindNumber
	KindUnknown
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a registry property value. Registry entries are untyped, so a
// Value carries its Kind plus the textual description the registry gave for
// it; only the accessor matching the Kind returns meaningful data.
type Value struct {
	kind Kind
	str  string
	b    bool
	num  int64
	desc string
}

// Null returns a present-but-null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s, desc: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b, desc: strconv.FormatBool(b)} }

// Number returns an integer value. Registry numbers are stored as signed
// 64-bit; identifiers above MaxInt64 keep their bit pattern.
func Number(n int64) Value {
	return Value{kind: KindNumber, num: n, desc: strconv.FormatUint(uint64(n), 10)}
}

// Unknown returns a value of a type the registry backend could not map,
// keeping only its description.
func Unknown(description string) Value { return Value{kind: KindUnknown, desc: description} }

// Kind returns the dynamic type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string and true for KindString values.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Bool returns the boolean and true for KindBool values.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the integer and true for KindNumber values.
func (v Value) Int() (int64, bool) { return v.num, v.kind == KindNumber }

// Description returns the registry's textual rendering of the value.
func (v Value) Description() string { return v.desc }

// Properties is the property set of one registry entry.
type Properties map[string]Value

// Lookup returns the value stored under name and whether it was present.
func (p Properties) Lookup(name string) (Value, bool) {
	v, ok := p[name]
	return v, ok
}

// firstMissing returns the first of names that is absent or null, and
// whether it was present-but-null. It returns "" when all are usable.
func (p Properties) firstMissing(names ...string) (name string, null bool) {
	for _, name := range names {
		v, found := p.Lookup(name)
		if !found {
			return name, false
		}
		if v.IsNull() {
			return name, true
		}
	}
	return "", false
}

// ParseDeviceID converts a registry value into a multitouch device id.
//
// The id is published with a type that does not map cleanly onto any typed
// accessor on every OS release, so it is recovered from the value's textual
// description and parsed as a base-10 unsigned 64-bit integer. This is the
// only place that does string-based numeric recovery.
func ParseDeviceID(v Value) (uint64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%w: value is null", ErrInvalidDeviceID)
	}
	text := strings.TrimSpace(v.Description())
	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidDeviceID, text, err)
	}
	return id, nil
}
