//go:build darwin && cgo

package iokit

/*
#cgo LDFLAGS: -framework IOKit -framework CoreFoundation -F/System/Library/PrivateFrameworks -framework MultitouchSupport

#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <CoreFoundation/CoreFoundation.h>
#include <IOKit/IOKitLib.h>

CFTypeRef MTActuatorCreateFromDeviceID(UInt64 deviceID);
IOReturn MTActuatorOpen(CFTypeRef actuatorRef);
IOReturn MTActuatorClose(CFTypeRef actuatorRef);
IOReturn MTActuatorActuate(CFTypeRef actuatorRef, SInt32 actuationID, UInt32 unknown1, Float32 unknown2, Float32 unknown3);
bool MTActuatorIsOpen(CFTypeRef actuatorRef);

enum { GL_NULL, GL_STRING, GL_BOOL, GL_NUMBER, GL_UNKNOWN };

static char *gl_cfstring_copy(CFStringRef s) {
	if (s == NULL) {
		return NULL;
	}
	CFIndex size = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
	char *buf = malloc(size);
	if (buf == NULL) {
		return NULL;
	}
	if (!CFStringGetCString(s, buf, size, kCFStringEncodingUTF8)) {
		free(buf);
		return NULL;
	}
	return buf;
}

static char *gl_copy_description(CFTypeRef v) {
	CFStringRef d = CFCopyDescription(v);
	char *out = gl_cfstring_copy(d);
	if (d != NULL) {
		CFRelease(d);
	}
	return out;
}

static kern_return_t gl_matching_services(const char *className, io_iterator_t *iter) {
	CFMutableDictionaryRef match = IOServiceMatching(className);
	if (match == NULL) {
		return kIOReturnNoMemory;
	}
	// IOServiceGetMatchingServices consumes the matching dictionary.
	return IOServiceGetMatchingServices(MACH_PORT_NULL, match, iter);
}

static CFDictionaryRef gl_properties(io_registry_entry_t entry, kern_return_t *kr) {
	CFMutableDictionaryRef props = NULL;
	*kr = IORegistryEntryCreateCFProperties(entry, &props, kCFAllocatorDefault, 0);
	return props;
}

static CFIndex gl_dict_count(CFDictionaryRef d) {
	return CFDictionaryGetCount(d);
}

static void gl_dict_entries(CFDictionaryRef d, const void **keys, const void **values) {
	CFDictionaryGetKeysAndValues(d, keys, values);
}

static int gl_kind(CFTypeRef v) {
	if (v == NULL) {
		return GL_NULL;
	}
	CFTypeID t = CFGetTypeID(v);
	if (t == CFNullGetTypeID()) {
		return GL_NULL;
	}
	if (t == CFStringGetTypeID()) {
		return GL_STRING;
	}
	if (t == CFBooleanGetTypeID()) {
		return GL_BOOL;
	}
	if (t == CFNumberGetTypeID() && !CFNumberIsFloatType((CFNumberRef)v)) {
		return GL_NUMBER;
	}
	return GL_UNKNOWN;
}

static int64_t gl_number(CFTypeRef v) {
	int64_t out = 0;
	CFNumberGetValue((CFNumberRef)v, kCFNumberSInt64Type, &out);
	return out;
}

static bool gl_bool(CFTypeRef v) {
	return CFBooleanGetValue((CFBooleanRef)v);
}

static char *gl_string(CFTypeRef v) {
	return gl_cfstring_copy((CFStringRef)v);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
)

// Registry reads devices from the IOKit registry.
type Registry struct{}

// NewRegistry returns an IOKit-backed registry.
func NewRegistry() (*Registry, error) {
	return &Registry{}, nil
}

// MatchingServices implements actuator.DeviceRegistry.
func (r *Registry) MatchingServices(className string) (actuator.ServiceIterator, error) {
	cname := C.CString(className)
	defer C.free(unsafe.Pointer(cname))

	var iter C.io_iterator_t
	if kr := C.gl_matching_services(cname, &iter); kr != 0 {
		return nil, fmt.Errorf("%w: IOServiceGetMatchingServices(%s): %s",
			actuator.ErrNoMatchingDevices, className, actuator.StatusCode(kr))
	}
	return &serviceIterator{iter: iter}, nil
}

// Properties implements actuator.DeviceRegistry.
func (r *Registry) Properties(svc actuator.ServiceRef) (actuator.Properties, error) {
	var kr C.kern_return_t
	dict := C.gl_properties(C.io_registry_entry_t(svc), &kr)
	if kr != 0 || dict == 0 {
		return nil, fmt.Errorf("%w: IORegistryEntryCreateCFProperties: %s",
			actuator.ErrPropertiesUnreadable, actuator.StatusCode(kr))
	}
	defer C.CFRelease(C.CFTypeRef(dict))

	n := int(C.gl_dict_count(dict))
	props := make(actuator.Properties, n)
	if n == 0 {
		return props, nil
	}

	keys := make([]unsafe.Pointer, n)
	values := make([]unsafe.Pointer, n)
	C.gl_dict_entries(dict, &keys[0], &values[0])

	for i := 0; i < n; i++ {
		if C.gl_kind(C.CFTypeRef(keys[i])) != C.GL_STRING {
			continue
		}
		name := goString(C.gl_string(C.CFTypeRef(keys[i])))
		props[name] = convertValue(C.CFTypeRef(values[i]))
	}
	return props, nil
}

func convertValue(v C.CFTypeRef) actuator.Value {
	switch C.gl_kind(v) {
	case C.GL_NULL:
		return actuator.Null()
	case C.GL_STRING:
		return actuator.String(goString(C.gl_string(v)))
	case C.GL_BOOL:
		return actuator.Bool(bool(C.gl_bool(v)))
	case C.GL_NUMBER:
		return actuator.Number(int64(C.gl_number(v)))
	default:
		return actuator.Unknown(goString(C.gl_copy_description(v)))
	}
}

// goString copies and frees a malloc'd C string.
func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(s))
	return C.GoString(s)
}

// serviceIterator walks an io_iterator_t, releasing each service when the
// next one is requested.
type serviceIterator struct {
	iter    C.io_iterator_t
	current C.io_object_t
}

func (it *serviceIterator) Next() (actuator.ServiceRef, bool) {
	it.releaseCurrent()
	if it.iter == 0 {
		return 0, false
	}
	obj := C.IOIteratorNext(it.iter)
	if obj == 0 {
		return 0, false
	}
	it.current = obj
	return actuator.ServiceRef(obj), true
}

func (it *serviceIterator) Close() error {
	it.releaseCurrent()
	if it.iter != 0 {
		C.IOObjectRelease(C.io_object_t(it.iter))
		it.iter = 0
	}
	return nil
}

func (it *serviceIterator) releaseCurrent() {
	if it.current != 0 {
		C.IOObjectRelease(it.current)
		it.current = 0
	}
}

// Service drives actuators through MultitouchSupport. Core Foundation
// references never leave this type; callers only see DeviceRef tokens.
type Service struct {
	mu   sync.Mutex
	refs map[actuator.DeviceRef]C.CFTypeRef
	next actuator.DeviceRef
}

// NewService returns a MultitouchSupport-backed actuation service.
func NewService() (*Service, error) {
	return &Service{refs: make(map[actuator.DeviceRef]C.CFTypeRef)}, nil
}

// Create implements actuator.ActuationService.
func (s *Service) Create(deviceID uint64) (actuator.DeviceRef, error) {
	ref := C.MTActuatorCreateFromDeviceID(C.UInt64(deviceID))
	if ref == 0 {
		return 0, fmt.Errorf("MTActuatorCreateFromDeviceID(%d) returned NULL", deviceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.refs[s.next] = ref
	return s.next, nil
}

// Open implements actuator.ActuationService.
func (s *Service) Open(ref actuator.DeviceRef) actuator.StatusCode {
	cf, ok := s.lookup(ref)
	if !ok {
		return actuator.StatusBadArgument
	}
	return actuator.StatusCode(C.MTActuatorOpen(cf))
}

// Close implements actuator.ActuationService. The reference is released
// once the actuator has closed.
func (s *Service) Close(ref actuator.DeviceRef) actuator.StatusCode {
	cf, ok := s.lookup(ref)
	if !ok {
		return actuator.StatusBadArgument
	}
	status := actuator.StatusCode(C.MTActuatorClose(cf))
	if status.OK() {
		s.Release(ref)
	}
	return status
}

// Actuate implements actuator.ActuationService.
func (s *Service) Actuate(ref actuator.DeviceRef, pattern actuator.ActuationID, flags uint32, param1, param2 float32) actuator.StatusCode {
	cf, ok := s.lookup(ref)
	if !ok {
		return actuator.StatusBadArgument
	}
	return actuator.StatusCode(C.MTActuatorActuate(cf,
		C.SInt32(pattern), C.UInt32(flags), C.Float32(param1), C.Float32(param2)))
}

// IsOpen implements actuator.ActuationService.
func (s *Service) IsOpen(ref actuator.DeviceRef) bool {
	cf, ok := s.lookup(ref)
	if !ok {
		return false
	}
	return bool(C.MTActuatorIsOpen(cf))
}

// Release implements actuator.Releaser.
func (s *Service) Release(ref actuator.DeviceRef) {
	s.mu.Lock()
	cf, ok := s.refs[ref]
	delete(s.refs, ref)
	s.mu.Unlock()

	if ok {
		C.CFRelease(cf)
	}
}

func (s *Service) lookup(ref actuator.DeviceRef) (C.CFTypeRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cf, ok := s.refs[ref]
	return cf, ok
}
