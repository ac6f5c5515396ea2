package actuator

import (
	"errors"
	"fmt"
	"sync"
)

// fakeDevice is one registry entry for MockRegistry.
type fakeDevice struct {
	props   Properties
	readErr error
}

// MockRegistry is a test implementation of DeviceRegistry.
type MockRegistry struct {
	devices  []fakeDevice
	matchErr error

	queries   int
	propReads []ServiceRef
	closed    int
}

func NewMockRegistry(devices ...fakeDevice) *MockRegistry {
	return &MockRegistry{devices: devices}
}

func (m *MockRegistry) MatchingServices(className string) (ServiceIterator, error) {
	m.queries++
	if m.matchErr != nil {
		return nil, m.matchErr
	}
	if className != DefaultDeviceClass {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingDevices, className)
	}
	return &mockIterator{reg: m, n: len(m.devices)}, nil
}

func (m *MockRegistry) Properties(svc ServiceRef) (Properties, error) {
	m.propReads = append(m.propReads, svc)
	d := m.devices[int(svc)-1]
	if d.readErr != nil {
		return nil, d.readErr
	}
	return d.props, nil
}

// mockIterator yields ServiceRef 1..n.
type mockIterator struct {
	reg  *MockRegistry
	next int
	n    int
}

func (it *mockIterator) Next() (ServiceRef, bool) {
	if it.next >= it.n {
		return 0, false
	}
	it.next++
	return ServiceRef(it.next), true
}

func (it *mockIterator) Close() error {
	it.reg.closed++
	return nil
}

// MockService is a test implementation of ActuationService.
type MockService struct {
	mu sync.Mutex

	nextRef   DeviceRef
	open      map[DeviceRef]bool
	created   []uint64
	released  []DeviceRef
	closes    []DeviceRef
	actuated  []Request
	createErr error
	openCode  StatusCode
	closeCode StatusCode

	// actuateCodes is consumed one per Actuate call; when empty,
	// StatusSuccess is returned.
	actuateCodes []StatusCode
}

func NewMockService() *MockService {
	return &MockService{open: make(map[DeviceRef]bool)}
}

func (m *MockService) Create(deviceID uint64) (DeviceRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, deviceID)
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextRef++
	return m.nextRef + 0x1000, nil
}

func (m *MockService) Open(ref DeviceRef) StatusCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.openCode.OK() {
		return m.openCode
	}
	m.open[ref] = true
	return StatusSuccess
}

func (m *MockService) Close(ref DeviceRef) StatusCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes = append(m.closes, ref)
	if !m.closeCode.OK() {
		return m.closeCode
	}
	delete(m.open, ref)
	return StatusSuccess
}

func (m *MockService) Actuate(ref DeviceRef, pattern ActuationID, flags uint32, p1, p2 float32) StatusCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actuated = append(m.actuated, Request{Pattern: pattern, Flags: flags, Param1: p1, Param2: p2})
	if !m.open[ref] {
		return StatusNotOpen
	}
	if len(m.actuateCodes) == 0 {
		return StatusSuccess
	}
	code := m.actuateCodes[0]
	m.actuateCodes = m.actuateCodes[1:]
	return code
}

func (m *MockService) IsOpen(ref DeviceRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[ref]
}

func (m *MockService) Release(ref DeviceRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, ref)
}

// recordingLogger counts log records by level.
type recordingLogger struct {
	debug, info, warn, errs []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.debug = append(l.debug, msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.info = append(l.info, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warn = append(l.warn, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.errs = append(l.errs, msg) }

// trackpad returns the property set of an eligible built-in trackpad.
func trackpad(id string) fakeDevice {
	return fakeDevice{props: Properties{
		PropertyDeviceName:         String("AppleMultitouchDevice"),
		PropertyProduct:            String("Apple Internal Keyboard / Trackpad"),
		PropertyActuationSupported: Bool(true),
		PropertyBuiltIn:            Bool(true),
		PropertyMultitouchID:       Unknown(id),
	}}
}

// without returns a copy of d lacking the named property.
func without(d fakeDevice, name string) fakeDevice {
	props := make(Properties, len(d.props))
	for k, v := range d.props {
		if k != name {
			props[k] = v
		}
	}
	return fakeDevice{props: props}
}

// with returns a copy of d with name set to v.
func with(d fakeDevice, name string, v Value) fakeDevice {
	props := make(Properties, len(d.props)+1)
	for k, val := range d.props {
		props[k] = val
	}
	props[name] = v
	return fakeDevice{props: props}
}

var errBoom = errors.New("boom")
