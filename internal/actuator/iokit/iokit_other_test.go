//go:build !darwin || !cgo

package iokit

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
)

func TestUnsupportedPlatform(t *testing.T) {
	if _, err := NewRegistry(); !errors.Is(err, actuator.ErrUnsupportedPlatform) {
		t.Errorf("NewRegistry() error = %v, want ErrUnsupportedPlatform", err)
	}
	if _, err := NewService(); !errors.Is(err, actuator.ErrUnsupportedPlatform) {
		t.Errorf("NewService() error = %v, want ErrUnsupportedPlatform", err)
	}
}
