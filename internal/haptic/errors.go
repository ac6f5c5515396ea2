package haptic

import "errors"

var (
	// ErrControllerClosed is returned by Actuate after Close.
	ErrControllerClosed = errors.New("haptic: controller closed")

	// ErrUnknownBackend is returned by OpenBackend for an unsupported
	// haptics.backend value.
	ErrUnknownBackend = errors.New("haptic: unknown backend")
)
