package trackpad

import "errors"

var (
	// ErrInvalidCommand is returned for commands other than "actuate".
	ErrInvalidCommand = errors.New("trackpad: invalid command")

	// ErrInvalidParameters is returned for missing or mistyped parameters.
	ErrInvalidParameters = errors.New("trackpad: invalid parameters")
)
