package teleop

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request, schema, or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrNotRegistered indicates a callable was never registered with the gate.
	ErrNotRegistered = errors.New("function not registered")

	// ErrRejected indicates the operator rejected a proposed tool call.
	ErrRejected = errors.New("rejected by user")

	// ErrInvalidMode indicates an unknown router mode.
	ErrInvalidMode = errors.New("invalid mode")
)
