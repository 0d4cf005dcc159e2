package grid

import "errors"

var (
	// ErrIndexOutOfBounds reports an integer index outside [0, size).
	ErrIndexOutOfBounds = errors.New("grid: index out of bounds")

	// ErrTransferTooLarge reports a bulk transfer that would exceed the
	// configured limit. Raised before any command is sent.
	ErrTransferTooLarge = errors.New("grid: transfer exceeds configured limit")

	// ErrNotApplicable reports an operand combination the protocol has
	// no command for. A caller may fall back to another strategy; it is
	// not a failure of the call site's inputs.
	ErrNotApplicable = errors.New("grid: operation not applicable")

	// ErrReleased reports use of an Array after Release.
	ErrReleased = errors.New("grid: array released")
)
