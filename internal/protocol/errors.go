package protocol

import "errors"

var (
	// ErrMalformedReply reports a text reply whose shape does not match
	// the command that produced it. Unrecoverable for that call.
	ErrMalformedReply = errors.New("protocol: malformed reply")

	// ErrTruncatedTransfer reports a bulk payload whose length does not
	// equal size*itemsize. Transport-level, distinct from value errors.
	ErrTruncatedTransfer = errors.New("protocol: truncated bulk transfer")

	// ErrSizeMismatch reports two array operands of unequal length.
	ErrSizeMismatch = errors.New("protocol: size mismatch")

	// ErrUnsupportedOperator reports an operator outside the fixed sets.
	ErrUnsupportedOperator = errors.New("protocol: unsupported operator")

	// ErrUnsupportedScalar reports a scalar operand whose inferred kind
	// the protocol cannot carry.
	ErrUnsupportedScalar = errors.New("protocol: unsupported scalar type")

	// ErrInvalidMode reports a save mode that is neither truncate nor append.
	ErrInvalidMode = errors.New("protocol: invalid mode")

	// ErrInvalidArgument reports an operand that cannot travel on a
	// space-delimited command line.
	ErrInvalidArgument = errors.New("protocol: invalid argument")

	// ErrServer wraps a failure the server reported in a text reply.
	ErrServer = errors.New("protocol: server error")
)
