// Package dtype defines the element kinds a grid server can host and the
// scalar conversions between Go values and their wire renderings.
//
// Every remote array carries exactly one Kind. The package owns the
// casting rules (how a Go scalar becomes a bool/int64/float64 cell), the
// canonical text renderings used on the wire, and a local dense Array
// type for bulk transfers. Nothing here touches the network.
package dtype

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType reports an element kind the client does not speak.
	ErrUnsupportedType = errors.New("dtype: unsupported type")

	// ErrUnresolvedScalar reports a Go value with no corresponding kind.
	ErrUnresolvedScalar = errors.New("dtype: unresolved scalar type")

	// ErrCast reports a scalar that cannot be represented in the target kind.
	ErrCast = errors.New("dtype: cast failed")

	// ErrInvalidLiteral reports wire text that does not parse as its kind.
	ErrInvalidLiteral = errors.New("dtype: invalid scalar literal")

	// ErrKindMismatch reports access to array storage under the wrong kind.
	ErrKindMismatch = errors.New("dtype: kind mismatch")
)

// Kind identifies one supported element type. The zero Kind is invalid.
type Kind uint8

const (
	Bool    Kind = 1
	Int64   Kind = 2
	Float64 Kind = 3
)

// Valid reports whether k names a supported element kind.
func (k Kind) Valid() bool {
	switch k {
	case Bool, Int64, Float64:
		return true
	}
	return false
}

// Name returns the wire name of the kind, or "invalid".
func (k Kind) Name() string {
	switch k {
	case Bool:
		return "bool"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	}
	return "invalid"
}

func (k Kind) String() string { return k.Name() }

// ItemSize returns the width in bytes of one binary cell. Every supported
// kind travels as a fixed eight-byte big-endian cell, bool included.
func (k Kind) ItemSize() int64 {
	if k.Valid() {
		return 8
	}
	return 0
}

// FromName resolves a wire name to its Kind.
func FromName(name string) (Kind, error) {
	switch name {
	case "bool":
		return Bool, nil
	case "int64":
		return Int64, nil
	case "float64":
		return Float64, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// InferScalar maps a Go scalar onto the kind it would occupy on the
// server. Booleans resolve before the integer family, integers before
// the float family. A Value infers as its own kind.
func InferScalar(v any) (Kind, error) {
	switch s := v.(type) {
	case bool:
		return Bool, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Int64, nil
	case float32, float64:
		return Float64, nil
	case Value:
		if !s.Kind.Valid() {
			return 0, fmt.Errorf("%w: %s value", ErrUnresolvedScalar, s.Kind)
		}
		return s.Kind, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrUnresolvedScalar, v)
}
