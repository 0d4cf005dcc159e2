package grid

import (
	"reflect"

	"github.com/danmuck/gridctl/internal/dtype"
)

// Operands arrive as any and resolve into exactly one of four classes.
// Every method that accepts an operand goes through classify, so the
// accepted shapes are decided in one place.
type operandClass uint8

const (
	operandArray operandClass = iota + 1
	operandScalar
	operandSequence
	operandInvalid
)

type operand struct {
	class operandClass
	arr   *Array     // operandArray
	kind  dtype.Kind // operandScalar: inferred kind
	value any        // operandScalar / diagnostics
}

// classify resolves v into its operand class. Bulk containers (slices,
// local dtype.Arrays, maps, strings) classify as sequences: the
// protocol has no command that carries them, and callers treat them as
// not-applicable rather than as a mistake.
func classify(v any) operand {
	switch s := v.(type) {
	case *Array:
		return operand{class: operandArray, arr: s}
	case dtype.Array:
		return operand{class: operandSequence, value: v}
	case nil:
		return operand{class: operandInvalid}
	}
	if kind, err := dtype.InferScalar(v); err == nil {
		return operand{class: operandScalar, kind: kind, value: v}
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return operand{class: operandSequence, value: v}
	}
	return operand{class: operandInvalid, value: v}
}
