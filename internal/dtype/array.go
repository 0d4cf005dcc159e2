package dtype

import "fmt"

// Array is a local, dense copy of a remote array's elements. It is the
// materialized result of a bulk transfer: one backing slice selected by
// kind, never more than one populated at a time.
type Array struct {
	kind   Kind
	bools  []bool
	ints   []int64
	floats []float64
}

// NewBoolArray wraps a bool slice without copying.
func NewBoolArray(v []bool) Array { return Array{kind: Bool, bools: v} }

// NewIntArray wraps an int64 slice without copying.
func NewIntArray(v []int64) Array { return Array{kind: Int64, ints: v} }

// NewFloatArray wraps a float64 slice without copying.
func NewFloatArray(v []float64) Array { return Array{kind: Float64, floats: v} }

// Kind returns the element kind of the local copy.
func (a Array) Kind() Kind { return a.kind }

// Len returns the element count.
func (a Array) Len() int {
	switch a.kind {
	case Bool:
		return len(a.bools)
	case Int64:
		return len(a.ints)
	case Float64:
		return len(a.floats)
	}
	return 0
}

// At returns element i as a tagged Value. It panics when i is out of
// range, matching slice indexing.
func (a Array) At(i int) Value {
	switch a.kind {
	case Bool:
		return BoolValue(a.bools[i])
	case Int64:
		return IntValue(a.ints[i])
	case Float64:
		return FloatValue(a.floats[i])
	}
	panic("dtype: At on invalid array")
}

// Bools returns the backing bool slice, or ErrKindMismatch when the
// array holds another kind.
func (a Array) Bools() ([]bool, error) {
	if a.kind != Bool {
		return nil, fmt.Errorf("%w: array is %s, not bool", ErrKindMismatch, a.kind)
	}
	return a.bools, nil
}

// Ints returns the backing int64 slice, or ErrKindMismatch.
func (a Array) Ints() ([]int64, error) {
	if a.kind != Int64 {
		return nil, fmt.Errorf("%w: array is %s, not int64", ErrKindMismatch, a.kind)
	}
	return a.ints, nil
}

// Floats returns the backing float64 slice, or ErrKindMismatch.
func (a Array) Floats() ([]float64, error) {
	if a.kind != Float64 {
		return nil, fmt.Errorf("%w: array is %s, not float64", ErrKindMismatch, a.kind)
	}
	return a.floats, nil
}
