package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danmuck/gridctl/internal/dtype"
)

// Command builders. Each returns one ASCII command line, tag first,
// tokens separated by single spaces. Scalar operands are cast to the
// array's element kind and rendered in the canonical wire form before
// they are placed on the line; cast failures surface the dtype error
// unchanged so callers can distinguish them from protocol misuse.

// BinOpVV builds an elementwise array-array operation.
func BinOpVV(op, a, b string) (string, error) {
	if !ValidBinaryOp(op) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	return fmt.Sprintf("binopvv %s %s %s", op, a, b), nil
}

// BinOpVS builds an elementwise array-scalar operation. The scalar is
// cast to kind.
func BinOpVS(op, a string, kind dtype.Kind, scalar any) (string, error) {
	if !ValidBinaryOp(op) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("binopvs %s %s %s %s", op, a, kind.Name(), lit), nil
}

// BinOpSV builds an elementwise scalar-array operation, the reflected
// form of BinOpVS: the scalar is the left operand.
func BinOpSV(op string, kind dtype.Kind, scalar any, a string) (string, error) {
	if !ValidBinaryOp(op) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("binopsv %s %s %s %s", op, kind.Name(), lit, a), nil
}

// OpEqVV builds an in-place array-array operation on a.
func OpEqVV(op, a, b string) (string, error) {
	if !ValidCompoundOp(op) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	return fmt.Sprintf("opeqvv %s %s %s", op, a, b), nil
}

// OpEqVS builds an in-place array-scalar operation on a.
func OpEqVS(op, a string, kind dtype.Kind, scalar any) (string, error) {
	if !ValidCompoundOp(op) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("opeqvs %s %s %s %s", op, a, kind.Name(), lit), nil
}

// IndexGet builds a single-element read.
func IndexGet(a string, i int64) string {
	return fmt.Sprintf("[int] %s %d", a, i)
}

// SliceGet builds a strided range read. Bounds must already be
// normalized to the server's half-open convention.
func SliceGet(a string, start, stop, stride int64) string {
	return fmt.Sprintf("[slice] %s %d %d %d", a, start, stop, stride)
}

// GatherGet builds a read of the elements selected by index array idx.
func GatherGet(a, idx string) string {
	return fmt.Sprintf("[pdarray] %s %s", a, idx)
}

// IndexSet builds a single-element write.
func IndexSet(a string, i int64, kind dtype.Kind, scalar any) (string, error) {
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[int]=val %s %d %s %s", a, i, kind.Name(), lit), nil
}

// GatherSetArray builds a scatter of array val into the positions
// selected by idx.
func GatherSetArray(a, idx, val string) string {
	return fmt.Sprintf("[pdarray]=pdarray %s %s %s", a, idx, val)
}

// GatherSetScalar builds a scatter of one scalar into the positions
// selected by idx.
func GatherSetScalar(a, idx string, kind dtype.Kind, scalar any) (string, error) {
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[pdarray]=val %s %s %s %s", a, idx, kind.Name(), lit), nil
}

// SliceSetArray builds a strided range write from array val.
func SliceSetArray(a string, start, stop, stride int64, val string) string {
	return fmt.Sprintf("[slice]=pdarray %s %d %d %d %s", a, start, stop, stride, val)
}

// SliceSetScalar builds a strided range write of one scalar.
func SliceSetScalar(a string, start, stop, stride int64, kind dtype.Kind, scalar any) (string, error) {
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[slice]=val %s %d %d %d %s %s", a, start, stop, stride, kind.Name(), lit), nil
}

// Fill builds an in-place constant fill of every element.
func Fill(a string, kind dtype.Kind, scalar any) (string, error) {
	lit, err := kind.Format(scalar)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("set %s %s %s", a, kind.Name(), lit), nil
}

// Reduce builds a whole-array reduction returning one scalar.
func Reduce(op, a string) (string, error) {
	if !ValidReduction(op) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	return fmt.Sprintf("reduction %s %s", op, a), nil
}

// FetchAll builds the bulk transfer request. The reply is binary.
func FetchAll(a string) string {
	return "tondarray " + a
}

// Delete builds the handle release request.
func Delete(a string) string {
	return "delete " + a
}

// Info builds a metadata query for the named array.
func Info(a string) string {
	return "info " + a
}

// Str builds a human-readable rendering request. Arrays longer than
// threshold come back elided.
func Str(a string, threshold int64) string {
	return fmt.Sprintf("str %s %d", a, threshold)
}

// Repr builds a developer-oriented rendering request.
func Repr(a string, threshold int64) string {
	return fmt.Sprintf("repr %s %d", a, threshold)
}

// SaveMode selects how Save treats existing files at the destination.
type SaveMode uint8

const (
	SaveTruncate SaveMode = 0
	SaveAppend   SaveMode = 1
)

// ParseSaveMode resolves a mode name. Matching is case-insensitive and
// accepts any non-empty prefix of "truncate" or "append", so "trunc"
// and "app" both resolve. Anything else is rejected before a command
// is ever built.
func ParseSaveMode(s string) (SaveMode, error) {
	m := strings.ToLower(s)
	if m != "" {
		if strings.HasPrefix("truncate", m) {
			return SaveTruncate, nil
		}
		if strings.HasPrefix("append", m) {
			return SaveAppend, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (allowed modes are truncate and append)", ErrInvalidMode, s)
}

func (m SaveMode) String() string {
	switch m {
	case SaveTruncate:
		return "truncate"
	case SaveAppend:
		return "append"
	}
	return "invalid"
}

// Save builds a persist-to-HDF5 request. The prefix path travels as a
// one-element JSON array so the server receives it uninterpreted; the
// dataset name and prefix must not contain whitespace because the
// command line is split on spaces.
func Save(a, dataset string, mode SaveMode, prefixPath string) (string, error) {
	if mode != SaveTruncate && mode != SaveAppend {
		return "", fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
	if dataset == "" || strings.ContainsAny(dataset, " \t\n") {
		return "", fmt.Errorf("%w: dataset %q", ErrInvalidArgument, dataset)
	}
	if prefixPath == "" || strings.ContainsAny(prefixPath, " \t\n") {
		return "", fmt.Errorf("%w: prefix path %q", ErrInvalidArgument, prefixPath)
	}
	path, err := json.Marshal([]string{prefixPath})
	if err != nil {
		return "", fmt.Errorf("%w: prefix path %q", ErrInvalidArgument, prefixPath)
	}
	return fmt.Sprintf("tohdf %s %s %d %s", a, dataset, mode, path), nil
}
