package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/gridctl/internal/dtype"
	"github.com/danmuck/gridctl/internal/protocol"
)

// Array is the proxy for one server-side array. It carries only the
// descriptor; the elements never live here. Arrays are minted by
// Client.ArrayFromReply or returned by operations on other Arrays.
//
// An Array is owned by one caller at a time and methods must not be
// invoked concurrently; each call is one blocking command/reply pair.
type Array struct {
	client   *Client
	desc     protocol.Descriptor
	released bool
}

// Name is the server-assigned identifier of the remote storage.
func (a *Array) Name() string { return a.desc.Name }

// Kind is the element kind of the remote storage.
func (a *Array) Kind() dtype.Kind { return a.desc.Kind }

// Size is the total element count.
func (a *Array) Size() int64 { return a.desc.Size }

// NDim is the dimension count. Only rank 1 is fully supported.
func (a *Array) NDim() int64 { return a.desc.NDim }

// Shape returns a copy of the extent per dimension.
func (a *Array) Shape() []int64 {
	shape := make([]int64, len(a.desc.Shape))
	copy(shape, a.desc.Shape)
	return shape
}

// ItemSize is the byte width of one element in the bulk format.
func (a *Array) ItemSize() int64 { return a.desc.ItemSize }

// Len is the extent of the first dimension.
func (a *Array) Len() int64 {
	if len(a.desc.Shape) == 0 {
		return 0
	}
	return a.desc.Shape[0]
}

func (a *Array) String() string {
	return fmt.Sprintf("array(%s %s size=%d shape=%v)", a.desc.Name, a.desc.Kind, a.desc.Size, a.desc.Shape)
}

func (a *Array) live() error {
	if a.released {
		return fmt.Errorf("%w: %s", ErrReleased, a.desc.Name)
	}
	return nil
}

// BinOp applies elementwise operator op with a as the left operand and
// returns a new Array. The right operand may be another Array (sizes
// must match) or a supported scalar; sequence operands report
// ErrNotApplicable. Everything is validated before a command is sent.
func (a *Array) BinOp(ctx context.Context, op string, other any) (*Array, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	switch rhs := classify(other); rhs.class {
	case operandArray:
		if err := rhs.arr.live(); err != nil {
			return nil, err
		}
		if rhs.arr.desc.Size != a.desc.Size {
			return nil, fmt.Errorf("%w: %d vs %d", protocol.ErrSizeMismatch, a.desc.Size, rhs.arr.desc.Size)
		}
		cmd, err := protocol.BinOpVV(op, a.desc.Name, rhs.arr.desc.Name)
		if err != nil {
			return nil, err
		}
		return a.createFrom(ctx, cmd)
	case operandScalar:
		cmd, err := protocol.BinOpVS(op, a.desc.Name, rhs.kind, rhs.value)
		if err != nil {
			return nil, err
		}
		return a.createFrom(ctx, cmd)
	case operandSequence:
		return nil, fmt.Errorf("%w: %T operand", ErrNotApplicable, other)
	}
	return nil, fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, other)
}

// RBinOp applies op with a as the right operand, for expressions whose
// left side is a local scalar.
func (a *Array) RBinOp(ctx context.Context, op string, other any) (*Array, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	switch lhs := classify(other); lhs.class {
	case operandArray:
		return lhs.arr.BinOp(ctx, op, a)
	case operandScalar:
		cmd, err := protocol.BinOpSV(op, lhs.kind, lhs.value, a.desc.Name)
		if err != nil {
			return nil, err
		}
		return a.createFrom(ctx, cmd)
	case operandSequence:
		return nil, fmt.Errorf("%w: %T operand", ErrNotApplicable, other)
	}
	return nil, fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, other)
}

// OpEq applies compound operator op to a in place. The name, size, and
// shape of a never change. A scalar that cannot be cast to a's own
// kind reports ErrNotApplicable: the combination is simply not offered,
// it is not a malformed call.
func (a *Array) OpEq(ctx context.Context, op string, other any) error {
	if err := a.live(); err != nil {
		return err
	}
	switch rhs := classify(other); rhs.class {
	case operandArray:
		if err := rhs.arr.live(); err != nil {
			return err
		}
		if rhs.arr.desc.Size != a.desc.Size {
			return fmt.Errorf("%w: %d vs %d", protocol.ErrSizeMismatch, a.desc.Size, rhs.arr.desc.Size)
		}
		cmd, err := protocol.OpEqVV(op, a.desc.Name, rhs.arr.desc.Name)
		if err != nil {
			return err
		}
		_, err = a.client.roundTrip(ctx, cmd)
		return err
	case operandScalar:
		cmd, err := protocol.OpEqVS(op, a.desc.Name, a.desc.Kind, rhs.value)
		if err != nil {
			if errors.Is(err, dtype.ErrCast) {
				return fmt.Errorf("%w: %v", ErrNotApplicable, err)
			}
			return err
		}
		_, err = a.client.roundTrip(ctx, cmd)
		return err
	case operandSequence:
		return fmt.Errorf("%w: %T operand", ErrNotApplicable, other)
	}
	return fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, other)
}

// Neg returns the elementwise negation, computed as a * -1.
func (a *Array) Neg(ctx context.Context) (*Array, error) {
	return a.BinOp(ctx, "*", -1)
}

// Invert returns the elementwise complement: xor with -1 for int64
// arrays, xor with true for bool arrays. Float arrays have no
// complement and report ErrNotApplicable.
func (a *Array) Invert(ctx context.Context) (*Array, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	switch a.desc.Kind {
	case dtype.Int64:
		return a.BinOp(ctx, "^", -1)
	case dtype.Bool:
		return a.BinOp(ctx, "^", true)
	}
	return nil, fmt.Errorf("%w: invert on %s array", ErrNotApplicable, a.desc.Kind)
}

// At reads element i. Bounds are checked locally; no negative-index
// resolution applies to single-element access.
func (a *Array) At(ctx context.Context, i int64) (dtype.Value, error) {
	if err := a.live(); err != nil {
		return dtype.Value{}, err
	}
	if i < 0 || i >= a.desc.Size {
		return dtype.Value{}, fmt.Errorf("%w: %d with size %d", ErrIndexOutOfBounds, i, a.desc.Size)
	}
	reply, err := a.client.roundTrip(ctx, protocol.IndexGet(a.desc.Name, i))
	if err != nil {
		return dtype.Value{}, err
	}
	return protocol.ParseScalar(reply)
}

// SetAt writes scalar v to element i, cast to a's own kind.
func (a *Array) SetAt(ctx context.Context, i int64, v any) error {
	if err := a.live(); err != nil {
		return err
	}
	if i < 0 || i >= a.desc.Size {
		return fmt.Errorf("%w: %d with size %d", ErrIndexOutOfBounds, i, a.desc.Size)
	}
	switch val := classify(v); val.class {
	case operandScalar:
		cmd, err := protocol.IndexSet(a.desc.Name, i, a.desc.Kind, val.value)
		if err != nil {
			return err
		}
		_, err = a.client.roundTrip(ctx, cmd)
		return err
	case operandArray, operandSequence:
		return fmt.Errorf("%w: %T value for single-element write", ErrNotApplicable, v)
	}
	return fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, v)
}

// Slice reads the elements selected by r as a new Array. Empty ranges
// are legal and produce a size-zero array.
func (a *Array) Slice(ctx context.Context, r Range) (*Array, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	start, stop, step, _ := r.normalize(a.desc.Size)
	return a.createFrom(ctx, protocol.SliceGet(a.desc.Name, start, stop, step))
}

// SetSlice writes into the elements selected by r, either from another
// Array (elementwise, the server checks the count) or from a scalar
// broadcast in a's own kind.
func (a *Array) SetSlice(ctx context.Context, r Range, v any) error {
	if err := a.live(); err != nil {
		return err
	}
	start, stop, step, _ := r.normalize(a.desc.Size)
	switch val := classify(v); val.class {
	case operandArray:
		if err := val.arr.live(); err != nil {
			return err
		}
		_, err := a.client.roundTrip(ctx, protocol.SliceSetArray(a.desc.Name, start, stop, step, val.arr.desc.Name))
		return err
	case operandScalar:
		cmd, err := protocol.SliceSetScalar(a.desc.Name, start, stop, step, a.desc.Kind, val.value)
		if err != nil {
			return err
		}
		_, err = a.client.roundTrip(ctx, cmd)
		return err
	case operandSequence:
		return fmt.Errorf("%w: %T value for slice write", ErrNotApplicable, v)
	}
	return fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, v)
}

// checkIndexArray validates an array used as an index: bool keys mask
// positionally and must match the target size exactly; int64 keys
// gather, with the index values bounds-checked by the server.
func (a *Array) checkIndexArray(key *Array) error {
	if err := key.live(); err != nil {
		return err
	}
	switch key.desc.Kind {
	case dtype.Bool:
		if key.desc.Size != a.desc.Size {
			return fmt.Errorf("%w: bool index size %d against %d", protocol.ErrSizeMismatch, key.desc.Size, a.desc.Size)
		}
		return nil
	case dtype.Int64:
		return nil
	}
	return fmt.Errorf("%w: %s array cannot index", dtype.ErrUnsupportedType, key.desc.Kind)
}

// Select reads the elements chosen by key as a new Array.
func (a *Array) Select(ctx context.Context, key *Array) (*Array, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	if err := a.checkIndexArray(key); err != nil {
		return nil, err
	}
	return a.createFrom(ctx, protocol.GatherGet(a.desc.Name, key.desc.Name))
}

// SetSelect writes into the elements chosen by key, from another Array
// or from a scalar broadcast in a's own kind.
func (a *Array) SetSelect(ctx context.Context, key *Array, v any) error {
	if err := a.live(); err != nil {
		return err
	}
	if err := a.checkIndexArray(key); err != nil {
		return err
	}
	switch val := classify(v); val.class {
	case operandArray:
		if err := val.arr.live(); err != nil {
			return err
		}
		_, err := a.client.roundTrip(ctx, protocol.GatherSetArray(a.desc.Name, key.desc.Name, val.arr.desc.Name))
		return err
	case operandScalar:
		cmd, err := protocol.GatherSetScalar(a.desc.Name, key.desc.Name, a.desc.Kind, val.value)
		if err != nil {
			return err
		}
		_, err = a.client.roundTrip(ctx, cmd)
		return err
	case operandSequence:
		return fmt.Errorf("%w: %T value for indexed write", ErrNotApplicable, v)
	}
	return fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, v)
}

// Fill overwrites every element with scalar v, cast to a's own kind.
func (a *Array) Fill(ctx context.Context, v any) error {
	if err := a.live(); err != nil {
		return err
	}
	switch val := classify(v); val.class {
	case operandScalar:
		cmd, err := protocol.Fill(a.desc.Name, a.desc.Kind, val.value)
		if err != nil {
			return err
		}
		_, err = a.client.roundTrip(ctx, cmd)
		return err
	case operandArray, operandSequence:
		return fmt.Errorf("%w: %T value for fill", ErrNotApplicable, v)
	}
	return fmt.Errorf("%w: %T", protocol.ErrUnsupportedScalar, v)
}

// ToLocal pulls the full contents into a local dense array. Transfers
// past the session's MaxTransferBytes are refused before any command
// is sent; raise the limit on the Client config to allow them.
func (a *Array) ToLocal(ctx context.Context) (dtype.Array, error) {
	if err := a.live(); err != nil {
		return dtype.Array{}, err
	}
	total := a.desc.Size * a.desc.ItemSize
	if total > a.client.cfg.MaxTransferBytes {
		return dtype.Array{}, fmt.Errorf("%w: %d bytes with limit %d",
			ErrTransferTooLarge, total, a.client.cfg.MaxTransferBytes)
	}
	payload, err := a.client.roundTripBinary(ctx, protocol.FetchAll(a.desc.Name))
	if err != nil {
		return dtype.Array{}, err
	}
	return protocol.DecodeBulk(a.desc.Kind, a.desc.Size, payload)
}

// Reduce collapses the array to one scalar with the named reduction.
func (a *Array) Reduce(ctx context.Context, op string) (dtype.Value, error) {
	if err := a.live(); err != nil {
		return dtype.Value{}, err
	}
	cmd, err := protocol.Reduce(op, a.desc.Name)
	if err != nil {
		return dtype.Value{}, err
	}
	reply, err := a.client.roundTrip(ctx, cmd)
	if err != nil {
		return dtype.Value{}, err
	}
	return protocol.ParseScalar(reply)
}

// Sum returns the sum of all elements.
func (a *Array) Sum(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "sum") }

// Prod returns the product of all elements.
func (a *Array) Prod(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "prod") }

// Min returns the smallest element.
func (a *Array) Min(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "min") }

// Max returns the largest element.
func (a *Array) Max(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "max") }

// ArgMin returns the index of the smallest element.
func (a *Array) ArgMin(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "argmin") }

// ArgMax returns the index of the largest element.
func (a *Array) ArgMax(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "argmax") }

// Mean returns the arithmetic mean of all elements.
func (a *Array) Mean(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "mean") }

// Var returns the variance of all elements.
func (a *Array) Var(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "var") }

// Std returns the standard deviation of all elements.
func (a *Array) Std(ctx context.Context) (dtype.Value, error) { return a.Reduce(ctx, "std") }

// Any reports whether any element is truthy.
func (a *Array) Any(ctx context.Context) (bool, error) { return a.predicate(ctx, "any") }

// All reports whether every element is truthy.
func (a *Array) All(ctx context.Context) (bool, error) { return a.predicate(ctx, "all") }

// IsSorted reports whether the elements are in nondecreasing order.
func (a *Array) IsSorted(ctx context.Context) (bool, error) { return a.predicate(ctx, "is_sorted") }

func (a *Array) predicate(ctx context.Context, op string) (bool, error) {
	v, err := a.Reduce(ctx, op)
	if err != nil {
		return false, err
	}
	if v.Kind != dtype.Bool {
		return false, fmt.Errorf("%w: %s reply is %s, want bool", protocol.ErrMalformedReply, op, v.Kind)
	}
	return v.Bool, nil
}

// Save persists the array under dataset within HDF5 files rooted at
// prefixPath on the server's filesystem. Mode is any case-insensitive
// prefix of "truncate" or "append"; anything else is refused locally.
func (a *Array) Save(ctx context.Context, prefixPath, dataset, mode string) error {
	if err := a.live(); err != nil {
		return err
	}
	m, err := protocol.ParseSaveMode(mode)
	if err != nil {
		return err
	}
	cmd, err := protocol.Save(a.desc.Name, dataset, m, prefixPath)
	if err != nil {
		return err
	}
	_, err = a.client.roundTrip(ctx, cmd)
	return err
}

// Info asks the server to describe the array.
func (a *Array) Info(ctx context.Context) (string, error) {
	if err := a.live(); err != nil {
		return "", err
	}
	return a.client.Info(ctx, a.desc.Name)
}

// Str returns the server's human-readable rendering.
func (a *Array) Str(ctx context.Context) (string, error) {
	if err := a.live(); err != nil {
		return "", err
	}
	return a.client.Str(ctx, a.desc.Name)
}

// Repr returns the server's developer-oriented rendering.
func (a *Array) Repr(ctx context.Context) (string, error) {
	if err := a.live(); err != nil {
		return "", err
	}
	return a.client.Repr(ctx, a.desc.Name)
}

// Release tells the server it may reclaim the storage. It is explicit,
// idempotent, and best-effort: a transport failure is logged and
// dropped, never surfaced, so releasing against a dead server is safe.
// The Array is unusable afterward.
func (a *Array) Release(ctx context.Context) {
	if a.released {
		return
	}
	a.released = true
	if _, err := a.client.roundTrip(ctx, protocol.Delete(a.desc.Name)); err != nil {
		log.Warn().Err(err).Str("array", a.desc.Name).Msg("release notification failed")
	}
}

// createFrom runs a command whose reply announces a new array.
func (a *Array) createFrom(ctx context.Context, cmd string) (*Array, error) {
	reply, err := a.client.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return a.client.ArrayFromReply(reply)
}
