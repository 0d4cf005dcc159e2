package grid

import (
	"context"

	"github.com/danmuck/gridctl/internal/dtype"
)

// Iterator walks an Array element by element. The first Next performs
// exactly one bulk transfer and every element after that comes from
// the local copy, so iteration is subject to the session's transfer
// limit and unsuitable for arrays above it. Reset rewinds to the first
// element without fetching again.
type Iterator struct {
	arr     *Array
	local   dtype.Array
	fetched bool
	pos     int
	err     error
}

// Iter returns an iterator positioned before the first element.
func (a *Array) Iter() *Iterator {
	return &Iterator{arr: a}
}

// Next advances to the next element. It returns false when the
// elements are exhausted or the initial transfer failed; Err
// distinguishes the two.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if !it.fetched {
		local, err := it.arr.ToLocal(ctx)
		if err != nil {
			it.err = err
			return false
		}
		it.local = local
		it.fetched = true
	}
	if it.pos >= it.local.Len() {
		return false
	}
	it.pos++
	return true
}

// Value returns the current element. Valid only after a true Next.
func (it *Iterator) Value() dtype.Value {
	return it.local.At(it.pos - 1)
}

// Err returns the transfer error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Reset rewinds to the first element. The local copy, if already
// fetched, is kept; a failed iterator is cleared and will fetch again.
func (it *Iterator) Reset() {
	it.pos = 0
	if it.err != nil {
		it.err = nil
		it.fetched = false
		it.local = dtype.Array{}
	}
}
