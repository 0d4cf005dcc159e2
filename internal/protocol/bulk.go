package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/gridctl/internal/dtype"
)

// Bulk payload codec. A tondarray reply is a headerless block of
// size consecutive big-endian cells, eight bytes each regardless of
// kind: int64 is the two's-complement cell, float64 the IEEE-754 bit
// pattern, bool a zero/nonzero cell.

// DecodeBulk materializes a bulk payload into a local dense array. The
// payload length must equal size*itemsize exactly; anything else is a
// transfer-level failure, not a value error.
func DecodeBulk(kind dtype.Kind, size int64, payload []byte) (dtype.Array, error) {
	itemSize := kind.ItemSize()
	if itemSize == 0 {
		return dtype.Array{}, fmt.Errorf("%w: kind %d", dtype.ErrUnsupportedType, uint8(kind))
	}
	want := size * itemSize
	if int64(len(payload)) != want {
		return dtype.Array{}, fmt.Errorf("%w: got %d bytes, want %d (size %d, itemsize %d)",
			ErrTruncatedTransfer, len(payload), want, size, itemSize)
	}
	switch kind {
	case dtype.Bool:
		out := make([]bool, size)
		for i := range out {
			out[i] = binary.BigEndian.Uint64(payload[i*8:]) != 0
		}
		return dtype.NewBoolArray(out), nil
	case dtype.Int64:
		out := make([]int64, size)
		for i := range out {
			out[i] = int64(binary.BigEndian.Uint64(payload[i*8:]))
		}
		return dtype.NewIntArray(out), nil
	case dtype.Float64:
		out := make([]float64, size)
		for i := range out {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(payload[i*8:]))
		}
		return dtype.NewFloatArray(out), nil
	}
	return dtype.Array{}, fmt.Errorf("%w: kind %d", dtype.ErrUnsupportedType, uint8(kind))
}

// EncodeBulk renders a local array in the bulk wire format. The client
// never sends bulk data; this is the server half of the codec, kept
// here so tests exercise both directions against one definition.
func EncodeBulk(a dtype.Array) []byte {
	out := make([]byte, a.Len()*8)
	for i := 0; i < a.Len(); i++ {
		v := a.At(i)
		var cell uint64
		switch v.Kind {
		case dtype.Bool:
			if v.Bool {
				cell = 1
			}
		case dtype.Int64:
			cell = uint64(v.Int)
		case dtype.Float64:
			cell = math.Float64bits(v.Float)
		}
		binary.BigEndian.PutUint64(out[i*8:], cell)
	}
	return out
}
