package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/gridctl/internal/dtype"
	"github.com/danmuck/gridctl/internal/protocol"
	"github.com/danmuck/gridctl/internal/testutil/testlog"
)

// fakeTransport scripts replies and records every command sent, so
// tests can assert both the exact wire traffic and its absence.
type fakeTransport struct {
	textReplies []string
	binReplies  [][]byte
	textErr     error
	binErr      error

	sentText   []string
	sentBinary []string
	closed     bool
}

func (f *fakeTransport) SendText(_ context.Context, cmd string) (string, error) {
	f.sentText = append(f.sentText, cmd)
	if f.textErr != nil {
		return "", f.textErr
	}
	if len(f.textReplies) == 0 {
		return "", errors.New("fakeTransport: no scripted reply")
	}
	reply := f.textReplies[0]
	f.textReplies = f.textReplies[1:]
	return reply, nil
}

func (f *fakeTransport) SendBinary(_ context.Context, cmd string) ([]byte, error) {
	f.sentBinary = append(f.sentBinary, cmd)
	if f.binErr != nil {
		return nil, f.binErr
	}
	if len(f.binReplies) == 0 {
		return nil, errors.New("fakeTransport: no scripted reply")
	}
	reply := f.binReplies[0]
	f.binReplies = f.binReplies[1:]
	return reply, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) calls() int { return len(f.sentText) + len(f.sentBinary) }

func newTestSession(t *testing.T, cfg Config) (*Client, *fakeTransport) {
	t.Helper()
	testlog.Start(t)
	ft := &fakeTransport{}
	return NewClient(ft, cfg), ft
}

func mintArray(t *testing.T, c *Client, reply string) *Array {
	t.Helper()
	arr, err := c.ArrayFromReply(reply)
	if err != nil {
		t.Fatalf("mint array from %q: %v", reply, err)
	}
	return arr
}

func TestBinOpScalarRoundTrip(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	ft.textReplies = []string{"created id1 int64 3 1 (3) 8"}
	b, err := a.BinOp(context.Background(), "+", 2)
	if err != nil {
		t.Fatalf("binop: %v", err)
	}
	if len(ft.sentText) != 1 || ft.sentText[0] != "binopvs + id0 int64 2" {
		t.Fatalf("sent %v, want exactly [binopvs + id0 int64 2]", ft.sentText)
	}
	if b.Name() != "id1" || b.Size() != 3 || b.Kind() != dtype.Int64 {
		t.Fatalf("unexpected result array: %v", b)
	}
}

func TestBinOpArrayFormAndSizeMismatch(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")
	b := mintArray(t, c, "created id1 int64 3 1 (3) 8")
	short := mintArray(t, c, "created id2 int64 2 1 (2) 8")

	if _, err := a.BinOp(context.Background(), "+", short); !errors.Is(err, protocol.ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if ft.calls() != 0 {
		t.Fatalf("size mismatch reached the transport: %v", ft.sentText)
	}

	ft.textReplies = []string{"created id3 bool 3 1 (3) 8"}
	res, err := a.BinOp(context.Background(), "<", b)
	if err != nil {
		t.Fatalf("binop vv: %v", err)
	}
	if ft.sentText[0] != "binopvv < id0 id1" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if res.Kind() != dtype.Bool {
		t.Fatalf("comparison kind = %v, want bool", res.Kind())
	}
}

func TestBinOpOperandClasses(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	if _, err := a.BinOp(context.Background(), "+", []int{1, 2, 3}); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("sequence operand: expected ErrNotApplicable, got %v", err)
	}
	if _, err := a.BinOp(context.Background(), "+", struct{ X int }{1}); !errors.Is(err, protocol.ErrUnsupportedScalar) {
		t.Fatalf("struct operand: expected ErrUnsupportedScalar, got %v", err)
	}
	if _, err := a.BinOp(context.Background(), "@", 1); !errors.Is(err, protocol.ErrUnsupportedOperator) {
		t.Fatalf("expected ErrUnsupportedOperator, got %v", err)
	}
	if ft.calls() != 0 {
		t.Fatalf("rejected operands reached the transport: %v", ft.sentText)
	}
}

func TestRBinOpScalar(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 float64 2 1 (2) 8")

	ft.textReplies = []string{"created id1 float64 2 1 (2) 8"}
	if _, err := a.RBinOp(context.Background(), "-", 1.5); err != nil {
		t.Fatalf("rbinop: %v", err)
	}
	if ft.sentText[0] != "binopsv - float64 1.50000000000000000 id0" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
}

func TestOpEqScalarUsesOwnKind(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	ft.textReplies = []string{"opeqvs id0 success"}
	if err := a.OpEq(context.Background(), "+=", 2.0); err != nil {
		t.Fatalf("opeq: %v", err)
	}
	// the float scalar is cast to the array's int64 kind before it is sent
	if ft.sentText[0] != "opeqvs += id0 int64 2" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if a.Name() != "id0" || a.Size() != 3 {
		t.Fatalf("opeq changed the descriptor: %v", a)
	}
}

func TestOpEqCastFailureIsNotApplicable(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	err := a.OpEq(context.Background(), "+=", 1e300)
	if !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
	if ft.calls() != 0 {
		t.Fatalf("uncastable scalar reached the transport: %v", ft.sentText)
	}
}

func TestNegAndInvert(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	ints := mintArray(t, c, "created id0 int64 3 1 (3) 8")
	bools := mintArray(t, c, "created id1 bool 3 1 (3) 8")
	floats := mintArray(t, c, "created id2 float64 3 1 (3) 8")

	ft.textReplies = []string{
		"created id3 int64 3 1 (3) 8",
		"created id4 int64 3 1 (3) 8",
		"created id5 bool 3 1 (3) 8",
	}
	if _, err := ints.Neg(context.Background()); err != nil {
		t.Fatalf("neg: %v", err)
	}
	if _, err := ints.Invert(context.Background()); err != nil {
		t.Fatalf("invert int: %v", err)
	}
	if _, err := bools.Invert(context.Background()); err != nil {
		t.Fatalf("invert bool: %v", err)
	}
	want := []string{
		"binopvs * id0 int64 -1",
		"binopvs ^ id0 int64 -1",
		"binopvs ^ id1 bool True",
	}
	for i, cmd := range want {
		if ft.sentText[i] != cmd {
			t.Fatalf("sent[%d] = %q, want %q", i, ft.sentText[i], cmd)
		}
	}
	if _, err := floats.Invert(context.Background()); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("invert float: expected ErrNotApplicable, got %v", err)
	}
}

func TestAtBoundsCheckedLocally(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	for _, i := range []int64{-1, 3, 99} {
		if _, err := a.At(context.Background(), i); !errors.Is(err, ErrIndexOutOfBounds) {
			t.Fatalf("At(%d): expected ErrIndexOutOfBounds, got %v", i, err)
		}
	}
	if ft.calls() != 0 {
		t.Fatalf("out-of-bounds read reached the transport: %v", ft.sentText)
	}

	ft.textReplies = []string{"item int64 7"}
	v, err := a.At(context.Background(), 1)
	if err != nil {
		t.Fatalf("At(1): %v", err)
	}
	if ft.sentText[0] != "[int] id0 1" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if v != dtype.IntValue(7) {
		t.Fatalf("At(1) = %+v", v)
	}
}

func TestSetAtCastsToOwnKind(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 float64 3 1 (3) 8")

	if err := a.SetAt(context.Background(), 5, 1); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected ErrIndexOutOfBounds, got %v", err)
	}
	ft.textReplies = []string{"[int]=val id0 success"}
	if err := a.SetAt(context.Background(), 2, 9); err != nil {
		t.Fatalf("setat: %v", err)
	}
	if ft.sentText[0] != "[int]=val id0 2 float64 9.00000000000000000" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
}

func TestSliceSendsNormalizedTriple(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 10 1 (10) 8")

	ft.textReplies = []string{"created id1 int64 3 1 (3) 8"}
	if _, err := a.Slice(context.Background(), Range{Start: -3, Stop: 99, Step: 0}); err != nil {
		t.Fatalf("slice: %v", err)
	}
	if ft.sentText[0] != "[slice] id0 7 10 1" {
		t.Fatalf("sent %q", ft.sentText[0])
	}

	ft.textReplies = []string{"created id2 int64 0 1 (0) 8"}
	empty, err := a.Slice(context.Background(), Range{Start: 5, Stop: 5, Step: 1})
	if err != nil {
		t.Fatalf("empty slice: %v", err)
	}
	if empty.Size() != 0 {
		t.Fatalf("empty slice size = %d", empty.Size())
	}
}

func TestSetSliceForms(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 10 1 (10) 8")
	src := mintArray(t, c, "created id1 int64 5 1 (5) 8")

	ft.textReplies = []string{"[slice]=pdarray id0 success", "[slice]=val id0 success"}
	if err := a.SetSlice(context.Background(), Range{Start: 0, Stop: 10, Step: 2}, src); err != nil {
		t.Fatalf("setslice array: %v", err)
	}
	if err := a.SetSlice(context.Background(), Range{Start: 0, Stop: 4, Step: 1}, true); err != nil {
		t.Fatalf("setslice scalar: %v", err)
	}
	if ft.sentText[0] != "[slice]=pdarray id0 0 10 2 id1" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if ft.sentText[1] != "[slice]=val id0 0 4 1 int64 1" {
		t.Fatalf("sent %q", ft.sentText[1])
	}
	if err := a.SetSlice(context.Background(), Range{}, []bool{true}); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

func TestSelectKeyValidation(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 4 1 (4) 8")
	shortMask := mintArray(t, c, "created id1 bool 3 1 (3) 8")
	floats := mintArray(t, c, "created id2 float64 4 1 (4) 8")
	gather := mintArray(t, c, "created id3 int64 2 1 (2) 8")

	if _, err := a.Select(context.Background(), shortMask); !errors.Is(err, protocol.ErrSizeMismatch) {
		t.Fatalf("short bool mask: expected ErrSizeMismatch, got %v", err)
	}
	if _, err := a.Select(context.Background(), floats); !errors.Is(err, dtype.ErrUnsupportedType) {
		t.Fatalf("float key: expected ErrUnsupportedType, got %v", err)
	}
	if ft.calls() != 0 {
		t.Fatalf("invalid keys reached the transport: %v", ft.sentText)
	}

	ft.textReplies = []string{"created id4 int64 2 1 (2) 8"}
	res, err := a.Select(context.Background(), gather)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if ft.sentText[0] != "[pdarray] id0 id3" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if res.Size() != 2 {
		t.Fatalf("gather size = %d", res.Size())
	}
}

func TestSetSelectForms(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 4 1 (4) 8")
	mask := mintArray(t, c, "created id1 bool 4 1 (4) 8")
	src := mintArray(t, c, "created id2 int64 4 1 (4) 8")

	ft.textReplies = []string{"[pdarray]=pdarray id0 success", "[pdarray]=val id0 success"}
	if err := a.SetSelect(context.Background(), mask, src); err != nil {
		t.Fatalf("setselect array: %v", err)
	}
	if err := a.SetSelect(context.Background(), mask, 0); err != nil {
		t.Fatalf("setselect scalar: %v", err)
	}
	if ft.sentText[0] != "[pdarray]=pdarray id0 id1 id2" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if ft.sentText[1] != "[pdarray]=val id0 id1 int64 0" {
		t.Fatalf("sent %q", ft.sentText[1])
	}
}

func TestFill(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 bool 4 1 (4) 8")

	ft.textReplies = []string{"set id0 success"}
	if err := a.Fill(context.Background(), 1); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ft.sentText[0] != "set id0 bool True" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
}

func TestReduceAndPredicates(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	ft.textReplies = []string{"item int64 6"}
	v, err := a.Sum(context.Background())
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if ft.sentText[0] != "reduction sum id0" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if v != dtype.IntValue(6) {
		t.Fatalf("sum = %+v", v)
	}

	ft.textReplies = []string{"item bool True"}
	sorted, err := a.IsSorted(context.Background())
	if err != nil {
		t.Fatalf("is_sorted: %v", err)
	}
	if !sorted {
		t.Fatalf("is_sorted = false")
	}

	ft.textReplies = []string{"item int64 1"}
	if _, err := a.Any(context.Background()); !errors.Is(err, protocol.ErrMalformedReply) {
		t.Fatalf("non-bool predicate reply: expected ErrMalformedReply, got %v", err)
	}
}

func TestToLocal(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 5 1 (5) 8")

	ft.binReplies = [][]byte{make([]byte, 40)}
	local, err := a.ToLocal(context.Background())
	if err != nil {
		t.Fatalf("tolocal: %v", err)
	}
	if ft.sentBinary[0] != "tondarray id0" {
		t.Fatalf("sent %q", ft.sentBinary[0])
	}
	ints, err := local.Ints()
	if err != nil {
		t.Fatalf("ints: %v", err)
	}
	if len(ints) != 5 {
		t.Fatalf("len = %d, want 5", len(ints))
	}
	for i, v := range ints {
		if v != 0 {
			t.Fatalf("ints[%d] = %d, want 0", i, v)
		}
	}

	ft.binReplies = [][]byte{make([]byte, 39)}
	if _, err := a.ToLocal(context.Background()); !errors.Is(err, protocol.ErrTruncatedTransfer) {
		t.Fatalf("expected ErrTruncatedTransfer, got %v", err)
	}
}

func TestToLocalRespectsTransferLimit(t *testing.T) {
	c, ft := newTestSession(t, Config{MaxTransferBytes: 32})
	a := mintArray(t, c, "created id0 int64 5 1 (5) 8")

	if _, err := a.ToLocal(context.Background()); !errors.Is(err, ErrTransferTooLarge) {
		t.Fatalf("expected ErrTransferTooLarge, got %v", err)
	}
	if ft.calls() != 0 {
		t.Fatalf("oversized transfer reached the transport: %v", ft.sentBinary)
	}
}

func TestIteratorSingleTransferAndReset(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	payload := protocol.EncodeBulk(dtype.NewIntArray([]int64{4, 5, 6}))
	ft.binReplies = [][]byte{payload}

	it := a.Iter()
	var got []int64
	for it.Next(context.Background()) {
		got = append(got, it.Value().Int)
	}
	if it.Err() != nil {
		t.Fatalf("iter: %v", it.Err())
	}
	if len(got) != 3 || got[0] != 4 || got[2] != 6 {
		t.Fatalf("iterated %v", got)
	}

	it.Reset()
	var count int
	for it.Next(context.Background()) {
		count++
	}
	if count != 3 {
		t.Fatalf("second pass count = %d", count)
	}
	if len(ft.sentBinary) != 1 {
		t.Fatalf("iterator transferred %d times, want 1", len(ft.sentBinary))
	}
}

func TestIteratorSurfacesTransferError(t *testing.T) {
	c, _ := newTestSession(t, Config{MaxTransferBytes: 8})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	it := a.Iter()
	if it.Next(context.Background()) {
		t.Fatalf("Next succeeded past the transfer limit")
	}
	if !errors.Is(it.Err(), ErrTransferTooLarge) {
		t.Fatalf("expected ErrTransferTooLarge, got %v", it.Err())
	}
}

func TestSaveModeHandling(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	ft.textReplies = []string{"tohdf id0 success", "tohdf id0 success"}
	if err := a.Save(context.Background(), "/data/out", "ints", "truncate"); err != nil {
		t.Fatalf("save truncate: %v", err)
	}
	if ft.sentText[0] != `tohdf id0 ints 0 ["/data/out"]` {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if err := a.Save(context.Background(), "/data/out", "ints", "Append"); err != nil {
		t.Fatalf("save append: %v", err)
	}
	if ft.sentText[1] != `tohdf id0 ints 1 ["/data/out"]` {
		t.Fatalf("sent %q", ft.sentText[1])
	}

	before := ft.calls()
	if err := a.Save(context.Background(), "/data/out", "ints", "delete"); !errors.Is(err, protocol.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if ft.calls() != before {
		t.Fatalf("invalid mode reached the transport")
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	ft.textReplies = []string{"Error: unknown symbol id0"}
	if _, err := a.Sum(context.Background()); !errors.Is(err, protocol.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestReleaseIsIdempotentAndSwallowsErrors(t *testing.T) {
	c, ft := newTestSession(t, Config{})
	a := mintArray(t, c, "created id0 int64 3 1 (3) 8")

	ft.textErr = errors.New("connection reset")
	a.Release(context.Background())
	a.Release(context.Background())
	if len(ft.sentText) != 1 {
		t.Fatalf("release sent %d deletes, want 1", len(ft.sentText))
	}
	if ft.sentText[0] != "delete id0" {
		t.Fatalf("sent %q", ft.sentText[0])
	}
	if _, err := a.Sum(context.Background()); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}

func TestClientNameOperations(t *testing.T) {
	c, ft := newTestSession(t, Config{PrintThreshold: 42})

	ft.textReplies = []string{"id0 exists", "[1 2 3]", "array([1 2 3])", "deleted id0"}
	if _, err := c.Info(context.Background(), "id0"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if _, err := c.Str(context.Background(), "id0"); err != nil {
		t.Fatalf("str: %v", err)
	}
	if _, err := c.Repr(context.Background(), "id0"); err != nil {
		t.Fatalf("repr: %v", err)
	}
	if err := c.Remove(context.Background(), "id0"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := []string{"info id0", "str id0 42", "repr id0 42", "delete id0"}
	for i, cmd := range want {
		if ft.sentText[i] != cmd {
			t.Fatalf("sent[%d] = %q, want %q", i, ft.sentText[i], cmd)
		}
	}
}
