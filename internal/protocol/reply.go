package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/gridctl/internal/dtype"
)

// Descriptor is the server's announcement of an array it hosts. It is
// everything the client knows about a remote array; the elements stay
// on the server.
type Descriptor struct {
	Name     string
	Kind     dtype.Kind
	Size     int64
	NDim     int64
	Shape    []int64
	ItemSize int64
}

// errorPrefix marks a text reply that reports a server-side failure.
const errorPrefix = "Error:"

// CheckError classifies a text reply. Replies beginning with "Error:"
// surface as ErrServer carrying the server's message; anything else is
// passed through for the caller to parse.
func CheckError(reply string) error {
	if !strings.HasPrefix(reply, errorPrefix) {
		return nil
	}
	msg := strings.TrimSpace(strings.TrimPrefix(reply, errorPrefix))
	if msg == "" {
		msg = "unspecified failure"
	}
	return fmt.Errorf("%w: %s", ErrServer, msg)
}

// ParseCreated decodes a handle-announcement reply:
//
//	<tag> <name> <kind> <size> <ndim> (<shape>) <itemsize>
//
// The tag names the operation that produced the array and is not
// interpreted. Exactly seven tokens are required.
func ParseCreated(reply string) (Descriptor, error) {
	fields := strings.Fields(reply)
	if len(fields) != 7 {
		return Descriptor{}, fmt.Errorf("%w: created reply has %d fields, want 7", ErrMalformedReply, len(fields))
	}
	name := fields[1]
	if name == "" {
		return Descriptor{}, fmt.Errorf("%w: empty handle", ErrMalformedReply)
	}
	kind, err := dtype.FromName(fields[2])
	if err != nil {
		return Descriptor{}, err
	}
	size, err := parseCount(fields[3], "size")
	if err != nil {
		return Descriptor{}, err
	}
	ndim, err := parseCount(fields[4], "ndim")
	if err != nil {
		return Descriptor{}, err
	}
	shape, err := parseShape(fields[5])
	if err != nil {
		return Descriptor{}, err
	}
	if int64(len(shape)) != ndim {
		return Descriptor{}, fmt.Errorf("%w: shape %v does not match ndim %d", ErrMalformedReply, shape, ndim)
	}
	elems := int64(1)
	for _, extent := range shape {
		elems *= extent
	}
	if elems != size {
		return Descriptor{}, fmt.Errorf("%w: shape %v holds %d elements, size says %d", ErrMalformedReply, shape, elems, size)
	}
	itemSize, err := parseCount(fields[6], "itemsize")
	if err != nil {
		return Descriptor{}, err
	}
	if itemSize != kind.ItemSize() {
		return Descriptor{}, fmt.Errorf("%w: itemsize %d for kind %s, want %d", ErrMalformedReply, itemSize, kind, kind.ItemSize())
	}
	return Descriptor{
		Name:     name,
		Kind:     kind,
		Size:     size,
		NDim:     ndim,
		Shape:    shape,
		ItemSize: itemSize,
	}, nil
}

// ParseScalar decodes a scalar reply:
//
//	<tag> <kind> <literal>
//
// Exactly three tokens are required; the literal must be the canonical
// rendering of its kind.
func ParseScalar(reply string) (dtype.Value, error) {
	fields := strings.Fields(reply)
	if len(fields) != 3 {
		return dtype.Value{}, fmt.Errorf("%w: scalar reply has %d fields, want 3", ErrMalformedReply, len(fields))
	}
	kind, err := dtype.FromName(fields[1])
	if err != nil {
		return dtype.Value{}, err
	}
	return kind.Parse(fields[2])
}

func parseCount(tok, what string) (int64, error) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", ErrMalformedReply, what, tok)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s %d", ErrMalformedReply, what, n)
	}
	return n, nil
}

// parseShape decodes a parenthesized comma-separated extent list, one
// token with no interior spaces, e.g. "(3)" or "(2,4)".
func parseShape(tok string) ([]int64, error) {
	if len(tok) < 2 || tok[0] != '(' || tok[len(tok)-1] != ')' {
		return nil, fmt.Errorf("%w: bad shape %q", ErrMalformedReply, tok)
	}
	inner := tok[1 : len(tok)-1]
	parts := strings.Split(inner, ",")
	shape := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad shape %q", ErrMalformedReply, tok)
		}
		shape = append(shape, n)
	}
	return shape, nil
}
