package dtype

import (
	"fmt"
	"math"
	"strconv"
)

// Value is one scalar tagged with its element kind. Exactly one of the
// payload fields is meaningful, selected by Kind. Values are comparable.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
}

// BoolValue wraps a bool scalar.
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }

// IntValue wraps an int64 scalar.
func IntValue(i int64) Value { return Value{Kind: Int64, Int: i} }

// FloatValue wraps a float64 scalar.
func FloatValue(f float64) Value { return Value{Kind: Float64, Float: f} }

// String renders the value for humans. Floats use the shortest
// round-trip form; the fixed wire rendering lives in Kind.Format.
func (v Value) String() string {
	switch v.Kind {
	case Bool:
		if v.Bool {
			return "True"
		}
		return "False"
	case Int64:
		return strconv.FormatInt(v.Int, 10)
	case Float64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return "<invalid>"
}

// Format casts v to kind k and renders the canonical wire text: True or
// False for bool, base-10 for int64, fixed 17 fractional digits for
// float64. Casting follows the numeric tower: any supported scalar
// converts into any kind, with truncation toward zero for float to int
// and the nonzero test for conversions into bool. Conversions that
// cannot represent the input (NaN or infinity into int64, magnitudes
// past the int64 range) fail with ErrCast.
func (k Kind) Format(v any) (string, error) {
	switch k {
	case Bool:
		b, err := toBool(v)
		if err != nil {
			return "", err
		}
		if b {
			return "True", nil
		}
		return "False", nil
	case Int64:
		i, err := toInt64(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case Float64:
		f, err := toFloat64(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', 17, 64), nil
	}
	return "", fmt.Errorf("%w: kind %d", ErrUnsupportedType, uint8(k))
}

// FormatValue renders an already-typed Value in its own kind.
func FormatValue(v Value) (string, error) { return v.Kind.Format(v) }

// Parse decodes the canonical wire text of kind k into a Value.
func (k Kind) Parse(text string) (Value, error) {
	switch k {
	case Bool:
		switch text {
		case "True":
			return BoolValue(true), nil
		case "False":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%w: %q is not a bool", ErrInvalidLiteral, text)
	case Int64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int64", ErrInvalidLiteral, text)
		}
		return IntValue(i), nil
	case Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a float64", ErrInvalidLiteral, text)
		}
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("%w: kind %d", ErrUnsupportedType, uint8(k))
}

// unwrap reduces a Value argument to its native Go scalar so the
// conversion helpers see one input shape.
func unwrap(v any) any {
	sv, ok := v.(Value)
	if !ok {
		return v
	}
	switch sv.Kind {
	case Bool:
		return sv.Bool
	case Int64:
		return sv.Int
	case Float64:
		return sv.Float
	}
	return v
}

func toBool(v any) (bool, error) {
	switch s := unwrap(v).(type) {
	case bool:
		return s, nil
	case int:
		return s != 0, nil
	case int8:
		return s != 0, nil
	case int16:
		return s != 0, nil
	case int32:
		return s != 0, nil
	case int64:
		return s != 0, nil
	case uint:
		return s != 0, nil
	case uint8:
		return s != 0, nil
	case uint16:
		return s != 0, nil
	case uint32:
		return s != 0, nil
	case uint64:
		return s != 0, nil
	case float32:
		return s != 0, nil
	case float64:
		return s != 0, nil
	}
	return false, fmt.Errorf("%w: %T to bool", ErrCast, v)
}

func toInt64(v any) (int64, error) {
	switch s := unwrap(v).(type) {
	case bool:
		if s {
			return 1, nil
		}
		return 0, nil
	case int:
		return int64(s), nil
	case int8:
		return int64(s), nil
	case int16:
		return int64(s), nil
	case int32:
		return int64(s), nil
	case int64:
		return s, nil
	case uint:
		return uintToInt64(uint64(s))
	case uint8:
		return int64(s), nil
	case uint16:
		return int64(s), nil
	case uint32:
		return int64(s), nil
	case uint64:
		return uintToInt64(s)
	case float32:
		return floatToInt64(float64(s))
	case float64:
		return floatToInt64(s)
	}
	return 0, fmt.Errorf("%w: %T to int64", ErrCast, v)
}

func uintToInt64(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", ErrCast, u)
	}
	return int64(u), nil
}

// floatToInt64 truncates toward zero. The bound check excludes NaN and
// both infinities, and float64(MaxInt64) itself rounds past the top of
// the range, so the comparison is strict on the high side.
func floatToInt64(f float64) (int64, error) {
	if !(f >= math.MinInt64 && f < math.MaxInt64) {
		return 0, fmt.Errorf("%w: %v overflows int64", ErrCast, f)
	}
	return int64(math.Trunc(f)), nil
}

func toFloat64(v any) (float64, error) {
	switch s := unwrap(v).(type) {
	case bool:
		if s {
			return 1, nil
		}
		return 0, nil
	case int:
		return float64(s), nil
	case int8:
		return float64(s), nil
	case int16:
		return float64(s), nil
	case int32:
		return float64(s), nil
	case int64:
		return float64(s), nil
	case uint:
		return float64(s), nil
	case uint8:
		return float64(s), nil
	case uint16:
		return float64(s), nil
	case uint32:
		return float64(s), nil
	case uint64:
		return float64(s), nil
	case float32:
		return float64(s), nil
	case float64:
		return s, nil
	}
	return 0, fmt.Errorf("%w: %T to float64", ErrCast, v)
}

// Cast converts any supported scalar into a Value of kind k, applying
// the same rules as Format without rendering text.
func (k Kind) Cast(v any) (Value, error) {
	switch k {
	case Bool:
		b, err := toBool(v)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case Int64:
		i, err := toInt64(v)
		if err != nil {
			return Value{}, err
		}
		return IntValue(i), nil
	case Float64:
		f, err := toFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("%w: kind %d", ErrUnsupportedType, uint8(k))
}
