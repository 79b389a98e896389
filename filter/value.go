package filter

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind is the numeric interpretation of a Value.
type ValueKind uint8

const (
	KindSigned ValueKind = iota
	KindUnsigned
	KindFloat
)

// Value is a signed, unsigned or floating point number. The zero Value is
// signed zero.
type Value struct {
	kind ValueKind
	bits uint64
}

// Int returns a signed Value.
func Int(v int64) Value { return Value{kind: KindSigned, bits: uint64(v)} } //nolint:gosec

// Uint returns an unsigned Value.
func Uint(v uint64) Value { return Value{kind: KindUnsigned, bits: v} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{kind: KindFloat, bits: math.Float64bits(v)} }

// Kind returns the interpretation of v.
func (v Value) Kind() ValueKind { return v.kind }

// Int64 returns v as int64 when it is signed.
func (v Value) Int64() int64 { return int64(v.bits) } //nolint:gosec

// Uint64 returns v as uint64 when it is unsigned.
func (v Value) Uint64() uint64 { return v.bits }

// Float64 returns v converted to float64.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindSigned:
		return float64(v.Int64())
	case KindUnsigned:
		return float64(v.bits)
	default:
		return math.Float64frombits(v.bits)
	}
}

// Bits returns the value's bit pattern used by mask operators: two's
// complement for signed values and IEEE 754 binary64 for floats.
func (v Value) Bits() uint64 { return v.bits }

func (v Value) isNaN() bool {
	return v.kind == KindFloat && math.IsNaN(math.Float64frombits(v.bits))
}

func (v Value) String() string {
	switch v.kind {
	case KindSigned:
		return strconv.FormatInt(v.Int64(), 10)
	case KindUnsigned:
		return strconv.FormatUint(v.bits, 10)
	default:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	}
}

// ParseValue parses s as a signed integer, then as an unsigned integer, then
// as a float. Integer prefixes 0x, 0o and 0b are accepted.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return Int(i), nil
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return Uint(u), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f), nil
	}

	return Value{}, fmt.Errorf("invalid numeric value %q", s)
}

// Compare returns -1, 0 or +1 as a is less than, equal to or greater than b.
// The comparison is exact across kinds. ok is false when either side is NaN.
func Compare(a, b Value) (result int, ok bool) {
	if a.isNaN() || b.isNaN() {
		return 0, false
	}

	switch {
	case a.kind == KindFloat && b.kind == KindFloat:
		return cmp.Compare(a.Float64(), b.Float64()), true
	case a.kind == KindFloat:
		return compareFloatInt(a.Float64(), b), true
	case b.kind == KindFloat:
		return -compareFloatInt(b.Float64(), a), true
	default:
		return compareInts(a, b), true
	}
}

func compareInts(a, b Value) int {
	switch {
	case a.kind == KindSigned && b.kind == KindSigned:
		return cmp.Compare(a.Int64(), b.Int64())
	case a.kind == KindUnsigned && b.kind == KindUnsigned:
		return cmp.Compare(a.bits, b.bits)
	case a.kind == KindSigned:
		if a.Int64() < 0 {
			return -1
		}

		return cmp.Compare(a.bits, b.bits)
	default:
		if b.Int64() < 0 {
			return 1
		}

		return cmp.Compare(a.bits, b.bits)
	}
}

const (
	twoPow63 = float64(1 << 63)
	twoPow64 = twoPow63 * 2
)

// compareFloatInt compares a finite or infinite f against an integer Value
// without rounding the integer to float64.
func compareFloatInt(f float64, i Value) int {
	if i.kind == KindSigned {
		switch {
		case f < -twoPow63:
			return -1
		case f >= twoPow63:
			return 1
		}
		t := int64(f)
		if c := cmp.Compare(t, i.Int64()); c != 0 {
			return c
		}

		return cmp.Compare(f-float64(t), 0)
	}

	switch {
	case f < 0:
		return -1
	case f >= twoPow64:
		return 1
	}
	t := uint64(f)
	if c := cmp.Compare(t, i.bits); c != 0 {
		return c
	}

	return cmp.Compare(f-float64(t), 0)
}
