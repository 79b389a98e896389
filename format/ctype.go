package format

import "fmt"

// CType identifies the in-memory representation of one payload element.
// All multi-byte types are little-endian.
//
// Memory map:
//   - 0x00       undefined
//   - 0x10..0x4F standard types
//   - 0x50..0x7F reserved
//   - 0x80..0x8F range types (unit interval, percent)
//   - 0x90..0xEF reserved
//   - 0xF0..0xFE user-defined types
//   - 0xFF       table maximum
type CType uint8

const (
	CTypeUndefined CType = 0x00

	CTypeFloat32   CType = 0x10
	CTypeFloat64   CType = 0x11
	CTypeFloat128  CType = 0x12
	CTypeS8        CType = 0x13
	CTypeS16       CType = 0x14
	CTypeS32       CType = 0x15
	CTypeS64       CType = 0x16
	CTypeS128      CType = 0x17
	CTypeU8        CType = 0x18
	CTypeU16       CType = 0x19
	CTypeU32       CType = 0x1A
	CTypeU64       CType = 0x1B
	CTypeU128      CType = 0x1C
	CTypeBool      CType = 0x1D
	CTypeComplex32 CType = 0x30
	CTypeComplex64 CType = 0x31

	// Range types. Values are stored as the float type named in the suffix.
	CTypeUnitInterval32 CType = 0x80 // 0.0..1.0 inclusive, float32
	CTypeUnitInterval64 CType = 0x81 // 0.0..1.0 inclusive, float64
	CTypePercent32      CType = 0x82 // 0.0..100.0 inclusive, float32
	CTypePercent64      CType = 0x83 // 0.0..100.0 inclusive, float64

	CTypeUser1  CType = 0xF0
	CTypeUser15 CType = 0xFE

	CTypeMax CType = 0xFF
)

// Code ranges of the CType memory map.
const (
	ctypeStandardMin CType = 0x10
	ctypeStandardMax CType = 0x4F
	ctypeRangeMin    CType = 0x80
	ctypeRangeMax    CType = 0x8F
	ctypeUserMin     CType = 0xF0
	ctypeUserMax     CType = 0xFE
)

// Kind classifies how an element value is interpreted numerically.
type Kind uint8

const (
	KindInvalid  Kind = iota // undefined or reserved code
	KindSigned               // two's complement integer up to 64 bits
	KindUnsigned             // unsigned integer up to 64 bits
	KindFloat                // IEEE 754 binary32 or binary64
	KindBool                 // one byte, zero is false
	KindWide                 // 128-bit integer or float, no scalar form
	KindComplex              // pair of floats, no scalar form
	KindUser                 // user-defined, opaque to the core
)

func (k Kind) String() string {
	switch k {
	case KindSigned:
		return "Signed"
	case KindUnsigned:
		return "Unsigned"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindWide:
		return "Wide"
	case KindComplex:
		return "Complex"
	case KindUser:
		return "User"
	default:
		return "Invalid"
	}
}

// Scalar reports whether elements of this kind convert to a single number.
func (k Kind) Scalar() bool {
	return k == KindSigned || k == KindUnsigned || k == KindFloat || k == KindBool
}

type ctypeInfo struct {
	name  string
	size  int
	kind  Kind
	float bool
}

var ctypeTable = map[CType]ctypeInfo{
	CTypeFloat32:        {"Float32", 4, KindFloat, true},
	CTypeFloat64:        {"Float64", 8, KindFloat, true},
	CTypeFloat128:       {"Float128", 16, KindWide, true},
	CTypeS8:             {"S8", 1, KindSigned, false},
	CTypeS16:            {"S16", 2, KindSigned, false},
	CTypeS32:            {"S32", 4, KindSigned, false},
	CTypeS64:            {"S64", 8, KindSigned, false},
	CTypeS128:           {"S128", 16, KindWide, false},
	CTypeU8:             {"U8", 1, KindUnsigned, false},
	CTypeU16:            {"U16", 2, KindUnsigned, false},
	CTypeU32:            {"U32", 4, KindUnsigned, false},
	CTypeU64:            {"U64", 8, KindUnsigned, false},
	CTypeU128:           {"U128", 16, KindWide, false},
	CTypeBool:           {"Bool", 1, KindBool, false},
	CTypeComplex32:      {"Complex32", 8, KindComplex, true},
	CTypeComplex64:      {"Complex64", 16, KindComplex, true},
	CTypeUnitInterval32: {"UnitInterval32", 4, KindFloat, true},
	CTypeUnitInterval64: {"UnitInterval64", 8, KindFloat, true},
	CTypePercent32:      {"Percent32", 4, KindFloat, true},
	CTypePercent64:      {"Percent64", 8, KindFloat, true},
}

// IsStandard reports whether c lies in the standard type range.
func (c CType) IsStandard() bool { return c >= ctypeStandardMin && c <= ctypeStandardMax }

// IsRange reports whether c lies in the range type range.
func (c CType) IsRange() bool { return c >= ctypeRangeMin && c <= ctypeRangeMax }

// IsUser reports whether c lies in the user-defined range.
func (c CType) IsUser() bool { return c >= ctypeUserMin && c <= ctypeUserMax }

// IsDefined reports whether c lies in a defined range of the memory map.
// Undefined (0x00), reserved ranges and the table maximum are not defined.
func (c CType) IsDefined() bool {
	return c.IsStandard() || c.IsRange() || c.IsUser()
}

// Size returns the byte width of one element, or false when the code has no
// known width. User-defined types never have a known width.
func (c CType) Size() (int, bool) {
	info, ok := ctypeTable[c]
	if !ok {
		return 0, false
	}

	return info.size, true
}

// Kind returns the numeric interpretation of c.
func (c CType) Kind() Kind {
	if info, ok := ctypeTable[c]; ok {
		return info.kind
	}
	if c.IsUser() {
		return KindUser
	}

	return KindInvalid
}

// IsFloat reports whether elements are IEEE 754 encoded.
func (c CType) IsFloat() bool {
	return ctypeTable[c].float
}

// Bounds returns the inclusive value range of a range type.
func (c CType) Bounds() (lo, hi float64, ok bool) {
	switch c { //nolint: exhaustive
	case CTypeUnitInterval32, CTypeUnitInterval64:
		return 0, 1, true
	case CTypePercent32, CTypePercent64:
		return 0, 100, true
	default:
		return 0, 0, false
	}
}

func (c CType) String() string {
	if info, ok := ctypeTable[c]; ok {
		return info.name
	}
	if c.IsUser() {
		return fmt.Sprintf("User%d", int(c-ctypeUserMin)+1)
	}
	if c == CTypeUndefined {
		return "Undefined"
	}

	return fmt.Sprintf("CType(0x%02X)", uint8(c))
}
