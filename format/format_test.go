package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCType_IsDefined(t *testing.T) {
	tests := []struct {
		name string
		code CType
		want bool
	}{
		{"undefined", CTypeUndefined, false},
		{"below standard", 0x0F, false},
		{"first standard", CTypeFloat32, true},
		{"last standard slot", 0x4F, true},
		{"first reserved", 0x50, false},
		{"last reserved before range", 0x7F, false},
		{"first range", CTypeUnitInterval32, true},
		{"last range slot", 0x8F, true},
		{"reserved after range", 0x90, false},
		{"reserved before user", 0xEF, false},
		{"first user", CTypeUser1, true},
		{"last user", CTypeUser15, true},
		{"max", CTypeMax, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.code.IsDefined())
		})
	}
}

func TestCType_Size(t *testing.T) {
	tests := []struct {
		code CType
		size int
		ok   bool
	}{
		{CTypeFloat32, 4, true},
		{CTypeFloat64, 8, true},
		{CTypeFloat128, 16, true},
		{CTypeS8, 1, true},
		{CTypeS16, 2, true},
		{CTypeS32, 4, true},
		{CTypeS64, 8, true},
		{CTypeS128, 16, true},
		{CTypeU8, 1, true},
		{CTypeU16, 2, true},
		{CTypeU32, 4, true},
		{CTypeU64, 8, true},
		{CTypeU128, 16, true},
		{CTypeBool, 1, true},
		{CTypeComplex32, 8, true},
		{CTypeComplex64, 16, true},
		{CTypeUnitInterval32, 4, true},
		{CTypeUnitInterval64, 8, true},
		{CTypePercent32, 4, true},
		{CTypePercent64, 8, true},
		{CTypeUndefined, 0, false},
		{CTypeUser1, 0, false},
		{0x20, 0, false}, // standard range, unassigned
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			size, ok := tt.code.Size()
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.size, size)
		})
	}
}

func TestCType_Kind(t *testing.T) {
	require.Equal(t, KindSigned, CTypeS16.Kind())
	require.Equal(t, KindUnsigned, CTypeU32.Kind())
	require.Equal(t, KindFloat, CTypeFloat32.Kind())
	require.Equal(t, KindFloat, CTypePercent64.Kind())
	require.Equal(t, KindBool, CTypeBool.Kind())
	require.Equal(t, KindWide, CTypeU128.Kind())
	require.Equal(t, KindComplex, CTypeComplex64.Kind())
	require.Equal(t, KindUser, CTypeUser15.Kind())
	require.Equal(t, KindInvalid, CTypeUndefined.Kind())
	require.Equal(t, KindInvalid, CType(0x60).Kind())

	require.True(t, KindBool.Scalar())
	require.False(t, KindWide.Scalar())
	require.False(t, KindComplex.Scalar())
}

func TestCType_Bounds(t *testing.T) {
	lo, hi, ok := CTypePercent32.Bounds()
	require.True(t, ok)
	require.Equal(t, 0.0, lo)
	require.Equal(t, 100.0, hi)

	_, _, ok = CTypeFloat32.Bounds()
	require.False(t, ok)
}

func TestCType_String(t *testing.T) {
	require.Equal(t, "U32", CTypeU32.String())
	require.Equal(t, "User1", CTypeUser1.String())
	require.Equal(t, "User15", CTypeUser15.String())
	require.Equal(t, "Undefined", CTypeUndefined.String())
	require.Equal(t, "CType(0x60)", CType(0x60).String())
}

func TestUnit_IsDefined(t *testing.T) {
	tests := []struct {
		code Unit
		want bool
	}{
		{UnitUndefined, false},
		{0x0001, false},
		{0x000F, false},
		{UnitAmpere, true},
		{0x001F, true},
		{UnitBecquerel, true},
		{UnitWeber, true},
		{0x0040, false},
		{0x007F, false},
		{UnitPercent, true},
		{0x0090, false},
		{0x00FF, false},
		{0x0100, true},
		{UnitMeters2, true},
		{0x7FFF, true},
		{0x8000, false},
		{0xFEFF, false},
		{UnitUserDefined1, true},
		{UnitUserDefined255, true},
		{UnitMax, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.code.IsDefined(), "unit 0x%04X", uint16(tt.code))
	}
}

func TestUnit_String(t *testing.T) {
	require.Equal(t, "Pa", UnitPascal.String())
	require.Equal(t, "m/s^2", UnitMeterPerSecond2.String())
	require.Equal(t, "User1", UnitUserDefined1.String())
	require.Equal(t, "Undefined", UnitUndefined.String())
	require.Equal(t, "Unit(0x0040)", Unit(0x40).String())
}

func TestScale(t *testing.T) {
	require.True(t, ScaleYotta.IsValid())
	require.True(t, ScaleYocto.IsValid())
	require.True(t, Scale(4).IsValid())
	require.False(t, Scale(25).IsValid())
	require.False(t, Scale(-25).IsValid())

	sym, ok := ScaleMilli.Symbol()
	require.True(t, ok)
	require.Equal(t, "m", sym)

	_, ok = Scale(4).Symbol()
	require.False(t, ok)

	require.InDelta(t, 0.001, ScaleMilli.Factor(), 1e-12)
	require.Equal(t, "k", ScaleKilo.String())
	require.Equal(t, "1e0", ScaleNone.String())
	require.Equal(t, "1e4", Scale(4).String())
}

func TestCompressionType(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		require.True(t, c.IsValid())
		parsed, ok := ParseCompression(c.String())
		require.True(t, ok)
		require.Equal(t, c, parsed)
	}

	require.False(t, CompressionType(0x4).IsValid())
	require.Equal(t, "Unknown", CompressionType(0x9).String())

	c, ok := ParseCompression("zstd")
	require.True(t, ok)
	require.Equal(t, CompressionZstd, c)

	_, ok = ParseCompression("brotli")
	require.False(t, ok)
}
