package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/stepflow/errs"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"signed", Int(-3), Int(2), -1},
		{"unsigned", Uint(9), Uint(9), 0},
		{"negative vs unsigned", Int(-1), Uint(math.MaxUint64), -1},
		{"unsigned vs negative", Uint(0), Int(-1), 1},
		{"max uint vs max int", Uint(math.MaxUint64), Int(math.MaxInt64), 1},
		{"float fraction above", Float(0.5), Int(0), 1},
		{"float fraction below", Float(0.5), Int(1), -1},
		{"float equal int", Float(42), Uint(42), 0},
		{"int vs float", Int(2), Float(1.999), 1},
		{"large int beyond float precision", Int(1<<53 + 1), Float(1 << 53), 1},
		{"large uint beyond float precision", Uint(math.MaxUint64), Float(1 << 63), 1},
		{"float above int64", Float(1e19), Int(math.MaxInt64), 1},
		{"negative float vs uint", Float(-0.5), Uint(0), -1},
		{"float above uint64", Float(1e20), Uint(math.MaxUint64), 1},
		{"infinity", Float(math.Inf(-1)), Int(math.MinInt64), -1},
		{"floats", Float(1.25), Float(1.5), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compare(tt.a, tt.b)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}

	_, ok := Compare(Float(math.NaN()), Int(0))
	require.False(t, ok)
}

func TestNaNConditions(t *testing.T) {
	m := measurementOf(t, 0x11, math.NaN())

	for op, want := range map[Operator]bool{
		OpEqual:      false,
		OpNotEqual:   true,
		OpLessThan:   false,
		OpInRange:    false,
		OpOutOfRange: true,
	} {
		got, err := Evaluate(NewChain(Condition{Field: FieldValue, Op: op, Operand: Int(0), Upper: Int(1)}), m)
		require.NoError(t, err)
		assert.Equal(t, want, got, op.String())
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("-12")
	require.NoError(t, err)
	require.Equal(t, Int(-12), v)

	v, err = ParseValue("0x12")
	require.NoError(t, err)
	require.Equal(t, Int(18), v)

	v, err = ParseValue("18446744073709551615")
	require.NoError(t, err)
	require.Equal(t, Uint(math.MaxUint64), v)

	v, err = ParseValue("21.5")
	require.NoError(t, err)
	require.Equal(t, Float(21.5), v)

	_, err = ParseValue("warm")
	require.Error(t, err)
}

func TestParseOperatorAndField(t *testing.T) {
	op, err := ParseOperator("GT")
	require.NoError(t, err)
	require.Equal(t, OpGreaterThan, op)

	op, err = ParseOperator("<=")
	require.NoError(t, err)
	require.Equal(t, OpLessOrEqual, op)

	_, err = ParseOperator("invalid")
	require.ErrorIs(t, err, errs.ErrUnsupportedOperator)

	f, err := ParseField("sample_count")
	require.NoError(t, err)
	require.Equal(t, FieldSampleCount, f)

	_, err = ParseField("humidity")
	require.ErrorIs(t, err, errs.ErrUnsupportedField)

	require.Equal(t, "Operator(200)", Operator(200).String())
}

func TestConditionSpec_Build(t *testing.T) {
	chain, err := BuildChain([]ConditionSpec{
		{Field: "unit", Op: "eq", Operand: uint64(0x12)},
		{Field: "value", Index: 2, Op: "in_range", Operand: -40, Upper: "125"},
		{Field: "flags", Op: "mask_any", Operand: int64(0x0F00)},
		{Field: "value", Op: ">", Operand: 21.5},
	})
	require.NoError(t, err)
	require.Equal(t, 4, chain.Len())

	conds := chain.Conditions()
	require.Equal(t, Condition{Field: FieldUnit, Op: OpEqual, Operand: Int(0x12)}, conds[0])
	require.Equal(t, Condition{Field: FieldValue, Index: 2, Op: OpInRange, Operand: Int(-40), Upper: Int(125)}, conds[1])
	require.Equal(t, Float(21.5), conds[3].Operand)

	_, err = ConditionSpec{Field: "value", Op: "in_range", Operand: 1}.Build()
	require.Error(t, err)

	_, err = ConditionSpec{Field: "value", Op: "between", Operand: 1}.Build()
	require.ErrorIs(t, err, errs.ErrUnsupportedOperator)

	_, err = ConditionSpec{Field: "value", Op: "eq", Operand: []int{1}}.Build()
	require.Error(t, err)
}
