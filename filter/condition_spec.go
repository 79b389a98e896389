package filter

import (
	"fmt"
	"math"
)

// ConditionSpec is the declarative form of a Condition, as read from
// configuration files:
//
//	conditions:
//	  - field: unit
//	    op: eq
//	    operand: 0x12
//	  - field: value
//	    index: 0
//	    op: in_range
//	    operand: -40
//	    upper: 125
//
// Operand and Upper accept any integer or float type, or a string parsed by
// ParseValue.
type ConditionSpec struct {
	Field   string `json:"field" yaml:"field" toml:"field"`
	Index   uint32 `json:"index,omitempty" yaml:"index,omitempty" toml:"index,omitempty"`
	Op      string `json:"op" yaml:"op" toml:"op"`
	Operand any    `json:"operand" yaml:"operand" toml:"operand"`
	Upper   any    `json:"upper,omitempty" yaml:"upper,omitempty" toml:"upper,omitempty"`
}

// Build resolves the names and operands of s.
func (s ConditionSpec) Build() (Condition, error) {
	field, err := ParseField(s.Field)
	if err != nil {
		return Condition{}, err
	}
	op, err := ParseOperator(s.Op)
	if err != nil {
		return Condition{}, err
	}

	operand, err := toValue(s.Operand)
	if err != nil {
		return Condition{}, fmt.Errorf("operand: %w", err)
	}

	cond := Condition{Field: field, Index: s.Index, Op: op, Operand: operand}
	if op.IsRange() {
		if s.Upper == nil {
			return Condition{}, fmt.Errorf("%s requires an upper bound", op)
		}
		if cond.Upper, err = toValue(s.Upper); err != nil {
			return Condition{}, fmt.Errorf("upper: %w", err)
		}
	}

	return cond, nil
}

// BuildChain builds a chain from specs in order.
func BuildChain(specs []ConditionSpec) (*Chain, error) {
	chain := &Chain{conds: make([]Condition, 0, len(specs))}
	for i, s := range specs {
		cond, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		chain.conds = append(chain.conds, cond)
	}

	return chain, nil
}

func toValue(v any) (Value, error) {
	switch n := v.(type) {
	case nil:
		return Int(0), nil
	case Value:
		return n, nil
	case int:
		return Int(int64(n)), nil
	case int8:
		return Int(int64(n)), nil
	case int16:
		return Int(int64(n)), nil
	case int32:
		return Int(int64(n)), nil
	case int64:
		return Int(n), nil
	case uint:
		return Uint(uint64(n)), nil
	case uint8:
		return Uint(uint64(n)), nil
	case uint16:
		return Uint(uint64(n)), nil
	case uint32:
		return Uint(uint64(n)), nil
	case uint64:
		if n <= math.MaxInt64 {
			return Int(int64(n)), nil
		}

		return Uint(n), nil
	case float32:
		return Float(float64(n)), nil
	case float64:
		return Float(n), nil
	case string:
		return ParseValue(n)
	default:
		return Value{}, fmt.Errorf("unsupported operand type %T", v)
	}
}
