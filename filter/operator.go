package filter

import (
	"fmt"
	"strings"

	"github.com/arloliu/stepflow/errs"
)

// Operator is the comparison a condition applies to its subject.
type Operator uint8

const (
	OpInvalid        Operator = iota // zero value, never valid
	OpEqual                          // subject == operand
	OpNotEqual                       // subject != operand
	OpGreaterThan                    // subject > operand
	OpGreaterOrEqual                 // subject >= operand
	OpLessThan                       // subject < operand
	OpLessOrEqual                    // subject <= operand
	OpInRange                        // operand <= subject <= upper
	OpOutOfRange                     // subject < operand || subject > upper
	OpMaskAll                        // bits & mask == mask
	OpMaskAny                        // bits & mask != 0
	OpMaskNone                       // bits & mask == 0
	opCount
)

var operatorNames = [opCount]string{
	OpInvalid:        "invalid",
	OpEqual:          "eq",
	OpNotEqual:       "ne",
	OpGreaterThan:    "gt",
	OpGreaterOrEqual: "ge",
	OpLessThan:       "lt",
	OpLessOrEqual:    "le",
	OpInRange:        "in_range",
	OpOutOfRange:     "out_of_range",
	OpMaskAll:        "mask_all",
	OpMaskAny:        "mask_any",
	OpMaskNone:       "mask_none",
}

var operatorAliases = map[string]Operator{
	"==": OpEqual,
	"!=": OpNotEqual,
	">":  OpGreaterThan,
	">=": OpGreaterOrEqual,
	"<":  OpLessThan,
	"<=": OpLessOrEqual,
}

// IsValid reports whether o is in the operator table.
func (o Operator) IsValid() bool {
	return o > OpInvalid && o < opCount
}

// IsRange reports whether o takes an upper bound.
func (o Operator) IsRange() bool {
	return o == OpInRange || o == OpOutOfRange
}

// IsMask reports whether o works on raw bits.
func (o Operator) IsMask() bool {
	return o >= OpMaskAll && o <= OpMaskNone
}

func (o Operator) String() string {
	if o < opCount {
		return operatorNames[o]
	}

	return fmt.Sprintf("Operator(%d)", uint8(o))
}

// ParseOperator resolves an operator name ("gt", "in_range") or symbol (">=").
// Names are case-insensitive.
func ParseOperator(name string) (Operator, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	for op := OpEqual; op < opCount; op++ {
		if operatorNames[op] == key {
			return op, nil
		}
	}

	return OpInvalid, fmt.Errorf("%w: %q", errs.ErrUnsupportedOperator, name)
}
