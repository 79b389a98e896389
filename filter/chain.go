package filter

import (
	"fmt"
	"strings"

	"github.com/arloliu/stepflow/errs"
)

// DefaultMaxChainLength is the longest chain an Evaluator accepts unless
// configured otherwise.
const DefaultMaxChainLength = 16

// Chain is an ordered conjunction of conditions. A nil *Chain is not a valid
// chain; an empty one matches everything.
type Chain struct {
	conds []Condition
}

// NewChain returns a chain of the given conditions in order.
func NewChain(conds ...Condition) *Chain {
	return &Chain{conds: append([]Condition(nil), conds...)}
}

// Len returns the number of conditions.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}

	return len(c.conds)
}

// Append adds conditions to the end of the chain and returns it. On a nil
// chain it returns a new chain of conds.
func (c *Chain) Append(conds ...Condition) *Chain {
	if c == nil {
		return NewChain(conds...)
	}
	c.conds = append(c.conds, conds...)
	return c
}

// Conditions returns a copy of the chain's conditions.
func (c *Chain) Conditions() []Condition {
	if c == nil {
		return nil
	}

	return append([]Condition(nil), c.conds...)
}

// Validate reports the first structural error: a nil chain, more than
// maxLen conditions, or a condition with an operator or field outside the
// tables. maxLen <= 0 disables the length check.
func (c *Chain) Validate(maxLen int) error {
	if c == nil {
		return errs.ErrNullChain
	}
	if maxLen > 0 && len(c.conds) > maxLen {
		return fmt.Errorf("%w: %d conditions, limit %d", errs.ErrChainTooLong, len(c.conds), maxLen)
	}
	for i, cond := range c.conds {
		if err := cond.check(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}

	return nil
}

func (c *Chain) String() string {
	if c == nil {
		return "<nil>"
	}
	if len(c.conds) == 0 {
		return "true"
	}

	var sb strings.Builder
	for i, cond := range c.conds {
		if i > 0 {
			sb.WriteString(" && ")
		}
		sb.WriteString(cond.String())
	}

	return sb.String()
}
