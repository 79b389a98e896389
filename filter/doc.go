// Package filter decides whether a measurement is routed to a process node.
//
// A Chain is an ordered list of Conditions joined by logical AND. Each
// condition selects one field of the measurement (a header field or one
// payload element), applies an operator and compares against an operand:
//
//	chain := filter.NewChain(
//		filter.Condition{Field: filter.FieldUnit, Op: filter.OpEqual, Operand: filter.Uint(uint64(format.UnitKelvin))},
//		filter.Condition{Field: filter.FieldValue, Index: 0, Op: filter.OpGreaterThan, Operand: filter.Int(10)},
//	)
//	ok, err := filter.Evaluate(chain, m)
//
// Evaluation has no side effects. Structural problems (a chain that is too
// long, an operator or field outside the tables) are reported as errors
// before any condition is evaluated, so a malformed chain never silently
// rejects everything. Well-formed chains evaluate left to right and stop at
// the first false condition. An empty chain matches every measurement.
//
// # Value Semantics
//
// Relational operators compare numerically using the subject's natural
// kind: signed, unsigned or floating point. Comparisons across kinds are
// exact, so Uint(math.MaxUint64) is greater than Int(-1) and Float(0.5) lies
// strictly between Int(0) and Int(1). NaN compares unequal to everything.
//
// Mask operators test the raw little-endian bits of the subject against the
// operand's bits.
package filter
