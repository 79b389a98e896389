package filter

import (
	"fmt"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
	"github.com/arloliu/stepflow/measurement"
)

// Condition is one predicate of a chain.
type Condition struct {
	Field Field
	// Index selects the payload element when Field is FieldValue.
	Index   uint32
	Op      Operator
	Operand Value
	// Upper is the inclusive upper bound of OpInRange and OpOutOfRange.
	Upper Value
}

// check reports structural problems without looking at a measurement.
func (c Condition) check() error {
	if !c.Op.IsValid() {
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedOperator, c.Op)
	}
	if !c.Field.IsValid() {
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedField, c.Field)
	}

	return nil
}

func (c Condition) String() string {
	subject := c.Field.String()
	if c.Field == FieldValue {
		subject = fmt.Sprintf("value[%d]", c.Index)
	}
	if c.Op.IsRange() {
		return fmt.Sprintf("%s %s [%s, %s]", subject, c.Op, c.Operand, c.Upper)
	}
	if c.Op.IsMask() {
		return fmt.Sprintf("%s %s 0x%X", subject, c.Op, c.Operand.Bits())
	}

	return fmt.Sprintf("%s %s %s", subject, c.Op, c.Operand)
}

// subject is the value a condition is applied to, plus its raw bits.
type subject struct {
	val Value
	raw uint64
}

// match evaluates a structurally valid condition against m.
func (c Condition) match(m *measurement.Measurement) (bool, error) {
	s, present, err := c.subject(m)
	if err != nil || !present {
		return false, err
	}

	if c.Op.IsMask() {
		mask := c.Operand.Bits()
		switch c.Op { //nolint:exhaustive
		case OpMaskAll:
			return s.raw&mask == mask, nil
		case OpMaskAny:
			return s.raw&mask != 0, nil
		default:
			return s.raw&mask == 0, nil
		}
	}

	lo, ok := Compare(s.val, c.Operand)
	if !ok {
		return c.Op == OpNotEqual || c.Op == OpOutOfRange, nil
	}

	switch c.Op { //nolint:exhaustive
	case OpEqual:
		return lo == 0, nil
	case OpNotEqual:
		return lo != 0, nil
	case OpGreaterThan:
		return lo > 0, nil
	case OpGreaterOrEqual:
		return lo >= 0, nil
	case OpLessThan:
		return lo < 0, nil
	case OpLessOrEqual:
		return lo <= 0, nil
	}

	hi, ok := Compare(s.val, c.Upper)
	if !ok {
		return c.Op == OpOutOfRange, nil
	}
	inside := lo >= 0 && hi <= 0
	if c.Op == OpInRange {
		return inside, nil
	}

	return !inside, nil
}

// subject extracts the field c selects. present is false when the selected
// payload element does not exist.
func (c Condition) subject(m *measurement.Measurement) (s subject, present bool, err error) {
	h := &m.Header

	switch c.Field { //nolint:exhaustive
	case FieldType:
		return unsignedSubject(uint64(h.Type)), true, nil
	case FieldUnit:
		return unsignedSubject(uint64(h.Unit)), true, nil
	case FieldScale:
		return subject{val: Int(int64(h.Scale)), raw: uint64(uint8(h.Scale))}, true, nil //nolint:gosec
	case FieldFlags:
		return unsignedSubject(uint64(h.Flags)), true, nil
	case FieldSource:
		return unsignedSubject(uint64(h.Source)), true, nil
	case FieldSampleCount:
		return unsignedSubject(uint64(h.SampleCount)), true, nil
	case FieldTimestamp:
		return subject{val: Int(h.Timestamp), raw: uint64(h.Timestamp)}, true, nil //nolint:gosec
	case FieldValue:
		return elementSubject(m, c.Index)
	default:
		return subject{}, false, fmt.Errorf("%w: %s", errs.ErrUnsupportedField, c.Field)
	}
}

func unsignedSubject(v uint64) subject {
	return subject{val: Uint(v), raw: v}
}

func elementSubject(m *measurement.Measurement, index uint32) (subject, bool, error) {
	kind := m.Header.Type.Kind()
	if !kind.Scalar() {
		return subject{}, false, fmt.Errorf("%w: value of %s (%s)", errs.ErrUnsupportedType, m.Header.Type, kind)
	}
	if index >= m.Header.SampleCount {
		return subject{}, false, nil
	}

	i := int(index)
	raw, err := m.Bits(i)
	if err != nil {
		return subject{}, false, err
	}

	var val Value
	switch kind { //nolint:exhaustive
	case format.KindSigned:
		v, err := m.Int64(i)
		if err != nil {
			return subject{}, false, err
		}
		val = Int(v)
	case format.KindFloat:
		v, err := m.Float64(i)
		if err != nil {
			return subject{}, false, err
		}
		val = Float(v)
	default:
		v, err := m.Uint64(i)
		if err != nil {
			return subject{}, false, err
		}
		val = Uint(v)
	}

	return subject{val: val, raw: raw}, true, nil
}
