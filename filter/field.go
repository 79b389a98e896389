package filter

import (
	"fmt"
	"strings"

	"github.com/arloliu/stepflow/errs"
)

// Field selects the subject of a condition.
type Field uint8

const (
	FieldInvalid     Field = iota
	FieldType              // header type code
	FieldUnit              // header unit code
	FieldScale             // header scale exponent
	FieldFlags             // header flag word
	FieldSource            // header source channel
	FieldSampleCount       // header sample count
	FieldValue             // payload element at Condition.Index
	FieldTimestamp         // header timestamp
	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldInvalid:     "invalid",
	FieldType:        "type",
	FieldUnit:        "unit",
	FieldScale:       "scale",
	FieldFlags:       "flags",
	FieldSource:      "source",
	FieldSampleCount: "sample_count",
	FieldValue:       "value",
	FieldTimestamp:   "timestamp",
}

// IsValid reports whether f is in the field table.
func (f Field) IsValid() bool {
	return f > FieldInvalid && f < fieldCount
}

func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}

	return fmt.Sprintf("Field(%d)", uint8(f))
}

// ParseField resolves a field name such as "unit" or "sample_count".
func ParseField(name string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for f := FieldType; f < fieldCount; f++ {
		if fieldNames[f] == key {
			return f, nil
		}
	}

	return FieldInvalid, fmt.Errorf("%w: %q", errs.ErrUnsupportedField, name)
}
