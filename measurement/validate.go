package measurement

import (
	"fmt"
	"math"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
)

// ValidateHeader checks that the header's code-table values are usable.
//
// It rejects type and unit codes that are undefined or fall in a reserved
// range, scales outside format.MinScale..format.MaxScale, unknown compression
// codes and reserved flag bits. SampleCount is unsigned, so it is
// non-negative by construction.
//
// A type code in a defined range may still lack a known width (user-defined
// types); that is reported by ExpectedPayloadSize, not here.
func ValidateHeader(h Header) error {
	if !h.Type.IsDefined() {
		return fmt.Errorf("%w: type code %s", errs.ErrInvalidHeader, h.Type)
	}
	if !h.Unit.IsDefined() {
		return fmt.Errorf("%w: unit code %s", errs.ErrInvalidHeader, h.Unit)
	}
	if !h.Scale.IsValid() {
		return fmt.Errorf("%w: scale %d outside [%d, %d]", errs.ErrInvalidHeader, h.Scale, format.MinScale, format.MaxScale)
	}
	if h.Flags.HasReserved() {
		return fmt.Errorf("%w: reserved flag bits 0x%04X", errs.ErrInvalidHeader, uint16(h.Flags&ReservedFlagMask))
	}
	if !h.Flags.Compression().IsValid() {
		return fmt.Errorf("%w: compression %d", errs.ErrInvalidHeader, uint8(h.Flags.Compression()))
	}

	return nil
}

// ExpectedPayloadSize returns ElementSize(t) * count.
//
// Returns errs.ErrUnknownType when t has no known element width and
// errs.ErrPayloadTooLarge when the product does not fit the 32-bit
// PayloadSize field.
func ExpectedPayloadSize(t format.CType, count uint32) (int, error) {
	size, ok := t.Size()
	if !ok {
		return 0, fmt.Errorf("%w: %s", errs.ErrUnknownType, t)
	}

	total := uint64(size) * uint64(count)
	if total > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s x %d needs %d bytes", errs.ErrPayloadTooLarge, t, count, total)
	}

	return int(total), nil
}

// ValidatePayloadSize compares actual against the size implied by the header's
// type and sample count. Any difference is rejected; there is no padding or
// truncation tolerance.
func ValidatePayloadSize(h Header, actual int) error {
	expected, err := ExpectedPayloadSize(h.Type, h.SampleCount)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%w: %s x %d needs %d bytes, got %d",
			errs.ErrPayloadSizeMismatch, h.Type, h.SampleCount, expected, actual)
	}

	return nil
}
