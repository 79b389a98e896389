package measurement

import (
	"fmt"
	"math"

	"github.com/arloliu/stepflow/endian"
	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
)

// Measurement is one envelope: a header and the payload it describes.
//
// While a measurement is checked out of a sample pool its Payload aliases the
// pool slot; only the current owner may mutate it, and its content is
// undefined once the slot is returned.
type Measurement struct {
	Header  Header
	Payload []byte
}

// New returns a measurement over payload. PayloadSize is set from
// len(payload); the result is not validated.
func New(h Header, payload []byte) *Measurement {
	h.PayloadSize = uint32(len(payload)) //nolint:gosec

	return &Measurement{Header: h, Payload: payload}
}

// Validate checks the header, the declared payload size and the actual
// payload length.
func (m *Measurement) Validate() error {
	if err := ValidateHeader(m.Header); err != nil {
		return err
	}
	if err := ValidatePayloadSize(m.Header, int(m.Header.PayloadSize)); err != nil {
		return err
	}
	if len(m.Payload) != int(m.Header.PayloadSize) {
		return fmt.Errorf("%w: header declares %d bytes, payload holds %d",
			errs.ErrPayloadSizeMismatch, m.Header.PayloadSize, len(m.Payload))
	}

	return nil
}

// Reset clears the header and truncates the payload, keeping its storage.
func (m *Measurement) Reset() {
	m.Header = Header{}
	m.Payload = m.Payload[:0]
}

// Len returns the number of elements, as declared by the header.
func (m *Measurement) Len() int {
	return int(m.Header.SampleCount)
}

// Element returns the raw bytes of element i. The slice aliases the payload.
func (m *Measurement) Element(i int) ([]byte, error) {
	size, ok := m.Header.Type.Size()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownType, m.Header.Type)
	}
	if i < 0 || i >= int(m.Header.SampleCount) {
		return nil, fmt.Errorf("%w: index %d, %d samples", errs.ErrIndexOutOfRange, i, m.Header.SampleCount)
	}
	end := (i + 1) * size
	if end > len(m.Payload) {
		return nil, fmt.Errorf("%w: element %d ends at %d, payload holds %d",
			errs.ErrPayloadSizeMismatch, i, end, len(m.Payload))
	}

	return m.Payload[i*size : end], nil
}

// Bits returns the raw little-endian bits of element i. For 16-byte types
// the low 64 bits are returned.
func (m *Measurement) Bits(i int) (uint64, error) {
	b, err := m.Element(i)
	if err != nil {
		return 0, err
	}

	return endian.Uint(endian.GetWireEngine(), b), nil
}

// Int64 returns element i of a signed, unsigned or bool type as int64.
// Unsigned values above math.MaxInt64 fail with errs.ErrUnsupportedType.
func (m *Measurement) Int64(i int) (int64, error) {
	raw, err := m.scalarBits(i)
	if err != nil {
		return 0, err
	}

	switch m.Header.Type.Kind() { //nolint:exhaustive
	case format.KindSigned:
		return signExtend(raw, m.elementWidth()), nil
	case format.KindUnsigned, format.KindBool:
		if raw > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", errs.ErrUnsupportedType, raw)
		}

		return int64(raw), nil
	default:
		return 0, fmt.Errorf("%w: %s is not an integer type", errs.ErrUnsupportedType, m.Header.Type)
	}
}

// Uint64 returns element i of an unsigned or bool type.
func (m *Measurement) Uint64(i int) (uint64, error) {
	raw, err := m.scalarBits(i)
	if err != nil {
		return 0, err
	}

	switch m.Header.Type.Kind() { //nolint:exhaustive
	case format.KindUnsigned, format.KindBool:
		return raw, nil
	default:
		return 0, fmt.Errorf("%w: %s is not an unsigned type", errs.ErrUnsupportedType, m.Header.Type)
	}
}

// Float64 returns element i of any scalar type converted to float64. The
// header scale is not applied; use Scaled for that.
func (m *Measurement) Float64(i int) (float64, error) {
	raw, err := m.scalarBits(i)
	if err != nil {
		return 0, err
	}

	switch m.Header.Type.Kind() { //nolint:exhaustive
	case format.KindFloat:
		if m.elementWidth() == 4 {
			return float64(math.Float32frombits(uint32(raw))), nil
		}

		return math.Float64frombits(raw), nil
	case format.KindSigned:
		return float64(signExtend(raw, m.elementWidth())), nil
	default:
		return float64(raw), nil
	}
}

// Scaled returns element i multiplied by 10^Scale.
func (m *Measurement) Scaled(i int) (float64, error) {
	v, err := m.Float64(i)
	if err != nil {
		return 0, err
	}

	return v * m.Header.Scale.Factor(), nil
}

// Bool returns element i of a bool type.
func (m *Measurement) Bool(i int) (bool, error) {
	if m.Header.Type != format.CTypeBool {
		return false, fmt.Errorf("%w: %s is not bool", errs.ErrUnsupportedType, m.Header.Type)
	}
	raw, err := m.Bits(i)
	if err != nil {
		return false, err
	}

	return raw != 0, nil
}

// SetFloat64 stores v into element i of a float type.
func (m *Measurement) SetFloat64(i int, v float64) error {
	if m.Header.Type.Kind() != format.KindFloat {
		return fmt.Errorf("%w: %s is not a float type", errs.ErrUnsupportedType, m.Header.Type)
	}
	b, err := m.Element(i)
	if err != nil {
		return err
	}

	engine := endian.GetWireEngine()
	if len(b) == 4 {
		engine.PutUint32(b, math.Float32bits(float32(v)))
	} else {
		engine.PutUint64(b, math.Float64bits(v))
	}

	return nil
}

// SetInt64 stores v into element i of a signed type, truncating to its width.
func (m *Measurement) SetInt64(i int, v int64) error {
	if m.Header.Type.Kind() != format.KindSigned {
		return fmt.Errorf("%w: %s is not a signed type", errs.ErrUnsupportedType, m.Header.Type)
	}

	return m.putBits(i, uint64(v)) //nolint:gosec
}

// SetUint64 stores v into element i of an unsigned type, truncating to its width.
func (m *Measurement) SetUint64(i int, v uint64) error {
	if m.Header.Type.Kind() != format.KindUnsigned {
		return fmt.Errorf("%w: %s is not an unsigned type", errs.ErrUnsupportedType, m.Header.Type)
	}

	return m.putBits(i, v)
}

// SetBool stores v into element i of a bool type.
func (m *Measurement) SetBool(i int, v bool) error {
	if m.Header.Type != format.CTypeBool {
		return fmt.Errorf("%w: %s is not bool", errs.ErrUnsupportedType, m.Header.Type)
	}
	var raw uint64
	if v {
		raw = 1
	}

	return m.putBits(i, raw)
}

func (m *Measurement) putBits(i int, raw uint64) error {
	b, err := m.Element(i)
	if err != nil {
		return err
	}
	endian.PutUint(endian.GetWireEngine(), b, raw)

	return nil
}

func (m *Measurement) scalarBits(i int) (uint64, error) {
	if kind := m.Header.Type.Kind(); !kind.Scalar() {
		return 0, fmt.Errorf("%w: %s (%s)", errs.ErrUnsupportedType, m.Header.Type, kind)
	}

	return m.Bits(i)
}

func (m *Measurement) elementWidth() int {
	size, _ := m.Header.Type.Size()
	return size
}

// signExtend interprets the low width bytes of raw as two's complement.
func signExtend(raw uint64, width int) int64 {
	shift := uint(64 - 8*width) //nolint:gosec
	return int64(raw<<shift) >> shift //nolint:gosec
}
