package measurement

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/arloliu/stepflow/endian"
	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
)

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = 24

// Flag bit layout.
const (
	CompressionMask  = 0x000F // bits 0-3, format.CompressionType
	ReservedFlagMask = 0x00F0 // bits 4-7, must be zero
	UserFlagMask     = 0xFF00 // bits 8-15, opaque to the core
	userFlagShift    = 8
)

// Flags is the packed 16-bit flag field of a header.
type Flags uint16

// Compression returns the payload compression named by the flags.
func (f Flags) Compression() format.CompressionType {
	return format.CompressionType(f & CompressionMask)
}

// WithCompression returns f with the compression bits replaced.
func (f Flags) WithCompression(c format.CompressionType) Flags {
	return (f &^ CompressionMask) | Flags(c)&CompressionMask
}

// User returns the user flag byte.
func (f Flags) User() uint8 {
	return uint8(f >> userFlagShift)
}

// WithUser returns f with the user flag byte replaced.
func (f Flags) WithUser(u uint8) Flags {
	return (f &^ UserFlagMask) | Flags(u)<<userFlagShift
}

// HasReserved reports whether any reserved bit is set.
func (f Flags) HasReserved() bool {
	return f&ReservedFlagMask != 0
}

// Header describes a batch of SampleCount elements of one type.
type Header struct {
	Type        format.CType
	Scale       format.Scale
	Unit        format.Unit
	Flags       Flags
	Source      uint16
	SampleCount uint32
	PayloadSize uint32
	// Timestamp is the Unix time of the first sample in microseconds.
	Timestamp int64
}

// MakeHeader returns a header with PayloadSize derived from the type and
// sample count.
func MakeHeader(t format.CType, unit format.Unit, scale format.Scale, count uint32) (Header, error) {
	size, err := ExpectedPayloadSize(t, count)
	if err != nil {
		return Header{}, err
	}

	return Header{
		Type:        t,
		Unit:        unit,
		Scale:       scale,
		SampleCount: count,
		PayloadSize: uint32(size), //nolint:gosec
	}, nil
}

// AppendBinary appends the 24-byte encoding of h to dst.
func (h Header) AppendBinary(dst []byte) []byte {
	engine := endian.GetWireEngine()

	dst = append(dst, uint8(h.Type), uint8(h.Scale))
	dst = engine.AppendUint16(dst, uint16(h.Unit))
	dst = engine.AppendUint16(dst, uint16(h.Flags))
	dst = engine.AppendUint16(dst, h.Source)
	dst = engine.AppendUint32(dst, h.SampleCount)
	dst = engine.AppendUint32(dst, h.PayloadSize)
	dst = engine.AppendUint64(dst, uint64(h.Timestamp)) //nolint:gosec

	return dst
}

// Bytes returns the 24-byte encoding of h.
func (h Header) Bytes() []byte {
	return h.AppendBinary(make([]byte, 0, HeaderSize))
}

// Parse decodes h from the first HeaderSize bytes of data. It does not
// validate code-table values; call ValidateHeader for that.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: need %d bytes, got %d", errs.ErrInvalidHeaderSize, HeaderSize, len(data))
	}

	engine := endian.GetWireEngine()

	h.Type = format.CType(data[0])
	h.Scale = format.Scale(int8(data[1])) //nolint:gosec
	h.Unit = format.Unit(engine.Uint16(data[2:4]))
	h.Flags = Flags(engine.Uint16(data[4:6]))
	h.Source = engine.Uint16(data[6:8])
	h.SampleCount = engine.Uint32(data[8:12])
	h.PayloadSize = engine.Uint32(data[12:16])
	h.Timestamp = int64(engine.Uint64(data[16:24])) //nolint:gosec

	return nil
}

// ParseHeader decodes a Header from data.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := h.Parse(data); err != nil {
		return Header{}, err
	}

	return h, nil
}

func (h Header) String() string {
	return fmt.Sprintf("%s[%d] %s%s src=%d flags=0x%04X size=%d",
		h.Type, h.SampleCount, scalePrefix(h.Scale), h.Unit, h.Source, uint16(h.Flags), h.PayloadSize)
}

// MarshalLogObject lets a header be logged with zap.Object.
func (h Header) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", h.Type.String())
	enc.AddString("unit", h.Unit.String())
	enc.AddInt8("scale", int8(h.Scale))
	enc.AddUint16("flags", uint16(h.Flags))
	enc.AddUint16("source", h.Source)
	enc.AddUint32("samples", h.SampleCount)
	enc.AddUint32("payload_size", h.PayloadSize)
	enc.AddInt64("timestamp_us", h.Timestamp)

	return nil
}

func scalePrefix(s format.Scale) string {
	if s == format.ScaleNone {
		return ""
	}
	if sym, ok := s.Symbol(); ok {
		return sym
	}

	return s.String() + " "
}
