package measurement

import (
	"fmt"

	"github.com/arloliu/stepflow/compress"
	"github.com/arloliu/stepflow/endian"
	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/internal/hash"
)

const (
	frameLengthSize   = 4
	frameChecksumSize = 8
	frameOverhead     = HeaderSize + frameLengthSize + frameChecksumSize
)

// AppendFrame validates m, compresses its payload per the header's
// compression flags and appends the resulting frame to dst.
func AppendFrame(dst []byte, m *Measurement) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return dst, err
	}

	codec, err := compress.GetCodec(m.Header.Flags.Compression())
	if err != nil {
		return dst, err
	}

	start := len(dst)
	dst = m.Header.AppendBinary(dst)
	dst = append(dst, 0, 0, 0, 0) // stored length, filled in below
	payloadStart := len(dst)

	dst, err = codec.AppendCompressed(dst, m.Payload)
	if err != nil {
		return dst[:start], fmt.Errorf("compress payload: %w", err)
	}

	engine := endian.GetWireEngine()
	stored := dst[payloadStart:]
	engine.PutUint32(dst[payloadStart-frameLengthSize:], uint32(len(stored))) //nolint:gosec
	dst = engine.AppendUint64(dst, hash.Checksum(dst[start:start+HeaderSize], stored))

	return dst, nil
}

// Marshal returns m encoded as a frame.
func Marshal(m *Measurement) ([]byte, error) {
	return AppendFrame(make([]byte, 0, frameOverhead+len(m.Payload)), m)
}

// FrameHeader parses and validates the header at the start of frame without
// touching the payload. Callers use it to size a destination buffer before
// DecodeInto.
func FrameHeader(frame []byte) (Header, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return Header{}, err
	}
	if err := ValidateHeader(h); err != nil {
		return Header{}, err
	}

	return h, nil
}

// DecodeInto decodes frame into dst, decompressing into dst.Payload's storage
// when it has enough capacity. It returns the number of frame bytes consumed.
//
// The checksum is verified before decompression and the decoded payload is
// checked against the header, so a returned measurement always validates. On
// error dst's header is unchanged but the bytes under dst.Payload may have
// been overwritten.
func DecodeInto(dst *Measurement, frame []byte) (int, error) {
	h, err := FrameHeader(frame)
	if err != nil {
		return 0, err
	}
	if err := ValidatePayloadSize(h, int(h.PayloadSize)); err != nil {
		return 0, err
	}

	if len(frame) < HeaderSize+frameLengthSize {
		return 0, fmt.Errorf("%w: missing stored length", errs.ErrFrameTruncated)
	}

	engine := endian.GetWireEngine()
	storedLen := int(engine.Uint32(frame[HeaderSize:]))
	payloadStart := HeaderSize + frameLengthSize
	total := payloadStart + storedLen + frameChecksumSize
	if storedLen < 0 || len(frame) < total {
		return 0, fmt.Errorf("%w: need %d bytes, got %d", errs.ErrFrameTruncated, total, len(frame))
	}

	stored := frame[payloadStart : payloadStart+storedLen]
	want := engine.Uint64(frame[payloadStart+storedLen:])
	if got := hash.Checksum(frame[:HeaderSize], stored); got != want {
		return 0, fmt.Errorf("%w: got %016x, want %016x", errs.ErrChecksumMismatch, got, want)
	}

	codec, err := compress.GetCodec(h.Flags.Compression())
	if err != nil {
		return 0, err
	}
	payload, err := codec.AppendDecompressed(dst.Payload[:0], stored, int(h.PayloadSize))
	if err != nil {
		return 0, fmt.Errorf("decompress payload: %w", err)
	}

	dst.Header = h
	dst.Payload = payload

	return total, nil
}

// Unmarshal decodes a frame into a new measurement.
func Unmarshal(frame []byte) (*Measurement, error) {
	m := &Measurement{}
	if _, err := DecodeInto(m, frame); err != nil {
		return nil, err
	}

	return m, nil
}
