package compress

import (
	"fmt"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
)

// Codec compresses and decompresses measurement payloads.
//
// Both directions append to dst and return the extended slice, so callers
// can encode straight into a frame buffer and decode straight into pool slot
// storage. When dst has enough spare capacity no allocation happens.
type Codec interface {
	// Type returns the compression code written to frame headers.
	Type() format.CompressionType
	// AppendCompressed appends the compressed form of src to dst. An empty
	// src appends nothing.
	AppendCompressed(dst, src []byte) ([]byte, error)
	// AppendDecompressed appends the decompressed form of src to dst. size is
	// the decoded length declared by the frame header; any other length is
	// reported as errs.ErrPayloadSizeMismatch.
	AppendDecompressed(dst, src []byte, size int) ([]byte, error)
}

var builtinCodecs = [...]Codec{
	format.CompressionNone: NoneCodec{},
	format.CompressionZstd: ZstdCodec{},
	format.CompressionS2:   S2Codec{},
	format.CompressionLZ4:  LZ4Codec{},
}

// GetCodec returns the built-in codec for a compression type.
func GetCodec(t format.CompressionType) (Codec, error) {
	if int(t) >= len(builtinCodecs) {
		return nil, fmt.Errorf("%w: %s (%d)", errs.ErrUnsupportedCompression, t, uint8(t))
	}

	return builtinCodecs[t], nil
}

// grow returns dst extended by n bytes and the extension.
func grow(dst []byte, n int) (out, tail []byte) {
	start := len(dst)
	if cap(dst)-start < n {
		next := make([]byte, start, start+n)
		copy(next, dst)
		dst = next
	}
	dst = dst[:start+n]

	return dst, dst[start:]
}

func sizeMismatch(codec format.CompressionType, got, want int) error {
	return fmt.Errorf("%w: %s decoded %d bytes, header declares %d",
		errs.ErrPayloadSizeMismatch, codec, got, want)
}

// NoneCodec stores payloads as-is.
type NoneCodec struct{}

var _ Codec = NoneCodec{}

// Type returns format.CompressionNone.
func (NoneCodec) Type() format.CompressionType { return format.CompressionNone }

// AppendCompressed appends src to dst.
func (NoneCodec) AppendCompressed(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

// AppendDecompressed appends src to dst.
func (NoneCodec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return dst, sizeMismatch(format.CompressionNone, len(src), size)
	}

	return append(dst, src...), nil
}
