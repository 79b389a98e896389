package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/stepflow/format"
)

// S2Codec compresses payloads as S2 blocks, a Snappy-compatible format tuned
// for speed.
type S2Codec struct{}

var _ Codec = S2Codec{}

// Type returns format.CompressionS2.
func (S2Codec) Type() format.CompressionType { return format.CompressionS2 }

// AppendCompressed appends one S2 block to dst.
func (S2Codec) AppendCompressed(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	bound := s2.MaxEncodedLen(len(src))
	if bound < 0 {
		return dst, errors.New("s2: payload too large")
	}

	start := len(dst)
	out, tail := grow(dst, bound)
	block := s2.Encode(tail, src)

	return append(out[:start], block...), nil
}

// AppendDecompressed decodes an S2 block into dst. The decoded length is
// read from the block preamble and checked before any output is written.
func (S2Codec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		if size != 0 {
			return dst, sizeMismatch(format.CompressionS2, 0, size)
		}
		return dst, nil
	}

	n, err := s2.DecodedLen(src)
	if err != nil {
		return dst, fmt.Errorf("s2: %w", err)
	}
	if n != size {
		return dst, sizeMismatch(format.CompressionS2, n, size)
	}

	start := len(dst)
	out, tail := grow(dst, n)
	decoded, err := s2.Decode(tail, src)
	if err != nil {
		return dst, fmt.Errorf("s2: %w", err)
	}

	return append(out[:start], decoded...), nil
}
