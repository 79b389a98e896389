package compress

import (
	"github.com/arloliu/stepflow/format"
)

// maxZstdDecoded caps the memory one zstd frame may decode to.
const maxZstdDecoded = 64 << 20

// ZstdCodec compresses payloads as single Zstandard frames.
//
// The implementation is selected at build time: klauspost/compress/zstd by
// default, valyala/gozstd when built with cgo and the gozstd tag.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// Type returns format.CompressionZstd.
func (ZstdCodec) Type() format.CompressionType { return format.CompressionZstd }

// AppendCompressed appends one Zstandard frame to dst.
func (ZstdCodec) AppendCompressed(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	return zstdAppendCompressed(dst, src)
}

// AppendDecompressed decodes a Zstandard frame into dst, reserving size
// bytes up front.
func (ZstdCodec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		if size != 0 {
			return dst, sizeMismatch(format.CompressionZstd, 0, size)
		}
		return dst, nil
	}

	start := len(dst)
	reserved, _ := grow(dst, size)
	out, err := zstdAppendDecompressed(reserved[:start], src)
	if err != nil {
		return dst, err
	}
	if n := len(out) - start; n != size {
		return dst, sizeMismatch(format.CompressionZstd, n, size)
	}

	return out, nil
}
