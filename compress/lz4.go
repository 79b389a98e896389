package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
)

// lz4CompressorPool keeps lz4.Compressor hash tables warm between calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec compresses payloads as raw LZ4 blocks.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

// Type returns format.CompressionLZ4.
func (LZ4Codec) Type() format.CompressionType { return format.CompressionLZ4 }

// AppendCompressed appends one LZ4 block to dst.
func (LZ4Codec) AppendCompressed(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	start := len(dst)
	out, tail := grow(dst, lz4.CompressBlockBound(len(src)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(src, tail)
	if err != nil {
		return dst, fmt.Errorf("lz4: %w", err)
	}

	return out[:start+n], nil
}

// AppendDecompressed decodes an LZ4 block into exactly size bytes of dst.
// Raw blocks do not record their decoded length, so the header's size bounds
// the output.
func (LZ4Codec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		if size != 0 {
			return dst, sizeMismatch(format.CompressionLZ4, 0, size)
		}
		return dst, nil
	}

	start := len(dst)
	out, tail := grow(dst, size)
	n, err := lz4.UncompressBlock(src, tail)
	if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
		return dst, fmt.Errorf("%w: lz4 block decodes past %d bytes", errs.ErrPayloadSizeMismatch, size)
	}
	if err != nil {
		return dst, fmt.Errorf("lz4: %w", err)
	}
	if n != size {
		return dst, sizeMismatch(format.CompressionLZ4, n, size)
	}

	return out[:start+n], nil
}
