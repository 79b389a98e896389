//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// zstdLevel matches the klauspost SpeedDefault level.
const zstdLevel = 3

func zstdAppendCompressed(dst, src []byte) ([]byte, error) {
	return gozstd.CompressLevel(dst, src, zstdLevel), nil
}

func zstdAppendDecompressed(dst, src []byte) ([]byte, error) {
	out, err := gozstd.Decompress(dst, src)
	if err != nil {
		return dst, fmt.Errorf("zstd: %w", err)
	}

	return out, nil
}
