package format

// CompressionType identifies the codec applied to a measurement payload in
// a wire frame. It occupies the low four bits of the header flags, so the
// zero value means an uncompressed payload.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x0 // CompressionNone stores the payload as-is.
	CompressionZstd CompressionType = 0x1 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x2 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x3 // CompressionLZ4 represents LZ4 compression.
)

// IsValid reports whether c is a known compression type.
func (c CompressionType) IsValid() bool {
	return c <= CompressionLZ4
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression returns the compression type for a case-sensitive name as
// produced by String, accepting lower-case spellings used in config files.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "", "None", "none":
		return CompressionNone, true
	case "Zstd", "zstd":
		return CompressionZstd, true
	case "S2", "s2":
		return CompressionS2, true
	case "LZ4", "lz4":
		return CompressionLZ4, true
	default:
		return CompressionNone, false
	}
}
