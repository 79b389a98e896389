// Package compress provides the payload codecs a measurement wire frame can
// name in its header flags.
//
// Compression is applied to the raw little-endian payload only; the header
// always stays uncompressed so a receiver can validate type, unit and sample
// count before spending CPU on decompression. Decoders are told the payload
// size the header declares and reject any other length.
//
// Supported codecs:
//   - None (format.CompressionNone): payload stored as-is
//   - Zstd (format.CompressionZstd): best ratio, pure Go by default; build
//     with cgo and the gozstd tag to use the C implementation
//   - S2 (format.CompressionS2): fast, moderate ratio
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// Small sensor batches (tens of elements) often do not shrink; producers
// should keep CompressionNone unless batches are large or slowly changing.
//
// All codecs are stateless values and safe for concurrent use. Zstd and LZ4
// keep warmed-up encoder state in sync.Pools.
package compress
