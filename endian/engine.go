// Package endian provides the byte order used by stepflow measurement headers
// and payload elements.
//
// Every multi-byte field of a measurement is little-endian on the wire and in
// pool storage, independent of the host. EndianEngine combines the
// ByteOrder and AppendByteOrder interfaces of encoding/binary so callers can
// both patch fixed offsets and append to growing buffers through one value.
//
// All functions in this package are safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness returns the host byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian, in which case
// payload elements can be read without swapping.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetWireEngine returns the engine for measurement headers and payloads.
func GetWireEngine() EndianEngine {
	return binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine. It is only used by tests
// that check a header is never read with host order.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Uint reads an unsigned integer of len(b) bytes (1, 2, 4 or 8).
// Widths above 8 bytes return the low 8 bytes; other widths return 0.
func Uint(engine EndianEngine, b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(engine.Uint16(b))
	case 4:
		return uint64(engine.Uint32(b))
	case 8:
		return engine.Uint64(b)
	default:
		if len(b) > 8 {
			if engine == binary.BigEndian {
				return engine.Uint64(b[len(b)-8:])
			}

			return engine.Uint64(b[:8])
		}

		return 0
	}
}

// PutUint writes the low len(b) bytes of v into b (1, 2, 4 or 8 bytes).
// Returns false when len(b) is not a supported width.
func PutUint(engine EndianEngine, b []byte, v uint64) bool {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		engine.PutUint16(b, uint16(v))
	case 4:
		engine.PutUint32(b, uint32(v))
	case 8:
		engine.PutUint64(b, v)
	default:
		return false
	}

	return true
}
