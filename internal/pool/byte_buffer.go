// Package pool provides fixed-capacity byte storage for sample pool slots.
//
// Unlike a growable buffer, a ByteBuffer here never reallocates: its
// capacity is carved from one preallocated arena at startup and every write
// that would exceed it fails. This keeps the memory footprint of a sample
// pool constant for the lifetime of the process.
package pool

import (
	"io"
)

// ByteBuffer is a length-tracked view over fixed slot storage.
type ByteBuffer struct {
	// B is the underlying byte slice. cap(B) never changes.
	B []byte
}

// NewByteBuffer creates a standalone ByteBuffer with the given capacity.
func NewByteBuffer(size int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, size),
	}
}

// Bytes returns the written portion of the buffer.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer, keeping its storage.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of bytes written.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the fixed capacity.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Available returns the number of bytes that can still be written.
func (bb *ByteBuffer) Available() int {
	return cap(bb.B) - len(bb.B)
}

// SetLength sets the length to n. Returns false if n is negative or exceeds
// the capacity; the buffer is left unchanged in that case.
func (bb *ByteBuffer) SetLength(n int) bool {
	if n < 0 || n > cap(bb.B) {
		return false
	}
	bb.B = bb.B[:n]

	return true
}

// Extend grows the length by n bytes if capacity allows.
func (bb *ByteBuffer) Extend(n int) bool {
	return bb.SetLength(len(bb.B) + n)
}

// Zero clears the written portion.
func (bb *ByteBuffer) Zero() {
	clear(bb.B)
}

// Write appends data. It never grows the storage: when data does not fit,
// the fitting prefix is written and io.ErrShortWrite is returned.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	n := copy(bb.B[len(bb.B):cap(bb.B)], data)
	bb.B = bb.B[:len(bb.B)+n]
	if n < len(data) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// NewArena allocates count buffers of size bytes each from a single backing
// array. Buffers are adjacent but capacity-limited, so a write to one can
// never spill into its neighbour.
func NewArena(count, size int) []ByteBuffer {
	if count <= 0 {
		return nil
	}

	backing := make([]byte, count*size)
	buffers := make([]ByteBuffer, count)
	for i := range buffers {
		start := i * size
		buffers[i].B = backing[start:start:start+size]
	}

	return buffers
}
