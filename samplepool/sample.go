package samplepool

import (
	"fmt"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/internal/pool"
	"github.com/arloliu/stepflow/measurement"
)

// Sample is a handle to one allocated slot. The zero Sample belongs to no
// pool.
type Sample struct {
	p   *Pool
	idx uint32
	gen uint32
}

// Index returns the slot index.
func (s Sample) Index() int {
	return int(s.idx)
}

// Generation returns the allocation generation of the slot this handle
// refers to.
func (s Sample) Generation() uint32 {
	return s.gen
}

// Valid reports whether the handle still refers to a live allocation.
func (s Sample) Valid() bool {
	if s.p == nil {
		return false
	}
	_, _, err := s.p.slotMeasurement(s)

	return err == nil
}

// Measurement returns the slot's envelope, or nil for a stale handle. Its
// payload aliases slot storage and must not be used after the sample is
// freed.
func (s Sample) Measurement() *measurement.Measurement {
	if s.p == nil {
		return nil
	}
	m, _, err := s.p.slotMeasurement(s)
	if err != nil {
		return nil
	}

	return m
}

// Prepare sets the slot's header to h and sizes the payload to match it.
// PayloadSize is derived from h's type and sample count. Payload content is
// left as it was; callers overwrite every element.
//
// Returns errs.ErrUnknownType for types without a known width and
// errs.ErrPayloadTooLarge when the payload does not fit the slot.
func (s Sample) Prepare(h measurement.Header) (*measurement.Measurement, error) {
	m, buf, err := s.live()
	if err != nil {
		return nil, err
	}

	size, err := measurement.ExpectedPayloadSize(h.Type, h.SampleCount)
	if err != nil {
		return nil, err
	}
	if !buf.SetLength(size) {
		return nil, fmt.Errorf("%w: %d bytes, slot holds %d", errs.ErrPayloadTooLarge, size, buf.Cap())
	}

	h.PayloadSize = uint32(size) //nolint:gosec
	m.Header = h
	m.Payload = buf.Bytes()

	return m, nil
}

// Decode decodes a wire frame into the slot and returns the number of frame
// bytes consumed. The payload is decompressed directly into slot storage.
func (s Sample) Decode(frame []byte) (int, error) {
	m, buf, err := s.live()
	if err != nil {
		return 0, err
	}

	h, err := measurement.FrameHeader(frame)
	if err != nil {
		return 0, err
	}
	if int64(h.PayloadSize) > int64(buf.Cap()) {
		return 0, fmt.Errorf("%w: %d bytes, slot holds %d", errs.ErrPayloadTooLarge, h.PayloadSize, buf.Cap())
	}

	buf.Reset()
	m.Payload = buf.Bytes()
	n, err := measurement.DecodeInto(m, frame)
	if err != nil {
		m.Header = measurement.Header{}
		m.Payload = buf.Bytes()

		return 0, err
	}
	buf.SetLength(len(m.Payload))

	return n, nil
}

// Retain adds a reference. Each Retain must be paired with a Release.
func (s Sample) Retain() error {
	if s.p == nil {
		return errs.ErrForeignSample
	}

	return s.p.retain(s)
}

// Release drops a reference; the last one returns the slot to the pool.
// Releasing more often than the sample was retained returns
// errs.ErrDoubleFree.
func (s Sample) Release() error {
	if s.p == nil {
		return errs.ErrForeignSample
	}

	return s.p.release(s)
}

func (s Sample) String() string {
	return fmt.Sprintf("sample(%d@%d)", s.idx, s.gen)
}

func (s Sample) live() (*measurement.Measurement, *pool.ByteBuffer, error) {
	if s.p == nil {
		return nil, nil, errs.ErrForeignSample
	}

	return s.p.slotMeasurement(s)
}
