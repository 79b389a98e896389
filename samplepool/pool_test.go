package samplepool

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
	"github.com/arloliu/stepflow/internal/monitoring"
	"github.com/arloliu/stepflow/measurement"
)

func newPool(t *testing.T, capacity int, opts ...Option) *Pool {
	t.Helper()

	p, err := New(capacity, 64, opts...)
	require.NoError(t, err)

	return p
}

func TestNew_InvalidArguments(t *testing.T) {
	_, err := New(0, 64)
	require.ErrorIs(t, err, errs.ErrInvalidCapacity)

	_, err = New(-1, 64)
	require.ErrorIs(t, err, errs.ErrInvalidCapacity)

	_, err = New(4, 0)
	require.ErrorIs(t, err, errs.ErrInvalidCapacity)
}

func TestPool_CapacityEight(t *testing.T) {
	p := newPool(t, 8)

	samples := make([]Sample, 8)
	for i := range samples {
		s, err := p.Alloc()
		require.NoError(t, err)
		require.Equal(t, i, s.Index())
		samples[i] = s
	}

	_, err := p.Alloc()
	require.ErrorIs(t, err, errs.ErrPoolExhausted)

	require.NoError(t, p.Free(samples[0]))
	s, err := p.Alloc()
	require.NoError(t, err)
	require.Equal(t, 0, s.Index())
}

func TestPool_FIFOReuse(t *testing.T) {
	p := newPool(t, 4)

	held := make(map[int]Sample)
	for i := 0; i < 4; i++ {
		s, err := p.Alloc()
		require.NoError(t, err)
		held[s.Index()] = s
	}

	// Free in a scrambled order; allocation must return the same order.
	order := []int{2, 0, 3, 1}
	for _, idx := range order {
		require.NoError(t, p.Free(held[idx]))
	}
	for _, want := range order {
		s, err := p.Alloc()
		require.NoError(t, err)
		require.Equal(t, want, s.Index())
		held[want] = s
	}

	// Repeated single free/alloc cycles keep handing back the freed slot.
	for cycle := 0; cycle < 20; cycle++ {
		idx := cycle % 4
		require.NoError(t, p.Free(held[idx]))
		s, err := p.Alloc()
		require.NoError(t, err)
		require.Equal(t, idx, s.Index())
		held[idx] = s
	}
}

func TestPool_FIFOAcrossPartialFrees(t *testing.T) {
	p := newPool(t, 3)

	a, _ := p.Alloc()
	b, _ := p.Alloc()

	// Slot 2 has been free since start; then 1 and 0 are freed.
	require.NoError(t, p.Free(b))
	require.NoError(t, p.Free(a))

	var got []int
	for i := 0; i < 3; i++ {
		s, err := p.Alloc()
		require.NoError(t, err)
		got = append(got, s.Index())
	}
	require.Equal(t, []int{2, 1, 0}, got)
}

func TestPool_DoubleFree(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	reg := prometheus.NewRegistry()
	metrics, err := monitoring.New(reg, nil)
	require.NoError(t, err)

	p := newPool(t, 2, WithLogger(zap.New(core)), WithMetrics(metrics))

	s, err := p.Alloc()
	require.NoError(t, err)
	require.NoError(t, p.Free(s))

	require.ErrorIs(t, p.Free(s), errs.ErrDoubleFree)
	require.Equal(t, 2, p.Available(), "free list must not be corrupted")

	// Stale handle: slot 0 is reallocated after slot 1.
	s1, _ := p.Alloc()
	s0, _ := p.Alloc()
	require.Equal(t, 1, s1.Index())
	require.Equal(t, 0, s0.Index())
	require.ErrorIs(t, p.Free(s), errs.ErrDoubleFree)
	require.True(t, s0.Valid())
	require.False(t, s.Valid())

	require.ErrorIs(t, p.Free(Sample{}), errs.ErrForeignSample)
	other := newPool(t, 1)
	foreign, _ := other.Alloc()
	require.ErrorIs(t, p.Free(foreign), errs.ErrForeignSample)

	stats := p.Stats()
	require.Equal(t, uint64(2), stats.DoubleFrees)
	require.Equal(t, 4, logs.FilterMessage("rejected sample free").Len())
}

func TestPool_ExhaustionWarningThrottled(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := newPool(t, 1, WithLogger(zap.New(core)))

	_, err := p.Alloc()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = p.Alloc()
		require.ErrorIs(t, err, errs.ErrPoolExhausted)
	}

	require.Equal(t, 1, logs.FilterMessage("sample pool exhausted").Len())
	require.Equal(t, uint64(5), p.Stats().FailedAllocs)
}

func TestPool_Stats(t *testing.T) {
	p := newPool(t, 3)

	a, _ := p.Alloc()
	b, _ := p.Alloc()
	require.NoError(t, p.Free(a))
	_, _ = p.Alloc()
	_, _ = p.Alloc()
	_, err := p.Alloc()
	require.ErrorIs(t, err, errs.ErrPoolExhausted)
	require.NoError(t, p.Free(b))

	require.Equal(t, Stats{
		Capacity:     3,
		InUse:        2,
		Free:         1,
		HighWater:    3,
		FailedAllocs: 1,
	}, p.Stats())
	require.Equal(t, 3, p.Capacity())
	require.Equal(t, 64, p.SlotSize())
}

func TestSample_RefCount(t *testing.T) {
	p := newPool(t, 1)

	s, err := p.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.Retain())
	require.NoError(t, s.Retain())

	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
	require.Equal(t, 0, p.Available())

	require.NoError(t, s.Release())
	require.Equal(t, 1, p.Available())

	require.ErrorIs(t, s.Release(), errs.ErrDoubleFree)
	require.Error(t, s.Retain())
	require.ErrorIs(t, Sample{}.Release(), errs.ErrForeignSample)
}

func TestSample_Prepare(t *testing.T) {
	p := newPool(t, 2)
	s, _ := p.Alloc()

	h := measurement.Header{Type: format.CTypeFloat64, Unit: format.UnitPascal, SampleCount: 8}
	m, err := s.Prepare(h)
	require.NoError(t, err)
	require.Len(t, m.Payload, 64)
	require.Equal(t, uint32(64), m.Header.PayloadSize)
	require.NoError(t, m.Validate())
	require.Same(t, m, s.Measurement())

	h.SampleCount = 9
	_, err = s.Prepare(h)
	require.ErrorIs(t, err, errs.ErrPayloadTooLarge)

	h.Type = format.CTypeUser1
	_, err = s.Prepare(h)
	require.ErrorIs(t, err, errs.ErrUnknownType)

	require.NoError(t, p.Free(s))
	require.Nil(t, s.Measurement())
	_, err = s.Prepare(h)
	require.ErrorIs(t, err, errs.ErrDoubleFree)
}

func TestSample_PayloadsDoNotOverlap(t *testing.T) {
	p := newPool(t, 2)
	a, _ := p.Alloc()
	b, _ := p.Alloc()

	h := measurement.Header{Type: format.CTypeU8, Unit: format.UnitSecond, SampleCount: 64}
	ma, err := a.Prepare(h)
	require.NoError(t, err)
	mb, err := b.Prepare(h)
	require.NoError(t, err)

	for i := range ma.Payload {
		ma.Payload[i] = 0xAA
	}
	for _, v := range mb.Payload {
		require.NotEqual(t, byte(0xAA), v)
	}
}

func TestSample_Decode(t *testing.T) {
	h, err := measurement.MakeHeader(format.CTypeS32, format.UnitVolt, format.ScaleMilli, 4)
	require.NoError(t, err)
	h.Flags = h.Flags.WithCompression(format.CompressionZstd)
	src := measurement.New(h, make([]byte, h.PayloadSize))
	for i := 0; i < 4; i++ {
		require.NoError(t, src.SetInt64(i, int64(-1000*i)))
	}
	frame, err := measurement.Marshal(src)
	require.NoError(t, err)

	p := newPool(t, 1)
	s, _ := p.Alloc()
	n, err := s.Decode(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)

	m := s.Measurement()
	require.Equal(t, src.Header, m.Header)
	require.Equal(t, src.Payload, m.Payload)

	big, err := measurement.MakeHeader(format.CTypeFloat64, format.UnitVolt, format.ScaleNone, 16)
	require.NoError(t, err)
	bigFrame, err := measurement.Marshal(measurement.New(big, make([]byte, big.PayloadSize)))
	require.NoError(t, err)
	_, err = s.Decode(bigFrame)
	require.ErrorIs(t, err, errs.ErrPayloadTooLarge)

	frame[len(frame)-1] ^= 0xFF
	_, err = s.Decode(frame)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func TestPool_Concurrent(t *testing.T) {
	p := newPool(t, 16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s, err := p.Alloc()
				if err != nil {
					continue
				}
				if _, err := s.Prepare(measurement.Header{Type: format.CTypeU8, Unit: format.UnitSecond, SampleCount: 4}); err != nil {
					t.Error(err)
				}
				if err := s.Release(); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	stats := p.Stats()
	require.Equal(t, 0, stats.InUse)
	require.Equal(t, 16, stats.Free)
	require.Zero(t, stats.DoubleFrees)
}

func BenchmarkPool_AllocFree(b *testing.B) {
	p, _ := New(64, 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, _ := p.Alloc()
		_ = p.Free(s)
	}
}
