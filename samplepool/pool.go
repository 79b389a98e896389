// Package samplepool provides a fixed-capacity pool of measurement buffers.
//
// All slot storage is allocated once by New; Alloc and Free never allocate
// and never block. Free slots are reused in first-in-first-out order: the
// slot freed earliest is the one the next Alloc returns, which spreads wear
// evenly across slots. Initially slots are handed out in index order.
//
// A Sample is a small value handle carrying the slot index and the slot's
// generation. Every free advances the generation, so a handle kept past its
// free is detected instead of silently aliasing the next owner's data.
package samplepool

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/internal/logging"
	"github.com/arloliu/stepflow/internal/monitoring"
	"github.com/arloliu/stepflow/internal/options"
	"github.com/arloliu/stepflow/internal/pool"
	"github.com/arloliu/stepflow/measurement"
)

type slot struct {
	busy bool
	gen  uint32
	refs int32
	m    measurement.Measurement
}

// Pool is a fixed set of equally sized measurement slots. It is safe for
// concurrent use.
type Pool struct {
	mu      sync.Mutex
	slots   []slot
	buffers []pool.ByteBuffer

	// free is a ring of slot indices; the oldest free slot is at head.
	free      []uint32
	head      int
	freeCount int

	highWater    int
	failedAllocs uint64
	doubleFrees  uint64

	slotSize   int
	logger     *zap.Logger
	exhaustLog *rate.Limiter
	metrics    *monitoring.Metrics
}

// exhaustLogInterval is the minimum gap between pool exhaustion warnings.
const exhaustLogInterval = 10 * time.Second

type poolConfig struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Pool.
type Option = options.Option[*poolConfig]

// WithLogger sets the logger used to report double frees.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(cfg *poolConfig) {
		cfg.logger = logger
	})
}

// WithMetrics records allocations and frees on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return options.NoError(func(cfg *poolConfig) {
		cfg.metrics = m
	})
}

// New creates a pool of capacity slots of slotSize payload bytes each.
func New(capacity, slotSize int, opts ...Option) (*Pool, error) {
	if capacity <= 0 || int64(capacity) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: pool capacity %d", errs.ErrInvalidCapacity, capacity)
	}
	if slotSize <= 0 {
		return nil, fmt.Errorf("%w: slot size %d", errs.ErrInvalidCapacity, slotSize)
	}

	cfg := &poolConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	p := &Pool{
		slots:      make([]slot, capacity),
		buffers:    pool.NewArena(capacity, slotSize),
		free:       make([]uint32, capacity),
		freeCount:  capacity,
		slotSize:   slotSize,
		logger:     logging.OrNop(cfg.logger).Named("samplepool"),
		exhaustLog: rate.NewLimiter(rate.Every(exhaustLogInterval), 1),
		metrics:    cfg.metrics,
	}
	for i := range p.free {
		p.free[i] = uint32(i) //nolint:gosec
	}
	p.metrics.SetPoolCapacity(capacity)

	return p, nil
}

// Capacity returns the number of slots.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// SlotSize returns the payload capacity of each slot in bytes.
func (p *Pool) SlotSize() int {
	return p.slotSize
}

// Available returns the number of free slots.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.freeCount
}

// Alloc takes the oldest free slot. The returned sample holds one reference
// and an empty measurement. Returns errs.ErrPoolExhausted when every slot is
// in use.
func (p *Pool) Alloc() (Sample, error) {
	p.mu.Lock()
	if p.freeCount == 0 {
		p.failedAllocs++
		failed := p.failedAllocs
		p.mu.Unlock()

		p.metrics.RecordAlloc(false, len(p.slots))
		if p.exhaustLog.Allow() {
			p.logger.Warn("sample pool exhausted",
				zap.Int("capacity", len(p.slots)),
				zap.Uint64("failed_allocs", failed),
			)
		}

		return Sample{}, fmt.Errorf("%w: all %d slots in use", errs.ErrPoolExhausted, len(p.slots))
	}

	idx := p.free[p.head]
	p.head = (p.head + 1) % len(p.free)
	p.freeCount--

	s := &p.slots[idx]
	s.busy = true
	s.refs = 1
	p.buffers[idx].Reset()
	s.m.Header = measurement.Header{}
	s.m.Payload = p.buffers[idx].Bytes()

	inUse := len(p.slots) - p.freeCount
	if inUse > p.highWater {
		p.highWater = inUse
	}
	sample := Sample{p: p, idx: idx, gen: s.gen}
	p.mu.Unlock()

	p.metrics.RecordAlloc(true, inUse)

	return sample, nil
}

// Free returns the sample's slot to the pool regardless of outstanding
// references. Shared samples should use Sample.Release instead.
//
// Freeing a sample that is not currently allocated (never allocated, already
// freed, or a stale handle from an earlier allocation of the slot) returns
// errs.ErrDoubleFree; a sample from another pool returns
// errs.ErrForeignSample. Both leave the free list untouched.
func (p *Pool) Free(s Sample) error {
	if s.p != p {
		return p.rejectFree(s, errs.ErrForeignSample)
	}

	p.mu.Lock()
	if err := p.checkLocked(s); err != nil {
		p.doubleFrees++
		p.mu.Unlock()

		return p.rejectFree(s, err)
	}
	inUse := p.freeLocked(s.idx)
	p.mu.Unlock()

	p.metrics.RecordFree(inUse)

	return nil
}

// retain adds a reference to a live sample.
func (p *Pool) retain(s Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkLocked(s); err != nil {
		return err
	}
	p.slots[s.idx].refs++

	return nil
}

// release drops a reference and frees the slot on the last one.
func (p *Pool) release(s Sample) error {
	if s.p != p {
		return p.rejectFree(s, errs.ErrForeignSample)
	}

	p.mu.Lock()
	if err := p.checkLocked(s); err != nil {
		p.doubleFrees++
		p.mu.Unlock()

		return p.rejectFree(s, err)
	}

	sl := &p.slots[s.idx]
	sl.refs--
	if sl.refs > 0 {
		p.mu.Unlock()
		return nil
	}
	inUse := p.freeLocked(s.idx)
	p.mu.Unlock()

	p.metrics.RecordFree(inUse)

	return nil
}

// slotMeasurement returns the slot's envelope if s is still live.
func (p *Pool) slotMeasurement(s Sample) (*measurement.Measurement, *pool.ByteBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkLocked(s); err != nil {
		return nil, nil, err
	}

	return &p.slots[s.idx].m, &p.buffers[s.idx], nil
}

func (p *Pool) checkLocked(s Sample) error {
	if int(s.idx) >= len(p.slots) {
		return fmt.Errorf("%w: slot %d out of range", errs.ErrForeignSample, s.idx)
	}
	sl := &p.slots[s.idx]
	if !sl.busy {
		return fmt.Errorf("%w: slot %d is not allocated", errs.ErrDoubleFree, s.idx)
	}
	if sl.gen != s.gen {
		return fmt.Errorf("%w: slot %d generation %d, handle has %d", errs.ErrDoubleFree, s.idx, sl.gen, s.gen)
	}

	return nil
}

// freeLocked appends idx to the tail of the free ring and returns the new
// in-use count.
func (p *Pool) freeLocked(idx uint32) int {
	sl := &p.slots[idx]
	sl.busy = false
	sl.refs = 0
	sl.gen++
	sl.m.Header = measurement.Header{}
	sl.m.Payload = nil

	p.free[(p.head+p.freeCount)%len(p.free)] = idx
	p.freeCount++

	return len(p.slots) - p.freeCount
}

func (p *Pool) rejectFree(s Sample, err error) error {
	p.metrics.IncDoubleFree()
	p.logger.Error("rejected sample free",
		zap.Uint32("slot", s.idx),
		zap.Uint32("generation", s.gen),
		zap.Error(err),
	)

	return err
}

// Stats is a point-in-time view of pool usage.
type Stats struct {
	Capacity     int
	InUse        int
	Free         int
	HighWater    int
	FailedAllocs uint64
	DoubleFrees  uint64
}

// Stats returns current usage counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Capacity:     len(p.slots),
		InUse:        len(p.slots) - p.freeCount,
		Free:         p.freeCount,
		HighWater:    p.highWater,
		FailedAllocs: p.failedAllocs,
		DoubleFrees:  p.doubleFrees,
	}
}
