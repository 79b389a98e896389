package process

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/filter"
	"github.com/arloliu/stepflow/measurement"
)

// Mode is the execution strategy of a node.
type Mode uint8

const (
	ModeManual   Mode = 1 // callback runs on the dispatching goroutine
	ModeThreaded Mode = 2 // callback runs on the node's worker goroutine
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeManual || m == ModeThreaded
}

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeThreaded:
		return "threaded"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode resolves "manual" or "threaded".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "manual":
		return ModeManual, nil
	case "threaded":
		return ModeThreaded, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidMode, name)
	}
}

// Callback processes one matched measurement. For threaded nodes ctx is
// cancelled when the node is deregistered.
type Callback func(ctx context.Context, m *measurement.Measurement) error

// Retainer keeps a pooled measurement alive while it is queued.
type Retainer interface {
	Retain() error
	Release() error
}

// NodeID identifies a registration. IDs of deregistered nodes never resolve
// again, even after their slot is reused.
type NodeID uint64

func makeNodeID(slot int, gen uint32) NodeID {
	return NodeID(uint64(gen)<<32 | uint64(uint32(slot))) //nolint:gosec
}

// Slot returns the table slot the node occupies.
func (id NodeID) Slot() int {
	return int(uint32(id))
}

func (id NodeID) generation() uint32 {
	return uint32(id >> 32)
}

func (id NodeID) String() string {
	return fmt.Sprintf("%d.%d", id.Slot(), id.generation())
}

// NodeStats counts a node's dispatch outcomes.
type NodeStats struct {
	Matched   uint64 // filter chain matched
	Delivered uint64 // callback returned nil
	Failed    uint64 // filter error, callback error or panic
	QueueFull uint64 // threaded deliveries rejected by a full queue
	Dropped   uint64 // queued deliveries discarded at deregistration
	Queued    int    // deliveries currently waiting in the queue
}

// NodeInfo describes a registered node.
type NodeInfo struct {
	ID         NodeID
	Name       string
	Mode       Mode
	Chain      *filter.Chain
	QueueDepth int
	Stats      NodeStats
}

type delivery struct {
	m *measurement.Measurement
	r Retainer
}

type node struct {
	id    NodeID
	name  string
	mode  Mode
	chain *filter.Chain
	cb    Callback

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed and sends on queue, so an enqueue can never race
	// with the close at deregistration.
	mu        sync.Mutex
	closed    bool
	queue     chan delivery
	cancelled atomic.Bool
	done      chan struct{}

	// overflowLog throttles queue-full warnings.
	overflowLog *rate.Limiter

	matched   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	queueFull atomic.Uint64
	dropped   atomic.Uint64
}

func (n *node) info() NodeInfo {
	return NodeInfo{
		ID:         n.id,
		Name:       n.name,
		Mode:       n.mode,
		Chain:      copyChain(n.chain),
		QueueDepth: cap(n.queue),
		Stats: NodeStats{
			Matched:   n.matched.Load(),
			Delivered: n.delivered.Load(),
			Failed:    n.failed.Load(),
			QueueFull: n.queueFull.Load(),
			Dropped:   n.dropped.Load(),
			Queued:    len(n.queue),
		},
	}
}

// invoke runs the callback, converting a panic into errs.ErrCallbackPanic.
func (n *node) invoke(ctx context.Context, m *measurement.Measurement) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errs.ErrCallbackPanic, rec)
		}
	}()

	return n.cb(ctx, m)
}

// enqueue hands d to the worker without blocking. The retainer is retained
// only when the item is actually queued.
func (n *node) enqueue(d delivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return fmt.Errorf("%w: %s deregistered during dispatch", errs.ErrNodeNotFound, n.id)
	}
	if d.r != nil {
		if err := d.r.Retain(); err != nil {
			return err
		}
	}

	select {
	case n.queue <- d:
		return nil
	default:
		if d.r != nil {
			_ = d.r.Release()
		}

		return fmt.Errorf("%w: %s holds %d", errs.ErrNodeQueueFull, n.name, cap(n.queue))
	}
}

// stop cancels the node and, for threaded nodes, closes the queue and waits
// for the worker to exit.
func (n *node) stop() {
	n.mu.Lock()
	n.closed = true
	n.cancelled.Store(true)
	if n.queue != nil {
		close(n.queue)
	}
	n.mu.Unlock()

	n.cancel()
	if n.done != nil {
		<-n.done
	}
}
