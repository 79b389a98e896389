package process

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/filter"
	"github.com/arloliu/stepflow/internal/logging"
	"github.com/arloliu/stepflow/internal/monitoring"
	"github.com/arloliu/stepflow/internal/options"
)

// overflowLogInterval is the minimum gap between queue-full warnings of one
// node.
const overflowLogInterval = 10 * time.Second

// Registry is a fixed-capacity table of process nodes.
//
// Register, Deregister and Close are serialized by one mutex. Dispatch may
// run concurrently with them and with itself: it works on a snapshot of the
// registration order and never holds the lock while calling callbacks.
type Registry struct {
	mu     sync.RWMutex
	slots  []*node
	gens   []uint32
	order  []*node // registration order; replaced, never mutated in place
	names  map[string]struct{}
	closed bool

	evaluator  *filter.Evaluator
	queueDepth int
	onError    AsyncErrorHandler
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewRegistry creates a registry that holds at most capacity nodes.
func NewRegistry(capacity int, opts ...RegistryOption) (*Registry, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: registry capacity %d", errs.ErrInvalidCapacity, capacity)
	}

	cfg := &registryConfig{queueDepth: DefaultQueueDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.evaluator == nil {
		e, err := filter.NewEvaluator()
		if err != nil {
			return nil, err
		}
		cfg.evaluator = e
	}

	return &Registry{
		slots:      make([]*node, capacity),
		gens:       make([]uint32, capacity),
		names:      make(map[string]struct{}, capacity),
		evaluator:  cfg.evaluator,
		queueDepth: cfg.queueDepth,
		onError:    cfg.onError,
		logger:     logging.OrNop(cfg.logger).Named("registry"),
		metrics:    cfg.metrics,
	}, nil
}

// Capacity returns the maximum number of nodes.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Register adds a node to the table. The registry keeps its own copy of
// chain, so later changes to the caller's chain do not affect the node. The
// chain is not validated here; a malformed chain is reported by every
// dispatch that reaches the node.
//
// Errors: errs.ErrRegistryFull when every slot is taken,
// errs.ErrDuplicateName, errs.ErrInvalidMode, errs.ErrNilCallback,
// errs.ErrRegistryClosed.
func (r *Registry) Register(chain *filter.Chain, mode Mode, cb Callback, opts ...NodeOption) (NodeID, error) {
	if !mode.IsValid() {
		return 0, fmt.Errorf("%w: %s", errs.ErrInvalidMode, mode)
	}
	if cb == nil {
		return 0, errs.ErrNilCallback
	}

	cfg := &nodeConfig{queueDepth: r.queueDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errs.ErrRegistryClosed
	}

	slot := slices.Index(r.slots, nil)
	if slot < 0 {
		return 0, fmt.Errorf("%w: all %d slots in use", errs.ErrRegistryFull, len(r.slots))
	}

	id := makeNodeID(slot, r.gens[slot]+1)
	name, err := r.nameLocked(cfg.name, id)
	if err != nil {
		return 0, err
	}

	r.gens[slot]++
	n := &node{
		id:    id,
		name:  name,
		mode:  mode,
		chain: copyChain(chain),
		cb:    cb,

		overflowLog: rate.NewLimiter(rate.Every(overflowLogInterval), 1),
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	if mode == ModeThreaded {
		n.queue = make(chan delivery, cfg.queueDepth)
		n.done = make(chan struct{})
		go r.runWorker(n)
	}

	r.slots[slot] = n
	r.names[name] = struct{}{}
	r.order = append(slices.Clip(r.order), n)
	r.metrics.SetNodes(len(r.order))

	r.logger.Info("process node registered",
		zap.Stringer("id", n.id),
		zap.String("name", n.name),
		zap.Stringer("mode", mode),
		zap.Stringer("chain", n.chain),
	)

	return n.id, nil
}

// Deregister removes a node. For a threaded node it cancels the worker,
// discards queued measurements without invoking the callback (releasing
// their retainers) and returns after the worker has exited.
//
// Deregister must not be called from the node's own threaded callback.
func (r *Registry) Deregister(id NodeID) error {
	r.mu.Lock()
	n, err := r.lookupLocked(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.removeLocked(n)
	r.mu.Unlock()

	r.stopNode(n)
	r.releaseName(n.name)

	return nil
}

// Close deregisters every node and rejects further registrations. It is
// safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	nodes := r.order
	r.order = nil
	for i := range r.slots {
		r.slots[i] = nil
	}
	r.metrics.SetNodes(0)
	r.mu.Unlock()

	for _, n := range nodes {
		r.stopNode(n)
		r.releaseName(n.name)
	}

	return nil
}

// GetNode returns the node registered under id, or errs.ErrNodeNotFound.
func (r *Registry) GetNode(id NodeID) (NodeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, err := r.lookupLocked(id)
	if err != nil {
		return NodeInfo{}, err
	}

	return n.info(), nil
}

// Nodes returns all registered nodes in registration order.
func (r *Registry) Nodes() []NodeInfo {
	r.mu.RLock()
	nodes := r.order
	r.mu.RUnlock()

	infos := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		infos[i] = n.info()
	}

	return infos
}

// nameLocked resolves the name of a new node. A name stays taken until its
// node has fully stopped, so a new node never shares metric series with one
// that is still shutting down.
func (r *Registry) nameLocked(name string, id NodeID) (string, error) {
	if name != "" {
		if _, taken := r.names[name]; taken {
			return "", fmt.Errorf("%w: %q", errs.ErrDuplicateName, name)
		}

		return name, nil
	}

	for _, candidate := range []string{fmt.Sprintf("node-%d", id.Slot()), "node-" + id.String()} {
		if _, taken := r.names[candidate]; !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no free default name for slot %d", errs.ErrDuplicateName, id.Slot())
}

func (r *Registry) releaseName(name string) {
	r.mu.Lock()
	delete(r.names, name)
	r.mu.Unlock()
}

func copyChain(c *filter.Chain) *filter.Chain {
	if c == nil {
		return nil
	}

	return filter.NewChain(c.Conditions()...)
}

func (r *Registry) lookupLocked(id NodeID) (*node, error) {
	slot := id.Slot()
	if slot >= len(r.slots) {
		return nil, fmt.Errorf("%w: %s", errs.ErrNodeNotFound, id)
	}
	n := r.slots[slot]
	if n == nil || n.id != id {
		return nil, fmt.Errorf("%w: %s", errs.ErrNodeNotFound, id)
	}

	return n, nil
}

func (r *Registry) removeLocked(n *node) {
	r.slots[n.id.Slot()] = nil

	order := make([]*node, 0, len(r.order))
	for _, o := range r.order {
		if o != n {
			order = append(order, o)
		}
	}
	r.order = order
	r.metrics.SetNodes(len(order))
}

func (r *Registry) stopNode(n *node) {
	n.stop()

	dropped := n.dropped.Load()
	r.metrics.AddDropped(n.name, int(dropped)) //nolint:gosec
	r.metrics.ForgetNode(n.name)

	r.logger.Info("process node deregistered",
		zap.Stringer("id", n.id),
		zap.String("name", n.name),
		zap.Uint64("dropped", dropped),
	)
}
