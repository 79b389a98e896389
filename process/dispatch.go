package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/internal/monitoring"
	"github.com/arloliu/stepflow/measurement"
)

// NodeResult is the outcome of dispatching one measurement to one node.
type NodeResult struct {
	ID      NodeID
	Name    string
	Mode    Mode
	Matched bool
	// Delivered is true when a manual callback returned nil or a threaded
	// delivery was queued.
	Delivered bool
	Err       error
}

// DispatchReport aggregates the per-node results of one dispatch.
type DispatchReport struct {
	Evaluated int
	Matched   int
	Delivered int
	Results   []NodeResult
}

// Err joins the errors of all failed nodes, or returns nil.
func (r *DispatchReport) Err() error {
	var joined []error
	for i := range r.Results {
		if r.Results[i].Err != nil {
			joined = append(joined, r.Results[i].Err)
		}
	}

	return errors.Join(joined...)
}

// Failed returns the results that carry an error.
func (r *DispatchReport) Failed() []NodeResult {
	var failed []NodeResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	return failed
}

// MarshalLogObject lets a report be logged with zap.Object.
func (r *DispatchReport) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("evaluated", r.Evaluated)
	enc.AddInt("matched", r.Matched)
	enc.AddInt("delivered", r.Delivered)
	if err := r.Err(); err != nil {
		enc.AddString("error", err.Error())
	}

	return nil
}

// Dispatch routes m to every matching node in registration order.
func (r *Registry) Dispatch(ctx context.Context, m *measurement.Measurement) *DispatchReport {
	return r.DispatchRetained(ctx, m, nil)
}

// DispatchRetained is Dispatch for a pooled measurement. ret is retained once
// for every threaded node the measurement is queued to; the worker releases
// it after the callback. The caller's own reference is untouched.
//
// Once ctx is done, the remaining nodes are recorded with ctx.Err() and
// skipped.
func (r *Registry) DispatchRetained(ctx context.Context, m *measurement.Measurement, ret Retainer) *DispatchReport {
	start := time.Now()

	r.mu.RLock()
	nodes := r.order
	r.mu.RUnlock()

	report := &DispatchReport{Results: make([]NodeResult, 0, len(nodes))}
	for _, n := range nodes {
		res := NodeResult{ID: n.id, Name: n.name, Mode: n.mode}
		if err := ctx.Err(); err != nil {
			res.Err = err
			report.Results = append(report.Results, res)

			continue
		}

		r.dispatchNode(ctx, n, m, ret, &res)
		report.Evaluated++
		if res.Matched {
			report.Matched++
		}
		if res.Delivered {
			report.Delivered++
		}
		report.Results = append(report.Results, res)
	}

	r.metrics.RecordDispatch(time.Since(start))

	return report
}

func (r *Registry) dispatchNode(ctx context.Context, n *node, m *measurement.Measurement, ret Retainer, res *NodeResult) {
	ok, err := r.evaluator.Evaluate(n.chain, m)
	if err != nil {
		n.failed.Add(1)
		r.metrics.IncNodeError(n.name, monitoring.ReasonFilter)
		res.Err = fmt.Errorf("node %s filter: %w", n.name, err)

		return
	}
	if !ok {
		return
	}

	res.Matched = true
	n.matched.Add(1)
	r.metrics.IncMatched(n.name)

	switch n.mode {
	case ModeManual:
		if n.cancelled.Load() {
			res.Err = fmt.Errorf("%w: %s deregistered during dispatch", errs.ErrNodeNotFound, n.id)
			return
		}
		if err := n.invoke(ctx, m); err != nil {
			r.recordCallbackError(n, err)
			res.Err = fmt.Errorf("node %s callback: %w", n.name, err)

			return
		}
		n.delivered.Add(1)
		r.metrics.IncDelivered(n.name, n.mode.String())
		res.Delivered = true

	case ModeThreaded:
		if err := n.enqueue(delivery{m: m, r: ret}); err != nil {
			if errors.Is(err, errs.ErrNodeQueueFull) {
				overflows := n.queueFull.Add(1)
				r.metrics.IncNodeError(n.name, monitoring.ReasonQueueFull)
				if n.overflowLog.Allow() {
					r.logger.Warn("process node queue full",
						zap.Stringer("id", n.id),
						zap.String("name", n.name),
						zap.Int("queue_depth", cap(n.queue)),
						zap.Uint64("overflows", overflows),
					)
				}
			}
			res.Err = fmt.Errorf("node %s: %w", n.name, err)

			return
		}
		res.Delivered = true
	}
}

// runWorker is the body of a threaded node's goroutine.
func (r *Registry) runWorker(n *node) {
	defer close(n.done)

	for d := range n.queue {
		if n.cancelled.Load() {
			n.dropped.Add(1)
			r.release(n, d.r)

			continue
		}

		err := n.invoke(n.ctx, d.m)
		r.release(n, d.r)
		if err != nil {
			r.recordCallbackError(n, err)
			r.reportAsync(n, err)

			continue
		}
		n.delivered.Add(1)
		r.metrics.IncDelivered(n.name, n.mode.String())
	}
}

// reportAsync hands err to the async error handler. A panicking handler is
// logged and does not stop the worker.
func (r *Registry) reportAsync(n *node, err error) {
	if r.onError == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("async error handler panicked",
				zap.Stringer("id", n.id),
				zap.String("name", n.name),
				zap.Any("panic", rec),
			)
		}
	}()

	r.onError(n.id, n.name, err)
}

func (r *Registry) release(n *node, ret Retainer) {
	if ret == nil {
		return
	}
	if err := ret.Release(); err != nil {
		r.logger.Error("release after delivery failed", zap.String("node", n.name), zap.Error(err))
	}
}

func (r *Registry) recordCallbackError(n *node, err error) {
	n.failed.Add(1)

	if errors.Is(err, errs.ErrCallbackPanic) {
		r.metrics.IncNodeError(n.name, monitoring.ReasonPanic)
		r.logger.Error("process node callback panicked",
			zap.Stringer("id", n.id),
			zap.String("name", n.name),
			zap.Error(err),
		)

		return
	}

	r.metrics.IncNodeError(n.name, monitoring.ReasonCallback)
	r.logger.Warn("process node callback failed",
		zap.Stringer("id", n.id),
		zap.String("name", n.name),
		zap.Stringer("mode", n.mode),
		zap.Error(err),
	)
}
