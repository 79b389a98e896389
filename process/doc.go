// Package process implements the process node registry and scheduler.
//
// A process node is a consumer of measurements: a filter chain deciding which
// measurements it receives, a callback, and an execution mode. The Registry
// holds a fixed number of nodes, set at construction, and dispatches each
// measurement to every matching node in registration order.
//
// # Execution Modes
//
// ModeManual nodes run on the dispatching goroutine. Filter evaluation and
// the callback complete before Dispatch moves to the next node, so a
// producer that only registers manual nodes performs allocation, validation
// and processing in one unbroken call chain.
//
// ModeThreaded nodes own one worker goroutine fed by a bounded FIFO queue.
// Dispatch enqueues without blocking; when the queue is full the delivery
// fails with errs.ErrNodeQueueFull and is never retried. The worker runs one
// callback to completion before taking the next item, so callbacks of a
// single node never overlap and see measurements in enqueue order. There is
// no ordering between different nodes' workers.
//
// # Pooled Measurements
//
// A measurement checked out of a sample pool must stay allocated while
// queued. DispatchRetained takes a Retainer that is retained once per
// successful enqueue and released by the worker after the callback, or when
// the queued item is discarded at deregistration.
//
// # Errors
//
// Dispatch never stops at a failing node. Filter errors, callback errors,
// recovered callback panics and full queues are recorded per node in the
// DispatchReport. Errors of threaded callbacks happen after Dispatch has
// returned; they are logged, counted and passed to the handler installed
// with WithAsyncErrorHandler.
package process
