// Package monitoring exposes stepflow's Prometheus collectors.
//
// Collectors are registered on a caller-supplied prometheus.Registerer so
// several pipelines can share one registry (distinguished by const labels)
// or stay isolated in tests. A nil *Metrics is valid and records nothing.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stepflow"

// Node error reasons.
const (
	ReasonFilter    = "filter"
	ReasonCallback  = "callback"
	ReasonPanic     = "panic"
	ReasonQueueFull = "queue_full"
)

// Metrics holds the pool, registry and dispatch collectors.
type Metrics struct {
	poolCapacity    prometheus.Gauge
	poolInUse       prometheus.Gauge
	poolAllocs      *prometheus.CounterVec
	poolFrees       prometheus.Counter
	poolDoubleFrees prometheus.Counter

	nodesRegistered prometheus.Gauge
	dispatchTotal   prometheus.Counter
	dispatchLatency prometheus.Histogram
	nodeMatched     *prometheus.CounterVec
	nodeDelivered   *prometheus.CounterVec
	nodeErrors      *prometheus.CounterVec
	nodeDropped     *prometheus.CounterVec

	rejected *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. constLabels are
// attached to every series.
func New(reg prometheus.Registerer, constLabels prometheus.Labels) (*Metrics, error) {
	m := &Metrics{
		poolCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        "capacity",
			Help:        "Number of slots in the sample pool",
			ConstLabels: constLabels,
		}),
		poolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        "in_use",
			Help:        "Number of sample pool slots currently allocated",
			ConstLabels: constLabels,
		}),
		poolAllocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        "allocs_total",
			Help:        "Sample pool allocation attempts by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
		poolFrees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        "frees_total",
			Help:        "Sample pool slots returned",
			ConstLabels: constLabels,
		}),
		poolDoubleFrees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        "double_frees_total",
			Help:        "Rejected frees of unallocated, stale or foreign samples",
			ConstLabels: constLabels,
		}),
		nodesRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "registry",
			Name:        "nodes",
			Help:        "Number of registered process nodes",
			ConstLabels: constLabels,
		}),
		dispatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "registry",
			Name:        "dispatches_total",
			Help:        "Measurements dispatched to the registry",
			ConstLabels: constLabels,
		}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "registry",
			Name:        "dispatch_duration_seconds",
			Help:        "Time spent in one dispatch, including manual callbacks",
			Buckets:     []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			ConstLabels: constLabels,
		}),
		nodeMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "node",
			Name:        "matched_total",
			Help:        "Measurements whose filter chain matched",
			ConstLabels: constLabels,
		}, []string{"node"}),
		nodeDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "node",
			Name:        "delivered_total",
			Help:        "Callbacks completed without error",
			ConstLabels: constLabels,
		}, []string{"node", "mode"}),
		nodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "node",
			Name:        "errors_total",
			Help:        "Per-node dispatch failures by reason",
			ConstLabels: constLabels,
		}, []string{"node", "reason"}),
		nodeDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "node",
			Name:        "dropped_total",
			Help:        "Queued measurements discarded at deregistration",
			ConstLabels: constLabels,
		}, []string{"node"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "rejected_total",
			Help:        "Measurements rejected before dispatch by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.poolCapacity,
		m.poolInUse,
		m.poolAllocs,
		m.poolFrees,
		m.poolDoubleFrees,
		m.nodesRegistered,
		m.dispatchTotal,
		m.dispatchLatency,
		m.nodeMatched,
		m.nodeDelivered,
		m.nodeErrors,
		m.nodeDropped,
		m.rejected,
	}
}

// Unregister removes the collectors from reg.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	if m == nil {
		return
	}
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}

// SetPoolCapacity records the pool size.
func (m *Metrics) SetPoolCapacity(n int) {
	if m == nil {
		return
	}
	m.poolCapacity.Set(float64(n))
}

// RecordAlloc records an allocation attempt and the resulting in-use count.
func (m *Metrics) RecordAlloc(ok bool, inUse int) {
	if m == nil {
		return
	}
	if !ok {
		m.poolAllocs.WithLabelValues("exhausted").Inc()
		return
	}
	m.poolAllocs.WithLabelValues("ok").Inc()
	m.poolInUse.Set(float64(inUse))
}

// RecordFree records a returned slot and the resulting in-use count.
func (m *Metrics) RecordFree(inUse int) {
	if m == nil {
		return
	}
	m.poolFrees.Inc()
	m.poolInUse.Set(float64(inUse))
}

// IncDoubleFree records a rejected free.
func (m *Metrics) IncDoubleFree() {
	if m == nil {
		return
	}
	m.poolDoubleFrees.Inc()
}

// SetNodes records the number of registered nodes.
func (m *Metrics) SetNodes(n int) {
	if m == nil {
		return
	}
	m.nodesRegistered.Set(float64(n))
}

// RecordDispatch records one dispatch and its duration.
func (m *Metrics) RecordDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.Inc()
	m.dispatchLatency.Observe(d.Seconds())
}

// IncMatched records a filter match for node.
func (m *Metrics) IncMatched(node string) {
	if m == nil {
		return
	}
	m.nodeMatched.WithLabelValues(node).Inc()
}

// IncDelivered records a successful callback for node.
func (m *Metrics) IncDelivered(node, mode string) {
	if m == nil {
		return
	}
	m.nodeDelivered.WithLabelValues(node, mode).Inc()
}

// IncNodeError records a dispatch failure for node.
func (m *Metrics) IncNodeError(node, reason string) {
	if m == nil {
		return
	}
	m.nodeErrors.WithLabelValues(node, reason).Inc()
}

// AddDropped records n queued measurements discarded for node.
func (m *Metrics) AddDropped(node string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.nodeDropped.WithLabelValues(node).Add(float64(n))
}

// ForgetNode deletes the per-node series of a deregistered node.
func (m *Metrics) ForgetNode(node string) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"node": node}
	m.nodeMatched.DeletePartialMatch(labels)
	m.nodeDelivered.DeletePartialMatch(labels)
	m.nodeErrors.DeletePartialMatch(labels)
}

// IncRejected records a measurement rejected before dispatch.
func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
