package stepflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arloliu/stepflow/config"
	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/filter"
	"github.com/arloliu/stepflow/internal/logging"
	"github.com/arloliu/stepflow/internal/monitoring"
	"github.com/arloliu/stepflow/internal/options"
	"github.com/arloliu/stepflow/measurement"
	"github.com/arloliu/stepflow/process"
	"github.com/arloliu/stepflow/samplepool"
)

// Pipeline owns a sample pool and a process node registry built from one
// configuration. It is safe for concurrent use.
type Pipeline struct {
	id   uuid.UUID
	name string

	logger     *zap.Logger
	ownsLogger bool
	metrics    *monitoring.Metrics
	registerer prometheus.Registerer
	pool       *samplepool.Pool
	registry   *process.Registry
	evaluator  *filter.Evaluator
}

type pipelineConfig struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	handlers   map[string]process.Callback
	onError    process.AsyncErrorHandler
}

// Option configures a Pipeline.
type Option = options.Option[*pipelineConfig]

// WithLogger uses logger instead of building one from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(cfg *pipelineConfig) {
		cfg.logger = logger
	})
}

// WithRegisterer registers metrics on reg. Without it metrics go to
// prometheus.DefaultRegisterer when enabled in the config, and are off
// otherwise.
func WithRegisterer(reg prometheus.Registerer) Option {
	return options.NoError(func(cfg *pipelineConfig) {
		cfg.registerer = reg
	})
}

// WithHandler makes cb available to nodes declared in the config under name.
func WithHandler(name string, cb process.Callback) Option {
	return options.New(func(cfg *pipelineConfig) error {
		if cb == nil {
			return fmt.Errorf("%w: handler %q", errs.ErrNilCallback, name)
		}
		cfg.handlers[name] = cb

		return nil
	})
}

// WithAsyncErrorHandler receives errors of threaded node callbacks.
func WithAsyncErrorHandler(fn process.AsyncErrorHandler) Option {
	return options.NoError(func(cfg *pipelineConfig) {
		cfg.onError = fn
	})
}

// New builds a pipeline from cfg and registers the nodes it declares. A nil
// cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pc := &pipelineConfig{handlers: make(map[string]process.Callback)}
	if err := options.Apply(pc, opts...); err != nil {
		return nil, err
	}

	p := &Pipeline{id: uuid.New(), name: cfg.Name}

	p.logger = pc.logger
	if p.logger == nil {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, err
		}
		p.logger = logger
		p.ownsLogger = true
	}
	p.logger = p.logger.Named(cfg.Name).With(zap.Stringer("instance", p.id))

	p.registerer = pc.registerer
	if p.registerer == nil && cfg.Metrics.Enabled {
		p.registerer = prometheus.DefaultRegisterer
	}
	if p.registerer != nil {
		metrics, err := monitoring.New(p.registerer, prometheus.Labels{
			"pipeline": cfg.Name,
			"instance": p.id.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		p.metrics = metrics
	}

	if err := p.build(cfg, pc); err != nil {
		p.teardown()
		return nil, err
	}

	p.logger.Info("pipeline started",
		zap.Int("pool_capacity", cfg.Pool.Capacity),
		zap.Int("slot_size", cfg.Pool.SlotSize),
		zap.Int("registry_capacity", cfg.Registry.Capacity),
		zap.Int("nodes", len(cfg.Nodes)),
	)

	return p, nil
}

func (p *Pipeline) build(cfg *config.Config, pc *pipelineConfig) error {
	var err error

	p.evaluator, err = filter.NewEvaluator(filter.WithMaxChainLength(cfg.Filter.MaxChainLength))
	if err != nil {
		return err
	}

	p.pool, err = samplepool.New(cfg.Pool.Capacity, cfg.Pool.SlotSize,
		samplepool.WithLogger(p.logger),
		samplepool.WithMetrics(p.metrics),
	)
	if err != nil {
		return err
	}

	p.registry, err = process.NewRegistry(cfg.Registry.Capacity,
		process.WithLogger(p.logger),
		process.WithMetrics(p.metrics),
		process.WithEvaluator(p.evaluator),
		process.WithQueueDepth(cfg.Registry.QueueDepth),
		process.WithAsyncErrorHandler(pc.onError),
	)
	if err != nil {
		return err
	}

	for _, nc := range cfg.Nodes {
		if err := p.registerDeclared(nc, pc.handlers); err != nil {
			return fmt.Errorf("node %q: %w", nc.Name, err)
		}
	}

	return nil
}

func (p *Pipeline) registerDeclared(nc config.NodeConfig, handlers map[string]process.Callback) error {
	cb, ok := handlers[nc.Handler]
	if !ok {
		return fmt.Errorf("%w: unknown handler %q", errs.ErrInvalidConfig, nc.Handler)
	}
	mode, err := process.ParseMode(nc.Mode)
	if err != nil {
		return err
	}
	chain, err := nc.Chain()
	if err != nil {
		return err
	}

	opts := []process.NodeOption{process.WithName(nc.Name)}
	if nc.QueueDepth > 0 {
		opts = append(opts, process.WithNodeQueueDepth(nc.QueueDepth))
	}

	_, err = p.registry.Register(chain, mode, cb, opts...)

	return err
}

// ID returns the pipeline's instance id.
func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

// Name returns the configured pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Pool returns the pipeline's sample pool.
func (p *Pipeline) Pool() *samplepool.Pool {
	return p.pool
}

// Registry returns the pipeline's node registry.
func (p *Pipeline) Registry() *process.Registry {
	return p.registry
}

// Register adds a node; see process.Registry.Register.
func (p *Pipeline) Register(chain *filter.Chain, mode process.Mode, cb process.Callback, opts ...process.NodeOption) (process.NodeID, error) {
	return p.registry.Register(chain, mode, cb, opts...)
}

// Deregister removes a node; see process.Registry.Deregister.
func (p *Pipeline) Deregister(id process.NodeID) error {
	return p.registry.Deregister(id)
}

// Nodes lists registered nodes in registration order.
func (p *Pipeline) Nodes() []process.NodeInfo {
	return p.registry.Nodes()
}

// Acquire allocates a pool slot and prepares it for h. The caller fills the
// payload and passes the sample to Publish, or frees it with Release.
func (p *Pipeline) Acquire(h measurement.Header) (samplepool.Sample, *measurement.Measurement, error) {
	s, err := p.pool.Alloc()
	if err != nil {
		return samplepool.Sample{}, nil, err
	}

	m, err := s.Prepare(h)
	if err != nil {
		_ = p.pool.Free(s)
		return samplepool.Sample{}, nil, err
	}

	return s, m, nil
}

// Decode allocates a pool slot and decodes a wire frame into it.
func (p *Pipeline) Decode(frame []byte) (samplepool.Sample, error) {
	s, err := p.pool.Alloc()
	if err != nil {
		return samplepool.Sample{}, err
	}

	if _, err := s.Decode(frame); err != nil {
		_ = p.pool.Free(s)
		p.reject(err)

		return samplepool.Sample{}, err
	}

	return s, nil
}

// Publish validates the sample's measurement and dispatches it. The
// caller's reference is released in every case, so s must not be used
// afterwards; threaded nodes hold their own references until their
// callbacks finish.
//
// The returned error covers validation only; per-node outcomes are in the
// report.
func (p *Pipeline) Publish(ctx context.Context, s samplepool.Sample) (*process.DispatchReport, error) {
	m := s.Measurement()
	if m == nil {
		return nil, fmt.Errorf("%w: %s is not allocated", errs.ErrDoubleFree, s)
	}

	if err := m.Validate(); err != nil {
		p.reject(err)
		return nil, errors.Join(err, s.Release())
	}

	report := p.registry.DispatchRetained(ctx, m, s)
	if err := s.Release(); err != nil {
		return report, err
	}

	return report, nil
}

// PublishMeasurement validates and dispatches a measurement that is not
// pool-backed. m must stay unchanged until threaded nodes are done with it.
func (p *Pipeline) PublishMeasurement(ctx context.Context, m *measurement.Measurement) (*process.DispatchReport, error) {
	if m == nil {
		return nil, errs.ErrNullMeasurement
	}
	if err := m.Validate(); err != nil {
		p.reject(err)
		return nil, err
	}

	return p.registry.Dispatch(ctx, m), nil
}

// Stats is a point-in-time view of a pipeline.
type Stats struct {
	Pool  samplepool.Stats
	Nodes []process.NodeInfo
}

// Stats returns pool usage and per-node counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Pool:  p.pool.Stats(),
		Nodes: p.registry.Nodes(),
	}
}

// Close deregisters every node, waiting for threaded workers, and
// unregisters the pipeline's metrics.
func (p *Pipeline) Close() error {
	p.teardown()
	p.logger.Info("pipeline stopped")

	return nil
}

func (p *Pipeline) teardown() {
	if p.registry != nil {
		_ = p.registry.Close()
	}
	if p.registerer != nil {
		p.metrics.Unregister(p.registerer)
	}
	if p.ownsLogger {
		_ = p.logger.Sync()
	}
}

func (p *Pipeline) reject(err error) {
	reason := "decode"
	switch {
	case errors.Is(err, errs.ErrInvalidHeader), errors.Is(err, errs.ErrInvalidHeaderSize):
		reason = "invalid_header"
	case errors.Is(err, errs.ErrUnknownType):
		reason = "unknown_type"
	case errors.Is(err, errs.ErrPayloadSizeMismatch), errors.Is(err, errs.ErrPayloadTooLarge):
		reason = "payload_size"
	case errors.Is(err, errs.ErrChecksumMismatch), errors.Is(err, errs.ErrFrameTruncated):
		reason = "corrupt_frame"
	}

	p.metrics.IncRejected(reason)
	p.logger.Debug("measurement rejected", zap.String("reason", reason), zap.Error(err))
}
