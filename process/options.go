package process

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/stepflow/filter"
	"github.com/arloliu/stepflow/internal/monitoring"
	"github.com/arloliu/stepflow/internal/options"
)

// DefaultQueueDepth is the queue length of threaded nodes unless configured
// otherwise.
const DefaultQueueDepth = 64

// AsyncErrorHandler receives errors of threaded callbacks. It runs on the
// node's worker goroutine.
type AsyncErrorHandler func(id NodeID, name string, err error)

type registryConfig struct {
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	evaluator  *filter.Evaluator
	queueDepth int
	onError    AsyncErrorHandler
}

// RegistryOption configures a Registry.
type RegistryOption = options.Option[*registryConfig]

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return options.NoError(func(cfg *registryConfig) {
		cfg.logger = logger
	})
}

// WithMetrics records dispatch and node outcomes on m.
func WithMetrics(m *monitoring.Metrics) RegistryOption {
	return options.NoError(func(cfg *registryConfig) {
		cfg.metrics = m
	})
}

// WithEvaluator sets the filter evaluator, which determines the maximum
// chain length. The default uses filter.DefaultMaxChainLength.
func WithEvaluator(e *filter.Evaluator) RegistryOption {
	return options.New(func(cfg *registryConfig) error {
		if e == nil {
			return errors.New("evaluator must not be nil")
		}
		cfg.evaluator = e

		return nil
	})
}

// WithQueueDepth sets the default queue length of threaded nodes.
func WithQueueDepth(n int) RegistryOption {
	return options.New(func(cfg *registryConfig) error {
		if n <= 0 {
			return fmt.Errorf("queue depth must be positive, got %d", n)
		}
		cfg.queueDepth = n

		return nil
	})
}

// WithAsyncErrorHandler installs a handler for threaded callback errors.
func WithAsyncErrorHandler(fn AsyncErrorHandler) RegistryOption {
	return options.NoError(func(cfg *registryConfig) {
		cfg.onError = fn
	})
}

type nodeConfig struct {
	name       string
	queueDepth int
}

// NodeOption configures one registration.
type NodeOption = options.Option[*nodeConfig]

// WithName names the node in logs and metrics. Names are unique within a
// registry. The default is "node-<slot>", or "node-<slot>.<generation>" when
// that is taken.
func WithName(name string) NodeOption {
	return options.NoError(func(cfg *nodeConfig) {
		cfg.name = name
	})
}

// WithNodeQueueDepth overrides the registry's queue depth for a threaded node.
func WithNodeQueueDepth(n int) NodeOption {
	return options.New(func(cfg *nodeConfig) error {
		if n <= 0 {
			return fmt.Errorf("queue depth must be positive, got %d", n)
		}
		cfg.queueDepth = n

		return nil
	})
}
