// Package config holds the pipeline configuration.
//
// Configuration starts from Default, is optionally overlaid by a YAML or TOML
// file (LoadFile) and finally by STEPFLOW_* environment variables:
//
//	STEPFLOW_NAME=line-3
//	STEPFLOW_POOL_CAPACITY=256
//	STEPFLOW_POOL_SLOT_SIZE=8192
//	STEPFLOW_REGISTRY_CAPACITY=32
//	STEPFLOW_REGISTRY_QUEUE_DEPTH=128
//	STEPFLOW_FILTER_MAX_CHAIN_LENGTH=16
//	STEPFLOW_LOG_LEVEL=debug
//	STEPFLOW_METRICS_ENABLED=true
//
// Process nodes can only be declared in files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/filter"
	"github.com/arloliu/stepflow/internal/logging"
	"github.com/arloliu/stepflow/process"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "STEPFLOW"

// Config holds all pipeline configuration.
type Config struct {
	Name     string         `envconfig:"NAME" yaml:"name" toml:"name"`
	Logging  logging.Config `envconfig:"LOG" yaml:"logging" toml:"logging"`
	Pool     PoolConfig     `envconfig:"POOL" yaml:"pool" toml:"pool"`
	Registry RegistryConfig `envconfig:"REGISTRY" yaml:"registry" toml:"registry"`
	Filter   FilterConfig   `envconfig:"FILTER" yaml:"filter" toml:"filter"`
	Metrics  MetricsConfig  `envconfig:"METRICS" yaml:"metrics" toml:"metrics"`
	Nodes    []NodeConfig   `ignored:"true" yaml:"nodes" toml:"nodes"`
}

// PoolConfig sizes the sample pool.
type PoolConfig struct {
	Capacity int `envconfig:"CAPACITY" yaml:"capacity" toml:"capacity"`
	SlotSize int `envconfig:"SLOT_SIZE" yaml:"slot_size" toml:"slot_size"`
}

// RegistryConfig sizes the process node registry.
type RegistryConfig struct {
	Capacity   int `envconfig:"CAPACITY" yaml:"capacity" toml:"capacity"`
	QueueDepth int `envconfig:"QUEUE_DEPTH" yaml:"queue_depth" toml:"queue_depth"`
}

// FilterConfig bounds filter chains.
type FilterConfig struct {
	MaxChainLength int `envconfig:"MAX_CHAIN_LENGTH" yaml:"max_chain_length" toml:"max_chain_length"`
}

// MetricsConfig controls Prometheus collection.
type MetricsConfig struct {
	Enabled bool `envconfig:"ENABLED" yaml:"enabled" toml:"enabled"`
}

// NodeConfig declares a process node. Handler names a callback supplied to
// the pipeline in code.
type NodeConfig struct {
	Name       string                 `yaml:"name" toml:"name"`
	Mode       string                 `yaml:"mode" toml:"mode"`
	Handler    string                 `yaml:"handler" toml:"handler"`
	QueueDepth int                    `yaml:"queue_depth,omitempty" toml:"queue_depth,omitempty"`
	Conditions []filter.ConditionSpec `yaml:"conditions" toml:"conditions"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Name:    "stepflow",
		Logging: logging.DefaultConfig(),
		Pool: PoolConfig{
			Capacity: 64,
			SlotSize: 4096,
		},
		Registry: RegistryConfig{
			Capacity:   32,
			QueueDepth: process.DefaultQueueDepth,
		},
		Filter: FilterConfig{
			MaxChainLength: filter.DefaultMaxChainLength,
		},
	}
}

// Load returns Default overlaid by environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns Default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}

	return cfg
}

// LoadFile returns Default overlaid by the file at path and then by
// environment variables. The format is chosen by extension: .yaml, .yml or
// .toml.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", errs.ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return nil
}

// Validate reports every invalid setting, each wrapping errs.ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{errs.ErrInvalidConfig}, args...)...))
	}

	if c.Pool.Capacity <= 0 {
		fail("pool.capacity must be positive, got %d", c.Pool.Capacity)
	}
	if c.Pool.SlotSize <= 0 {
		fail("pool.slot_size must be positive, got %d", c.Pool.SlotSize)
	}
	if c.Registry.Capacity <= 0 {
		fail("registry.capacity must be positive, got %d", c.Registry.Capacity)
	}
	if c.Registry.QueueDepth <= 0 {
		fail("registry.queue_depth must be positive, got %d", c.Registry.QueueDepth)
	}
	if c.Filter.MaxChainLength <= 0 {
		fail("filter.max_chain_length must be positive, got %d", c.Filter.MaxChainLength)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		fail("logging.level: %v", err)
	}
	if c.Registry.Capacity > 0 && len(c.Nodes) > c.Registry.Capacity {
		fail("%d nodes declared, registry holds %d", len(c.Nodes), c.Registry.Capacity)
	}

	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if err := n.validate(c.Filter.MaxChainLength); err != nil {
			fail("nodes[%d]: %v", i, err)
		}
		if n.Name != "" && seen[n.Name] {
			fail("nodes[%d]: duplicate name %q", i, n.Name)
		}
		seen[n.Name] = true
	}

	return errors.Join(problems...)
}

func (n NodeConfig) validate(maxChain int) error {
	if n.Name == "" {
		return errors.New("name is required")
	}
	if n.Handler == "" {
		return errors.New("handler is required")
	}
	if _, err := process.ParseMode(n.Mode); err != nil {
		return err
	}
	if n.QueueDepth < 0 {
		return fmt.Errorf("queue_depth must not be negative, got %d", n.QueueDepth)
	}

	chain, err := n.Chain()
	if err != nil {
		return err
	}

	return chain.Validate(maxChain)
}

// Chain builds the node's filter chain.
func (n NodeConfig) Chain() (*filter.Chain, error) {
	return filter.BuildChain(n.Conditions)
}
