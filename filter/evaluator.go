package filter

import (
	"fmt"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/internal/options"
	"github.com/arloliu/stepflow/measurement"
)

// Evaluator evaluates chains against measurements. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	maxLen int
}

type evaluatorConfig struct {
	maxLen int
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption = options.Option[*evaluatorConfig]

// WithMaxChainLength sets the longest accepted chain. n must be positive.
func WithMaxChainLength(n int) EvaluatorOption {
	return options.New(func(cfg *evaluatorConfig) error {
		if n <= 0 {
			return fmt.Errorf("max chain length must be positive, got %d", n)
		}
		cfg.maxLen = n

		return nil
	})
}

// NewEvaluator returns an Evaluator; the default limit is DefaultMaxChainLength.
func NewEvaluator(opts ...EvaluatorOption) (*Evaluator, error) {
	cfg := &evaluatorConfig{maxLen: DefaultMaxChainLength}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Evaluator{maxLen: cfg.maxLen}, nil
}

// MaxChainLength returns the configured chain limit.
func (e *Evaluator) MaxChainLength() int {
	return e.maxLen
}

// Evaluate reports whether m satisfies every condition of chain.
//
// Errors:
//   - errs.ErrNullChain, errs.ErrNullMeasurement for nil arguments
//   - errs.ErrChainTooLong when chain exceeds the limit
//   - errs.ErrUnsupportedOperator, errs.ErrUnsupportedField for a malformed
//     condition anywhere in the chain
//   - errs.ErrUnsupportedType for a value condition on a type without a
//     scalar form
func (e *Evaluator) Evaluate(chain *Chain, m *measurement.Measurement) (bool, error) {
	if chain == nil {
		return false, errs.ErrNullChain
	}
	if m == nil {
		return false, errs.ErrNullMeasurement
	}
	if err := chain.Validate(e.maxLen); err != nil {
		return false, err
	}

	for i := range chain.conds {
		ok, err := chain.conds[i].match(m)
		if err != nil {
			return false, fmt.Errorf("condition %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

var defaultEvaluator = &Evaluator{maxLen: DefaultMaxChainLength}

// Evaluate evaluates chain against m with DefaultMaxChainLength.
func Evaluate(chain *Chain, m *measurement.Measurement) (bool, error) {
	return defaultEvaluator.Evaluate(chain, m)
}
