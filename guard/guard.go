package guard

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/history"
	"github.com/BaSui01/guardflow/llm"
	"github.com/BaSui01/guardflow/parser"
	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/types"
	"github.com/BaSui01/guardflow/validation"
	"github.com/BaSui01/guardflow/validators"
)

// Config configures a Guard.
type Config struct {
	// MaxReasks is the retry budget: a call runs at most MaxReasks+1
	// iterations.
	MaxReasks int
	// LenientParse turns a parse failure into a root-level reask instead of
	// failing the call.
	LenientParse bool
	// ParseMode selects strict or lenient structural checking in the
	// default parser.
	ParseMode parser.Mode
	// Parallelism bounds concurrent sibling validation within a pass.
	Parallelism int
	// CallTimeout bounds each model call independently of validator
	// timeouts. Zero means no bound beyond the caller's context.
	CallTimeout time.Duration
	// Runner executes validators; nil uses an in-process runner over the
	// built-in registry.
	Runner validators.Runner
	// Parser overrides the default JSON parser.
	Parser parser.Parser
	// Estimator backfills token counters when the caller reports none.
	Estimator *llm.TokenEstimator
	// Metrics receives counters when set.
	Metrics *Metrics
}

// DefaultConfig returns the default guard configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxReasks: 1,
		ParseMode: parser.ModeStrict,
	}
}

// Result is the caller-facing outcome of one call. A call that exhausts its
// retry budget is a normal result with ValidationPassed false, not an error.
type Result struct {
	// CallID identifies the call in the history ledger.
	CallID string
	// ValidationPassed reports whether the final iteration validated
	// cleanly.
	ValidationPassed bool
	// ValidatedOutput is the final corrected output; meaningful only when
	// HasOutput is set.
	ValidatedOutput any
	HasOutput       bool
	// RawOutput is the last raw model text received.
	RawOutput string
	// Iterations is the number of round-trips consumed.
	Iterations int
	// Error is the surfaced failure for failed calls.
	Error *types.Error
}

// Guard drives the validation-and-reask loop for one schema: it calls the
// model, validates the parsed output, applies per-field corrections, and
// re-asks for whatever could not be corrected locally until the output is
// acceptable or the budget is spent. Every attempt is recorded in the
// history ledger. A Guard is safe for concurrent calls; each call gets its
// own independent state.
type Guard struct {
	tree    *schema.Node
	caller  llm.Caller
	parser  parser.Parser
	pass    *validation.Pass
	history *history.History
	cfg     Config
	logger  *zap.Logger
}

// New creates a Guard for the given schema tree and model caller. The caller
// may be nil for parse-only guards; such a guard cannot reask. A nil config
// uses defaults.
func New(tree *schema.Node, caller llm.Caller, cfg *Config, logger *zap.Logger) (*Guard, error) {
	if tree == nil {
		return nil, types.NewError(types.ErrInvalidSchema, "schema tree is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxReasks < 0 {
		return nil, types.NewError(types.ErrInvalidConfig, "max reasks must not be negative")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := cfg.Parser
	if p == nil {
		sp, err := parser.NewStructParser(tree, cfg.ParseMode)
		if err != nil {
			return nil, err
		}
		p = sp
	}
	pass := validation.New(&validation.Config{
		Runner:      cfg.Runner,
		Parallelism: cfg.Parallelism,
	}, logger)
	return &Guard{
		tree:    tree,
		caller:  caller,
		parser:  p,
		pass:    pass,
		history: history.New(),
		cfg:     *cfg,
		logger:  logger,
	}, nil
}

// History returns the guard's call ledger.
func (g *Guard) History() *history.History {
	return g.history
}

// Schema returns the schema tree the guard validates against.
func (g *Guard) Schema() *schema.Node {
	return g.tree
}
