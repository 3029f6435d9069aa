package validators

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/schema"
)

// Runner executes one declared validator against one value. Implementations
// must never mutate the value and must always return an outcome: execution
// failures of any kind surface as RunnerFailure outcomes, not errors, so the
// on-fail policy still applies and the orchestrator never crashes.
type Runner interface {
	Run(ctx context.Context, spec schema.ValidatorSpec, value any, scope Scope) *Outcome
}

// InProcessRunner builds validators from a registry and runs them on the
// calling goroutine.
type InProcessRunner struct {
	registry *Registry
	logger   *zap.Logger
}

// NewInProcessRunner creates an in-process runner. A nil registry uses the
// default registry.
func NewInProcessRunner(registry *Registry, logger *zap.Logger) *InProcessRunner {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InProcessRunner{registry: registry, logger: logger}
}

// Run implements Runner.
func (r *InProcessRunner) Run(ctx context.Context, spec schema.ValidatorSpec, value any, scope Scope) (outcome *Outcome) {
	if err := ctx.Err(); err != nil {
		return RunnerFailure("validation cancelled: " + err.Error())
	}
	v, err := r.registry.Build(spec)
	if err != nil {
		r.logger.Warn("failed to build validator",
			zap.String("validator", spec.Name),
			zap.Error(err))
		return RunnerFailure(err.Error())
	}
	// A panicking validator must not take the pass down with it.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("validator panicked",
				zap.String("validator", spec.Name),
				zap.Any("panic", rec))
			outcome = RunnerFailure(fmt.Sprintf("validator %s panicked: %v", spec.Name, rec))
		}
	}()
	return v.Validate(ctx, value, scope)
}

// DispatchRunner routes each validator to the in-process or the isolated
// runner according to its spec, so isolated and in-process validators compose
// freely within one pass.
type DispatchRunner struct {
	InProcess Runner
	Isolated  Runner
}

// NewDispatchRunner creates a dispatch runner. A nil in-process runner is
// replaced with a default one; Isolated may stay nil when no validator
// declares isolation.
func NewDispatchRunner(inProcess, isolated Runner) *DispatchRunner {
	if inProcess == nil {
		inProcess = NewInProcessRunner(nil, nil)
	}
	return &DispatchRunner{InProcess: inProcess, Isolated: isolated}
}

// Run implements Runner.
func (r *DispatchRunner) Run(ctx context.Context, spec schema.ValidatorSpec, value any, scope Scope) *Outcome {
	if spec.Isolated {
		if r.Isolated == nil {
			return RunnerFailure("validator " + spec.Name + " requires isolation but no isolated runner is configured")
		}
		return r.Isolated.Run(ctx, spec, value, scope)
	}
	return r.InProcess.Run(ctx, spec, value, scope)
}
