package validators

import (
	"context"

	"github.com/BaSui01/guardflow/types"
)

// Scope carries the ambient values a validator may need for cross-field
// checks. Validators must treat everything in it as read-only.
type Scope struct {
	// Root is the full parsed output the value under validation belongs to.
	Root any `msgpack:"root"`
}

// Outcome is the result of running one validator against one value. Produced
// fresh per attempt and never mutated afterwards.
type Outcome struct {
	// Valid reports whether the value passed.
	Valid bool `msgpack:"valid"`
	// FixValue is the validator-supplied correction; meaningful only when
	// HasFix is set.
	FixValue any  `msgpack:"fix_value,omitempty"`
	HasFix   bool `msgpack:"has_fix,omitempty"`
	// Reason is the human-readable failure reason, quoted verbatim in reask
	// prompts.
	Reason string `msgpack:"reason,omitempty"`
	// Detail carries machine-readable failure metadata.
	Detail map[string]any `msgpack:"detail,omitempty"`
	// ErrorCode is set when the outcome reports an execution failure of the
	// runner boundary rather than a semantic validation failure.
	ErrorCode types.ErrorCode `msgpack:"error_code,omitempty"`
}

// Pass returns a passing outcome.
func Pass() *Outcome {
	return &Outcome{Valid: true}
}

// Fail returns a failing outcome with the given reason.
func Fail(reason string) *Outcome {
	return &Outcome{Reason: reason}
}

// FailWithFix returns a failing outcome carrying a suggested correction.
func FailWithFix(reason string, fix any) *Outcome {
	return &Outcome{Reason: reason, FixValue: fix, HasFix: true}
}

// RunnerFailure returns the outcome used when the execution boundary itself
// failed: worker crash, serialization error, timeout, or an unknown
// validator. It is a failed validation and flows through the normal on-fail
// policy, so it can never crash the orchestrator.
func RunnerFailure(reason string) *Outcome {
	return &Outcome{Reason: reason, ErrorCode: types.ErrRunner}
}

// IsRunnerError reports whether the outcome was produced by a failure of the
// execution boundary.
func (o *Outcome) IsRunnerError() bool {
	return o.ErrorCode == types.ErrRunner
}

// Validator inspects a value and reports pass/fail, optionally with a
// suggested correction. Implementations must not mutate the value or the
// scope.
type Validator interface {
	// Name returns the validator's registry identifier.
	Name() string
	// Validate runs the check against value. It always returns an outcome;
	// it never leaves the pass/fail state ambiguous.
	Validate(ctx context.Context, value any, scope Scope) *Outcome
}
