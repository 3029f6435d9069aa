package validation

import (
	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/types"
	"github.com/BaSui01/guardflow/validators"
)

// ActionKind enumerates the closed set of actions a validator outcome can
// resolve to. The dispatch over it is matched exhaustively, so adding a
// policy is a compile-time-checked change.
type ActionKind uint8

const (
	// ActionNoop leaves the value unchanged.
	ActionNoop ActionKind = iota
	// ActionFix replaces the value with the validator-supplied correction.
	ActionFix
	// ActionFilter removes the failing value from its parent container.
	ActionFilter
	// ActionRefrain discards the entire output for the current call.
	ActionRefrain
	// ActionReask flags the value for a targeted follow-up request.
	ActionReask
	// ActionException halts resolution and fails the call.
	ActionException
)

// String implements fmt.Stringer.
func (k ActionKind) String() string {
	switch k {
	case ActionNoop:
		return "noop"
	case ActionFix:
		return "fix"
	case ActionFilter:
		return "filter"
	case ActionRefrain:
		return "refrain"
	case ActionReask:
		return "reask"
	case ActionException:
		return "exception"
	}
	return "unknown"
}

// Action is the resolved consequence of one validator outcome under one
// on-fail policy. Exactly one action is derived per failed validator per
// attempt.
type Action struct {
	Kind ActionKind
	// FixValue is set for ActionFix.
	FixValue any
	// Reason and FailedValue are set for ActionReask.
	Reason      string
	FailedValue any
	// Err is set for ActionException.
	Err *types.Error
}

// Resolve maps a validator outcome and the node's on-fail policy to a
// concrete action. Pure function: a passing outcome always resolves to noop,
// a failing one follows the policy. A fix policy without a supplied
// correction degrades to noop. An unknown or empty policy is treated as
// noop.
func Resolve(outcome *validators.Outcome, policy schema.OnFail, value any) Action {
	if outcome.Valid {
		return Action{Kind: ActionNoop}
	}
	switch policy {
	case schema.OnFailFix:
		if outcome.HasFix {
			return Action{Kind: ActionFix, FixValue: outcome.FixValue}
		}
		return Action{Kind: ActionNoop}
	case schema.OnFailFilter:
		return Action{Kind: ActionFilter}
	case schema.OnFailRefrain:
		return Action{Kind: ActionRefrain}
	case schema.OnFailReask:
		return Action{Kind: ActionReask, Reason: outcome.Reason, FailedValue: value}
	case schema.OnFailException:
		return Action{
			Kind: ActionException,
			Err:  types.NewError(types.ErrPolicyException, outcome.Reason),
		}
	default: // OnFailNoop and anything undeclared
		return Action{Kind: ActionNoop}
	}
}
