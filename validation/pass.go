package validation

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/types"
	"github.com/BaSui01/guardflow/validators"
)

// Record is one validator execution recorded for the history ledger.
type Record struct {
	Path      schema.Path         `json:"path"`
	Validator string              `json:"validator"`
	Outcome   *validators.Outcome `json:"outcome"`
	Action    ActionKind          `json:"action"`
}

// ReaskRequest is one unresolved failure to address in the next model
// round-trip.
type ReaskRequest struct {
	Path        schema.Path `json:"path"`
	Reason      string      `json:"reason"`
	FailedValue any         `json:"failed_value"`
}

// Result is the outcome of one validation pass over one parsed value.
type Result struct {
	// Value is the corrected output. Nil when the pass refrained or the root
	// itself was filtered.
	Value any
	// Refrain reports that some node discarded the whole output.
	Refrain bool
	// Records lists every validator execution in schema-declared order.
	Records []Record
	// Reasks lists the unresolved failures collected for the next round.
	Reasks []ReaskRequest
}

// UncorrectedFailure reports whether any recorded failure was left in place
// without a correction (a noop action on a failed outcome). Such a pass can
// never be considered passing even though nothing blocks completion.
func UncorrectedFailure(records []Record) bool {
	for _, r := range records {
		if !r.Outcome.Valid && r.Action == ActionNoop {
			return true
		}
	}
	return false
}

// Config configures a validation pass.
type Config struct {
	// Runner executes individual validators. Nil uses a default in-process
	// runner over the built-in registry.
	Runner validators.Runner
	// Parallelism bounds concurrent sibling validation. Values below 2 keep
	// the pass purely sequential.
	Parallelism int
}

// Pass walks a schema tree against a parsed output value once, resolving
// each validator outcome to an action and aggregating corrections bottom-up.
// A Pass is stateless across applications and safe for concurrent use.
type Pass struct {
	runner      validators.Runner
	parallelism int
	logger      *zap.Logger
}

// New creates a validation pass.
func New(cfg *Config, logger *zap.Logger) *Pass {
	if cfg == nil {
		cfg = &Config{}
	}
	runner := cfg.Runner
	if runner == nil {
		runner = validators.NewInProcessRunner(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pass{runner: runner, parallelism: cfg.Parallelism, logger: logger}
}

// Apply validates value against the schema tree rooted at root. It returns
// the corrected value, the recorded outcomes and the unresolved reask
// requests. The returned error is non-nil only for an exception policy
// firing, in which case the partial result is still returned for the ledger.
func (p *Pass) Apply(ctx context.Context, root *schema.Node, value any) (*Result, error) {
	nr, err := p.walk(ctx, root, value, nil, value)
	res := &Result{
		Value:   nr.value,
		Refrain: nr.refrain,
		Records: nr.records,
		Reasks:  nr.reasks,
	}
	if nr.refrain || nr.filtered {
		// Refrain discards the whole output and short-circuits remaining
		// resolution; a filtered root has nothing left to keep either.
		res.Value = nil
		res.Reasks = nil
	}
	if err != nil {
		p.logger.Debug("validation pass raised", zap.Error(err))
		return res, err
	}
	return res, nil
}

type nodeResult struct {
	value    any
	filtered bool
	refrain  bool
	records  []Record
	reasks   []ReaskRequest
}

type childEntry struct {
	node  *schema.Node
	value any
	path  schema.Path
}

// walk validates one node depth-first: children first so corrections
// aggregate bottom-up, then the node's own validators in declared order with
// a short-circuit at the first failure. One action per node per pass.
func (p *Pass) walk(ctx context.Context, node *schema.Node, value any, path schema.Path, rootValue any) (*nodeResult, error) {
	res := &nodeResult{value: value}

	switch node.Kind {
	case schema.KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			break
		}
		entries := make([]childEntry, 0, len(node.Fields))
		for _, f := range node.Fields {
			child, present := obj[f.Name]
			if !present {
				continue
			}
			entries = append(entries, childEntry{node: f.Node, value: child, path: path.Child(schema.Field(f.Name))})
		}
		results, errs := p.walkChildren(ctx, entries, rootValue)
		out := obj
		copied := false
		for i, entry := range entries {
			cr := results[i]
			if cr == nil {
				continue
			}
			res.records = append(res.records, cr.records...)
			if errs[i] != nil {
				return res, errs[i]
			}
			if cr.refrain {
				res.refrain = true
				return res, nil
			}
			res.reasks = append(res.reasks, cr.reasks...)
			if cr.filtered {
				if !copied {
					out = copyObject(out)
					copied = true
				}
				delete(out, lastKey(entry.path))
			} else if !sameValue(cr.value, entry.value) {
				if !copied {
					out = copyObject(out)
					copied = true
				}
				out[lastKey(entry.path)] = cr.value
			}
		}
		res.value = any(out)

	case schema.KindList:
		list, ok := value.([]any)
		if !ok || node.Items == nil {
			break
		}
		entries := make([]childEntry, len(list))
		for i, elem := range list {
			entries[i] = childEntry{node: node.Items, value: elem, path: path.Child(schema.Index(i))}
		}
		results, errs := p.walkChildren(ctx, entries, rootValue)
		out := make([]any, 0, len(list))
		changed := false
		for i, entry := range entries {
			cr := results[i]
			if cr == nil {
				continue
			}
			res.records = append(res.records, cr.records...)
			if errs[i] != nil {
				return res, errs[i]
			}
			if cr.refrain {
				res.refrain = true
				return res, nil
			}
			res.reasks = append(res.reasks, cr.reasks...)
			if cr.filtered {
				changed = true
				continue
			}
			if !sameValue(cr.value, entry.value) {
				changed = true
			}
			out = append(out, cr.value)
		}
		if changed {
			res.value = any(out)
		}
	}

	for _, spec := range node.Validators {
		outcome := p.runner.Run(ctx, spec, res.value, validators.Scope{Root: rootValue})
		action := Resolve(outcome, spec.OnFail, res.value)
		res.records = append(res.records, Record{
			Path:      path,
			Validator: spec.Name,
			Outcome:   outcome,
			Action:    action.Kind,
		})
		if outcome.Valid {
			continue
		}
		switch action.Kind {
		case ActionNoop:
			// Recorded, value untouched.
		case ActionFix:
			res.value = action.FixValue
		case ActionFilter:
			res.filtered = true
		case ActionRefrain:
			res.refrain = true
		case ActionReask:
			res.reasks = append(res.reasks, ReaskRequest{
				Path:        path,
				Reason:      action.Reason,
				FailedValue: action.FailedValue,
			})
		case ActionException:
			return res, action.Err.WithPath(path.String()).WithValidator(spec.Name)
		}
		// First failing validator wins; policies are not cumulative.
		return res, nil
	}
	return res, nil
}

// walkChildren validates independent sibling subtrees, sequentially or under
// a bounded worker pool. Results and errors are indexed by entry so the
// caller assembles them in schema-declared order regardless of completion
// order; a nil result means the child was never run (sequential
// short-circuit).
func (p *Pass) walkChildren(ctx context.Context, entries []childEntry, rootValue any) ([]*nodeResult, []error) {
	results := make([]*nodeResult, len(entries))
	errs := make([]error, len(entries))
	if p.parallelism < 2 || len(entries) < 2 {
		for i, entry := range entries {
			cr, err := p.walk(ctx, entry.node, entry.value, entry.path, rootValue)
			results[i], errs[i] = cr, err
			if err != nil || cr.refrain {
				break
			}
		}
		return results, errs
	}

	g := &errgroup.Group{}
	g.SetLimit(p.parallelism)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i], errs[i] = p.walk(ctx, entry.node, entry.value, entry.path, rootValue)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

func copyObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

func lastKey(path schema.Path) string {
	return path[len(path)-1].Key
}

// sameValue is a cheap identity check used only to preserve structural
// sharing: false negatives cost an extra copy, never correctness.
func sameValue(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	return a == b
}

// IsException reports whether err is a policy exception raised by a pass.
func IsException(err error) bool {
	return types.GetErrorCode(err) == types.ErrPolicyException
}
