package guard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/history"
	"github.com/BaSui01/guardflow/llm"
	"github.com/BaSui01/guardflow/parser"
	"github.com/BaSui01/guardflow/reask"
	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/types"
	"github.com/BaSui01/guardflow/validation"
)

// loopState is the reask loop's position in its state machine.
type loopState string

const (
	stateCalling    loopState = "calling"
	stateValidating loopState = "validating"
	stateReasking   loopState = "reasking"
	stateDone       loopState = "done"
	stateFailed     loopState = "failed"
)

// Execute runs one full call: model round-trips and validation passes until
// the output is acceptable, a fatal action fires, or the reask budget is
// spent. The returned error is non-nil only for surfaced failures (policy
// exception, transport error, strict parse failure, cancellation); budget
// exhaustion is a normal result.
func (g *Guard) Execute(ctx context.Context, req *llm.Request) (*Result, error) {
	return g.run(ctx, req, nil)
}

// Parse validates an already-produced raw output as iteration 0 of a call,
// reasking through the model caller on failure exactly like Execute. With a
// nil caller the effective budget is zero.
func (g *Guard) Parse(ctx context.Context, rawOutput string, req *llm.Request) (*Result, error) {
	return g.run(ctx, req, &rawOutput)
}

// AsyncExecuteResult delivers an asynchronous Execute result.
type AsyncExecuteResult struct {
	Result *Result
	Err    error
}

// ExecuteAsync runs Execute on its own goroutine. The returned channel
// delivers exactly one result and is then closed; history is recorded
// identically to the synchronous path.
func (g *Guard) ExecuteAsync(ctx context.Context, req *llm.Request) <-chan AsyncExecuteResult {
	ch := make(chan AsyncExecuteResult, 1)
	go func() {
		defer close(ch)
		res, err := g.Execute(ctx, req)
		ch <- AsyncExecuteResult{Result: res, Err: err}
	}()
	return ch
}

func (g *Guard) run(ctx context.Context, req *llm.Request, preParsed *string) (*Result, error) {
	if req == nil {
		req = &llm.Request{}
	}
	call := g.history.NewCall(g.cfg.MaxReasks)
	g.cfg.Metrics.callStarted()
	logger := g.logger.With(zap.String("call_id", call.ID()))

	current := req
	curParser := g.parser
	curTree := g.tree
	var lastReasks []validation.ReaskRequest
	var prevCorrected any
	st := stateCalling

	transition := func(next loopState) {
		logger.Debug("state transition",
			zap.String("from", string(st)),
			zap.String("to", string(next)))
		st = next
	}

	for i := 0; ; i++ {
		// Cancellation is honored at every state transition, never
		// mid-model-call.
		if err := ctx.Err(); err != nil {
			return g.fail(call, types.NewError(types.ErrCallCancelled, "call cancelled").WithCause(err))
		}

		var raw string
		var usage types.TokenUsage
		if i == 0 && preParsed != nil {
			raw = *preParsed
		} else {
			if g.caller == nil {
				return g.fail(call, types.NewError(types.ErrTransport, "no model caller configured"))
			}
			resp, err := g.callModel(ctx, current)
			if err != nil {
				// Transport failures are fatal here; retry-on-transport is
				// the caller's concern.
				logger.Warn("model call failed", zap.Int("iteration", i), zap.Error(err))
				return g.fail(call, types.NewError(types.ErrTransport, "model call failed").WithCause(err).WithRetryable())
			}
			if g.cfg.Estimator != nil {
				g.cfg.Estimator.Backfill(current, resp)
			}
			raw = resp.RawText
			usage = resp.Usage()
		}

		transition(stateValidating)
		if err := ctx.Err(); err != nil {
			return g.fail(call, types.NewError(types.ErrCallCancelled, "call cancelled").WithCause(err))
		}

		parsed, perr := curParser.Parse(ctx, raw, curTree)
		if perr != nil && !g.cfg.LenientParse {
			it := &history.Iteration{
				Index:     i,
				Request:   current,
				RawOutput: raw,
				Usage:     usage,
				Timestamp: time.Now(),
			}
			if err := call.Append(it); err != nil {
				return g.fail(call, types.NewError(types.ErrHistorySequence, "failed to record iteration").WithCause(err))
			}
			return g.fail(call, perr)
		}

		var pres *validation.Result
		var vErr error
		if perr != nil {
			// Lenient mode: an unparseable output resolves as a root-level
			// reask.
			pres = &validation.Result{
				Reasks: []validation.ReaskRequest{{
					Path:        nil,
					Reason:      perr.Message,
					FailedValue: raw,
				}},
			}
		} else {
			value := parsed
			if i > 0 && len(lastReasks) > 0 {
				// A reask response carries only the failing subtrees; graft
				// it onto the previous corrected output so passing fields
				// survive across rounds.
				value = schema.Graft(prevCorrected, parsed, reaskPaths(lastReasks))
			}
			pres, vErr = g.pass.Apply(ctx, g.tree, value)
		}

		it := &history.Iteration{
			Index:           i,
			Request:         current,
			RawOutput:       raw,
			ParsedOutput:    parsed,
			Records:         pres.Records,
			Reasks:          pres.Reasks,
			CorrectedOutput: pres.Value,
			Usage:           usage,
			Timestamp:       time.Now(),
		}
		if err := call.Append(it); err != nil {
			return g.fail(call, types.NewError(types.ErrHistorySequence, "failed to record iteration").WithCause(err))
		}
		g.cfg.Metrics.observeIteration(pres.Records)

		if vErr != nil {
			transition(stateFailed)
			e, ok := vErr.(*types.Error)
			if !ok {
				e = types.NewError(types.ErrPolicyException, vErr.Error())
			}
			logger.Info("call failed on policy exception",
				zap.Int("iterations", call.Length()),
				zap.String("path", e.Path),
				zap.String("validator", e.Validator))
			return g.fail(call, e)
		}

		if pres.Refrain {
			transition(stateDone)
			logger.Info("call refrained", zap.Int("iterations", call.Length()))
			return g.finish(call, false, nil, false, raw)
		}

		uncorrected := validation.UncorrectedFailure(pres.Records)

		if len(pres.Reasks) > 0 {
			// Without a caller there is nothing to reask; the remaining budget
			// is effectively zero.
			if i < g.cfg.MaxReasks && g.caller != nil {
				transition(stateReasking)
				if err := ctx.Err(); err != nil {
					return g.fail(call, types.NewError(types.ErrCallCancelled, "call cancelled").WithCause(err))
				}
				next, err := reask.Build(current, g.tree, pres.Reasks)
				if err != nil {
					return g.fail(call, types.NewError(types.ErrInvalidSchema, "failed to build reask request").WithCause(err))
				}
				// A compliant reask response carries exactly the failing
				// subtrees, so shape enforcement for the next round must use
				// the pruned sub-schema, not the full tree.
				pruned := g.tree.Prune(reaskPaths(pres.Reasks))
				rp, rpErr := g.roundParser(pruned)
				if rpErr != nil {
					return g.fail(call, types.NewError(types.ErrInvalidSchema, "failed to prepare reask parser").WithCause(rpErr))
				}
				logger.Debug("reasking",
					zap.Int("iteration", i),
					zap.Int("failures", len(pres.Reasks)))
				g.cfg.Metrics.observeReask()
				lastReasks = pres.Reasks
				prevCorrected = pres.Value
				current = next
				curParser = rp
				curTree = pruned
				transition(stateCalling)
				continue
			}
			// Budget exhausted: a normal terminal state. The best-effort
			// corrected value is returned unless a stricter uncorrected
			// failure also occurred.
			transition(stateDone)
			logger.Info("reask budget exhausted",
				zap.Int("iterations", call.Length()),
				zap.Int("unresolved", len(pres.Reasks)))
			if uncorrected || perr != nil {
				return g.finish(call, false, nil, false, raw)
			}
			return g.finish(call, false, pres.Value, true, raw)
		}

		transition(stateDone)
		if uncorrected {
			return g.finish(call, false, nil, false, raw)
		}
		return g.finish(call, true, pres.Value, true, raw)
	}
}

// roundParser returns the parser for a reask round over the pruned sub-schema.
// A caller-supplied parser is kept as-is; the default struct parser is
// recompiled against the pruned tree.
func (g *Guard) roundParser(pruned *schema.Node) (parser.Parser, error) {
	if g.cfg.Parser != nil {
		return g.cfg.Parser, nil
	}
	return parser.NewStructParser(pruned, g.cfg.ParseMode)
}

func (g *Guard) callModel(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}
	return g.caller.Call(ctx, req)
}

func (g *Guard) finish(call *history.Call, passed bool, output any, hasOutput bool, raw string) (*Result, error) {
	if err := call.Finalize(passed, output, hasOutput, nil); err != nil {
		g.logger.Error("failed to finalize call", zap.String("call_id", call.ID()), zap.Error(err))
	}
	g.cfg.Metrics.callFinished(passed)
	return &Result{
		CallID:           call.ID(),
		ValidationPassed: passed,
		ValidatedOutput:  output,
		HasOutput:        hasOutput,
		RawOutput:        raw,
		Iterations:       call.Length(),
	}, nil
}

func (g *Guard) fail(call *history.Call, e *types.Error) (*Result, error) {
	if err := call.Finalize(false, nil, false, e); err != nil {
		g.logger.Error("failed to finalize call", zap.String("call_id", call.ID()), zap.Error(err))
	}
	g.cfg.Metrics.callErrored(string(e.Code))
	res := &Result{
		CallID:     call.ID(),
		Iterations: call.Length(),
		Error:      e,
	}
	if last := call.Last(); last != nil {
		res.RawOutput = last.RawOutput
	}
	return res, e
}

func reaskPaths(requests []validation.ReaskRequest) []schema.Path {
	paths := make([]schema.Path, len(requests))
	for i, r := range requests {
		paths[i] = r.Path
	}
	return paths
}
