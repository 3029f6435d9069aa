package history

import (
	"fmt"
	"sync"

	"github.com/BaSui01/guardflow/llm"
	"github.com/BaSui01/guardflow/types"
	"github.com/BaSui01/guardflow/validation"
)

// Call is one top-level invocation of the engine: an append-only sequence of
// iterations plus the finalized result. Iterations must arrive in sequence
// order and stop arriving once the call is finalized; both are enforced
// here, not trusted to the orchestrator.
type Call struct {
	id        string
	maxReasks int

	mu         sync.Mutex
	iterations []*Iteration
	finalized  bool
	passed     bool
	output     any
	hasOutput  bool
	err        *types.Error
}

// ID returns the call's unique identifier.
func (c *Call) ID() string { return c.id }

// MaxReasks returns the retry budget the call was created with.
func (c *Call) MaxReasks() int { return c.maxReasks }

// Append adds the next iteration. It fails when the index is out of
// sequence, the budget of maxReasks+1 iterations is spent, or the call is
// already finalized.
func (c *Call) Append(it *Iteration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalized {
		return sequenceError("call " + c.id + " is finalized")
	}
	if it.Index != len(c.iterations) {
		return sequenceError(fmt.Sprintf("iteration index %d, want %d", it.Index, len(c.iterations)))
	}
	if len(c.iterations) >= c.maxReasks+1 {
		return sequenceError(fmt.Sprintf("iteration budget of %d exhausted", c.maxReasks+1))
	}
	c.iterations = append(c.iterations, it)
	return nil
}

// Finalize records the call's terminal result. A call is finalized exactly
// once and never mutated afterwards.
func (c *Call) Finalize(passed bool, output any, hasOutput bool, callErr *types.Error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalized {
		return sequenceError("call " + c.id + " is already finalized")
	}
	c.finalized = true
	c.passed = passed
	c.output = output
	c.hasOutput = hasOutput
	c.err = callErr
	return nil
}

// Finalized reports whether the call has reached a terminal state.
func (c *Call) Finalized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalized
}

// ValidationPassed reports whether the call's last iteration validated
// cleanly.
func (c *Call) ValidationPassed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passed
}

// ValidatedOutput returns the final validated output and whether one exists.
func (c *Call) ValidatedOutput() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output, c.hasOutput
}

// Err returns the surfaced failure for a failed call, or nil.
func (c *Call) Err() *types.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Length returns the number of iterations.
func (c *Call) Length() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.iterations)
}

// First returns the first iteration, or nil.
func (c *Call) First() *Iteration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.iterations) == 0 {
		return nil
	}
	return c.iterations[0]
}

// Last returns the most recent iteration, or nil.
func (c *Call) Last() *Iteration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.iterations) == 0 {
		return nil
	}
	return c.iterations[len(c.iterations)-1]
}

// At returns the iteration at index i, or nil when out of range.
func (c *Call) At(i int) *Iteration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.iterations) {
		return nil
	}
	return c.iterations[i]
}

// Iterations returns a snapshot of the iteration sequence.
func (c *Call) Iterations() []*Iteration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Iteration, len(c.iterations))
	copy(out, c.iterations)
	return out
}

// CompiledPrompt returns the request of iteration 0, or nil.
func (c *Call) CompiledPrompt() *llm.Request {
	first := c.First()
	if first == nil {
		return nil
	}
	return first.Request
}

// ReaskPrompts returns the ordered requests of iterations 1 and onward.
func (c *Call) ReaskPrompts() []*llm.Request {
	iters := c.Iterations()
	if len(iters) < 2 {
		return nil
	}
	out := make([]*llm.Request, 0, len(iters)-1)
	for _, it := range iters[1:] {
		out = append(out, it.Request)
	}
	return out
}

// RawOutputs returns the ordered raw model outputs across iterations.
func (c *Call) RawOutputs() []string {
	iters := c.Iterations()
	out := make([]string, 0, len(iters))
	for _, it := range iters {
		out = append(out, it.RawOutput)
	}
	return out
}

// TokensConsumed sums token usage across iterations.
func (c *Call) TokensConsumed() types.TokenUsage {
	var total types.TokenUsage
	for _, it := range c.Iterations() {
		total.Add(it.Usage)
	}
	return total
}

// Reasks returns the unresolved reask requests of the last iteration.
func (c *Call) Reasks() []validation.ReaskRequest {
	last := c.Last()
	if last == nil {
		return nil
	}
	return last.Reasks
}
