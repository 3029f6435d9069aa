package history

import (
	"sync"

	"github.com/google/uuid"

	"github.com/BaSui01/guardflow/types"
)

// History is the ordered, append-only sequence of calls for one
// engine-scoped context. It supports concurrent appends of distinct calls;
// ordering within a call is enforced by the call itself.
type History struct {
	mu    sync.RWMutex
	calls []*Call
}

// New creates an empty history.
func New() *History {
	return &History{}
}

// NewCall appends and returns a fresh call with the given reask budget.
func (h *History) NewCall(maxReasks int) *Call {
	c := &Call{
		id:        uuid.NewString(),
		maxReasks: maxReasks,
	}
	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.mu.Unlock()
	return c
}

// Length returns the number of calls.
func (h *History) Length() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.calls)
}

// First returns the first call, or nil.
func (h *History) First() *Call {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.calls) == 0 {
		return nil
	}
	return h.calls[0]
}

// Last returns the most recent call, or nil.
func (h *History) Last() *Call {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.calls) == 0 {
		return nil
	}
	return h.calls[len(h.calls)-1]
}

// At returns the call at index i, or nil when out of range.
func (h *History) At(i int) *Call {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.calls) {
		return nil
	}
	return h.calls[i]
}

func sequenceError(msg string) *types.Error {
	return types.NewError(types.ErrHistorySequence, msg)
}
