package llm

import (
	"context"

	"github.com/BaSui01/guardflow/types"
)

// Request is one rendered prompt payload sent to the generating model.
type Request struct {
	// Instructions is the system-level guidance, constant across reasks.
	Instructions string `json:"instructions,omitempty"`
	// Prompt is the user-level prompt for this round-trip.
	Prompt string `json:"prompt"`
	// Metadata is passed through to the caller untouched.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response is the raw model output plus usage counters.
type Response struct {
	RawText          string `json:"raw_text"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
}

// Usage converts the response counters to a TokenUsage.
func (r *Response) Usage() types.TokenUsage {
	return types.TokenUsage{
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.PromptTokens + r.CompletionTokens,
	}
}

// Caller invokes the generating model synchronously. Transport concerns
// (authentication, rate limiting, retries on network failure) belong to the
// implementation, not to the engine.
type Caller interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, req *Request) (*Response, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// AsyncResult delivers an asynchronous model response.
type AsyncResult struct {
	Response *Response
	Err      error
}

// AsyncCaller invokes the generating model asynchronously. The returned
// channel delivers exactly one result and is then closed.
type AsyncCaller interface {
	CallAsync(ctx context.Context, req *Request) <-chan AsyncResult
}

// AsyncAdapter lifts a synchronous Caller to the AsyncCaller interface.
type AsyncAdapter struct {
	Caller Caller
}

// CallAsync implements AsyncCaller.
func (a *AsyncAdapter) CallAsync(ctx context.Context, req *Request) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	go func() {
		defer close(ch)
		resp, err := a.Caller.Call(ctx, req)
		ch <- AsyncResult{Response: resp, Err: err}
	}()
	return ch
}

// FromAsync lifts an AsyncCaller to the synchronous Caller interface so the
// reask loop can drive either variant with identical history-recording
// semantics.
func FromAsync(ac AsyncCaller) Caller {
	return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		select {
		case res, ok := <-ac.CallAsync(ctx, req):
			if !ok {
				return nil, types.NewError(types.ErrTransport, "async caller closed without a result")
			}
			return res.Response, res.Err
		case <-ctx.Done():
			return nil, types.NewError(types.ErrTransport, "model call cancelled").WithCause(ctx.Err())
		}
	})
}
