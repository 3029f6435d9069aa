package llm

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator backfills usage counters for callers that do not report
// them, using a tiktoken encoding. Estimates are counted over the request
// prompt plus instructions and the raw response text.
type TokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTokenEstimator creates an estimator for the given encoding name, e.g.
// "cl100k_base". An empty name selects cl100k_base.
func NewTokenEstimator(encoding string) (*TokenEstimator, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encoding, err)
	}
	return &TokenEstimator{enc: enc}, nil
}

// Count returns the token count of text.
func (e *TokenEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.enc.Encode(text, nil, nil))
}

// Backfill fills zero counters on resp from the request and raw output.
// Counters already reported by the caller are left alone.
func (e *TokenEstimator) Backfill(req *Request, resp *Response) {
	if resp.PromptTokens == 0 {
		resp.PromptTokens = e.Count(req.Instructions) + e.Count(req.Prompt)
	}
	if resp.CompletionTokens == 0 {
		resp.CompletionTokens = e.Count(resp.RawText)
	}
}
