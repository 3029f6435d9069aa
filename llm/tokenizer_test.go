package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEstimatorCount(t *testing.T) {
	e, err := NewTokenEstimator("")
	require.NoError(t, err)

	assert.Equal(t, 0, e.Count(""))
	assert.Greater(t, e.Count("a short sentence about fees"), 0)
}

func TestTokenEstimatorUnknownEncoding(t *testing.T) {
	_, err := NewTokenEstimator("no-such-encoding")
	require.Error(t, err)
}

func TestBackfillFillsOnlyZeroCounters(t *testing.T) {
	e, err := NewTokenEstimator("cl100k_base")
	require.NoError(t, err)

	req := &Request{Instructions: "be terse", Prompt: "list the fees"}
	resp := &Response{RawText: "annual fee"}

	e.Backfill(req, resp)
	assert.Greater(t, resp.PromptTokens, 0)
	assert.Greater(t, resp.CompletionTokens, 0)

	// Reported counters are left alone.
	reported := &Response{RawText: "annual fee", PromptTokens: 99, CompletionTokens: 7}
	e.Backfill(req, reported)
	assert.Equal(t, 99, reported.PromptTokens)
	assert.Equal(t, 7, reported.CompletionTokens)
}
