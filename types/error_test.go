package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := NewError(ErrParse, "output is not valid JSON")
	assert.Equal(t, "[PARSE_ERROR] output is not valid JSON", e.Error())

	cause := errors.New("unexpected end of input")
	e = e.WithCause(cause)
	assert.Contains(t, e.Error(), "unexpected end of input")
	assert.ErrorIs(t, e, cause)
}

func TestErrorBuilders(t *testing.T) {
	e := NewError(ErrPolicyException, "forbidden").
		WithPath("fees[2].name").
		WithValidator("valid-choices")

	assert.Equal(t, ErrPolicyException, e.Code)
	assert.Equal(t, "fees[2].name", e.Path)
	assert.Equal(t, "valid-choices", e.Validator)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrTransport, "down").WithRetryable()))
	assert.False(t, IsRetryable(NewError(ErrTransport, "down")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrTransport, GetErrorCode(NewError(ErrTransport, "down")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestTokenUsageAdd(t *testing.T) {
	total := TokenUsage{}
	total.Add(TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	total.Add(TokenUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5})

	require.Equal(t, 13, total.PromptTokens)
	require.Equal(t, 7, total.CompletionTokens)
	require.Equal(t, 20, total.TotalTokens)
}
