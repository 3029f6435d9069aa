// Package llm is the model caller boundary: the request/response contract
// the reask loop speaks, synchronous and asynchronous caller variants, and a
// tiktoken-backed token usage estimator. Actual providers live outside the
// engine and plug in through the Caller interfaces.
package llm
