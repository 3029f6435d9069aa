package history

import (
	"time"

	"github.com/BaSui01/guardflow/llm"
	"github.com/BaSui01/guardflow/types"
	"github.com/BaSui01/guardflow/validation"
)

// Iteration snapshots one request/response round within a call: the request
// sent, the raw and parsed output received, every validator outcome of the
// validation pass, the corrected value after resolution, and usage counters.
// Iterations are immutable once appended to a call.
type Iteration struct {
	// Index is the 0-based sequence index within the call.
	Index int
	// Request is the prompt payload sent for this round-trip. For index > 0
	// it is derived solely from the previous iteration's unresolved reasks.
	Request *llm.Request
	// RawOutput is the raw model text received.
	RawOutput string
	// ParsedOutput is the parsed value before validation; nil on parse
	// failure.
	ParsedOutput any
	// Records lists every validator execution of the pass in
	// schema-declared order.
	Records []validation.Record
	// Reasks lists the unresolved reask requests the pass produced.
	Reasks []validation.ReaskRequest
	// CorrectedOutput is the value after resolution; nil when the pass
	// refrained or failed to parse.
	CorrectedOutput any
	// Usage holds the token counters for this round-trip.
	Usage types.TokenUsage
	// Timestamp is when the iteration was recorded.
	Timestamp time.Time
}
