// Package guard is the engine's orchestrator: it drives repeated model
// calls and validation passes over a schema tree until the output is
// acceptable or the reask budget is spent, recording every attempt in the
// history ledger.
package guard
