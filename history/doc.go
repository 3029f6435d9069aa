// Package history is the engine's append-only ledger: calls, the iterations
// within them, and the query surface over both. Distinct calls append
// concurrently; a single call's iterations are sequence-checked so they can
// never interleave or arrive out of order.
package history
