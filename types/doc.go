// Package types holds the lowest-level shared types of the engine: the
// structured error taxonomy and token usage counters. It has no internal
// dependencies so every other package can import it freely.
package types
