// Package schema defines the compiled schema node tree the engine validates
// model output against: node kinds, per-validator on-fail policies, path
// addressing into JSON-shaped values, sub-schema pruning for reask prompts,
// and copy-on-write value helpers.
//
// Trees are produced by a schema compiler (an external collaborator) or by
// the builder helpers in this package, and are never mutated by the engine.
package schema
