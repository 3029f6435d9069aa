// Package validators defines the validator contract, the registry that
// rebuilds validators from schema declarations, the built-in checks, and the
// runners that execute validators in-process or in an isolated worker
// process.
package validators
