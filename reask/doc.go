// Package reask builds the targeted follow-up request sent when a
// validation pass leaves failures unresolved: only the failing sub-schemas,
// their previous values, and the verbatim failure reasons.
package reask
