// Package strategy provides the policies that drive a room's turn loop:
// a Selector picks the next speaker and a Terminator decides when the
// conversation is finished.
//
// Two families are provided:
//
//   - TextSelection / TextTermination ask a model for a JSON decision,
//     streaming every intermediate step into the turn's Envelope
//   - RoundRobinSelection / KeywordTermination decide deterministically
//     without a model
//
// Strategies yield intermediate zero values while they work so the caller
// can forward progress; the last yielded value is the decision. Malformed
// model output never fails a strategy: selection falls back to the first
// agent and termination to false.
package strategy
