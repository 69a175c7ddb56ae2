// Package engine runs forum commands end to end: it validates the envelope,
// resolves the caller's roles, asks the decider for a decision, and commits
// the resulting events and state writes in one ledger transaction before
// handing them to the event sink.
//
// Calls are serialized. Every call takes its stamp from the clock once and
// sees the state left by all calls before it.
package engine
