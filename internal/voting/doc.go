// Package voting aggregates per-track fingerprint candidates into a single
// album-level decision.
//
// Decide is a pure function over an immutable candidate set: the same input
// always produces the same Decision, which is what makes a dry run a
// faithful preview of a later apply. There are exactly two outcomes —
// Accept and InsufficientData. A rejected album is left untouched and
// reported for manual handling; there is no partial third state.
package voting
