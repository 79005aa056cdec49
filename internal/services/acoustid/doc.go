// Package acoustid implements the AcoustID lookup client used to turn
// acoustic fingerprints into ranked recording candidates.
//
// Failure classes are surfaced distinctly: an unreachable service, a
// quota/auth rejection, and a genuine no-match are different outcomes and
// must never collapse into each other.
package acoustid
