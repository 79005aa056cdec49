// Package preflight verifies the environment before identification or
// reconciliation runs: directory permissions, the fpcalc binary, lookup
// service reachability, and job database health.
package preflight
