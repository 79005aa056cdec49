// Package navidrome triggers library rescans on a Subsonic-compatible
// server after a successful reorganization.
//
// The rescan is fire-and-forget: a delivery failure is reported but never
// rolls back an otherwise-successful reorganization.
package navidrome
