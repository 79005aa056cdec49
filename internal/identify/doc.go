// Package identify orchestrates the unknown-album pipeline: fingerprint
// every track, look the fingerprints up, normalize the candidates, and put
// the album to a vote.
//
// Failures are isolated per album. An unreachable lookup service fails only
// the album it interrupted; unreadable tracks cast empty ballots so a single
// damaged file cannot block an otherwise clean decision.
package identify
