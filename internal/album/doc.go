// Package album defines the data model shared by identification and
// reorganization: tracks on disk, fingerprint match candidates, and the
// accepted album identity.
//
// Candidates are ephemeral. They exist for a single identification run and
// are never persisted; re-running identification always produces a fresh
// candidate set and a fresh decision.
package album
