// Package organizer applies an accepted album identity to disk.
//
// A plan is always computed first: per-track tag writes, canonical
// destination paths, and collision checks, all without mutation. Apply
// treats the album's moves as one transaction; if any move fails the files
// already relocated are moved back and the report says partial failure
// instead of leaving a half-migrated album. Destination collisions are
// reported errors, never overwrites. The downstream library rescan fires
// only after the whole album has settled.
package organizer
