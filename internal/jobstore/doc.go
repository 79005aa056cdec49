// Package jobstore reads the rip pipeline's job-tracking database.
//
// The database is owned by the upstream pipeline; this package treats it as
// read-mostly. The only write it ever performs is marking a stuck job failed
// during cleanup, using the pipeline's own status vocabulary. When the
// database is missing or unreadable every operation reports ErrCorruptState
// so callers can fall back to filesystem-only classification.
package jobstore
