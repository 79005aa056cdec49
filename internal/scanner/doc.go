// Package scanner classifies shared rip work-area and job-tracking state.
//
// A scan is strictly read-only. It flags intermediate rip directories, raw
// audio left outside any rip directory, coordination files whose owning
// process is gone, and job records stuck in a non-terminal status. Items
// owned by a live rip process are reported as in progress and are never
// eligible for cleanup. When the job database cannot be read the scan
// degrades to filesystem-only classification and says so in the report.
package scanner
