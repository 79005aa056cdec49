// Package cleanup removes stale work-area artifacts flagged by a scan.
//
// Only stale items are ever touched; anything with a live owning process is
// refused unless the operator explicitly forces the override. Every path is
// re-checked immediately before deletion since the work area belongs to an
// independent pipeline, and each item's outcome is reported individually.
package cleanup
