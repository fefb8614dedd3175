// Package importer reconciles scraped committee pages against the store.
//
// It runs as a scheduled batch job in three layers: the committee directory
// import (committees and session acronym bindings), the per-committee meeting
// reconciliation, and the study/activity resolver the meeting import calls
// for each study link. Each top-level import is one transaction; a hard
// data-integrity error rolls the committee back to its pre-run state, and
// re-running is safe because every lookup is keyed by stable source
// identifiers.
package importer
