package importer

import "errors"

// Data-integrity conflicts. These indicate corrupted upstream source data and
// are raised, never silently patched, so a human can triage them. Each one
// aborts (and rolls back) the current committee's transaction.
var (
	// ErrEvidenceMismatch: a meeting's stored evidence carries a different
	// source ID than the freshly scraped one. Evidence identity changing
	// under a stable meeting number is never expected.
	ErrEvidenceMismatch = errors.New("evidence source ID mismatch")

	// ErrEvidenceCollision: the scraped evidence source ID already exists on
	// another document in the store.
	ErrEvidenceCollision = errors.New("evidence source ID already exists")

	// ErrCancelledWithEvidence: a cancelled row matched a persisted meeting
	// that has evidence attached. Deleting it would orphan the evidence.
	ErrCancelledWithEvidence = errors.New("cancelled meeting has evidence attached")
)
