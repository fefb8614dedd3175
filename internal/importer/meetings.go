package importer

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/parl-committees/internal/model"
	"github.com/pfrederiksen/parl-committees/internal/scrape"
	"github.com/pfrederiksen/parl-committees/internal/store"
)

// ImportCommitteeMeetings fetches a committee's meeting list for a session
// and reconciles each row into the persisted meeting set. The whole committee
// runs in one transaction: a hard error rolls back every row.
func (imp *Importer) ImportCommitteeMeetings(ctx context.Context, committee *model.Committee, session *model.Session) error {
	acronym, err := imp.store.Acronym(ctx, committee.ID, session.ID)
	if err != nil {
		return err
	}
	meetingsURL := imp.baseURL + fmt.Sprintf(committeeMeetingsPath, acronym, session.ParliamentNum, session.SessNum)

	doc, err := imp.fetcher.Fetch(ctx, meetingsURL)
	if err != nil {
		return fmt.Errorf("fetching meetings for %s: %w", acronym, err)
	}
	rows, err := scrape.ParseMeetingList(doc)
	if err != nil {
		return fmt.Errorf("parsing meetings for %s: %w", acronym, err)
	}

	return imp.store.Transaction(ctx, func(tx *store.Store) error {
		for _, row := range rows {
			if err := imp.reconcileMeeting(ctx, tx, committee, session, row); err != nil {
				return fmt.Errorf("meeting %d (source %d) of %s: %w", row.Number, row.SourceID, acronym, err)
			}
		}
		return nil
	})
}

// reconcileMeeting merges one scraped row into the persisted meeting set.
//
// A meeting slot is identified by (committee, session, number); the source ID
// identifies the meeting instance occupying it. Cancellation vacates a slot,
// and a later instance with a new source ID may reuse the number. A meeting
// that has evidence attached is settled: its source ID must never change
// underneath the evidence.
func (imp *Importer) reconcileMeeting(ctx context.Context, tx *store.Store, committee *model.Committee, session *model.Session, row scrape.MeetingRow) error {
	if row.Cancelled {
		return imp.reconcileCancelled(ctx, tx, committee, session, row)
	}

	// Look up by slot alone: numbers get reused by new meetings with fresh
	// source IDs.
	meeting, err := tx.MeetingBySlot(ctx, committee.ID, session.ID, row.Number)
	if err != nil {
		return err
	}
	if meeting == nil {
		meeting = &model.CommitteeMeeting{
			CommitteeID: committee.ID,
			SessionID:   session.ID,
			Number:      row.Number,
		}
	}

	if meeting.SourceID != 0 {
		if meeting.SourceID != row.SourceID {
			if meeting.EvidenceID != nil {
				// Hard conflict: reassigning the source ID under evidence
				// would corrupt the evidence linkage. Leave the persisted
				// record untouched and move on.
				imp.log.Error("source ID mismatch",
					"committee", committee.Slug,
					"number", row.Number,
					"stored_source_id", meeting.SourceID,
					"scraped_source_id", row.SourceID)
				return nil
			}
			// No evidence yet: the stored record is a stale instance whose
			// number was cancelled and reused. Replace it.
			if err := tx.DeleteMeeting(ctx, meeting); err != nil {
				return err
			}
			meeting = &model.CommitteeMeeting{
				CommitteeID: committee.ID,
				SessionID:   session.ID,
				Number:      row.Number,
				SourceID:    row.SourceID,
			}
		}
	} else {
		meeting.SourceID = row.SourceID
		if meeting.ID != 0 {
			// Persist the assignment now so lookups later in this
			// transaction see a stable source ID.
			if err := tx.SaveMeeting(ctx, meeting); err != nil {
				return err
			}
		}
	}

	date, err := scrape.MeetingDate(row.DateLabel, row.RowClass)
	if err != nil {
		return err
	}
	meeting.Date = date

	start, end, err := scrape.ParseMeetingTime(row.TimeText)
	if err != nil {
		return err
	}
	meeting.StartTime = start.String()
	if end != nil {
		meeting.EndTime = end.String()
	}

	if row.NoticeURL != "" {
		id, err := scrape.ExtractDocID(row.NoticeURL)
		if err != nil {
			return err
		}
		meeting.Notice = id
	}
	if row.MinutesURL != "" {
		id, err := scrape.ExtractDocID(row.MinutesURL)
		if err != nil {
			return err
		}
		meeting.Minutes = id
	}

	if row.EvidenceURL != "" {
		done, err := imp.linkEvidence(ctx, tx, meeting, session, row.EvidenceURL)
		if err != nil {
			return err
		}
		if done {
			// Evidence already matches: the row was settled by a prior run.
			// Note this also skips flag and date updates for the row, which
			// mirrors the long-standing scraper behaviour.
			return nil
		}
	}

	meeting.Webcast = row.Webcast
	meeting.InCamera = row.InCamera
	// Televised and travel may be set by hand outside the scraper; never
	// downgrade them.
	if !meeting.Televised {
		meeting.Televised = row.Televised
	}
	if !meeting.Travel {
		meeting.Travel = row.Travel
	}

	if err := tx.SaveMeeting(ctx, meeting); err != nil {
		return err
	}

	for _, study := range row.Studies {
		if err := imp.attachStudy(ctx, tx, meeting, committee, session, study); err != nil {
			// One broken study link must not take down the meeting or the
			// run.
			imp.log.Error("error fetching committee activity",
				"committee", committee.Slug,
				"number", row.Number,
				"study", study.Name,
				"url", study.URL,
				"err", err)
		}
	}
	return nil
}

// reconcileCancelled handles a row marked cancelled: an existing meeting with
// the same slot and source ID is deleted, unless evidence is attached, which
// is an inconsistency the importer refuses to resolve on its own.
func (imp *Importer) reconcileCancelled(ctx context.Context, tx *store.Store, committee *model.Committee, session *model.Session, row scrape.MeetingRow) error {
	meeting, err := tx.MeetingBySlotSource(ctx, committee.ID, session.ID, row.Number, row.SourceID)
	if err != nil {
		return err
	}
	if meeting == nil {
		return nil
	}
	if meeting.EvidenceID != nil {
		return fmt.Errorf("%w: %s meeting %d source %d", ErrCancelledWithEvidence, committee.Slug, row.Number, row.SourceID)
	}
	if err := tx.DeleteMeeting(ctx, meeting); err != nil {
		return err
	}
	imp.log.Warn("deleting cancelled meeting",
		"committee", committee.Slug,
		"number", row.Number,
		"source_id", row.SourceID)
	return nil
}

// linkEvidence attaches the evidence document referenced by a meeting row.
// It returns done=true when the stored evidence already matches and the rest
// of the row's updates should be skipped.
func (imp *Importer) linkEvidence(ctx context.Context, tx *store.Store, meeting *model.CommitteeMeeting, session *model.Session, evidenceURL string) (done bool, err error) {
	evidenceID, err := scrape.ExtractDocID(evidenceURL)
	if err != nil {
		return false, err
	}

	if meeting.EvidenceID != nil {
		if meeting.Evidence == nil {
			return false, fmt.Errorf("meeting %d evidence not loaded", meeting.ID)
		}
		if meeting.Evidence.SourceID != evidenceID {
			return false, fmt.Errorf("%w: stored %d, scraped %d",
				ErrEvidenceMismatch, meeting.Evidence.SourceID, evidenceID)
		}
		return true, nil
	}

	exists, err := tx.DocumentSourceIDExists(ctx, evidenceID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, fmt.Errorf("%w: %d", ErrEvidenceCollision, evidenceID)
	}

	doc := &model.Document{
		SourceID:     evidenceID,
		Date:         meeting.Date,
		SessionID:    session.ID,
		DocumentType: model.DocTypeEvidence,
	}
	if err := tx.CreateDocument(ctx, doc); err != nil {
		return false, err
	}
	meeting.EvidenceID = &doc.ID
	meeting.Evidence = doc
	return false, nil
}

// attachStudy resolves one study link and adds the activity to the meeting.
func (imp *Importer) attachStudy(ctx context.Context, tx *store.Store, meeting *model.CommitteeMeeting, committee *model.Committee, session *model.Session, study scrape.StudyLink) error {
	activity, err := imp.resolveActivity(ctx, tx, study.URL, committee, session)
	if err != nil {
		return err
	}
	return tx.AddMeetingActivity(ctx, meeting, activity)
}
