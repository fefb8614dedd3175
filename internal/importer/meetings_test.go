package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/parl-committees/internal/model"
	"github.com/pfrederiksen/parl-committees/internal/scrape"
	"github.com/pfrederiksen/parl-committees/internal/store"
)

// activeRow builds a plausible non-cancelled meeting row.
func activeRow(number int, sourceID int64) scrape.MeetingRow {
	return scrape.MeetingRow{
		SourceID:  sourceID,
		Number:    number,
		DateLabel: "Monday, March 11, 2024",
		TimeText:  "11:00 a.m. - 1:00 p.m. (EST)",
	}
}

func cancelledRow(number int, sourceID int64) scrape.MeetingRow {
	return scrape.MeetingRow{
		SourceID:  sourceID,
		Number:    number,
		Cancelled: true,
	}
}

func seedMeeting(t *testing.T, st *store.Store, committee *model.Committee, session *model.Session, number int, sourceID int64) *model.CommitteeMeeting {
	t.Helper()
	meeting := &model.CommitteeMeeting{
		CommitteeID: committee.ID,
		SessionID:   session.ID,
		Number:      number,
		SourceID:    sourceID,
	}
	require.NoError(t, st.SaveMeeting(context.Background(), meeting))
	return meeting
}

func seedEvidence(t *testing.T, st *store.Store, session *model.Session, meeting *model.CommitteeMeeting, sourceID int64) *model.Document {
	t.Helper()
	ctx := context.Background()
	doc := &model.Document{SourceID: sourceID, SessionID: session.ID, DocumentType: model.DocTypeEvidence}
	require.NoError(t, st.CreateDocument(ctx, doc))
	meeting.EvidenceID = &doc.ID
	meeting.Evidence = doc
	require.NoError(t, st.SaveMeeting(ctx, meeting))
	return doc
}

func meetingTestSetup(t *testing.T) (*Importer, *store.Store, *model.Committee, *model.Session) {
	t.Helper()
	imp, st, _ := newTestImporter(t)
	ctx := context.Background()
	session, err := st.GetOrCreateSession(ctx, 44, 1)
	require.NoError(t, err)
	committee := seedCommittee(t, st, session, "Public Safety and National Security", "SECU")
	return imp, st, committee, session
}

func TestReconcileCreatesMeeting(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, activeRow(3, 500)))

	meeting, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, meeting)
	assert.Equal(t, int64(500), meeting.SourceID)
	assert.Equal(t, "11:00", meeting.StartTime)
	assert.Equal(t, "13:00", meeting.EndTime)
	assert.Equal(t, "2024-03-11", meeting.Date.Format("2006-01-02"))
}

func TestReconcileCancelledDeletesMeeting(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	seedMeeting(t, st, committee, session, 3, 500)

	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, cancelledRow(3, 500)))

	meeting, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	assert.Nil(t, meeting)

	// Deleting an already-absent meeting is a no-op.
	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, cancelledRow(3, 500)))
}

func TestReconcileCancelledIgnoresOtherSourceID(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	seedMeeting(t, st, committee, session, 3, 500)

	// A cancelled row for a different instance of the same slot must not
	// delete the stored meeting.
	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, cancelledRow(3, 600)))

	meeting, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, meeting)
	assert.Equal(t, int64(500), meeting.SourceID)
}

func TestReconcileCancelledWithEvidenceIsHardError(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	meeting := seedMeeting(t, st, committee, session, 3, 500)
	seedEvidence(t, st, session, meeting, 7890)

	err := imp.reconcileMeeting(ctx, st, committee, session, cancelledRow(3, 500))
	require.ErrorIs(t, err, ErrCancelledWithEvidence)

	still, lookupErr := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, lookupErr)
	assert.NotNil(t, still)
}

func TestReconcileReplacesStaleSourceID(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	seedMeeting(t, st, committee, session, 3, 500)

	// Number 3 reused by a new instance; the stale record has no evidence,
	// so it is replaced.
	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, activeRow(3, 600)))

	meeting, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, meeting)
	assert.Equal(t, int64(600), meeting.SourceID)

	var count int64
	require.NoError(t, st.DB().Model(&model.CommitteeMeeting{}).
		Where("committee_id = ? AND session_id = ? AND number = ?", committee.ID, session.ID, 3).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReconcileSourceIDMismatchWithEvidenceSkipsRow(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	meeting := seedMeeting(t, st, committee, session, 3, 500)
	seedEvidence(t, st, session, meeting, 7890)

	// Conflict is logged and the row skipped; persisted state untouched.
	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, activeRow(3, 600)))

	stored, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(500), stored.SourceID)
	require.NotNil(t, stored.EvidenceID)
}

func TestReconcileAssignsSourceIDToLegacyRecord(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	seedMeeting(t, st, committee, session, 3, 0)

	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, activeRow(3, 500)))

	meeting, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, meeting)
	assert.Equal(t, int64(500), meeting.SourceID)
}

func TestReconcileEvidenceMismatchIsHardError(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	meeting := seedMeeting(t, st, committee, session, 3, 500)
	seedEvidence(t, st, session, meeting, 7890)

	row := activeRow(3, 500)
	row.EvidenceURL = "/DocumentViewer/en/Evidence?DocId=9999&Language=E"

	err := imp.reconcileMeeting(ctx, st, committee, session, row)
	require.ErrorIs(t, err, ErrEvidenceMismatch)
}

func TestReconcileEvidenceCollisionIsHardError(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	// Source ID 7890 already belongs to another meeting's evidence.
	other := seedMeeting(t, st, committee, session, 1, 400)
	seedEvidence(t, st, session, other, 7890)

	row := activeRow(3, 500)
	row.EvidenceURL = "/DocumentViewer/en/Evidence?DocId=7890&Language=E"

	err := imp.reconcileMeeting(ctx, st, committee, session, row)
	require.ErrorIs(t, err, ErrEvidenceCollision)
}

func TestReconcileMatchingEvidenceSkipsFieldUpdates(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	meeting := seedMeeting(t, st, committee, session, 3, 500)
	seedEvidence(t, st, session, meeting, 7890)

	row := activeRow(3, 500)
	row.EvidenceURL = "/DocumentViewer/en/Evidence?DocId=7890&Language=E"
	row.Webcast = true

	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, row))

	stored, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, stored)
	// Matching evidence settles the row before flags are applied.
	assert.False(t, stored.Webcast)
	assert.Empty(t, stored.StartTime)
}

func TestReconcileStickyFlags(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	meeting := seedMeeting(t, st, committee, session, 3, 500)
	meeting.Televised = true
	meeting.Travel = true
	require.NoError(t, st.SaveMeeting(ctx, meeting))

	row := activeRow(3, 500)
	row.Webcast = true

	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, row))

	stored, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, stored)
	// Televised and travel can be set outside the scraper and never
	// downgrade; webcast tracks the page.
	assert.True(t, stored.Televised)
	assert.True(t, stored.Travel)
	assert.True(t, stored.Webcast)
}

func TestReconcileBadTimePropagates(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	row := activeRow(3, 500)
	row.TimeText = "to be determined"

	err := imp.reconcileMeeting(ctx, st, committee, session, row)
	assert.Error(t, err)
}

func TestReconcileStudyLinkFailureDoesNotAbortRow(t *testing.T) {
	imp, st, committee, session := meetingTestSetup(t)
	ctx := context.Background()

	row := activeRow(3, 500)
	// The fetcher has no page for this activity, so resolution fails.
	row.Studies = []scrape.StudyLink{{Name: "Broken Study", URL: "/Committees/en/SECU/StudyActivity?studyActivityId=999"}}

	require.NoError(t, imp.reconcileMeeting(ctx, st, committee, session, row))

	meeting, err := st.MeetingBySlot(ctx, committee.ID, session.ID, 3)
	require.NoError(t, err)
	assert.NotNil(t, meeting)
}

func TestImportCommitteeMeetingsRollsBackOnHardError(t *testing.T) {
	imp, st, fetcher := newTestImporter(t)
	ctx := context.Background()

	session, err := st.GetOrCreateSession(ctx, 44, 1)
	require.NoError(t, err)
	committee := seedCommittee(t, st, session, "Public Safety and National Security", "SECU")

	// Evidence 7890 already exists on another committee's meeting.
	other, _, err := st.GetOrCreateCommittee(ctx, "Finance", nil)
	require.NoError(t, err)
	otherMeeting := &model.CommitteeMeeting{CommitteeID: other.ID, SessionID: session.ID, Number: 9, SourceID: 900}
	require.NoError(t, st.SaveMeeting(ctx, otherMeeting))
	seedEvidence(t, st, session, otherMeeting, 7890)

	fetcher.pages[testBaseURL+"/Committees/en/SECU/Meetings?parl=44&session=1"] = fixture(t, "meetings.html")
	fetcher.pages[testBaseURL+"/Committees/en/SECU/StudyActivity?studyActivityId=555"] = fixture(t, "activity_en.html")
	fetcher.pages[testBaseURL+"/Committees/fr/SECU/StudyActivity?studyActivityId=555"] = fixture(t, "activity_fr.html")

	err = imp.ImportCommitteeMeetings(ctx, committee, session)
	require.ErrorIs(t, err, ErrEvidenceCollision)

	// The whole committee rolled back: no meetings persisted for it.
	var count int64
	require.NoError(t, st.DB().Model(&model.CommitteeMeeting{}).
		Where("committee_id = ?", committee.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}
