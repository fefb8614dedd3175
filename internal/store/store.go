package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pfrederiksen/parl-committees/internal/logger"
	"github.com/pfrederiksen/parl-committees/internal/model"
)

// Store is the repository over the committee schema. Methods that look
// something up return (nil, nil) when no record exists; uniqueness is
// enforced by the database indexes declared on the models.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{
		db:  db,
		log: baseLog.With("component", "store"),
	}
}

// DB exposes the underlying handle for migration and test setup.
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn against a transaction-scoped Store. Any error returned
// by fn rolls back every mutation made through that Store.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// GetOrCreateSession resolves the session row for a parliament/session number
// pair, creating it on first use.
func (s *Store) GetOrCreateSession(ctx context.Context, parliamentNum, sessNum int) (*model.Session, error) {
	session := model.Session{ParliamentNum: parliamentNum, SessNum: sessNum}
	err := s.db.WithContext(ctx).
		Where(model.Session{ParliamentNum: parliamentNum, SessNum: sessNum}).
		FirstOrCreate(&session).Error
	if err != nil {
		return nil, fmt.Errorf("resolving session %d-%d: %w", parliamentNum, sessNum, err)
	}
	return &session, nil
}

// CommitteeByAcronym resolves a committee through its session-scoped acronym
// binding.
func (s *Store) CommitteeByAcronym(ctx context.Context, sessionID uint, acronym string) (*model.Committee, error) {
	var binding model.CommitteeInSession
	err := s.db.WithContext(ctx).
		Preload("Committee").
		Where("session_id = ? AND acronym = ?", sessionID, acronym).
		Limit(1).
		Find(&binding).Error
	if err != nil {
		return nil, err
	}
	if binding.ID == 0 {
		return nil, nil
	}
	return &binding.Committee, nil
}

// Acronym returns the committee's acronym within the given session.
func (s *Store) Acronym(ctx context.Context, committeeID, sessionID uint) (string, error) {
	var binding model.CommitteeInSession
	err := s.db.WithContext(ctx).
		Where("committee_id = ? AND session_id = ?", committeeID, sessionID).
		Limit(1).
		Find(&binding).Error
	if err != nil {
		return "", err
	}
	if binding.ID == 0 {
		return "", fmt.Errorf("no acronym for committee %d in session %d", committeeID, sessionID)
	}
	return binding.Acronym, nil
}

// GetOrCreateCommittee resolves a committee by exact English name and parent,
// creating it with a fresh slug when absent. The created flag tells the
// caller a brand-new entity appeared, which is worth flagging for review.
func (s *Store) GetOrCreateCommittee(ctx context.Context, nameEn string, parentID *uint) (*model.Committee, bool, error) {
	nameEn = strings.TrimSpace(nameEn)

	var committee model.Committee
	q := s.db.WithContext(ctx).Where("name_en = ?", nameEn)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.Limit(1).Find(&committee).Error; err != nil {
		return nil, false, err
	}
	if committee.ID != 0 {
		return &committee, false, nil
	}

	committee = model.Committee{
		NameEn:   nameEn,
		ParentID: parentID,
		Display:  true,
	}
	slug, err := s.availableSlug(ctx, nameEn)
	if err != nil {
		return nil, false, err
	}
	committee.Slug = slug
	if err := s.db.WithContext(ctx).Create(&committee).Error; err != nil {
		return nil, false, fmt.Errorf("creating committee %q: %w", nameEn, err)
	}
	return &committee, true, nil
}

// availableSlug finds an unused slug for a new committee, suffixing a counter
// when the base form is taken.
func (s *Store) availableSlug(ctx context.Context, nameEn string) (string, error) {
	base := model.Slugify(nameEn)
	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Committee{}).
			Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetOrCreateCommitteeInSession ensures the acronym binding for a committee
// within a session.
func (s *Store) GetOrCreateCommitteeInSession(ctx context.Context, committeeID, sessionID uint, acronym string) error {
	binding := model.CommitteeInSession{
		CommitteeID: committeeID,
		SessionID:   sessionID,
		Acronym:     acronym,
	}
	err := s.db.WithContext(ctx).
		Where(model.CommitteeInSession{CommitteeID: committeeID, SessionID: sessionID, Acronym: acronym}).
		FirstOrCreate(&binding).Error
	if err != nil {
		return fmt.Errorf("binding committee %d to session %d as %s: %w", committeeID, sessionID, acronym, err)
	}
	return nil
}

// CommitteesInSession lists the committees bound to a session, parents before
// subcommittees so parent activity linkage resolves first.
func (s *Store) CommitteesInSession(ctx context.Context, sessionID uint) ([]model.Committee, error) {
	var committees []model.Committee
	err := s.db.WithContext(ctx).
		Joins("JOIN committee_in_session cis ON cis.committee_id = committee.id").
		Where("cis.session_id = ?", sessionID).
		Order("committee.parent_id IS NOT NULL, committee.id").
		Find(&committees).Error
	if err != nil {
		return nil, err
	}
	return committees, nil
}

// MeetingBySlot looks up a meeting by its (committee, session, number) slot,
// ignoring source ID. Evidence is preloaded: reconciliation decisions hinge
// on it.
func (s *Store) MeetingBySlot(ctx context.Context, committeeID, sessionID uint, number int) (*model.CommitteeMeeting, error) {
	var meeting model.CommitteeMeeting
	err := s.db.WithContext(ctx).
		Preload("Evidence").
		Where("committee_id = ? AND session_id = ? AND number = ?", committeeID, sessionID, number).
		Limit(1).
		Find(&meeting).Error
	if err != nil {
		return nil, err
	}
	if meeting.ID == 0 {
		return nil, nil
	}
	return &meeting, nil
}

// MeetingBySlotSource looks up a meeting by slot and source ID together, the
// form the cancellation branch needs.
func (s *Store) MeetingBySlotSource(ctx context.Context, committeeID, sessionID uint, number int, sourceID int64) (*model.CommitteeMeeting, error) {
	var meeting model.CommitteeMeeting
	err := s.db.WithContext(ctx).
		Where("committee_id = ? AND session_id = ? AND number = ? AND source_id = ?",
			committeeID, sessionID, number, sourceID).
		Limit(1).
		Find(&meeting).Error
	if err != nil {
		return nil, err
	}
	if meeting.ID == 0 {
		return nil, nil
	}
	return &meeting, nil
}

// SaveMeeting inserts or updates a meeting record.
func (s *Store) SaveMeeting(ctx context.Context, meeting *model.CommitteeMeeting) error {
	return s.db.WithContext(ctx).Omit("Activities", "Evidence").Save(meeting).Error
}

// DeleteMeeting removes a meeting and its activity links. Callers must have
// checked that no evidence is attached.
func (s *Store) DeleteMeeting(ctx context.Context, meeting *model.CommitteeMeeting) error {
	if err := s.db.WithContext(ctx).Model(meeting).Association("Activities").Clear(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(meeting).Error
}

// AddMeetingActivity links an activity to a meeting; re-linking an existing
// pair is a no-op.
func (s *Store) AddMeetingActivity(ctx context.Context, meeting *model.CommitteeMeeting, activity *model.CommitteeActivity) error {
	return s.db.WithContext(ctx).Model(meeting).Omit("Activities.*").Association("Activities").Append(activity)
}

// DocumentSourceIDExists reports whether any document already carries the
// given source identifier.
func (s *Store) DocumentSourceIDExists(ctx context.Context, sourceID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Document{}).
		Where("source_id = ?", sourceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateDocument persists a new document record.
func (s *Store) CreateDocument(ctx context.Context, doc *model.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

// ActivityBindingBySourceID resolves a session-scoped activity binding by the
// source activity identifier, with the activity preloaded.
func (s *Store) ActivityBindingBySourceID(ctx context.Context, sourceID int64) (*model.CommitteeActivityInSession, error) {
	var binding model.CommitteeActivityInSession
	err := s.db.WithContext(ctx).
		Preload("Activity").
		Where("source_id = ?", sourceID).
		Limit(1).
		Find(&binding).Error
	if err != nil {
		return nil, err
	}
	if binding.ID == 0 {
		return nil, nil
	}
	return &binding, nil
}

// ActivityByName resolves an activity by committee and English title, which
// catches studies recurring in a new session under a new source identifier.
func (s *Store) ActivityByName(ctx context.Context, committeeID uint, nameEn string) (*model.CommitteeActivity, error) {
	var activity model.CommitteeActivity
	err := s.db.WithContext(ctx).
		Where("committee_id = ? AND name_en = ?", committeeID, nameEn).
		Limit(1).
		Find(&activity).Error
	if err != nil {
		return nil, err
	}
	if activity.ID == 0 {
		return nil, nil
	}
	return &activity, nil
}

// CreateActivity persists a new committee activity.
func (s *Store) CreateActivity(ctx context.Context, activity *model.CommitteeActivity) error {
	return s.db.WithContext(ctx).Create(activity).Error
}

// CreateActivityBinding persists a session binding for an activity.
func (s *Store) CreateActivityBinding(ctx context.Context, binding *model.CommitteeActivityInSession) error {
	return s.db.WithContext(ctx).Create(binding).Error
}

// HasOtherActivityBinding reports whether the (session, activity) pair is
// already bound under a different source identifier, the signature of the
// source re-keying an activity.
func (s *Store) HasOtherActivityBinding(ctx context.Context, sessionID, activityID uint, sourceID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.CommitteeActivityInSession{}).
		Where("session_id = ? AND committee_activity_id = ? AND source_id <> ?",
			sessionID, activityID, sourceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

