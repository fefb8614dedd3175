package model

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DocTypeEvidence marks a Document as the official transcript of one meeting.
const DocTypeEvidence = "E"

// Session is a numbered sitting period of a parliament, e.g. parliament 44,
// session 1. All acronym and activity bindings are scoped to a session.
type Session struct {
	ID            uint `gorm:"primaryKey"`
	ParliamentNum int  `gorm:"not null;uniqueIndex:idx_session_parl_sess,priority:1"`
	SessNum       int  `gorm:"not null;uniqueIndex:idx_session_parl_sess,priority:2"`
	Name          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Session) TableName() string { return "session" }

// Committee has a stable identity independent of any session. Acronyms live
// on CommitteeInSession because they change across parliaments.
type Committee struct {
	ID       uint   `gorm:"primaryKey"`
	Slug     string `gorm:"size:100;not null;uniqueIndex"`
	NameEn   string `gorm:"size:500;not null"`
	NameFr   string `gorm:"size:500"`
	ParentID *uint  `gorm:"index"`
	Parent   *Committee
	// Display hides procedural committees from listing pages; it is managed
	// by hand, never by the importer.
	Display   bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Committee) TableName() string { return "committee" }

// CommitteeInSession binds a committee to a session under a session-scoped
// acronym. Lookup by acronym is only meaningful within one session.
type CommitteeInSession struct {
	ID          uint   `gorm:"primaryKey"`
	CommitteeID uint   `gorm:"not null;uniqueIndex:idx_cis_committee_session,priority:1"`
	SessionID   uint   `gorm:"not null;uniqueIndex:idx_cis_committee_session,priority:2;uniqueIndex:idx_cis_session_acronym,priority:1"`
	Acronym     string `gorm:"size:10;not null;uniqueIndex:idx_cis_session_acronym,priority:2"`
	Committee   Committee
	CreatedAt   time.Time
}

func (CommitteeInSession) TableName() string { return "committee_in_session" }

// CommitteeActivity is a named subject of committee investigation (a study).
// The same study can span multiple sessions, so it is deduplicated by
// (committee, name_en) rather than by source identifier.
type CommitteeActivity struct {
	ID          uint   `gorm:"primaryKey"`
	CommitteeID uint   `gorm:"not null;uniqueIndex:idx_activity_committee_name,priority:1"`
	NameEn      string `gorm:"size:500;not null;uniqueIndex:idx_activity_committee_name,priority:2"`
	NameFr      string `gorm:"size:500"`
	Study       bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CommitteeActivity) TableName() string { return "committee_activity" }

// CommitteeActivityInSession binds an activity to a session via the
// source-provided activity identifier, the primary key for idempotent
// resolution.
type CommitteeActivityInSession struct {
	ID                  uint              `gorm:"primaryKey"`
	SessionID           uint              `gorm:"not null;index"`
	CommitteeActivityID uint              `gorm:"not null;index"`
	SourceID            int64             `gorm:"not null;uniqueIndex"`
	Activity            CommitteeActivity `gorm:"foreignKey:CommitteeActivityID"`
	CreatedAt           time.Time
}

func (CommitteeActivityInSession) TableName() string { return "committee_activity_in_session" }

// CommitteeMeeting is one meeting slot of a committee within a session.
// Number is the source-assigned 1-based sequence within (committee, session);
// SourceID is the stable identifier of the meeting instance. The two are
// distinct because cancelled and renumbered meetings rotate SourceID while
// Number can be vacated and later reused.
type CommitteeMeeting struct {
	ID          uint  `gorm:"primaryKey"`
	CommitteeID uint  `gorm:"not null;uniqueIndex:idx_meeting_slot,priority:1"`
	SessionID   uint  `gorm:"not null;uniqueIndex:idx_meeting_slot,priority:2"`
	Number      int   `gorm:"not null;uniqueIndex:idx_meeting_slot,priority:3"`
	SourceID    int64 `gorm:"index"`

	Date      time.Time `gorm:"type:date"`
	StartTime string    `gorm:"size:5"`
	EndTime   string    `gorm:"size:5"`

	Webcast   bool `gorm:"not null;default:false"`
	InCamera  bool `gorm:"not null;default:false"`
	Televised bool `gorm:"not null;default:false"`
	Travel    bool `gorm:"not null;default:false"`

	// Notice and Minutes are plain foreign document identifiers from the
	// source system; zero means absent.
	Notice  int64
	Minutes int64

	EvidenceID *uint
	Evidence   *Document `gorm:"foreignKey:EvidenceID"`

	Activities []*CommitteeActivity `gorm:"many2many:committee_meeting_activity"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CommitteeMeeting) TableName() string { return "committee_meeting" }

// Document is an evidence transcript owned by exactly one meeting. Its
// SourceID is unique across the whole store; a duplicate is a hard error
// during reconciliation, never a merge.
type Document struct {
	ID           uint      `gorm:"primaryKey"`
	SourceID     int64     `gorm:"not null;uniqueIndex"`
	Date         time.Time `gorm:"type:date"`
	SessionID    uint      `gorm:"not null;index"`
	DocumentType string    `gorm:"size:1;not null"`
	CreatedAt    time.Time
}

func (Document) TableName() string { return "document" }

// All lists every entity for migration, in dependency order.
func All() []any {
	return []any{
		&Session{},
		&Committee{},
		&CommitteeInSession{},
		&CommitteeActivity{},
		&CommitteeActivityInSession{},
		&Document{},
		&CommitteeMeeting{},
	}
}

// AutoMigrate creates or updates the schema for all entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts an English committee name into a URL slug. Slugs are
// stable external keys: once persisted they are never regenerated.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 100 {
		s = strings.Trim(s[:100], "-")
	}
	return s
}
