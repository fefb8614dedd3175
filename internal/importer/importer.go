package importer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pfrederiksen/parl-committees/internal/fetch"
	"github.com/pfrederiksen/parl-committees/internal/logger"
	"github.com/pfrederiksen/parl-committees/internal/model"
	"github.com/pfrederiksen/parl-committees/internal/scrape"
	"github.com/pfrederiksen/parl-committees/internal/store"
)

const (
	committeeListPath     = "/Committees/en/List?parl=%d&session=%d"
	committeeMeetingsPath = "/Committees/en/%s/Meetings?parl=%d&session=%d"
)

// Importer runs the scheduled committee imports: the committee directory
// first, then per-committee meeting reconciliation. It issues one blocking
// fetch at a time; callers must not run two imports for the same committee
// and session concurrently.
type Importer struct {
	store   *store.Store
	fetcher fetch.Fetcher
	log     *logger.Logger
	baseURL string
}

func New(st *store.Store, fetcher fetch.Fetcher, log *logger.Logger, baseURL string) *Importer {
	return &Importer{
		store:   st,
		fetcher: fetcher,
		log:     log.With("component", "importer"),
		baseURL: baseURL,
	}
}

// ImportCommitteeList fetches the committee directory for a session and
// creates or updates committees and their session acronym bindings,
// recursing into subcommittees. The whole import is one transaction.
func (imp *Importer) ImportCommitteeList(ctx context.Context, session *model.Session) error {
	listURL := imp.baseURL + fmt.Sprintf(committeeListPath, session.ParliamentNum, session.SessNum)

	doc, err := imp.fetcher.Fetch(ctx, listURL)
	if err != nil {
		return fmt.Errorf("fetching committee list: %w", err)
	}
	entries, err := scrape.ParseCommitteeList(doc)
	if err != nil {
		return fmt.Errorf("parsing committee list: %w", err)
	}
	if len(entries) == 0 {
		// Almost certainly a page-structure change; worth a loud log but
		// not a failed run.
		imp.log.Error("no committees in list",
			"url", listURL,
			"parliament", session.ParliamentNum,
			"session", session.SessNum)
		return nil
	}

	return imp.store.Transaction(ctx, func(tx *store.Store) error {
		for _, entry := range entries {
			committee, err := imp.ensureCommittee(ctx, tx, session, entry.Name, entry.Acronym, nil)
			if err != nil {
				return err
			}
			for _, sub := range entry.Subcommittees {
				if _, err := imp.ensureCommittee(ctx, tx, session, sub.Name, sub.Acronym, &committee.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ensureCommittee resolves a committee by session-scoped acronym, falling
// back to resolve-or-create by name, and guarantees the acronym binding
// exists. A brand-new committee entity is flagged for human review.
func (imp *Importer) ensureCommittee(ctx context.Context, tx *store.Store, session *model.Session, name, acronym string, parentID *uint) (*model.Committee, error) {
	committee, err := tx.CommitteeByAcronym(ctx, session.ID, acronym)
	if err != nil {
		return nil, err
	}
	if committee != nil {
		return committee, nil
	}

	committee, created, err := tx.GetOrCreateCommittee(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	if created {
		imp.log.Warn("creating committee",
			"name", committee.NameEn,
			"slug", committee.Slug,
			"acronym", acronym)
	}
	if err := tx.GetOrCreateCommitteeInSession(ctx, committee.ID, session.ID, acronym); err != nil {
		return nil, err
	}
	return committee, nil
}

// ImportCommitteeDocuments runs the meeting import for every committee bound
// to the session, parents before subcommittees. A committee whose import
// fails is rolled back and logged; the remaining committees still run.
func (imp *Importer) ImportCommitteeDocuments(ctx context.Context, session *model.Session) error {
	committees, err := imp.store.CommitteesInSession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("listing committees for session %d-%d: %w", session.ParliamentNum, session.SessNum, err)
	}
	for i := range committees {
		committee := &committees[i]
		if err := imp.ImportCommitteeMeetings(ctx, committee, session); err != nil {
			imp.log.Error("committee meeting import failed",
				"committee", committee.Slug,
				"err", err)
		}
	}
	return nil
}

// resolveURL makes a scraped href absolute against the site base URL.
func (imp *Importer) resolveURL(href string) (string, error) {
	base, err := url.Parse(imp.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("unparseable link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
