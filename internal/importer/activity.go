package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pfrederiksen/parl-committees/internal/model"
	"github.com/pfrederiksen/parl-committees/internal/scrape"
	"github.com/pfrederiksen/parl-committees/internal/store"
)

// resolveActivity resolves a study link to a persisted activity.
//
// The fast path hits the session-scoped source-ID binding and returns without
// any network fetch. Otherwise the activity page is fetched (English, then
// French for a brand-new activity) and deduplicated by (committee, English
// title), since the same study recurs across sessions under fresh source IDs.
func (imp *Importer) resolveActivity(ctx context.Context, tx *store.Store, activityURL string, committee *model.Committee, session *model.Session) (*model.CommitteeActivity, error) {
	sourceID, err := scrape.ExtractActivityID(activityURL)
	if err != nil {
		return nil, err
	}

	binding, err := tx.ActivityBindingBySourceID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if binding != nil {
		return &binding.Activity, nil
	}

	absURL, err := imp.resolveURL(activityURL)
	if err != nil {
		return nil, err
	}
	doc, err := imp.fetcher.Fetch(ctx, absURL)
	if err != nil {
		return nil, fmt.Errorf("fetching activity %d: %w", sourceID, err)
	}
	nameEn, err := scrape.ParseActivityTitle(doc)
	if err != nil {
		return nil, fmt.Errorf("activity %d: %w", sourceID, err)
	}

	activity, err := tx.ActivityByName(ctx, committee.ID, nameEn)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		frURL := strings.Replace(absURL, "/en/", "/fr/", 1)
		frDoc, err := imp.fetcher.Fetch(ctx, frURL)
		if err != nil {
			return nil, fmt.Errorf("fetching French activity %d: %w", sourceID, err)
		}
		nameFr, err := scrape.ParseActivityTitle(frDoc)
		if err != nil {
			return nil, fmt.Errorf("French activity %d: %w", sourceID, err)
		}
		activity = &model.CommitteeActivity{
			CommitteeID: committee.ID,
			NameEn:      nameEn,
			NameFr:      nameFr,
			Study:       true,
		}
		if err := tx.CreateActivity(ctx, activity); err != nil {
			return nil, err
		}
	}

	// The source occasionally re-keys an activity within a session. Creating
	// a second binding would trip the unique source-ID index, so accept the
	// anomaly and note it.
	dup, err := tx.HasOtherActivityBinding(ctx, session.ID, activity.ID, sourceID)
	if err != nil {
		return nil, err
	}
	if dup {
		imp.log.Info("apparent duplicate activity source ID",
			"activity", activity.NameEn,
			"committee", committee.Slug,
			"session_id", session.ID,
			"source_id", sourceID)
		return activity, nil
	}

	if err := tx.CreateActivityBinding(ctx, &model.CommitteeActivityInSession{
		SessionID:           session.ID,
		CommitteeActivityID: activity.ID,
		SourceID:            sourceID,
	}); err != nil {
		return nil, err
	}
	return activity, nil
}
