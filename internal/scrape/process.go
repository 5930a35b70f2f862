package scrape

import (
	"context"
	"database/sql"
	"time"

	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/store"
)

type MergeFailure struct {
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

type MergeReport struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Failed   int            `json:"failed"`
	Failures []MergeFailure `json:"failures,omitempty"`
}

// MergeListings upserts each listing keyed on its link. Best-effort per row:
// a rejected write is recorded and the batch continues, so one bad row never
// discards an otherwise successful scrape.
func MergeListings(ctx context.Context, db *sql.DB, listings []domain.JobListing, onJob func(inserted bool)) MergeReport {
	var rep MergeReport

	for _, j := range listings {
		inserted, err := store.UpsertJob(ctx, db, store.JobUpsert{
			Company:     j.Company,
			Title:       j.Title,
			Location:    j.Location,
			Link:        j.Link,
			Sponsorship: j.Sponsorship,
		}, time.Now())
		if err != nil {
			rep.Failed++
			rep.Failures = append(rep.Failures, MergeFailure{Link: j.Link, Reason: err.Error()})
			continue
		}

		if inserted {
			rep.Inserted++
		} else {
			rep.Updated++
		}
		if onJob != nil {
			onJob(inserted)
		}
	}

	return rep
}
