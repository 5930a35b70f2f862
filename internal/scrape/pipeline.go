package scrape

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"sponsorscout-engine/internal/config"
	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/scrape/simplify"
	"sponsorscout-engine/internal/scrape/types"
	"sponsorscout-engine/internal/sponsor"
)

// classifyWorkers bounds the classification pool. Classification is pure over
// an immutable reference set, so listings can be scored concurrently.
const classifyWorkers = 8

// SnapshotPath is where the last successful fetch is cached under dataDir.
func SnapshotPath(dataDir string) string {
	return filepath.Join(dataDir, "cache", "source_snapshot.json")
}

// Run executes one full pipeline pass: fetch, extract, classify, merge.
// Only a fetch with no snapshot to fall back on is fatal; everything after
// degrades to partial results with explicit counts.
func Run(ctx context.Context, db *sql.DB, cfg config.Config, src types.Fetcher, onJob func(inserted bool)) (domain.RunStats, error) {
	var stats domain.RunStats
	stats.StartedAt = time.Now().UTC().Format(time.RFC3339)

	snapPath := SnapshotPath(cfg.App.DataDir)

	body, err := src.Fetch(ctx)
	if err != nil {
		log.Printf("[pipeline] fetch failed: %v", err)
		snap, serr := LoadSnapshot(snapPath)
		if serr != nil {
			return stats, fmt.Errorf("fetch %s: %w", src.URL(), err)
		}
		log.Printf("[pipeline] using snapshot from %s (%d bytes)",
			snap.SavedAt.Format(time.RFC3339), len(snap.Body))
		body = snap.Body
		stats.FromSnapshot = true
	} else {
		if serr := SaveSnapshot(snapPath, Snapshot{
			SourceURL: src.URL(),
			SavedAt:   time.Now().UTC(),
			Body:      body,
		}); serr != nil {
			log.Printf("[pipeline] snapshot save failed: %v", serr)
		}
	}
	stats.FetchedBytes = len(body)

	candidates, rows, err := simplify.Extract(body)
	if err != nil {
		return stats, fmt.Errorf("extract: %w", err)
	}
	stats.Parsed = rows

	// Single validity gate: anything missing a required field stops here.
	listings := make([]domain.JobListing, 0, len(candidates))
	for _, c := range candidates {
		if !c.Valid() {
			log.Printf("[pipeline] dropped row company=%q title=%q link=%q", c.Company, c.Title, c.Link)
			continue
		}
		listings = append(listings, c)
	}
	stats.Valid = len(listings)

	classifier := buildClassifier(cfg)
	classifyAll(ctx, classifier, listings)
	for _, j := range listings {
		if j.Sponsorship == domain.SponsorshipLikely {
			stats.SponsorshipLikely++
		}
	}

	report := MergeListings(ctx, db, listings, onJob)
	stats.Inserted = report.Inserted
	stats.Updated = report.Updated
	stats.Failed = report.Failed
	for _, f := range report.Failures {
		log.Printf("[pipeline] merge failed link=%q: %s", f.Link, f.Reason)
	}

	stats.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	log.Printf("[pipeline] done parsed=%d valid=%d inserted=%d updated=%d failed=%d likely=%d",
		stats.Parsed, stats.Valid, stats.Inserted, stats.Updated, stats.Failed, stats.SponsorshipLikely)
	return stats, nil
}

// buildClassifier loads the reference set. Load failures degrade the
// classifier to always answering "No record found" — sponsorship tagging is
// enrichment, not a reason to lose a scrape.
func buildClassifier(cfg config.Config) *sponsor.Classifier {
	threshold := cfg.Sponsorship.FuzzyThreshold

	if len(cfg.Sponsorship.ReferenceFiles) == 0 {
		log.Printf("[sponsor] no reference files configured; tagging everything %q", domain.SponsorshipUnknown)
		return sponsor.NewClassifier(nil, threshold)
	}

	ref, err := sponsor.LoadReference(cfg.Sponsorship.ReferenceFiles, sponsor.LoaderOptions{
		MinCases: cfg.Sponsorship.MinCases,
	})
	if err != nil {
		log.Printf("[sponsor] reference load failed: %v; tagging everything %q", err, domain.SponsorshipUnknown)
		return sponsor.NewClassifier(nil, threshold)
	}

	log.Printf("[sponsor] loaded %d employers (threshold %d)", ref.Len(), threshold)
	return sponsor.NewClassifier(ref, threshold)
}

func classifyAll(ctx context.Context, c *sponsor.Classifier, listings []domain.JobListing) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(classifyWorkers)

	for i := range listings {
		i := i
		g.Go(func() error {
			listings[i].Sponsorship = c.Classify(listings[i].Company)
			return nil
		})
	}
	_ = g.Wait()
}
