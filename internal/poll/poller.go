package poll

import (
	"context"
	"database/sql"
	"log"
	"sync/atomic"
	"time"

	"sponsorscout-engine/internal/config"
	"sponsorscout-engine/internal/events"
	"sponsorscout-engine/internal/notify"
	"sponsorscout-engine/internal/scrape"
	"sponsorscout-engine/internal/scrape/simplify"
	"sponsorscout-engine/internal/scrape/types"
)

// StartPoller runs the pipeline on the configured interval. The interval is
// re-read from cfgVal each cycle so config changes apply without a restart.
func StartPoller(ctx context.Context, db *sql.DB, cfgVal *atomic.Value, scrapeStatus *atomic.Value, hub *events.Hub) {
	go func() {
		for {
			interval := 6 * time.Hour
			if cfgAny := cfgVal.Load(); cfgAny != nil {
				cfg := cfgAny.(config.Config)
				if cfg.Polling.ScrapeSeconds > 0 {
					interval = time.Duration(cfg.Polling.ScrapeSeconds) * time.Second
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}

			cfgAny := cfgVal.Load()
			if cfgAny == nil {
				continue
			}
			cfg := cfgAny.(config.Config)

			// A manual run may already be in flight.
			st := loadStatus(scrapeStatus)
			if st.Running {
				log.Printf("[poll] skipped: a scrape is already running")
				continue
			}

			st.Running = true
			st.LastRunAt = time.Now().UTC().Format(time.RFC3339)
			scrapeStatus.Store(st)

			RunOnce(ctx, db, cfg, scrapeStatus, hub)
		}
	}()
}

// RunOnce executes one pipeline pass, records the outcome in scrapeStatus,
// publishes SSE events and fires the completion notification.
func RunOnce(ctx context.Context, db *sql.DB, cfg config.Config, scrapeStatus *atomic.Value, hub *events.Hub) {
	src := simplify.New(simplify.Config{
		URL:     cfg.Source.URL,
		Timeout: time.Duration(cfg.Source.TimeoutSeconds) * time.Second,
	})

	stats, err := scrape.Run(ctx, db, cfg, src, func(inserted bool) {
		typ := events.TypeJobUpdated
		if inserted {
			typ = events.TypeJobCreated
		}
		hub.Publish(events.MakeEvent("", typ, 1, nil))
	})

	st := loadStatus(scrapeStatus)
	st.Running = false
	st.Inserted = stats.Inserted
	st.Updated = stats.Updated
	st.Failed = stats.Failed

	if err != nil {
		st.LastError = err.Error()
		log.Printf("[poll] error: %v", err)
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().UTC().Format(time.RFC3339)
		log.Printf("[poll] ok inserted=%d updated=%d failed=%d", stats.Inserted, stats.Updated, stats.Failed)
	}
	scrapeStatus.Store(st)

	hub.Publish(events.MakeEvent("", events.TypeRunCompleted, 1, stats))

	if err == nil && cfg.Notify.Enabled {
		notify.RunCompleted(ctx, stats)
	}
}

func loadStatus(v *atomic.Value) types.ScrapeStatus {
	if stAny := v.Load(); stAny != nil {
		return stAny.(types.ScrapeStatus)
	}
	return types.ScrapeStatus{}
}
