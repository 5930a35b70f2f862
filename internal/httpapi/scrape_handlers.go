package httpapi

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"sponsorscout-engine/internal/config"
	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/events"
	"sponsorscout-engine/internal/scrape/types"
)

type ScrapeHandler struct {
	CfgVal       *atomic.Value
	ScrapeStatus *atomic.Value
	Hub          *events.Hub
	RunPipeline  func(cfg config.Config, onJob func(inserted bool)) (domain.RunStats, error)
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := types.ScrapeStatus{}
	if stAny := h.ScrapeStatus.Load(); stAny != nil {
		st = stAny.(types.ScrapeStatus)
	}
	writeJSON(w, st)
}

// Run kicks off a manual pipeline pass in the background and returns 202.
// A pass already in flight (manual or scheduled) answers 409.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	cfgAny := h.CfgVal.Load()
	if cfgAny == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "no_config", "config not loaded yet")
		return
	}
	cfg := cfgAny.(config.Config)

	st := types.ScrapeStatus{}
	if stAny := h.ScrapeStatus.Load(); stAny != nil {
		st = stAny.(types.ScrapeStatus)
	}
	if st.Running {
		WriteError(w, r, http.StatusConflict, "already_running", "a scrape is already in progress")
		return
	}

	st.Running = true
	st.LastRunAt = time.Now().UTC().Format(time.RFC3339)
	h.ScrapeStatus.Store(st)

	reqID := RequestIDFrom(r.Context())

	go func() {
		stats, err := h.RunPipeline(cfg, func(inserted bool) {
			typ := events.TypeJobUpdated
			if inserted {
				typ = events.TypeJobCreated
			}
			h.Hub.Publish(events.MakeEvent(reqID, typ, 1, nil))
		})

		done := types.ScrapeStatus{}
		if stAny := h.ScrapeStatus.Load(); stAny != nil {
			done = stAny.(types.ScrapeStatus)
		}
		done.Running = false
		done.Inserted = stats.Inserted
		done.Updated = stats.Updated
		done.Failed = stats.Failed

		if err != nil {
			done.LastError = err.Error()
			log.Printf("[scrape] manual run failed: %v", err)
		} else {
			done.LastError = ""
			done.LastOkAt = time.Now().UTC().Format(time.RFC3339)
		}
		h.ScrapeStatus.Store(done)

		h.Hub.Publish(events.MakeEvent(reqID, events.TypeRunCompleted, 1, stats))
	}()

	writeJSONStatus(w, http.StatusAccepted, map[string]any{"ok": true, "started": true})
}
