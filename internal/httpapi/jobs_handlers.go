package httpapi

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"

	"sponsorscout-engine/internal/store"
)

type JobsHandler struct {
	DB *sql.DB
}

// List serves /jobs with optional company, sponsorship, q and limit filters.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ListJobsOpts{
		Company:     strings.TrimSpace(q.Get("company")),
		Sponsorship: strings.TrimSpace(q.Get("sponsorship")),
		Keyword:     strings.TrimSpace(q.Get("q")),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	jobs, err := store.ListJobs(r.Context(), h.DB, opts)
	if err != nil {
		log.Printf("[jobs] list failed: %v", err)
		WriteError(w, r, http.StatusInternalServerError, "db_error", "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}
	writeJSON(w, map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (h JobsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "expected /jobs/{id}")
		return
	}

	job, found, err := store.GetJob(r.Context(), h.DB, id)
	if err != nil {
		log.Printf("[jobs] get failed id=%s: %v", id, err)
		WriteError(w, r, http.StatusInternalServerError, "db_error", "failed to load job")
		return
	}
	if !found {
		WriteError(w, r, http.StatusNotFound, "not_found", "no job with that id")
		return
	}
	writeJSON(w, job)
}

func (h JobsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "expected /jobs/{id}")
		return
	}

	if err := store.DeleteJob(r.Context(), h.DB, id); err != nil {
		log.Printf("[jobs] delete failed id=%s: %v", id, err)
		WriteError(w, r, http.StatusInternalServerError, "db_error", "failed to delete job")
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetStats(r.Context(), h.DB)
	if err != nil {
		log.Printf("[jobs] stats failed: %v", err)
		WriteError(w, r, http.StatusInternalServerError, "db_error", "failed to compute stats")
		return
	}
	writeJSON(w, s)
}
