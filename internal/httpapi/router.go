package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Health
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Jobs (read-only; DELETE is an admin escape hatch, never used by the pipeline)
	jh := JobsHandler{DB: d.DB}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    jh.GetByPath,    // /jobs/{id}
		http.MethodDelete: jh.DeleteByPath, // /jobs/{id}
	}))
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Stats,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{}
	mux.HandleFunc("/api/secrets/webhook", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetWebhookURL,
	}))

	// Scrape
	sch := ScrapeHandler{
		CfgVal:       d.CfgVal,
		ScrapeStatus: d.ScrapeStatus,
		Hub:          d.Hub,
		RunPipeline:  d.RunPipeline,
	}
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))
	mux.HandleFunc("/scrape/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// DB maintenance
	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", dh.Checkpoint)

	return mux
}
