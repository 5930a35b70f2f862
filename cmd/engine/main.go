package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"

	"sponsorscout-engine/internal/config"
	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/events"
	"sponsorscout-engine/internal/httpapi"
	"sponsorscout-engine/internal/poll"
	"sponsorscout-engine/internal/scheduler"
	"sponsorscout-engine/internal/scrape"
	"sponsorscout-engine/internal/scrape/simplify"
	"sponsorscout-engine/internal/scrape/types"
	"sponsorscout-engine/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Data dir: env wins (a wrapper app can pass one), else local folder.
	dataDir := os.Getenv("SPONSORSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = dataDir
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "sponsorscout.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	var scrapeStatus atomic.Value // stores types.ScrapeStatus
	scrapeStatus.Store(types.ScrapeStatus{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poll.StartPoller(ctx, db.Pool, &cfgVal, &scrapeStatus, hub)

	if cfg.Polling.RetentionDays > 0 {
		days := cfg.Polling.RetentionDays
		go scheduler.Every(ctx, 24*time.Hour, "retention", func(ctx context.Context) error {
			n, err := store.CleanupOldJobs(db.Pool, days)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("[retention] deleted %d stale jobs", n)
			}
			return nil
		})
	}

	runPipeline := func(cfg config.Config, onJob func(inserted bool)) (domain.RunStats, error) {
		src := simplify.New(simplify.Config{
			URL:     cfg.Source.URL,
			Timeout: time.Duration(cfg.Source.TimeoutSeconds) * time.Second,
		})
		return scrape.Run(ctx, db.Pool, cfg, src, onJob)
	}

	mux := httpapi.NewMux(httpapi.Deps{
		DB:           db.Pool,
		Hub:          hub,
		CfgVal:       &cfgVal,
		ScrapeStatus: &scrapeStatus,
		UserCfgPath:  userCfgPath,
		LoadCfg:      loadCfg,
		RunPipeline:  runPipeline,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Shutdown endpoint guarded by a per-process token printed to the log.
	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)
	log.Printf("shutdown token: %s", token)
	log.Fatal(srv.Serve(ln))
}
