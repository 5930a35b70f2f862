package httpapi

import (
	"database/sql"
	"sync/atomic"

	"sponsorscout-engine/internal/config"
	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal       *atomic.Value // stores config.Config
	ScrapeStatus *atomic.Value // stores types.ScrapeStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Pipeline entrypoint (injected for testability)
	RunPipeline func(cfg config.Config, onJob func(inserted bool)) (domain.RunStats, error)
}
