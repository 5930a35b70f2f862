package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobUpsert struct {
	Company     string
	Title       string
	Location    string
	Link        string
	Sponsorship string
}

// UpsertJob inserts or updates a job keyed on its link. On first sight the
// row gets a fresh uuid and created_at; on conflict the mutable fields and
// updated_at are overwritten while id and created_at stay untouched. Each
// call is one atomic statement — concurrent upserts on the same link are
// resolved by sqlite, not by check-then-write.
func UpsertJob(ctx context.Context, db *sql.DB, j JobUpsert, now time.Time) (inserted bool, err error) {
	id := uuid.NewString()
	ts := now.UTC().Format(time.RFC3339)

	_, err = db.ExecContext(ctx, `
INSERT INTO jobs (id, company, title, location, link, sponsorship, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(link) DO UPDATE SET
  company = excluded.company,
  title = excluded.title,
  location = excluded.location,
  sponsorship = excluded.sponsorship,
  updated_at = excluded.updated_at;`,
		id, j.Company, j.Title, j.Location, j.Link, j.Sponsorship, ts, ts,
	)
	if err != nil {
		return false, fmt.Errorf("upsert job: %w", err)
	}

	// The generated id survives only when the INSERT branch ran.
	var storedID string
	if err := db.QueryRowContext(ctx,
		`SELECT id FROM jobs WHERE link = ?;`, j.Link).Scan(&storedID); err != nil {
		return false, fmt.Errorf("upsert verify: %w", err)
	}
	return storedID == id, nil
}
