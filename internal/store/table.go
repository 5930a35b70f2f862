package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type Job struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Link        string    `json:"link"`
	Sponsorship string    `json:"sponsorship"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListJobsOpts are the read-API filters. Zero values mean "no filter".
type ListJobsOpts struct {
	Company     string // substring match on company
	Sponsorship string // exact match
	Keyword     string // substring over company/title/location/sponsorship
	Limit       int
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL,
  link TEXT NOT NULL UNIQUE,
  sponsorship TEXT NOT NULL DEFAULT 'No record found',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_sponsorship ON jobs(sponsorship);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);`,
	} {
		if _, err := tx.Exec(idx); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

func ListJobs(ctx context.Context, db *sql.DB, opts ListJobsOpts) ([]Job, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 200
	}

	var where []string
	var args []any

	if opts.Company != "" {
		where = append(where, `company LIKE '%' || ? || '%'`)
		args = append(args, opts.Company)
	}
	if opts.Sponsorship != "" {
		where = append(where, `sponsorship = ?`)
		args = append(args, opts.Sponsorship)
	}
	if opts.Keyword != "" {
		where = append(where, `(company LIKE '%' || ? || '%'
  OR title LIKE '%' || ? || '%'
  OR location LIKE '%' || ? || '%'
  OR sponsorship LIKE '%' || ? || '%')`)
		args = append(args, opts.Keyword, opts.Keyword, opts.Keyword, opts.Keyword)
	}

	query := `
SELECT id, company, title, location, link, sponsorship, created_at, updated_at
FROM jobs`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, "\n  AND ")
	}
	query += "\nORDER BY created_at DESC, id\nLIMIT ?;"
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func GetJob(ctx context.Context, db *sql.DB, id string) (Job, bool, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, company, title, location, link, sponsorship, created_at, updated_at
FROM jobs WHERE id = ?;`, id)

	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	return j, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (Job, error) {
	var j Job
	var createdStr, updatedStr string
	if err := r.Scan(&j.ID, &j.Company, &j.Title, &j.Location, &j.Link,
		&j.Sponsorship, &createdStr, &updatedStr); err != nil {
		return Job{}, err
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return j, nil
}

type Stats struct {
	TotalJobs         int    `json:"total_jobs"`
	SponsorshipLikely int    `json:"sponsorship_likely"`
	UniqueCompanies   int    `json:"unique_companies"`
	LastUpdatedAt     string `json:"last_updated_at"`
}

func GetStats(ctx context.Context, db *sql.DB) (Stats, error) {
	var s Stats
	var last sql.NullString
	err := db.QueryRowContext(ctx, `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE sponsorship = 'Likely sponsorship'),
  COUNT(DISTINCT company),
  MAX(updated_at)
FROM jobs;`).Scan(&s.TotalJobs, &s.SponsorshipLikely, &s.UniqueCompanies, &last)
	if err != nil {
		return Stats{}, err
	}
	if last.Valid {
		s.LastUpdatedAt = last.String
	}
	return s, nil
}

func CountJobs(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

// DeleteJob is an administrative operation; the pipeline never deletes rows.
func DeleteJob(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	return err
}

// CleanupOldJobs drops rows that stopped being refreshed more than
// retentionDays ago. Driven by the retention scheduler, not the pipeline.
func CleanupOldJobs(db *sql.DB, retentionDays int) (deleted int64, err error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	res, err := db.Exec(`DELETE FROM jobs WHERE updated_at < ?;`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
