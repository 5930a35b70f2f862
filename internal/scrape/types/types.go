package types

import "context"

// ScrapeStatus is what the API and poller report about the last run.
type ScrapeStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Failed    int    `json:"failed"`
	Running   bool   `json:"running"`
}

// Fetcher is a document source. There is exactly one today (the Simplify
// README); the interface keeps the pipeline testable against local fixtures.
type Fetcher interface {
	Name() string
	URL() string
	Fetch(ctx context.Context) (string, error)
}
