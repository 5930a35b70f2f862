package domain

import "strings"

// Sponsorship classification values written to storage and returned by the API.
const (
	SponsorshipLikely  = "Likely sponsorship"
	SponsorshipUnknown = "No record found"
)

// JobListing is one extracted row from the source document. It only becomes a
// persisted job once it passes Valid() and survives the merge.
type JobListing struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Link        string `json:"link"`
	Sponsorship string `json:"sponsorship,omitempty"`
}

// Valid reports whether the listing carries every required field. Listings
// failing this gate never reach the classifier or the merger.
func (j JobListing) Valid() bool {
	return strings.TrimSpace(j.Company) != "" &&
		strings.TrimSpace(j.Title) != "" &&
		strings.TrimSpace(j.Location) != "" &&
		strings.TrimSpace(j.Link) != ""
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	FetchedBytes      int    `json:"fetched_bytes"`
	FromSnapshot      bool   `json:"from_snapshot"`
	Parsed            int    `json:"parsed"`
	Valid             int    `json:"valid"`
	Inserted          int    `json:"inserted"`
	Updated           int    `json:"updated"`
	Failed            int    `json:"failed"`
	SponsorshipLikely int    `json:"sponsorship_likely"`
	StartedAt         string `json:"started_at"`
	FinishedAt        string `json:"finished_at"`
}
