package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/secrets"
)

var client = &http.Client{Timeout: 10 * time.Second}

// RunCompleted posts a one-line run summary to the configured webhook.
// Best effort: a missing URL or a failed POST is logged and swallowed so
// notification problems never fail a run.
func RunCompleted(ctx context.Context, stats domain.RunStats) {
	url, err := secrets.GetWebhookURL()
	if err != nil {
		log.Printf("[notify] skipped: %v", err)
		return
	}

	msg := fmt.Sprintf(
		"Scrape finished: %d new, %d updated, %d failed (%d likely sponsorship of %d valid rows)",
		stats.Inserted, stats.Updated, stats.Failed, stats.SponsorshipLikely, stats.Valid,
	)
	if stats.FromSnapshot {
		msg += " [served from snapshot]"
	}

	body, _ := json.Marshal(map[string]string{"content": msg})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[notify] bad request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[notify] post failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[notify] webhook status=%s", resp.Status)
	}
}
