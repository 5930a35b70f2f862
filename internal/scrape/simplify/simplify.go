package simplify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/scrape/util"
)

// DefaultURL is the rendered internship README the pipeline scrapes.
const DefaultURL = "https://raw.githubusercontent.com/SimplifyJobs/Summer2026-Internships/dev/README.md"

// continuationMarker flags a row that inherits the company of the row above.
const continuationMarker = "↳"

type Config struct {
	URL     string
	Timeout time.Duration
}

// Source fetches the raw source document. One fixed URL, one GET per run;
// the limiter only matters when runs are scheduled close together.
type Source struct {
	cfg     Config
	hc      *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Source {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Source{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

func (s *Source) Name() string { return "simplify" }

func (s *Source) URL() string { return s.cfg.URL }

// Fetch downloads the document. Any transport or status failure is returned
// as-is; the caller decides whether a snapshot can stand in.
func (s *Source) Fetch(ctx context.Context) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "SponsorScout/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("simplify get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("simplify status %d", res.StatusCode)
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("simplify read body: %w", err)
	}
	return string(b), nil
}

// Extract walks every table in the document and produces listing candidates
// in document order. Candidates are NOT validated here; rows that resolve to
// nothing still come back (with empty fields) so the pipeline can count and
// log them behind its single validity gate.
func Extract(body string) (listings []domain.JobListing, rows int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse document: %w", err)
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		currentCompany := ""

		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			tds := tr.Find("td")
			if tds.Length() < 3 {
				return
			}
			rows++

			first := util.CleanText(tds.Eq(0).Text())
			if first != "" && first != continuationMarker {
				currentCompany = util.StripEmoji(first)
			}
			if currentCompany == "" {
				// continuation row with no prior company; nothing to attach to
				listings = append(listings, domain.JobListing{})
				return
			}

			listings = append(listings, domain.JobListing{
				Company:  strings.ToLower(currentCompany),
				Title:    util.CleanText(tds.Eq(1).Text()),
				Location: util.NormalizeLocation(tds.Eq(2).Text()),
				Link:     resolveLink(tds),
			})
		})
	})

	return listings, rows, nil
}

// resolveLink applies the link priority rules: the apply column (4th cell)
// wins when it holds a usable hyperlink; otherwise the first usable hyperlink
// in any other cell. Fragment-only anchors and links back into the hosting
// platform count as absent.
func resolveLink(tds *goquery.Selection) string {
	if tds.Length() > 3 {
		if href := cellLink(tds.Eq(3)); href != "" {
			return href
		}
	}
	for i := 1; i < tds.Length(); i++ {
		if i == 3 {
			continue
		}
		if href := cellLink(tds.Eq(i)); href != "" {
			return href
		}
	}
	return ""
}

func cellLink(td *goquery.Selection) string {
	found := ""
	td.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if usableLink(href) {
			found = href
			return false
		}
		return true
	})
	return found
}

func usableLink(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	return !strings.Contains(href, "github.com")
}
