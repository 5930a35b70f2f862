package simplify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponsorscout-engine/internal/domain"
)

const fixture = `<html><body>
<table>
<thead><tr><th>Company</th><th>Role</th><th>Location</th><th>Application</th></tr></thead>
<tbody>
<tr>
  <td>Stripe &#x1F525;</td>
  <td>SWE Intern</td>
  <td>SF, CA</td>
  <td><a href="https://stripe.example/apply">Apply</a></td>
</tr>
<tr>
  <td>&#x21B3;</td>
  <td>Infra Intern</td>
  <td>Seattle, WA</td>
  <td><a href="#closed">Closed</a> <a href="https://stripe.example/infra">Apply</a></td>
</tr>
<tr>
  <td>Acme</td>
  <td>Data Intern</td>
  <td>NYC</td>
  <td><a href="#">none</a></td>
</tr>
<tr>
  <td>Beta Corp</td>
  <td><a href="https://beta.example/job">ML Intern</a></td>
  <td>Remote</td>
  <td><a href="https://github.com/beta/listings">listing</a></td>
</tr>
<tr><td>too-few-cells</td><td>skipped</td></tr>
</tbody>
</table>
<table>
<tbody>
<tr>
  <td>&#x21B3;</td>
  <td>Orphan Intern</td>
  <td>Remote</td>
  <td><a href="https://orphan.example/a">Apply</a></td>
</tr>
</tbody>
</table>
</body></html>`

func TestExtract(t *testing.T) {
	listings, rows, err := Extract(fixture)
	require.NoError(t, err)

	// The two-cell row never counts; the orphan continuation does.
	assert.Equal(t, 5, rows)
	require.Len(t, listings, 5)

	assert.Equal(t, domain.JobListing{
		Company:  "stripe",
		Title:    "SWE Intern",
		Location: "SF, CA",
		Link:     "https://stripe.example/apply",
	}, listings[0])

	// Continuation row inherits the company above it; the fragment-only
	// anchor in the apply cell is skipped in favor of the real one.
	assert.Equal(t, domain.JobListing{
		Company:  "stripe",
		Title:    "Infra Intern",
		Location: "Seattle, WA",
		Link:     "https://stripe.example/infra",
	}, listings[1])

	// No usable link anywhere: the candidate survives extraction with an
	// empty link and fails validation downstream.
	assert.Equal(t, "acme", listings[2].Company)
	assert.Empty(t, listings[2].Link)
	assert.False(t, listings[2].Valid())

	// The apply cell points back into the hosting platform, so the title
	// cell's link wins.
	assert.Equal(t, domain.JobListing{
		Company:  "beta corp",
		Title:    "ML Intern",
		Location: "Remote",
		Link:     "https://beta.example/job",
	}, listings[3])

	// A continuation with nothing to attach to yields an empty candidate.
	assert.Equal(t, domain.JobListing{}, listings[4])
}

func TestExtractDocumentOrder(t *testing.T) {
	listings, _, err := Extract(fixture)
	require.NoError(t, err)

	var companies []string
	for _, l := range listings[:4] {
		companies = append(companies, l.Company)
	}
	assert.Equal(t, []string{"stripe", "stripe", "acme", "beta corp"}, companies)
}

func TestExtractEmptyDocument(t *testing.T) {
	listings, rows, err := Extract("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Empty(t, listings)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(Config{URL: srv.URL})
	_, err := s.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<table></table>"))
	}))
	defer srv.Close()

	s := New(Config{URL: srv.URL})
	body, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, body, "<table>")
}
