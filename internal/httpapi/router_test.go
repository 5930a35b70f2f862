package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponsorscout-engine/internal/config"
	"sponsorscout-engine/internal/domain"
	"sponsorscout-engine/internal/events"
	"sponsorscout-engine/internal/scrape/types"
	"sponsorscout-engine/internal/store"
)

func newTestServer(t *testing.T, runPipeline func(cfg config.Config, onJob func(inserted bool)) (domain.RunStats, error)) (*httptest.Server, *store.DB) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	userCfgPath := filepath.Join(t.TempDir(), "config.yml")

	var cfgVal atomic.Value
	var cfg config.Config
	cfg.App.Port = 38472
	cfg.Source.URL = "https://example.com/readme"
	cfg.Source.TimeoutSeconds = 20
	cfg.Sponsorship.FuzzyThreshold = 90
	cfg.Polling.ScrapeSeconds = 21600
	cfgVal.Store(cfg)

	var scrapeStatus atomic.Value
	scrapeStatus.Store(types.ScrapeStatus{})

	if runPipeline == nil {
		runPipeline = func(config.Config, func(bool)) (domain.RunStats, error) {
			return domain.RunStats{}, nil
		}
	}

	mux := NewMux(Deps{
		DB:           db.Pool,
		Hub:          events.NewHub(),
		CfgVal:       &cfgVal,
		ScrapeStatus: &scrapeStatus,
		UserCfgPath:  userCfgPath,
		LoadCfg:      func() (config.Config, error) { return config.Load(userCfgPath) },
		RunPipeline:  runPipeline,
	})

	srv := httptest.NewServer(Chain(mux, RequestID, Recover, AccessLog, Cors))
	t.Cleanup(srv.Close)
	return srv, db
}

func seedJob(t *testing.T, db *store.DB, company, link string) {
	t.Helper()
	_, err := store.UpsertJob(context.Background(), db.Pool, store.JobUpsert{
		Company:     company,
		Title:       "SWE Intern",
		Location:    "Remote",
		Link:        link,
		Sponsorship: domain.SponsorshipLikely,
	}, time.Now())
	require.NoError(t, err)
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var body map[string]any
	res := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestJobsListAndFilters(t *testing.T) {
	srv, db := newTestServer(t, nil)
	seedJob(t, db, "stripe", "https://a/1")
	seedJob(t, db, "acme", "https://a/2")

	var body struct {
		Jobs  []store.Job `json:"jobs"`
		Count int         `json:"count"`
	}
	res := getJSON(t, srv.URL+"/jobs", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, body.Count)

	res = getJSON(t, srv.URL+"/jobs?company=stripe", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "stripe", body.Jobs[0].Company)

	res = getJSON(t, srv.URL+"/jobs?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestJobGetByID(t *testing.T) {
	srv, db := newTestServer(t, nil)
	seedJob(t, db, "stripe", "https://a/1")

	var list struct {
		Jobs []store.Job `json:"jobs"`
	}
	getJSON(t, srv.URL+"/jobs", &list)
	require.Len(t, list.Jobs, 1)

	var got store.Job
	res := getJSON(t, srv.URL+"/jobs/"+list.Jobs[0].ID, &got)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, list.Jobs[0].ID, got.ID)

	res = getJSON(t, srv.URL+"/jobs/not-a-real-id", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv, db := newTestServer(t, nil)
	seedJob(t, db, "stripe", "https://a/1")

	var s store.Stats
	res := getJSON(t, srv.URL+"/stats", &s)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, s.TotalJobs)
	assert.Equal(t, 1, s.SponsorshipLikely)
}

func TestScrapeRunAndStatus(t *testing.T) {
	ran := make(chan struct{})
	srv, _ := newTestServer(t, func(cfg config.Config, onJob func(bool)) (domain.RunStats, error) {
		onJob(true)
		onJob(false)
		close(ran)
		return domain.RunStats{Inserted: 1, Updated: 1}, nil
	})

	res, err := http.Post(srv.URL+"/scrape/run", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was never invoked")
	}

	require.Eventually(t, func() bool {
		res, err := http.Get(srv.URL + "/scrape/status")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		var st types.ScrapeStatus
		if err := json.NewDecoder(res.Body).Decode(&st); err != nil {
			return false
		}
		return !st.Running && st.Inserted == 1 && st.Updated == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScrapeRunConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newTestServer(t, func(cfg config.Config, onJob func(bool)) (domain.RunStats, error) {
		<-release
		return domain.RunStats{}, nil
	})
	defer close(release)

	res, err := http.Post(srv.URL+"/scrape/run", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	res, err = http.Post(srv.URL+"/scrape/run", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestConfigGetAndPut(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var cfg config.Config
	res := getJSON(t, srv.URL+"/config", &cfg)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 38472, cfg.App.Port)

	// Invalid payload: rejected with the validation errors, nothing stored.
	cfg.App.Port = -5
	b, _ := json.Marshal(cfg)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/config", strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	// Valid payload: persisted and reloadable.
	cfg.App.Port = 40000
	b, _ = json.Marshal(cfg)
	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/config", strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var after config.Config
	getJSON(t, srv.URL+"/config", &after)
	assert.Equal(t, 40000, after.App.Port)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	res, err := http.Post(srv.URL+"/jobs", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
