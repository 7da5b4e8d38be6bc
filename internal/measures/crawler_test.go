package measures

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atsdata/ats-crawler/internal/webclient"
)

const measurePage = `<html><body>
<h1 class="title">Measure 1 (2005): Annex VI</h1>
<ul class="characteristics__list">
  <li class="characteristics__item">
    <h2 class="characteristics__item__title">Adopted At</h2>
    <p class="characteristics__item__text">ATCM XXVIII</p>
  </li>
  <li class="characteristics__item">
    <h2 class="characteristics__item__title">Status</h2>
    <p class="characteristics__item__text"></p>
  </li>
</ul>
<table class="approvals">
  <tr><th>Argentina</th><td>2010-04-01</td></tr>
  <tr><th>Chile</th></tr>
  <tr><th>Norway</th><td>2011-06-12</td></tr>
</table>
<div class="text-container">Liability arising from<br/>environmental emergencies.</div>
</body></html>`

func testClient(t *testing.T) *webclient.Client {
	t.Helper()
	return webclient.New(webclient.Config{
		UserAgent:      "ats-crawler-test",
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	}, nil, zaptest.NewLogger(t))
}

func newTestCrawler(t *testing.T, endpoint, dir string, maxID int) *Crawler {
	t.Helper()
	c, err := New(Config{Endpoint: endpoint, MaxID: maxID, OutputDir: dir},
		testClient(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestScrapeOne(t *testing.T) {
	t.Run("parses all fragments", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(measurePage))
		}))
		defer srv.Close()

		c := newTestCrawler(t, srv.URL, t.TempDir(), 1)
		rec, err := c.ScrapeOne(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, rec)

		assert.Equal(t, 1, rec.MeasureNumber)
		assert.Equal(t, "Measure 1 (2005): Annex VI", rec.RawTitle)

		require.NotNil(t, rec.RawText)
		assert.Equal(t, "Liability arising from\nenvironmental emergencies.", *rec.RawText)

		// Empty-valued characteristics are dropped; labels are normalized.
		assert.Equal(t, map[string]string{"adopted_at": "ATCM XXVIII"}, rec.Characteristics)

		// The row missing a date cell is skipped; order is preserved.
		require.Len(t, rec.Approvals, 2)
		assert.Equal(t, Approval{Country: "Argentina", Date: "2010-04-01"}, rec.Approvals[0])
		assert.Equal(t, Approval{Country: "Norway", Date: "2011-06-12"}, rec.Approvals[1])
	})

	t.Run("page without approvals yields empty list", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><h1 class="title">Measure 2</h1></body></html>`))
		}))
		defer srv.Close()

		c := newTestCrawler(t, srv.URL, t.TempDir(), 1)
		rec, err := c.ScrapeOne(context.Background(), 2)
		require.NoError(t, err)
		require.NotNil(t, rec)

		assert.Empty(t, rec.Approvals)
		assert.NotNil(t, rec.Approvals, "approvals must serialize as [] rather than null")
		assert.Nil(t, rec.RawText)
		assert.Empty(t, rec.Characteristics)
	})

	t.Run("absent page is nil not error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		c := newTestCrawler(t, srv.URL, t.TempDir(), 1)
		rec, err := c.ScrapeOne(context.Background(), 404)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestRun(t *testing.T) {
	t.Run("writes one artifact per present id and skips gaps", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/2" { // a gap in the id space
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(measurePage))
		}))
		defer srv.Close()

		dir := t.TempDir()
		c := newTestCrawler(t, srv.URL, dir, 3)

		summary, err := c.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Scraped)
		assert.Equal(t, 1, summary.Missing)

		matches, err := filepath.Glob(filepath.Join(dir, "*_measure_*.json"))
		require.NoError(t, err)
		assert.Len(t, matches, 2)

		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		var rec Record
		require.NoError(t, json.Unmarshal(data, &rec))
		assert.NotZero(t, rec.MeasureNumber)
		assert.False(t, rec.ScrapedAt.IsZero())
	})

	t.Run("existing artifacts are skipped on rerun", func(t *testing.T) {
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			_, _ = w.Write([]byte(measurePage))
		}))
		defer srv.Close()

		dir := t.TempDir()
		c := newTestCrawler(t, srv.URL, dir, 2)

		first, err := c.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, first.Scraped)
		assert.Equal(t, 2, requests)

		second, err := c.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, second.Skipped)
		assert.Equal(t, 0, second.Scraped)
		assert.Equal(t, 2, requests, "rerun must issue no requests for persisted ids")
	})
}

func TestArtifactPath(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t,
		filepath.Join("out", "2024-05-01-12-30-00_measure_42.json"),
		ArtifactPath("out", at, 42))
}

func TestMissingOutputDir(t *testing.T) {
	_, err := New(Config{
		Endpoint:  "https://www.ats.aq/devAS/Meetings/Measure",
		MaxID:     10,
		OutputDir: filepath.Join(t.TempDir(), "absent"),
	}, testClient(t), zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestMeasureURLShape(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestCrawler(t, srv.URL, t.TempDir(), 1)
	_, err := c.ScrapeOne(context.Background(), 17)
	require.NoError(t, err)
	assert.Equal(t, "/17", gotPath)
}
