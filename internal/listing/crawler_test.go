package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atsdata/ats-crawler/internal/papers"
	"github.com/atsdata/ats-crawler/internal/webclient"
)

func testClient(t *testing.T) *webclient.Client {
	t.Helper()
	return webclient.New(webclient.Config{
		UserAgent:      "ats-crawler-test",
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	}, nil, zaptest.NewLogger(t))
}

func record(id int) papers.Record {
	return papers.Record{
		PaperID:       id,
		Abbreviation:  "WP",
		Number:        id,
		Type:          "pdf",
		MeetingType:   "ATCM",
		MeetingNumber: "42",
	}
}

// listingServer serves pages[n] for ?page=n and counts requests.
func listingServer(t *testing.T, pages map[int]page, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		n, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		p, ok := pages[n]
		if !ok {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(p))
	}))
}

func TestCursorNext(t *testing.T) {
	cases := []struct {
		page, next int
		advance    bool
	}{
		{1, 2, true},
		{3, 2, false},
		{3, 3, false},
		{5, 9, true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("page %d next %d", tc.page, tc.next), func(t *testing.T) {
			c, ok := Cursor{Page: tc.page}.Next(Pager{Next: tc.next})
			assert.Equal(t, tc.advance, ok)
			if ok {
				assert.Equal(t, tc.next, c.Page)
			}
		})
	}
}

func TestCrawl(t *testing.T) {
	t.Run("accumulates and dedupes across pages", func(t *testing.T) {
		shared := record(1)
		srv := listingServer(t, map[int]page{
			1: {Payload: []papers.Record{shared, record(2)}, Pager: Pager{Next: 2}},
			2: {Payload: []papers.Record{shared, record(3)}, Pager: Pager{Next: 2}},
		}, nil)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		records, err := c.Crawl(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, records, 3)
	})

	t.Run("stops when pager reports an earlier page", func(t *testing.T) {
		var requests atomic.Int64
		srv := listingServer(t, map[int]page{
			3: {Payload: []papers.Record{record(30)}, Pager: Pager{Next: 2}},
		}, &requests)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		records, err := c.Crawl(context.Background(), 3)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, int64(1), requests.Load())
	})

	t.Run("request failure aborts the crawl", func(t *testing.T) {
		srv := listingServer(t, map[int]page{
			1: {Payload: []papers.Record{record(1)}, Pager: Pager{Next: 2}},
		}, nil)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = c.Crawl(context.Background(), 1)
		require.Error(t, err)
	})
}

func TestRecords(t *testing.T) {
	t.Run("crawls and writes a snapshot when none exists", func(t *testing.T) {
		dir := t.TempDir()
		srv := listingServer(t, map[int]page{
			1: {Payload: []papers.Record{record(1)}, Pager: Pager{Next: 1}},
		}, nil)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		records, err := c.Records(context.Background(), dir)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		paths, err := FindSnapshots(dir)
		require.NoError(t, err)
		assert.Len(t, paths, 1)
	})

	t.Run("non-empty snapshot short-circuits the crawl", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteSnapshot(SnapshotPath(dir, time.Now()), []papers.Record{record(7)}))

		var requests atomic.Int64
		srv := listingServer(t, map[int]page{}, &requests)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		records, err := c.Records(context.Background(), dir)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, 7, records[0].PaperID)
		assert.Equal(t, int64(0), requests.Load(), "snapshot must prevent listing requests")
	})

	t.Run("no snapshot written after a failed crawl", func(t *testing.T) {
		dir := t.TempDir()
		srv := listingServer(t, map[int]page{}, nil)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = c.Records(context.Background(), dir)
		require.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("stale snapshot triggers a re-crawl", func(t *testing.T) {
		dir := t.TempDir()
		old := SnapshotPath(dir, time.Now().Add(-48*time.Hour))
		require.NoError(t, WriteSnapshot(old, []papers.Record{record(7)}))
		past := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(old, past, past))

		var requests atomic.Int64
		srv := listingServer(t, map[int]page{
			1: {Payload: []papers.Record{record(8)}, Pager: Pager{Next: 1}},
		}, &requests)
		defer srv.Close()

		c, err := New(Config{Endpoint: srv.URL, MaxSnapshotAge: time.Hour}, testClient(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		records, err := c.Records(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 8, records[0].PaperID)
		assert.Equal(t, int64(1), requests.Load())
	})
}

func TestSnapshots(t *testing.T) {
	t.Run("write load round trip", func(t *testing.T) {
		dir := t.TempDir()
		path := SnapshotPath(dir, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
		assert.Equal(t, filepath.Join(dir, "2024-05-01-12-30-00_papers_metadata.json"), path)

		recs := []papers.Record{record(1), record(2)}
		require.NoError(t, WriteSnapshot(path, recs))

		loaded, err := LoadSnapshots(path)
		require.NoError(t, err)
		assert.Equal(t, recs, loaded)
	})

	t.Run("merges and dedupes multiple snapshots", func(t *testing.T) {
		dir := t.TempDir()
		p1 := SnapshotPath(dir, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
		p2 := SnapshotPath(dir, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, WriteSnapshot(p1, []papers.Record{record(1), record(2)}))
		require.NoError(t, WriteSnapshot(p2, []papers.Record{record(2), record(3)}))

		paths, err := FindSnapshots(dir)
		require.NoError(t, err)
		require.Len(t, paths, 2)

		loaded, err := LoadSnapshots(paths...)
		require.NoError(t, err)
		assert.Len(t, loaded, 3)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ATCM42_WP007_e.pdf"), []byte("x"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o600))

		paths, err := FindSnapshots(dir)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})
}
