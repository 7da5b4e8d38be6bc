// Package listing crawls the paginated doc database listing endpoint into a
// deduplicated corpus of canonical paper records, persisted as timestamped
// snapshots. A prior non-empty snapshot always short-circuits a fresh crawl.
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/metrics"
	"github.com/atsdata/ats-crawler/internal/papers"
	"github.com/atsdata/ats-crawler/internal/webclient"
)

// Config controls the listing crawl.
type Config struct {
	// Endpoint is the search endpoint; ?page={n} is appended per request.
	Endpoint string
	// StartPage is the first page requested.
	StartPage int
	// MaxSnapshotAge forces a re-crawl when the newest snapshot is older.
	// Zero keeps the legacy behavior: any snapshot short-circuits forever.
	MaxSnapshotAge time.Duration
}

type page struct {
	Payload []papers.Record `json:"payload"`
	Pager   Pager           `json:"pager"`
}

// Crawler walks the listing endpoint page by page.
type Crawler struct {
	cfg    Config
	client *webclient.Client
	logger *zap.Logger
}

// New constructs a Crawler.
func New(cfg Config, client *webclient.Client, logger *zap.Logger) (*Crawler, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("listing endpoint is required")
	}
	if cfg.StartPage <= 0 {
		cfg.StartPage = 1
	}
	return &Crawler{cfg: cfg, client: client, logger: logger}, nil
}

func (c *Crawler) pageURL(n int) string {
	return fmt.Sprintf("%s?page=%d", c.cfg.Endpoint, n)
}

// Crawl accumulates records from startPage until the pager stops advancing,
// then deduplicates. Any request or decode failure aborts the whole crawl:
// listing order determines completeness, so no partial corpus is returned.
func (c *Crawler) Crawl(ctx context.Context, startPage int) ([]papers.Record, error) {
	cursor := Cursor{Page: startPage}
	var records []papers.Record

	for {
		url := c.pageURL(cursor.Page)
		c.logger.Info("fetching listing page", zap.Int("page", cursor.Page), zap.String("url", url))

		resp, err := c.client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", cursor.Page, err)
		}
		if !resp.OK() {
			return nil, fmt.Errorf("listing page %d: unexpected status %d", cursor.Page, resp.StatusCode)
		}

		var p page
		if err := json.Unmarshal(resp.Body, &p); err != nil {
			return nil, fmt.Errorf("decode listing page %d: %w", cursor.Page, err)
		}

		records = append(records, p.Payload...)
		metrics.ListingPages.Inc()
		metrics.PapersDiscovered.Add(float64(len(p.Payload)))
		c.logger.Info("listing page collected",
			zap.Int("page", cursor.Page),
			zap.Int("page_records", len(p.Payload)),
			zap.Int("total_records", len(records)),
		)

		next, ok := cursor.Next(p.Pager)
		if !ok {
			break
		}
		cursor = next
	}

	deduped, err := papers.Dedupe(records)
	if err != nil {
		return nil, fmt.Errorf("dedupe listing: %w", err)
	}
	c.logger.Info("listing crawl finished",
		zap.Int("records", len(records)),
		zap.Int("unique_records", len(deduped)),
	)
	return deduped, nil
}

// Records returns the metadata corpus for dir: when a fresh snapshot set
// exists it is loaded and merged, otherwise a full crawl runs and its result
// is persisted as a new snapshot before returning.
func (c *Crawler) Records(ctx context.Context, dir string) ([]papers.Record, error) {
	paths, err := FindSnapshots(dir)
	if err != nil {
		return nil, err
	}

	if len(paths) > 0 && !Stale(paths, c.cfg.MaxSnapshotAge, time.Now()) {
		records, err := LoadSnapshots(paths...)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			c.logger.Info("loaded metadata from existing snapshots",
				zap.Int("snapshots", len(paths)),
				zap.Int("records", len(records)),
				zap.String("dir", dir))
			return records, nil
		}
		c.logger.Warn("existing snapshots are empty; crawling fresh", zap.String("dir", dir))
	}

	records, err := c.Crawl(ctx, c.cfg.StartPage)
	if err != nil {
		return nil, err
	}

	path := SnapshotPath(dir, time.Now())
	if err := WriteSnapshot(path, records); err != nil {
		return nil, err
	}
	c.logger.Info("metadata snapshot written", zap.String("path", path), zap.Int("records", len(records)))
	return records, nil
}
