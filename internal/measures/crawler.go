package measures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/metrics"
	"github.com/atsdata/ats-crawler/internal/webclient"
)

// Config controls the measure crawl.
type Config struct {
	// Endpoint is the measure detail base; /{id} is appended per request.
	Endpoint string
	// MaxID bounds the dense id range 1..MaxID.
	MaxID int
	// OutputDir receives one JSON artifact per scraped id.
	OutputDir string
}

// Summary aggregates one measure crawl.
type Summary struct {
	Scraped int
	Missing int
	Skipped int
}

// Crawler walks the measure id space sequentially, persisting each record as
// soon as it is scraped so a long run is resumable per id.
type Crawler struct {
	cfg    Config
	client *webclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Crawler. The output directory must already exist.
func New(cfg Config, client *webclient.Client, logger *zap.Logger) (*Crawler, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("measure endpoint is required")
	}
	if cfg.MaxID <= 0 {
		return nil, fmt.Errorf("measure max id must be > 0")
	}
	info, err := os.Stat(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output dir %s: %w", cfg.OutputDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output dir %s is not a directory", cfg.OutputDir)
	}
	return &Crawler{cfg: cfg, client: client, logger: logger, now: time.Now}, nil
}

// Run scrapes ids 1..MaxID. Ids whose artifact already exists are skipped;
// ids without a page are counted as missing and the walk continues, since the
// range has gaps.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	for id := 1; id <= c.cfg.MaxID; id++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if c.hasArtifact(id) {
			summary.Skipped++
			continue
		}

		rec, err := c.ScrapeOne(ctx, id)
		if err != nil {
			return summary, err
		}
		if rec == nil {
			summary.Missing++
			metrics.MeasuresMissing.Inc()
			continue
		}

		path := ArtifactPath(c.cfg.OutputDir, c.now(), id)
		if err := writeArtifact(path, rec); err != nil {
			return summary, err
		}
		summary.Scraped++
		metrics.MeasuresScraped.Inc()
		c.logger.Info("measure scraped", zap.Int("measure", id), zap.String("path", path))
	}
	return summary, nil
}

// ScrapeOne fetches and parses one measure page. A non-success response
// yields (nil, nil): absent ids are a skipping signal, not an error.
func (c *Crawler) ScrapeOne(ctx context.Context, id int) (*Record, error) {
	url := fmt.Sprintf("%s/%d", c.cfg.Endpoint, id)
	c.logger.Info("scraping measure", zap.Int("measure", id), zap.String("url", url))

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("measure %d: %w", id, err)
	}
	if !resp.OK() {
		c.logger.Info("measure page absent", zap.Int("measure", id), zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	title, text, chars, approvals, err := parsePage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("measure %d: %w", id, err)
	}

	return &Record{
		MeasureNumber:   id,
		RawTitle:        title,
		RawText:         text,
		Characteristics: chars,
		Approvals:       approvals,
		ScrapedAt:       c.now(),
	}, nil
}

// ArtifactPath returns the {timestamp}_measure_{id}.json path inside dir.
func ArtifactPath(dir string, now time.Time, id int) string {
	name := fmt.Sprintf("%s_measure_%d.json", now.Format("2006-01-02-15-04-05"), id)
	return filepath.Join(dir, name)
}

// hasArtifact reports whether any prior run already persisted this id.
func (c *Crawler) hasArtifact(id int) bool {
	pattern := filepath.Join(c.cfg.OutputDir, fmt.Sprintf("*_measure_%d.json", id))
	matches, err := filepath.Glob(pattern)
	return err == nil && len(matches) > 0
}

func writeArtifact(path string, rec *Record) error {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal measure %d: %w", rec.MeasureNumber, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".measure-*")
	if err != nil {
		return fmt.Errorf("create measure temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write measure artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close measure artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish measure artifact %s: %w", path, err)
	}
	return nil
}
