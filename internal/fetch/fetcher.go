// Package fetch downloads the per-language document files derived from paper
// records, idempotently: existing outputs are skipped before any request, and
// writes are atomic so partial files never satisfy the skip check.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/metrics"
	"github.com/atsdata/ats-crawler/internal/papers"
	"github.com/atsdata/ats-crawler/internal/webclient"
)

// Config controls per-record document fetching.
type Config struct {
	OutputDir    string
	SkipExisting bool
	// DocumentsBase overrides the documents host; empty means production.
	DocumentsBase string
}

// Outcome aggregates per-variant results for one record's fetch.
type Outcome struct {
	PaperID int
	Fetched int
	Skipped int
	Missing int
}

// Fetcher retrieves the document variants of one record at a time.
type Fetcher struct {
	cfg    Config
	client *webclient.Client
	index  *Index
	logger *zap.Logger
}

// NewFetcher constructs a Fetcher. The output directory must already exist;
// its absence is a startup precondition failure, not a mid-run surprise.
func NewFetcher(cfg Config, client *webclient.Client, index *Index, logger *zap.Logger) (*Fetcher, error) {
	info, err := os.Stat(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output dir %s: %w", cfg.OutputDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output dir %s is not a directory", cfg.OutputDir)
	}
	if cfg.DocumentsBase == "" {
		cfg.DocumentsBase = papers.DocumentsBase
	}
	return &Fetcher{cfg: cfg, client: client, index: index, logger: logger}, nil
}

// FetchRecord resolves rec's variants and downloads the ones not already on
// disk. A timeout on a variant is logged and treated as not found; any other
// transport error aborts this record and propagates to the batch driver.
func (f *Fetcher) FetchRecord(ctx context.Context, rec papers.Record) (Outcome, error) {
	out := Outcome{PaperID: rec.PaperID}

	for _, v := range papers.ResolveBase(f.cfg.DocumentsBase, rec) {
		if f.cfg.SkipExisting && f.index.Has(v.Filename) {
			out.Skipped++
			metrics.DocumentsSkipped.Inc()
			continue
		}

		resp, err := f.client.Get(ctx, v.URL)
		switch {
		case webclient.IsTimeout(err):
			out.Missing++
			metrics.DocumentTimeouts.Inc()
			f.logger.Warn("document fetch timed out; treating as not found",
				zap.Int("paper_id", rec.PaperID), zap.String("url", v.URL))
			continue
		case err != nil:
			return out, fmt.Errorf("fetch %s: %w", v.URL, err)
		case !resp.OK():
			out.Missing++
			metrics.DocumentsMissing.Inc()
			f.logger.Debug("document variant not available",
				zap.Int("paper_id", rec.PaperID),
				zap.String("url", v.URL),
				zap.Int("status", resp.StatusCode))
			continue
		}

		if err := f.write(v.Filename, resp.Body); err != nil {
			return out, err
		}
		f.index.Add(v.Filename)
		out.Fetched++
		metrics.DocumentsFetched.Inc()
		f.logger.Info("document fetched",
			zap.Int("paper_id", rec.PaperID),
			zap.String("filename", v.Filename),
			zap.Int("bytes", len(resp.Body)))
	}

	return out, nil
}

// write publishes body under name via a temp file and rename.
func (f *Fetcher) write(name string, body []byte) error {
	tmp, err := os.CreateTemp(f.cfg.OutputDir, ".fetch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.cfg.OutputDir, name)); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}
