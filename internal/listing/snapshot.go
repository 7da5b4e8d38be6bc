package listing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atsdata/ats-crawler/internal/papers"
)

const (
	snapshotMarker    = "papers_metadata"
	snapshotTimestamp = "2006-01-02-15-04-05"
)

// SnapshotPath returns the timestamped snapshot path inside dir, following
// the {timestamp}_papers_metadata.json convention.
func SnapshotPath(dir string, now time.Time) string {
	name := fmt.Sprintf("%s_%s.json", now.Format(snapshotTimestamp), snapshotMarker)
	return filepath.Join(dir, name)
}

// WriteSnapshot persists records as a JSON array via a temp file and rename,
// so a partial write is never mistaken for a complete snapshot.
func WriteSnapshot(path string, records []papers.Record) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", path, err)
	}
	return nil
}

// FindSnapshots lists all snapshot files in dir, any of which short-circuits
// a fresh listing crawl.
func FindSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".json") && strings.Contains(name, snapshotMarker) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

// Stale reports whether the newest snapshot is older than maxAge. A zero
// maxAge means snapshots never go stale.
func Stale(paths []string, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 || len(paths) == 0 {
		return false
	}
	var newest time.Time
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return now.Sub(newest) > maxAge
}

// LoadSnapshots reads every given snapshot and returns the merged,
// deduplicated corpus.
func LoadSnapshots(paths ...string) ([]papers.Record, error) {
	var records []papers.Record
	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- paths come from the configured output dir
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", path, err)
		}
		var recs []papers.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
		}
		records = append(records, recs...)
	}
	deduped, err := papers.Dedupe(records)
	if err != nil {
		return nil, fmt.Errorf("dedupe snapshots: %w", err)
	}
	return deduped, nil
}
