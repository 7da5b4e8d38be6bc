// Package reconcile attributes fetched document files back to their canonical
// metadata records. An artifact is matched only when a sequential filter
// chain leaves exactly one candidate; anything else stays unresolved and is
// never guessed.
package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atsdata/ats-crawler/internal/metrics"
	"github.com/atsdata/ats-crawler/internal/papers"
)

// documentExtensions are the raw artifact types eligible for reconciliation.
var documentExtensions = []string{".pdf", ".doc"}

// Result joins one artifact with its owning record, when unique. Record is
// nil for unresolved artifacts.
type Result struct {
	Artifact papers.Artifact
	Record   *papers.Record
}

// Resolved reports whether the artifact was attributed to a unique record.
func (r Result) Resolved() bool {
	return r.Record != nil
}

// Reconciler narrows metadata candidates per artifact.
type Reconciler struct {
	logger *zap.Logger
}

// New constructs a Reconciler.
func New(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

type stage struct {
	name string
	keep func(papers.Record) bool
}

// Match runs the filter chain for one artifact against the corpus. All
// stages are conjunctive; the order only shapes the per-stage diagnostics.
// ok is true only when exactly one candidate survives.
func (r *Reconciler) Match(art papers.Artifact, corpus []papers.Record) (*papers.Record, bool) {
	number := art.NumberValue()
	stages := []stage{
		{"extension", func(rec papers.Record) bool {
			return rec.Type == art.Extension
		}},
		{"abbreviation", func(rec papers.Record) bool {
			return rec.Abbreviation == art.Abbreviation
		}},
		{"number", func(rec papers.Record) bool {
			return strconv.Itoa(rec.Number) == number
		}},
		{"meeting type", func(rec papers.Record) bool {
			return strings.Contains(art.Meeting, rec.MeetingType)
		}},
		{"revision", func(rec papers.Record) bool {
			return rec.Revision == art.Revision
		}},
		{"derivable filename", func(rec papers.Record) bool {
			return slices.Contains(papers.Filenames(rec), art.Filename)
		}},
	}

	candidates := corpus
	for _, s := range stages {
		next := candidates[:0:0]
		for _, rec := range candidates {
			if s.keep(rec) {
				next = append(next, rec)
			}
		}
		candidates = next
		r.logger.Debug("filter stage applied",
			zap.String("filename", art.Filename),
			zap.String("stage", s.name),
			zap.Int("candidates", len(candidates)))
		if len(candidates) == 0 {
			break
		}
	}

	switch len(candidates) {
	case 1:
		return &candidates[0], true
	case 0:
		r.logger.Warn("no matching record for artifact", zap.String("filename", art.Filename))
		return nil, false
	default:
		// Ambiguity means duplicate numbering in the metadata; picking one
		// silently would mis-attribute the file.
		r.logger.Warn("ambiguous metadata for artifact",
			zap.String("filename", art.Filename),
			zap.Int("candidates", len(candidates)))
		return nil, false
	}
}

// ReconcileDir parses every document file in dir and matches it against the
// corpus. Files whose names do not parse are skipped with a warning; the
// result order is stable by filename.
func (r *Reconciler) ReconcileDir(dir string, corpus []papers.Record) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list artifact dir %s: %w", dir, err)
	}

	var results []Result
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(documentExtensions, filepath.Ext(e.Name())) {
			continue
		}
		art, err := papers.ParseArtifactName(e.Name())
		if err != nil {
			r.logger.Warn("skipping unparseable artifact", zap.String("filename", e.Name()), zap.Error(err))
			continue
		}

		rec, ok := r.Match(art, corpus)
		if ok {
			metrics.ReconcileMatched.Inc()
		} else {
			metrics.ReconcileUnresolved.Inc()
		}
		results = append(results, Result{Artifact: art, Record: rec})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Artifact.Filename < results[j].Artifact.Filename
	})
	return results, nil
}
