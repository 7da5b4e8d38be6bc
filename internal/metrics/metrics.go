// Package metrics exposes Prometheus counters for the long-running batch
// crawls and an HTTP endpoint to scrape them from.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListingPages tracks the number of listing pages crawled.
	ListingPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_listing_pages_total",
		Help: "The total number of listing pages fetched from the doc database.",
	})
	// PapersDiscovered tracks the number of paper records accumulated before dedup.
	PapersDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_papers_discovered_total",
		Help: "The total number of paper records returned by listing pages.",
	})
	// DocumentsFetched tracks the number of document files written to disk.
	DocumentsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_documents_fetched_total",
		Help: "The total number of document files fetched and written.",
	})
	// DocumentsSkipped tracks variants skipped because the output already exists.
	DocumentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_documents_skipped_total",
		Help: "The total number of document variants skipped as already present.",
	})
	// DocumentsMissing tracks variants the remote host did not serve.
	DocumentsMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_documents_missing_total",
		Help: "The total number of document variants not found remotely.",
	})
	// DocumentTimeouts tracks per-variant fetch timeouts treated as missing.
	DocumentTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_document_timeouts_total",
		Help: "The total number of document fetches that timed out.",
	})
	// FetchErrors tracks per-record fetch failures isolated by the batch driver.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_fetch_errors_total",
		Help: "The total number of records whose document fetch failed.",
	})
	// MeasuresScraped tracks measure pages parsed and persisted.
	MeasuresScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_measures_scraped_total",
		Help: "The total number of measure records scraped and written.",
	})
	// MeasuresMissing tracks measure ids the remote host did not serve.
	MeasuresMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_measures_missing_total",
		Help: "The total number of measure ids with no page.",
	})
	// ReconcileMatched tracks artifacts attributed to exactly one record.
	ReconcileMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_reconcile_matched_total",
		Help: "The total number of artifacts matched to a unique record.",
	})
	// ReconcileUnresolved tracks artifacts with zero or multiple candidates.
	ReconcileUnresolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ats_reconcile_unresolved_total",
		Help: "The total number of artifacts left unresolved.",
	})
)
