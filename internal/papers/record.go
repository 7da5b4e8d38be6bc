// Package papers defines the canonical working-paper record published by the
// ATS document database, the derivation of per-language document URLs from a
// record, and the inverse parse of a fetched document's filename.
package papers

import (
	"encoding/json"
	"fmt"
)

// Party is one treaty party attached to a working paper.
type Party struct {
	Name string `json:"Name"`
}

// Record is one working paper as returned by the listing endpoint. Field
// names mirror the upstream payload exactly; the struct is immutable once
// produced by the listing crawler.
type Record struct {
	PaperID       int     `json:"Paper_id"`
	PaperTypeID   int     `json:"Pap_type_id"`
	Name          string  `json:"Name"`
	Abbreviation  string  `json:"Abbreviation"`
	Number        int     `json:"Number"`
	Revision      int     `json:"Revision"`
	Type          string  `json:"Type"`
	MeetingID     int     `json:"Meeting_id"`
	MeetingType   string  `json:"Meeting_type"`
	MeetingNumber string  `json:"Meeting_number"`
	MeetingYear   int     `json:"Meeting_year"`
	MeetingName   string  `json:"Meeting_name"`
	Parties       []Party `json:"Parties"`
}

// Meeting returns the meeting code, e.g. "ATCM42".
func (r Record) Meeting() string {
	return r.MeetingType + r.MeetingNumber
}

// CanonicalKey returns a stable, key-ordered serialization of the record.
// Records that serialize identically are considered the same paper, which is
// how duplicates across snapshot reruns are detected.
func (r Record) CanonicalKey() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("serialize record: %w", err)
	}
	return string(b), nil
}

// Dedupe keeps one representative per distinct canonical serialization,
// preserving first-seen order.
func Dedupe(records []Record) ([]Record, error) {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		key, err := rec.CanonicalKey()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}
