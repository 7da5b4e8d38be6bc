package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atsdata/ats-crawler/internal/papers"
)

// Row is one artifact with its attributed metadata flattened for downstream
// feature-building. Metadata fields are empty/zero for unresolved artifacts.
type Row struct {
	Filename     string `json:"filename"`
	Extension    string `json:"extension"`
	Meeting      string `json:"meeting"`
	Abbreviation string `json:"paper_type_abbreviation"`
	Number       string `json:"paper_number"`
	Revision     int    `json:"paper_revision"`
	Language     string `json:"paper_language_abbreviation"`

	Resolved      bool   `json:"resolved"`
	PaperID       int    `json:"paper_id,omitempty"`
	PaperTypeID   int    `json:"paper_type_id,omitempty"`
	PaperName     string `json:"paper_name,omitempty"`
	MeetingType   string `json:"meeting_type,omitempty"`
	MeetingID     int    `json:"meeting_id,omitempty"`
	MeetingNumber string `json:"meeting_number,omitempty"`
	MeetingYear   int    `json:"meeting_year,omitempty"`
	MeetingName   string `json:"meeting_name,omitempty"`
	Parties       string `json:"parties,omitempty"`

	RawText string `json:"raw_text,omitempty"`
}

// BuildRows flattens results, attaching optional extracted text keyed by
// artifact filename.
func BuildRows(results []Result, texts map[string]string) []Row {
	rows := make([]Row, 0, len(results))
	for _, res := range results {
		row := Row{
			Filename:     res.Artifact.Filename,
			Extension:    res.Artifact.Extension,
			Meeting:      res.Artifact.Meeting,
			Abbreviation: res.Artifact.Abbreviation,
			Number:       res.Artifact.Number,
			Revision:     res.Artifact.Revision,
			Language:     res.Artifact.Language,
			Resolved:     res.Resolved(),
			RawText:      texts[res.Artifact.Filename],
		}
		if rec := res.Record; rec != nil {
			row.PaperID = rec.PaperID
			row.PaperTypeID = rec.PaperTypeID
			row.PaperName = rec.Name
			row.MeetingType = rec.MeetingType
			row.MeetingID = rec.MeetingID
			row.MeetingNumber = rec.MeetingNumber
			row.MeetingYear = rec.MeetingYear
			row.MeetingName = rec.MeetingName
			row.Parties = partyList(rec.Parties)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteReport persists rows as a JSON array via temp file and rename.
func WriteReport(path string, rows []Row) error {
	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("create report temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish report %s: %w", path, err)
	}
	return nil
}

func partyList(parties []papers.Party) string {
	names := make([]string, 0, len(parties))
	for _, p := range parties {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}
