package papers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingLetters = regexp.MustCompile(`^\D+`)
	digitRun       = regexp.MustCompile(`\d+`)
)

// Artifact holds the identity attributes parsed back out of a fetched
// document's filename. The filesystem is the source of truth for artifacts;
// this type carries no file contents.
type Artifact struct {
	Filename     string
	Extension    string
	Meeting      string
	Abbreviation string
	Number       string // leading zeros retained; stripped at compare time
	Revision     int    // 0 when the filename carries no rev token
	Language     string
}

// ParseArtifactName parses a document filename of the form
// {meeting}_{abbr}{number}[_rev{n}]_{lang}.{ext} into its attributes.
// It is the inverse of Resolve's naming scheme and must round-trip with it,
// including the omission of the rev segment for unrevised papers.
func ParseArtifactName(filename string) (Artifact, error) {
	dot := strings.LastIndex(filename, ".")
	if dot <= 0 || dot == len(filename)-1 {
		return Artifact{}, fmt.Errorf("artifact name %q: missing extension", filename)
	}
	stem := filename[:dot]

	segments := strings.Split(stem, "_")
	if len(segments) < 3 {
		return Artifact{}, fmt.Errorf("artifact name %q: expected at least 3 segments, got %d", filename, len(segments))
	}

	abbr := leadingLetters.FindString(segments[1])
	number := digitRun.FindString(segments[1])
	if abbr == "" || number == "" {
		return Artifact{}, fmt.Errorf("artifact name %q: malformed paper segment %q", filename, segments[1])
	}

	revision := 0
	for _, seg := range segments[2 : len(segments)-1] {
		if !strings.Contains(seg, "rev") {
			continue
		}
		n, err := strconv.Atoi(digitRun.FindString(seg))
		if err != nil {
			return Artifact{}, fmt.Errorf("artifact name %q: malformed revision segment %q", filename, seg)
		}
		revision = n
		break
	}

	return Artifact{
		Filename:     filename,
		Extension:    filename[dot+1:],
		Meeting:      segments[0],
		Abbreviation: abbr,
		Number:       number,
		Revision:     revision,
		Language:     segments[len(segments)-1],
	}, nil
}

// NumberValue returns the paper number with leading zeros stripped, for
// integer comparison against record metadata.
func (a Artifact) NumberValue() string {
	trimmed := strings.TrimLeft(a.Number, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
