package papers

import (
	"fmt"
	"strings"
)

// DocumentsBase is the host serving the underlying document files.
const DocumentsBase = "https://documents.ats.aq"

// Languages lists the per-paper language variants in publication order.
// Every paper gets all four variants even if some will 404 remotely.
var Languages = []string{"e", "s", "f", "r"}

// Variant is one derivable per-language document. It is computed on demand
// and never stored.
type Variant struct {
	Language string
	Filename string
	URL      string
}

// Resolve derives the ordered document variants for a record against the
// production documents host. It is pure and total over well-formed records:
// the result always has exactly one entry per language. The "rev{n}" filename
// token appears iff Revision > 0.
func Resolve(rec Record) []Variant {
	return ResolveBase(DocumentsBase, rec)
}

// ResolveBase is Resolve with an explicit base URL for the documents host.
func ResolveBase(base string, rec Record) []Variant {
	meeting := rec.Meeting()
	stem := fmt.Sprintf("%s%03d", rec.Abbreviation, rec.Number)

	variants := make([]Variant, 0, len(Languages))
	for _, lang := range Languages {
		parts := []string{meeting, stem}
		if rec.Revision > 0 {
			parts = append(parts, fmt.Sprintf("rev%d", rec.Revision))
		}
		parts = append(parts, lang)
		name := strings.Join(parts, "_") + "." + rec.Type
		variants = append(variants, Variant{
			Language: lang,
			Filename: name,
			URL:      fmt.Sprintf("%s/%s/%s/%s", base, meeting, rec.Abbreviation, name),
		})
	}
	return variants
}

// Filenames returns the full set of filenames derivable from a record. The
// reconciler uses this as its final disambiguating filter.
func Filenames(rec Record) []string {
	variants := Resolve(rec)
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Filename
	}
	return names
}
