package measures

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parsePage extracts the structured fragments of a measure page. Each
// fragment is optional: an absent title or body yields a zero value, an
// absent table or list yields an empty collection.
func parsePage(body []byte) (title string, text *string, chars map[string]string, approvals []Approval, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", nil, nil, nil, fmt.Errorf("parse measure page: %w", err)
	}

	title = strings.TrimSpace(doc.Find("h1.title").First().Text())
	text = bodyText(doc)
	chars = characteristics(doc)
	approvals = approvalRows(doc)
	return title, text, chars, approvals, nil
}

// bodyText returns the first free-text container with line breaks preserved
// and the wrapping markup stripped, or nil when the page has none.
func bodyText(doc *goquery.Document) *string {
	sel := doc.Find("div.text-container").First()
	if sel.Length() == 0 {
		return nil
	}
	html, err := sel.Html()
	if err != nil {
		return nil
	}
	for _, br := range []string{"<br/>", "<br>", "<br />"} {
		html = strings.ReplaceAll(html, br, "\n")
	}
	out := strings.TrimSpace(html)
	return &out
}

// characteristics maps normalized labels to non-empty values: labels are
// lower-cased with spaces replaced by underscores, entries with empty text
// are dropped.
func characteristics(doc *goquery.Document) map[string]string {
	chars := map[string]string{}
	doc.Find("ul.characteristics__list").First().
		Find("li.characteristics__item").
		Each(func(_ int, item *goquery.Selection) {
			label := strings.TrimSpace(item.Find("h2.characteristics__item__title").First().Text())
			value := strings.TrimSpace(item.Find("p.characteristics__item__text").First().Text())
			if label == "" || value == "" {
				return
			}
			key := strings.ReplaceAll(strings.ToLower(label), " ", "_")
			chars[key] = value
		})
	return chars
}

// approvalRows returns the ordered country/date pairs; rows lacking either
// cell are skipped rather than erroring.
func approvalRows(doc *goquery.Document) []Approval {
	approvals := []Approval{}
	doc.Find("table.approvals tr").Each(func(_ int, row *goquery.Selection) {
		country := strings.TrimSpace(row.Find("th").First().Text())
		date := strings.TrimSpace(row.Find("td").First().Text())
		if country == "" || date == "" {
			return
		}
		approvals = append(approvals, Approval{Country: country, Date: date})
	})
	return approvals
}
