package listing

// Pager is the listing endpoint's pagination cursor as returned in each page.
type Pager struct {
	Next int `json:"next"`
}

// Cursor tracks the current listing page. Advancing is a pure step so the
// termination rule is testable without network access.
type Cursor struct {
	Page int
}

// Next returns the cursor advanced by the pager, or ok=false when the crawl
// must terminate. A non-increasing next page terminates, which also guards
// against infinite loops on malformed pager state.
func (c Cursor) Next(p Pager) (Cursor, bool) {
	if p.Next <= c.Page {
		return c, false
	}
	return Cursor{Page: p.Next}, true
}
