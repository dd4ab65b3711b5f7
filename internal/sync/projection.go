package sync

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/marksync/marksync/internal/store"
)

// Row is one displayable bookmark.
type Row struct {
	ID    string
	Title string
	URL   string
	Host  string
	Age   string
}

// Listing is the displayable form of a view state: a status line plus rows.
// An empty-but-loaded view is observably distinct from a loading one and from
// a failed one.
type Listing struct {
	Status string
	Rows   []Row
}

// Project derives a Listing from a view state. It is a pure function; it is
// re-derived from scratch on every state change.
func Project(phase Phase, items []*store.Bookmark, err error) Listing {
	switch phase {
	case Loading:
		return Listing{Status: "loading bookmarks..."}
	case Failed:
		return Listing{Status: fmt.Sprintf("could not load bookmarks: %v", err)}
	}

	l := Listing{Rows: make([]Row, 0, len(items))}
	switch len(items) {
	case 0:
		l.Status = "no bookmarks yet"
	case 1:
		l.Status = "1 bookmark"
	default:
		l.Status = fmt.Sprintf("%d bookmarks", len(items))
	}

	now := time.Now()
	for _, b := range items {
		l.Rows = append(l.Rows, Row{
			ID:    b.ID,
			Title: b.Title,
			URL:   b.URL,
			Host:  hostOf(b.URL),
			Age:   relativeAge(now.Sub(b.CreatedAt)),
		})
	}
	return l
}

// ProjectView is a convenience wrapper reading the view's current state.
func ProjectView(v *View) Listing {
	phase, items, err := v.State()
	return Project(phase, items, err)
}

// Render writes the listing as plain text, one bookmark per line.
func (l Listing) Render(w io.Writer) {
	fmt.Fprintln(w, l.Status)
	for _, r := range l.Rows {
		fmt.Fprintf(w, "  %-30s  %s  (%s)\n", truncate(r.Title, 30), r.URL, r.Age)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

func relativeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
