package sync_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marksync/marksync/internal/store"
	"github.com/marksync/marksync/internal/sync"
)

func TestProject_Loading(t *testing.T) {
	l := sync.Project(sync.Loading, nil, nil)
	if l.Status != "loading bookmarks..." {
		t.Errorf("status = %q", l.Status)
	}
	if len(l.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(l.Rows))
	}
}

func TestProject_Failed(t *testing.T) {
	l := sync.Project(sync.Failed, nil, errors.New("connection refused"))
	if !strings.Contains(l.Status, "connection refused") {
		t.Errorf("status = %q, want it to carry the error", l.Status)
	}
}

func TestProject_LoadedEmpty(t *testing.T) {
	l := sync.Project(sync.Loaded, nil, nil)
	if l.Status != "no bookmarks yet" {
		t.Errorf("status = %q, want %q", l.Status, "no bookmarks yet")
	}
}

func TestProject_LoadedCounts(t *testing.T) {
	one := sync.Project(sync.Loaded, []*store.Bookmark{bm("a", "u1", 0)}, nil)
	if one.Status != "1 bookmark" {
		t.Errorf("status = %q, want %q", one.Status, "1 bookmark")
	}

	two := sync.Project(sync.Loaded, []*store.Bookmark{bm("a", "u1", 0), bm("b", "u1", time.Hour)}, nil)
	if two.Status != "2 bookmarks" {
		t.Errorf("status = %q, want %q", two.Status, "2 bookmarks")
	}
}

func TestProject_RowsPreserveOrder(t *testing.T) {
	items := []*store.Bookmark{bm("new", "u1", 0), bm("old", "u1", time.Hour)}

	l := sync.Project(sync.Loaded, items, nil)
	if len(l.Rows) != 2 || l.Rows[0].ID != "new" || l.Rows[1].ID != "old" {
		t.Errorf("rows out of order: %+v", l.Rows)
	}
	if l.Rows[0].Host != "example.com" {
		t.Errorf("host = %q, want example.com", l.Rows[0].Host)
	}
}

func TestListing_Render(t *testing.T) {
	var buf strings.Builder
	l := sync.Project(sync.Loaded, []*store.Bookmark{bm("a", "u1", 0)}, nil)
	l.Render(&buf)

	out := buf.String()
	if !strings.HasPrefix(out, "1 bookmark\n") {
		t.Errorf("render = %q, want status first", out)
	}
	if !strings.Contains(out, "https://example.com/a") {
		t.Errorf("render = %q, want the URL", out)
	}
}
