// Package sync holds the client-side reconciled bookmark view: one ordered,
// de-duplicated set per user session, fed by an authoritative snapshot, a
// push-based change stream, and a periodic poll.
package sync

import (
	"sort"
	"sync"

	"github.com/marksync/marksync/internal/store"
)

// Phase distinguishes "nothing loaded yet" from "loaded, possibly empty" and
// from "initial load failed", so an empty list can be rendered correctly.
type Phase int

const (
	// Loading means no snapshot has been applied yet.
	Loading Phase = iota
	// Loaded means at least one snapshot has been applied.
	Loaded
	// Failed means the initial snapshot failed and nothing has loaded since.
	Failed
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is the reconciliation engine: the current ordered, de-duplicated
// bookmark set for one user. All three apply operations are total functions;
// invalid or irrelevant inputs are ignored, never errors.
//
// Items are kept sorted by CreatedAt descending. Equal timestamps keep their
// relative arrival order. Duplicate ids and records owned by other users are
// never admitted.
//
// The View is safe for concurrent use, but callers that need a strict
// serialization of updates (snapshot vs. stream races) should funnel all
// applies through a single goroutine, as client.Session does.
type View struct {
	mu      sync.Mutex
	userID  string
	phase   Phase
	err     error
	items   []*store.Bookmark
	version uint64
	changed chan struct{}
}

// NewView creates an empty View owned by userID, in the Loading phase.
func NewView(userID string) *View {
	return &View{
		userID:  userID,
		phase:   Loading,
		changed: make(chan struct{}, 1),
	}
}

// UserID returns the owner this view is scoped to.
func (v *View) UserID() string { return v.userID }

// ApplySnapshot replaces the current state wholesale with list, which is
// trusted as authoritative. Whatever the snapshot does not contain is gone.
// The input is normalized anyway: other users' records are dropped, duplicate
// ids keep their first occurrence, and ordering is re-established with a
// stable sort, so a malformed snapshot cannot break the view invariants.
func (v *View) ApplySnapshot(list []*store.Bookmark) {
	next := make([]*store.Bookmark, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, b := range list {
		if b == nil || b.UserID != v.userID {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		next = append(next, b)
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].CreatedAt.After(next[j].CreatedAt)
	})

	v.mu.Lock()
	v.items = next
	v.phase = Loaded
	v.err = nil
	v.bump()
	v.mu.Unlock()
}

// ApplyCreated inserts b preserving the descending CreatedAt order. Events for
// other users and duplicate ids are ignored, which makes the operation
// idempotent under at-least-once delivery. In the common case (creations
// arrive newest) the insert is a prepend; out-of-order delivery lands at the
// correct sorted position, after any existing entry with an equal timestamp.
func (v *View) ApplyCreated(b *store.Bookmark) {
	if b == nil || b.UserID != v.userID {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, existing := range v.items {
		if existing.ID == b.ID {
			return
		}
	}

	at := len(v.items)
	for i, existing := range v.items {
		if existing.CreatedAt.Before(b.CreatedAt) {
			at = i
			break
		}
	}

	v.items = append(v.items, nil)
	copy(v.items[at+1:], v.items[at:])
	v.items[at] = b
	v.bump()
}

// ApplyDeleted removes the entry with the given id if present. Absent ids are
// a no-op, covering duplicate delivery, late delivery, and deletion of an
// entry already dropped by a snapshot replace.
func (v *View) ApplyDeleted(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, existing := range v.items {
		if existing.ID == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			v.bump()
			return
		}
	}
}

// Fail records a snapshot load failure. It only transitions Loading to Failed;
// once the view has loaded, a failed refresh leaves the (stale) state intact
// and the next poll retries.
func (v *View) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase == Loaded {
		return
	}
	v.phase = Failed
	v.err = err
	v.bump()
}

// State returns the current phase, a copy of the ordered items, and the load
// error when the phase is Failed.
func (v *View) State() (Phase, []*store.Bookmark, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := make([]*store.Bookmark, len(v.items))
	copy(items, v.items)
	return v.phase, items, v.err
}

// Items returns a copy of the current ordered bookmark set.
func (v *View) Items() []*store.Bookmark {
	_, items, _ := v.State()
	return items
}

// Len returns the number of bookmarks currently in the view.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// Version increments on every observable state change.
func (v *View) Version() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Changes returns a coalesced notification channel: it receives at least once
// after any state change. Consumers re-read State on each signal.
func (v *View) Changes() <-chan struct{} { return v.changed }

// bump must be called with the mutex held.
func (v *View) bump() {
	v.version++
	select {
	case v.changed <- struct{}{}:
	default:
	}
}
