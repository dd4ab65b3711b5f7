package client_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marksync/marksync/internal/client"
	"github.com/marksync/marksync/internal/feed"
	"github.com/marksync/marksync/internal/store"
	synceng "github.com/marksync/marksync/internal/sync"
)

// fakeStream is an in-memory Stream fed by tests.
type fakeStream struct {
	events chan feed.Message

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan feed.Message, 16)}
}

func (s *fakeStream) Events() <-chan feed.Message { return s.events }
func (s *fakeStream) State() client.StreamState   { return client.StateSubscribed }
func (s *fakeStream) Err() error                  { return nil }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeSource is an in-memory Source with swappable snapshot results.
type fakeSource struct {
	mu       sync.Mutex
	snapshot []*store.Bookmark
	snapErr  error
	stream   *fakeStream
	subErr   error
}

func (f *fakeSource) setSnapshot(list []*store.Bookmark, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = list
	f.snapErr = err
}

func (f *fakeSource) Snapshot(ctx context.Context) ([]*store.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, f.snapErr
}

func (f *fakeSource) Subscribe(ctx context.Context) (client.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.stream, nil
}

func mark(id, userID string, age time.Duration) *store.Bookmark {
	return &store.Bookmark{
		ID:        id,
		UserID:    userID,
		URL:       "https://example.com/" + id,
		Title:     id,
		CreatedAt: time.Now().UTC().Add(-age),
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSession_InitialSnapshot(t *testing.T) {
	src := &fakeSource{stream: newFakeStream()}
	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour)}, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, time.Hour, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "initial snapshot", func() bool {
		phase, items, _ := view.State()
		return phase == synceng.Loaded && len(items) == 1
	})
}

func TestSession_InitialSnapshotFailure_PollRecovers(t *testing.T) {
	src := &fakeSource{stream: newFakeStream()}
	src.setSnapshot(nil, errors.New("server down"))

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, 5*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "failed phase", func() bool {
		phase, _, _ := view.State()
		return phase == synceng.Failed
	})

	// The server comes back; the next poll repairs the view.
	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour)}, nil)

	waitFor(t, "poll recovery", func() bool {
		phase, items, _ := view.State()
		return phase == synceng.Loaded && len(items) == 1
	})
}

func TestSession_StreamEventsApplied(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{stream: stream}
	src.setSnapshot(nil, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, time.Hour, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "loaded", func() bool {
		phase, _, _ := view.State()
		return phase == synceng.Loaded
	})

	b := mark("a", "u1", 0)
	stream.events <- feed.Message{Type: feed.EventCreated, UserID: "u1", Bookmark: b}

	waitFor(t, "created event", func() bool { return view.Len() == 1 })

	stream.events <- feed.Message{Type: feed.EventDeleted, UserID: "u1", BookmarkID: "a"}

	waitFor(t, "deleted event", func() bool { return view.Len() == 0 })
}

func TestSession_ForeignUserEventIgnored(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{stream: stream}
	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour)}, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, time.Hour, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "loaded", func() bool { return view.Len() == 1 })

	stream.events <- feed.Message{Type: feed.EventCreated, UserID: "u2", Bookmark: mark("x", "u2", 0)}
	stream.events <- feed.Message{Type: feed.EventDeleted, UserID: "u2", BookmarkID: "a"}
	// A second event for the right user proves the foreign ones were consumed.
	stream.events <- feed.Message{Type: feed.EventCreated, UserID: "u1", Bookmark: mark("b", "u1", 0)}

	waitFor(t, "scoped apply", func() bool { return view.Len() == 2 })
	for _, b := range view.Items() {
		if b.UserID != "u1" {
			t.Errorf("foreign bookmark admitted: %+v", b)
		}
	}
}

func TestSession_StreamClosed_PollContinues(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{stream: stream}
	src.setSnapshot(nil, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, 5*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "loaded", func() bool {
		phase, _, _ := view.State()
		return phase == synceng.Loaded
	})

	// Kill the stream; only polling remains.
	stream.Close()
	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour)}, nil)

	waitFor(t, "poll-only convergence", func() bool { return view.Len() == 1 })
}

func TestSession_SubscribeFailure_PollOnly(t *testing.T) {
	src := &fakeSource{subErr: errors.New("feed unavailable")}
	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour)}, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, 5*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "loaded without stream", func() bool { return view.Len() == 1 })

	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour), mark("b", "u1", 0)}, nil)

	waitFor(t, "poll update", func() bool { return view.Len() == 2 })
}

func TestSession_Close_TearsDownStream(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{stream: stream}
	src.setSnapshot(nil, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, time.Hour, nil)
	s.Start(context.Background())

	waitFor(t, "loaded", func() bool {
		phase, _, _ := view.State()
		return phase == synceng.Loaded
	})

	s.Close()

	select {
	case <-s.Done():
	default:
		t.Error("expected Done closed after Close")
	}
	if !stream.isClosed() {
		t.Error("expected the stream to be closed with the session")
	}

	// No further applies after teardown.
	version := view.Version()
	time.Sleep(20 * time.Millisecond)
	if view.Version() != version {
		t.Error("view changed after session close")
	}
}

func TestSession_FailedRefreshKeepsLoadedView(t *testing.T) {
	src := &fakeSource{stream: newFakeStream()}
	src.setSnapshot([]*store.Bookmark{mark("a", "u1", time.Hour)}, nil)

	view := synceng.NewView("u1")
	s := client.NewSession(src, view, 5*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "loaded", func() bool { return view.Len() == 1 })

	// Polls start failing; the stale view survives.
	src.setSnapshot(nil, errors.New("network down"))
	time.Sleep(30 * time.Millisecond)

	phase, items, _ := view.State()
	if phase != synceng.Loaded {
		t.Errorf("phase = %v, want Loaded despite failing refresh", phase)
	}
	if len(items) != 1 {
		t.Errorf("len = %d, want stale item kept", len(items))
	}
}
