package client

import (
	"context"
	"sync"
	"time"

	"github.com/marksync/marksync/internal/feed"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/store"
	synceng "github.com/marksync/marksync/internal/sync"
)

// DefaultPollInterval is the reconciliation poll cadence used when none is
// configured. The poll runs regardless of stream health and is the sole
// resilience mechanism: the stream never reconnects itself.
const DefaultPollInterval = 3 * time.Second

// Source abstracts the remote surface a Session consumes: the authoritative
// snapshot read and the push subscription. *Client implements it; tests
// substitute fakes.
type Source interface {
	Snapshot(ctx context.Context) ([]*store.Bookmark, error)
	Subscribe(ctx context.Context) (Stream, error)
}

// Session owns the live reconciliation loop for one user's view. A single
// goroutine serializes every view application — snapshot replaces, stream
// events, and poll results never interleave partially.
//
// Closing the session tears down the subscription and the poll timer as one
// scoped unit; both are guaranteed stopped before Close returns, so a reused
// engine can never receive a stale session's events.
type Session struct {
	src      Source
	view     *synceng.View
	interval time.Duration
	log      logger.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewSession creates a Session feeding view from src. interval <= 0 selects
// DefaultPollInterval. log may be nil.
func NewSession(src Source, view *synceng.View, interval time.Duration, log logger.Logger) *Session {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		src:      src,
		view:     view,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the reconciliation loop. It returns immediately; the loop
// runs until Close is called or ctx ends.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		go s.run(ctx)
	})
}

// Close stops the loop, the subscription, and the poll timer. It blocks until
// all three are down.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
}

// Done is closed when the loop has fully exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	// Initial authoritative load. A failure leaves the view in the Failed
	// phase; the first successful poll below repairs it.
	if list, err := s.src.Snapshot(ctx); err != nil {
		s.log.Warn("initial snapshot failed", logger.Error(err))
		s.view.Fail(err)
	} else {
		s.view.ApplySnapshot(list)
	}

	// Push subscription. A failure here is not retried: the poll below is
	// the resilience path, so we degrade to poll-only latency.
	var events <-chan feed.Message
	stream, err := s.src.Subscribe(ctx)
	if err != nil {
		s.log.Warn("change stream unavailable, continuing poll-only", logger.Error(err))
	} else {
		events = stream.Events()
		defer stream.Close()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case m, ok := <-events:
			if !ok {
				// Stream died; the poll keeps the view converging.
				s.log.Warn("change stream closed, continuing poll-only")
				events = nil
				continue
			}
			s.apply(m)

		case <-ticker.C:
			list, err := s.src.Snapshot(ctx)
			if err != nil {
				// Stale until the next successful poll or stream event.
				s.log.Warn("poll snapshot failed", logger.Error(err))
				s.view.Fail(err)
				continue
			}
			s.view.ApplySnapshot(list)
		}
	}
}

// apply routes one stream event into the engine. Events for other users are
// rejected here against the view's owner, in addition to the engine's own
// scoping check.
func (s *Session) apply(m feed.Message) {
	if m.UserID != s.view.UserID() {
		s.log.Warn("ignoring event for foreign user", logger.String("user_id", m.UserID))
		return
	}
	switch m.Type {
	case feed.EventCreated:
		if m.Bookmark != nil {
			s.view.ApplyCreated(m.Bookmark)
		}
	case feed.EventDeleted:
		s.view.ApplyDeleted(m.BookmarkID)
	default:
		s.log.Warn("ignoring unknown event type", logger.String("type", string(m.Type)))
	}
}
