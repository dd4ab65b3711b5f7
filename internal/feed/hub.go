package feed

import (
	"sync"

	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/metrics"
	"github.com/marksync/marksync/internal/store"
)

// subscriptionBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing events; the client's polling path is the
// designed recovery mechanism, so dropping is acceptable.
const subscriptionBuffer = 64

// Hub routes bookmark change events to the subscribers of the owning user.
// It implements store.ChangeNotifier so the store's write path is the single
// event source.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
	log    logger.Logger
}

// NewHub creates an empty Hub. log may be nil.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log,
	}
}

// Subscription is one subscriber's handle on the feed. It is tagged with the
// user id it was created for; the hub only ever delivers that user's events
// on it.
type Subscription struct {
	hub    *Hub
	userID string
	ch     chan Message
	once   sync.Once
}

// Events returns the channel events are delivered on. The channel is closed
// by Close (or hub shutdown); after closure no further event is delivered.
func (s *Subscription) Events() <-chan Message { return s.ch }

// UserID returns the user this subscription is scoped to.
func (s *Subscription) UserID() string { return s.userID }

// Close unsubscribes. It is idempotent and guarantees that no event is
// delivered after it returns: removal and channel closure happen under the
// hub's write lock, which excludes in-flight publishes.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.userID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.userID)
			}
		}
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

// Subscribe registers a new subscriber for the given user's events.
// Subscriptions created after Close return an already-closed channel.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		hub:    h,
		userID: userID,
		ch:     make(chan Message, subscriptionBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		sub.once.Do(func() {})
		return sub
	}
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers m to every subscriber of m.UserID without blocking. Slow
// subscribers lose the event (and a metric is bumped); they catch up via the
// next poll.
func (h *Hub) Publish(m Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	metrics.FeedEventsTotal.WithLabelValues(string(m.Type)).Inc()

	for sub := range h.subs[m.UserID] {
		select {
		case sub.ch <- m:
		default:
			metrics.FeedDroppedTotal.Inc()
			h.log.Warn("feed subscriber too slow, dropping event",
				logger.String("user_id", m.UserID),
				logger.String("type", string(m.Type)))
		}
	}
}

// SubscriberCount returns the number of live subscriptions for userID.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// BookmarkCreated implements store.ChangeNotifier.
func (h *Hub) BookmarkCreated(b *store.Bookmark) {
	h.Publish(Message{Type: EventCreated, UserID: b.UserID, Bookmark: b})
}

// BookmarkDeleted implements store.ChangeNotifier.
func (h *Hub) BookmarkDeleted(userID, id string) {
	h.Publish(Message{Type: EventDeleted, UserID: userID, BookmarkID: id})
}

// Close shuts the hub down and closes every subscription channel. Publish
// calls after Close are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			sub.once.Do(func() {})
			close(sub.ch)
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
}
