// Package feed implements the bookmark change feed: a per-user fanout hub fed
// by the store's write path, exposed to clients over a websocket endpoint.
package feed

import (
	"github.com/marksync/marksync/internal/store"
)

// EventType identifies the kind of change a feed message describes.
type EventType string

const (
	// EventCreated signals a newly inserted bookmark. The full record rides
	// along so subscribers can apply it without a round trip.
	EventCreated EventType = "created"

	// EventDeleted signals a removed bookmark, identified by BookmarkID.
	EventDeleted EventType = "deleted"
)

// Message is the wire shape of a single change-feed event. Created events
// carry the full bookmark; deleted events carry the id plus the owner so
// subscribers can enforce user scoping on both kinds.
type Message struct {
	Type       EventType       `json:"type"`
	UserID     string          `json:"user_id"`
	Bookmark   *store.Bookmark `json:"bookmark,omitempty"`
	BookmarkID string          `json:"bookmark_id,omitempty"`
}
