package api

import (
	"time"

	"github.com/marksync/marksync/internal/store"
)

// BookmarkResponse is the JSON shape of a single bookmark.
type BookmarkResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkListResponse is the snapshot read: the complete set for one user,
// newest first.
type BookmarkListResponse struct {
	Bookmarks []BookmarkResponse `json:"bookmarks"`
}

// CreateBookmarkRequest is the POST /bookmarks body.
type CreateBookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// UserResponse is the GET /me body: the identity behind the presented token.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toBookmarkResponse(b *store.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		URL:       b.URL,
		Title:     b.Title,
		CreatedAt: b.CreatedAt,
	}
}

// ToBookmark converts the wire shape back into the store record. Client code
// shares this package so both directions agree on one wire format.
func (r BookmarkResponse) ToBookmark() *store.Bookmark {
	return &store.Bookmark{
		ID:        r.ID,
		UserID:    r.UserID,
		URL:       r.URL,
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
	}
}
