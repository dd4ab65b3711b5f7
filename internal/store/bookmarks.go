package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Bookmark is a single saved URL/title pair. Records are immutable once
// created; the only lifecycle transition is deletion.
type Bookmark struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	URL       string    `db:"url" json:"url"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BookmarkStore is the sqlx-backed implementation of BookmarkStoreIface.
type BookmarkStore struct {
	db     *sqlx.DB
	notify ChangeNotifier
}

// NewBookmarkStore creates a BookmarkStore. notify may be nil, in which case
// writes do not emit change events.
func NewBookmarkStore(db *sqlx.DB, notify ChangeNotifier) *BookmarkStore {
	return &BookmarkStore{db: db, notify: notify}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *BookmarkStore) q(query string) string { return s.db.Rebind(query) }

// Create validates and normalizes the input, inserts a new bookmark with a
// store-assigned id and timestamp, and emits a created event.
func (s *BookmarkStore) Create(ctx context.Context, userID, title, url string) (*Bookmark, error) {
	title, url, err := ValidateBookmark(title, url)
	if err != nil {
		return nil, err
	}

	b := &Bookmark{
		ID:        uuid.New().String(),
		UserID:    userID,
		URL:       url,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO bookmarks (id, user_id, url, title, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), b.ID, b.UserID, b.URL, b.Title, b.CreatedAt)
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.BookmarkCreated(b)
	}
	return b, nil
}

func (s *BookmarkStore) GetByID(ctx context.Context, id string) (*Bookmark, error) {
	var b Bookmark
	err := s.db.GetContext(ctx, &b, s.q(`SELECT * FROM bookmarks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByUser returns the complete bookmark set for one user, newest first.
// This is the authoritative snapshot read; no pagination (per-user counts are
// assumed bounded).
func (s *BookmarkStore) ListByUser(ctx context.Context, userID string) ([]*Bookmark, error) {
	bookmarks := []*Bookmark{}
	err := s.db.SelectContext(ctx, &bookmarks, s.q(`
		SELECT * FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// Delete removes a bookmark scoped to its owner. Returns ErrNotFound when the
// id does not exist or belongs to another user. Emits a deleted event on
// success.
func (s *BookmarkStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM bookmarks WHERE id = ? AND user_id = ?
	`), id, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	if s.notify != nil {
		s.notify.BookmarkDeleted(userID, id)
	}
	return nil
}

// CountAll returns the total number of bookmarks across all users.
func (s *BookmarkStore) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookmarks`)
	if err != nil {
		return 0, err
	}
	return n, nil
}
