package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// BookmarkStoreIface exposes all bookmark data operations.
// No handler MAY query the DB directly; all access goes through this interface.
type BookmarkStoreIface interface {
	Create(ctx context.Context, userID, title, url string) (*Bookmark, error)
	GetByID(ctx context.Context, id string) (*Bookmark, error)
	ListByUser(ctx context.Context, userID string) ([]*Bookmark, error)
	Delete(ctx context.Context, id, userID string) error
	CountAll(ctx context.Context) (int, error)
}

// ChangeNotifier receives a notification after every committed bookmark write.
// The store calls it synchronously once the row is durable, which makes the
// store the single event source no matter which surface performed the write.
type ChangeNotifier interface {
	BookmarkCreated(b *Bookmark)
	BookmarkDeleted(userID, id string)
}
