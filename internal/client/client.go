// Package client is the consumer side of a marksync server: the snapshot
// loader, the mutation gateway, the change-stream listener, and the session
// that reconciles all three into a sync.View.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marksync/marksync/internal/api"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/store"
)

// Client talks to a marksync server with an API token. It implements Source.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
}

// New creates a Client for the server at baseURL (scheme + host, no trailing
// slash needed). log may be nil.
func New(baseURL, token string, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Snapshot fetches the complete ordered bookmark set for the authenticated
// user. Transport and server failures wrap into *FetchError.
func (c *Client) Snapshot(ctx context.Context) ([]*store.Bookmark, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/bookmarks", nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var body api.BookmarkListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Err: err}
	}

	bookmarks := make([]*store.Bookmark, 0, len(body.Bookmarks))
	for _, b := range body.Bookmarks {
		bookmarks = append(bookmarks, b.ToBookmark())
	}
	return bookmarks, nil
}

// Me returns the identity behind the configured token. The session uses it to
// learn the user id a local view should be scoped to.
func (c *Client) Me(ctx context.Context) (*api.UserResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me", nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var body api.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Err: err}
	}
	return &body, nil
}

// Create normalizes the URL and submits an insert. Success only means the
// store accepted the write; the new record reaches any live view through the
// stream or the next poll, never from this call.
func (c *Client) Create(ctx context.Context, title, url string) error {
	payload, err := json.Marshal(api.CreateBookmarkRequest{
		Title: strings.TrimSpace(title),
		URL:   store.NormalizeURL(url),
	})
	if err != nil {
		return &MutationError{Op: "create", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/bookmarks", bytes.NewReader(payload))
	if err != nil {
		return &MutationError{Op: "create", Err: err}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &MutationError{Op: "create", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return c.mutationError("create", resp)
	}
	return nil
}

// Delete submits a removal. The entry leaves any live view only via the
// observed delete event or its absence from a later snapshot.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/bookmarks/"+id, nil)
	if err != nil {
		return &MutationError{Op: "delete", Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &MutationError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.mutationError("delete", resp)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

// mutationError decodes the server's error envelope into a MutationError.
func (c *Client) mutationError(op string, resp *http.Response) error {
	detail := ""
	var body api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		detail = body.Error
	}
	return &MutationError{
		Op:     op,
		Status: resp.StatusCode,
		Detail: detail,
		Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
	}
}
