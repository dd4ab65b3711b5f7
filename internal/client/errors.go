package client

import "fmt"

// FetchError wraps a failed snapshot load. It is transient: the session's
// next poll retries automatically, so callers surface it and move on.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch bookmarks: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// SubscriptionError wraps a failed change-stream subscription. The client does
// not retry the stream; the polling path masks the failure, so the impact is
// degraded latency rather than data loss.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string { return fmt.Sprintf("subscribe to feed: %v", e.Err) }
func (e *SubscriptionError) Unwrap() error { return e.Err }

// MutationError wraps a rejected create or delete. Detail carries the server's
// error message for inline display; the local view is untouched because the
// engine never applies optimistic writes.
type MutationError struct {
	Op     string // "create" or "delete"
	Status int    // HTTP status, 0 for transport failures
	Detail string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s bookmark: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s bookmark: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
