package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/marksync/marksync/internal/feed"
	"github.com/marksync/marksync/internal/logger"
)

// StreamState is the lifecycle state of a change-stream subscription.
type StreamState int32

const (
	// StateConnecting means the websocket dial is in flight.
	StateConnecting StreamState = iota
	// StateSubscribed means events are being delivered.
	StateSubscribed
	// StateError means the stream died; it will not reconnect itself. The
	// session's polling path is the recovery mechanism.
	StateError
	// StateClosed means the subscription was deliberately closed.
	StateClosed
)

// String returns a human-readable state name.
func (s StreamState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream is a live change-feed subscription. Events() is closed when the
// stream ends for any reason; after Close returns, no further event is
// delivered.
type Stream interface {
	Events() <-chan feed.Message
	State() StreamState
	Err() error
	Close() error
}

// wsStream is the websocket-backed Stream.
type wsStream struct {
	conn   *websocket.Conn
	events chan feed.Message
	state  atomic.Int32
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	done      chan struct{} // closed by Close; gates delivery
	reader    sync.WaitGroup
	log       logger.Logger
}

// Subscribe dials the change feed for the client's user. Dial failures wrap
// into *SubscriptionError. The returned stream does not retry on error.
func (c *Client) Subscribe(ctx context.Context) (Stream, error) {
	wsURL := httpToWS(c.baseURL) + "/api/v1/bookmarks/feed"

	s := &wsStream{
		events: make(chan feed.Message, 64),
		done:   make(chan struct{}),
		log:    c.log,
	}
	s.state.Store(int32(StateConnecting))

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + c.token}},
	})
	if err != nil {
		s.state.Store(int32(StateError))
		return nil, &SubscriptionError{Err: err}
	}

	// Reads run on their own context so the dial context's lifetime does not
	// bound the subscription.
	readCtx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel
	s.state.Store(int32(StateSubscribed))

	s.reader.Add(1)
	go s.readLoop(readCtx)

	return s, nil
}

func (s *wsStream) readLoop(ctx context.Context) {
	defer s.reader.Done()
	defer close(s.events)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
				// Deliberate teardown.
				s.state.Store(int32(StateClosed))
			default:
				s.mu.Lock()
				s.err = &SubscriptionError{Err: err}
				s.mu.Unlock()
				s.state.Store(int32(StateError))
				s.log.Warn("change stream ended", logger.Error(err))
			}
			return
		}

		var m feed.Message
		if err := json.Unmarshal(data, &m); err != nil {
			s.log.Warn("dropping malformed feed message", logger.Error(err))
			continue
		}

		// Delivery is gated on done so a concurrent Close is a hard cutoff:
		// once Close has fired, no callback path can observe this event.
		select {
		case <-s.done:
			return
		case s.events <- m:
		}
	}
}

func (s *wsStream) Events() <-chan feed.Message { return s.events }

func (s *wsStream) State() StreamState { return StreamState(s.state.Load()) }

func (s *wsStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription. It blocks until the read loop has exited,
// so no event is delivered after it returns.
func (s *wsStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
		s.reader.Wait()
		s.state.Store(int32(StateClosed))
	})
	return nil
}

// httpToWS converts an http(s) base URL into its ws(s) equivalent.
func httpToWS(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
