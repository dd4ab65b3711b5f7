package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/metrics"
)

// writeTimeout bounds a single websocket write so a dead peer cannot wedge
// the fanout goroutine.
const writeTimeout = 5 * time.Second

// Handler serves the change feed over websocket.
type Handler struct {
	hub *Hub
	log logger.Logger
}

// NewHandler creates a feed Handler over hub. log may be nil.
func NewHandler(hub *Hub, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{hub: hub, log: log}
}

// ServeFeed upgrades the request to a websocket and streams the authenticated
// user's change events until the client disconnects or the request context
// ends. The subscription is torn down before the handler returns, after which
// no further event is delivered.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}

	sub := h.hub.Subscribe(user.ID)
	defer sub.Close()

	metrics.FeedClients.Inc()
	defer metrics.FeedClients.Dec()

	h.log.Debug("feed subscriber connected", logger.String("user_id", user.ID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads are only used to detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case m, ok := <-sub.Events():
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			data, err := json.Marshal(m)
			if err != nil {
				h.log.Error("marshal feed message", logger.Error(err))
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				h.log.Debug("feed subscriber write failed, disconnecting",
					logger.String("user_id", user.ID), logger.Error(err))
				_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		}
	}
}
