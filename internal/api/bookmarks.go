package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/metrics"
	"github.com/marksync/marksync/internal/store"
)

// bookmarksAPIHandler provides REST handlers for bookmark management.
type bookmarksAPIHandler struct {
	bookmarks store.BookmarkStoreIface
	log       logger.Logger
}

// registerBookmarkRoutes registers bookmark routes on r.
func registerBookmarkRoutes(r chi.Router, bs store.BookmarkStoreIface, log logger.Logger) {
	h := &bookmarksAPIHandler{bookmarks: bs, log: log}
	r.Get("/bookmarks", h.List)
	r.Post("/bookmarks", h.Create)
	r.Delete("/bookmarks/{id}", h.Delete)
}

// List returns the caller's complete bookmark set, newest first. This is the
// authoritative snapshot consumed by the initial load and the polling path.
// GET /api/v1/bookmarks
func (h *bookmarksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	bookmarks, err := h.bookmarks.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.log.Error("list bookmarks", logger.String("user_id", user.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	metrics.SnapshotsTotal.Inc()

	resp := BookmarkListResponse{Bookmarks: make([]BookmarkResponse, 0, len(bookmarks))}
	for _, b := range bookmarks {
		resp.Bookmarks = append(resp.Bookmarks, toBookmarkResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create inserts a new bookmark owned by the caller. The URL is normalized
// server-side as well, so direct API consumers get the same treatment the
// client gateway applies.
// POST /api/v1/bookmarks
func (h *bookmarksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	b, err := h.bookmarks.Create(r.Context(), user.ID, req.Title, req.URL)
	if err != nil {
		if errors.Is(err, store.ErrTitleRequired) || errors.Is(err, store.ErrURLRequired) {
			metrics.MutationsTotal.WithLabelValues("create", "rejected").Inc()
			writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		h.log.Error("create bookmark", logger.String("user_id", user.ID), logger.Error(err))
		metrics.MutationsTotal.WithLabelValues("create", "error").Inc()
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	metrics.MutationsTotal.WithLabelValues("create", "ok").Inc()
	writeJSON(w, http.StatusCreated, toBookmarkResponse(b))
}

// Delete removes a bookmark. Only the owner may delete; an id belonging to
// another user is indistinguishable from a missing one.
// DELETE /api/v1/bookmarks/{id}
func (h *bookmarksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	id := chi.URLParam(r, "id")
	err := h.bookmarks.Delete(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.MutationsTotal.WithLabelValues("delete", "rejected").Inc()
			writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
			return
		}
		h.log.Error("delete bookmark", logger.String("user_id", user.ID), logger.Error(err))
		metrics.MutationsTotal.WithLabelValues("delete", "error").Inc()
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	metrics.MutationsTotal.WithLabelValues("delete", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}
