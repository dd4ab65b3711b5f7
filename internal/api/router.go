package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/store"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	BearerAuth    *auth.BearerTokenMiddleware
	BookmarkStore store.BookmarkStoreIface
	FeedHandler   http.HandlerFunc
	Logger        logger.Logger
}

// NewAPIRouter creates a chi sub-router for /api/v1.
// All routes require Bearer token authentication. JSON routes carry the
// application/json content type; the feed route stays upgradeable to
// websocket, so the content-type middleware is scoped to the JSON group.
func NewAPIRouter(deps Deps) chi.Router {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	// Bearer token authentication on all API routes.
	r.Use(deps.BearerAuth.Authenticate)

	r.Group(func(r chi.Router) {
		r.Use(jsonContentType)
		registerBookmarkRoutes(r, deps.BookmarkStore, log)
		registerMeRoutes(r)
	})

	if deps.FeedHandler != nil {
		r.Get("/bookmarks/feed", deps.FeedHandler)
	}

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on
// all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
