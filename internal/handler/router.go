package handler

import (
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marksync/marksync/internal/api"
	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/feed"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/store"
	"github.com/marksync/marksync/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	BookmarkStore  store.BookmarkStoreIface
	UserStore      *store.UserStore
	TokenStore     auth.TokenStore
	FeedHandler    *feed.Handler
	Logger         logger.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(deps.SessionManager.LoadAndSave)

	// Static assets (embedded). Use fs.Sub so the file server sees
	// css/app.css and js/app.js directly, not static/... paths.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))

	// Auth routes (no auth required)
	r.Get("/auth/login", deps.AuthHandlers.Login)
	r.Get("/auth/callback", deps.AuthHandlers.Callback)
	r.Post("/auth/logout", deps.AuthHandlers.Logout)

	// Prometheus metrics (no auth; bind behind your ingress accordingly).
	r.Handle("/metrics", promhttp.Handler())

	// Landing page (unauthenticated; redirects authenticated to /dashboard).
	landing := NewLandingHandler()
	r.With(deps.AuthMiddleware.OptionalUser).Get("/", landing.Index)

	// Authenticated web routes
	dashboard := NewDashboardHandler(deps.BookmarkStore)
	tokensWeb := NewTokensHandler(deps.TokenStore)

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Get("/dashboard", dashboard.Show)
		r.Get("/dashboard/list", dashboard.List)
		r.Post("/dashboard/bookmarks", dashboard.Create)
		r.Post("/dashboard/bookmarks/{id}/delete", dashboard.Delete)

		r.Get("/dashboard/settings/tokens", tokensWeb.Index)
		r.Post("/dashboard/settings/tokens", tokensWeb.Create)
		r.Post("/dashboard/settings/tokens/{id}/revoke", tokensWeb.Revoke)
	})

	// API sub-router at /api/v1, authenticated by Bearer tokens.
	bearer := auth.NewBearerTokenMiddleware(deps.TokenStore, deps.UserStore)
	apiRouter := api.NewAPIRouter(api.Deps{
		BearerAuth:    bearer,
		BookmarkStore: deps.BookmarkStore,
		FeedHandler:   deps.FeedHandler.ServeFeed,
		Logger:        deps.Logger,
	})
	r.Mount("/api/v1", apiRouter)

	return r
}
