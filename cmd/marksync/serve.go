package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/build"
	"github.com/marksync/marksync/internal/config"
	"github.com/marksync/marksync/internal/db"
	"github.com/marksync/marksync/internal/feed"
	"github.com/marksync/marksync/internal/handler"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/metrics"
	"github.com/marksync/marksync/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
			defer func() { _ = log.Sync() }()

			log.Info("starting marksync",
				logger.String("version", build.Version),
				logger.String("commit", build.Commit))

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// The hub receives every committed write from the store, so the
			// feed sees the same events regardless of which surface (web
			// form, REST, CLI) performed the mutation.
			hub := feed.NewHub(log)
			defer hub.Close()

			userStore := store.NewUserStore(database)
			bookmarkStore := store.NewBookmarkStore(database, hub)
			tokenStore := auth.NewSQLTokenStore(database)

			sessionManager := auth.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)

			oidcProvider, err := auth.NewProvider(ctx, cfg)
			if err != nil {
				return err
			}

			authHandlers := auth.NewHandlers(oidcProvider, sessionManager, userStore, cfg.AdminEmail, !cfg.InsecureCookies)
			authMiddleware := auth.NewMiddleware(sessionManager, userStore)

			feedHandler := feed.NewHandler(hub, log)

			router := handler.NewRouter(handler.Deps{
				SessionManager: sessionManager,
				AuthHandlers:   authHandlers,
				AuthMiddleware: authMiddleware,
				BookmarkStore:  bookmarkStore,
				UserStore:      userStore,
				TokenStore:     tokenStore,
				FeedHandler:    feedHandler,
				Logger:         log,
			})

			go runGaugeRefresher(ctx, bookmarkStore, userStore, log)

			srv := &http.Server{
				Addr:    cfg.HTTP.Addr,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", logger.String("addr", cfg.HTTP.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// runGaugeRefresher keeps the bookmark and user count gauges current.
func runGaugeRefresher(ctx context.Context, bs store.BookmarkStoreIface, us *store.UserStore, log logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	refresh := func() {
		if n, err := bs.CountAll(ctx); err == nil {
			metrics.BookmarksTotal.Set(float64(n))
		} else {
			log.Warn("bookmark count failed", logger.Error(err))
		}
		if n, err := us.CountAll(ctx); err == nil {
			metrics.UsersTotal.Set(float64(n))
		} else {
			log.Warn("user count failed", logger.Error(err))
		}
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
