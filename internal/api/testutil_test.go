package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/marksync/marksync/internal/api"
	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/store"
	"github.com/marksync/marksync/internal/testutil"
)

// testEnv holds all stores and helpers needed for API integration tests.
type testEnv struct {
	Router        http.Handler
	BookmarkStore *store.BookmarkStore
	UserStore     *store.UserStore
	TokenStore    *auth.SQLTokenStore
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with real stores.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	us := store.NewUserStore(db)
	bs := store.NewBookmarkStore(db, nil)
	ts := auth.NewSQLTokenStore(db)

	router := api.NewAPIRouter(api.Deps{
		BearerAuth:    auth.NewBearerTokenMiddleware(ts, us),
		BookmarkStore: bs,
	})

	return &testEnv{
		Router:        router,
		BookmarkStore: bs,
		UserStore:     us,
		TokenStore:    ts,
	}
}

// seedUser creates a user and returns the user record.
func seedUser(t *testing.T, env *testEnv, email string) *store.User {
	t.Helper()
	u, err := env.UserStore.Upsert(context.Background(), "test", "sub-"+email, email, "Test User", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedToken creates a real API token for a user and returns the plaintext Bearer value.
func seedToken(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := env.TokenStore.Create(context.Background(), userID, "test-token", hash, nil); err != nil {
		t.Fatalf("create token: %v", err)
	}
	return plaintext
}

// authRequest adds a Bearer token to the request.
func authRequest(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}
