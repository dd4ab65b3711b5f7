package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/handler"
	"github.com/marksync/marksync/internal/store"
	"github.com/marksync/marksync/internal/testutil"
)

// newDashboardEnv wires a DashboardHandler over a real store with a seeded
// user, plus a router that injects that user into every request.
func newDashboardEnv(t *testing.T) (chi.Router, *store.BookmarkStore, *store.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	bs := store.NewBookmarkStore(db, nil)
	us := store.NewUserStore(db)

	user, err := us.Upsert(context.Background(), "test", "sub1", "alice@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h := handler.NewDashboardHandler(bs)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/dashboard", h.Show)
	r.Get("/dashboard/list", h.List)
	r.Post("/dashboard/bookmarks", h.Create)
	r.Post("/dashboard/bookmarks/{id}/delete", h.Delete)

	return r, bs, user
}

func TestDashboard_Show(t *testing.T) {
	r, bs, user := newDashboardEnv(t)

	if _, err := bs.Create(context.Background(), user.ID, "React Docs", "react.dev"); err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "React Docs") {
		t.Error("expected the bookmark title in the page")
	}
	if !strings.Contains(body, "react.dev") {
		t.Error("expected the bookmark host in the page")
	}
}

func TestDashboard_Show_Empty(t *testing.T) {
	r, _, _ := newDashboardEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No bookmarks yet") {
		t.Error("expected the empty state message")
	}
}

func TestDashboard_ListFragment(t *testing.T) {
	r, bs, user := newDashboardEnv(t)

	if _, err := bs.Create(context.Background(), user.ID, "Go Blog", "go.dev/blog"); err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/list", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Go Blog") {
		t.Error("expected the bookmark in the fragment")
	}
	if strings.Contains(body, "<html") {
		t.Error("fragment must not include the page layout")
	}
}

func TestDashboard_Create_Form(t *testing.T) {
	r, bs, user := newDashboardEnv(t)

	form := url.Values{"title": {"React"}, "url": {"react.dev"}}
	req := httptest.NewRequest(http.MethodPost, "/dashboard/bookmarks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 redirect", rec.Code)
	}

	list, err := bs.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 || list[0].URL != "https://react.dev" {
		t.Errorf("stored = %+v, want one normalized bookmark", list)
	}
}

func TestDashboard_Create_AsyncReturnsFragment(t *testing.T) {
	r, _, _ := newDashboardEnv(t)

	form := url.Values{"title": {"React"}, "url": {"react.dev"}}
	req := httptest.NewRequest(http.MethodPost, "/dashboard/bookmarks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "fetch")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with fragment", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "React") {
		t.Error("expected the new bookmark in the returned fragment")
	}
}

func TestDashboard_Create_AsyncValidationError(t *testing.T) {
	r, _, _ := newDashboardEnv(t)

	form := url.Values{"title": {""}, "url": {"react.dev"}}
	req := httptest.NewRequest(http.MethodPost, "/dashboard/bookmarks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "fetch")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "title is required") {
		t.Errorf("body = %q, want validation message", rec.Body.String())
	}
}

func TestDashboard_Delete(t *testing.T) {
	r, bs, user := newDashboardEnv(t)

	b, err := bs.Create(context.Background(), user.ID, "React", "react.dev")
	if err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/dashboard/bookmarks/"+b.ID+"/delete", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if _, err := bs.GetByID(context.Background(), b.ID); err == nil {
		t.Error("bookmark still present after delete")
	}
}

func TestDashboard_Delete_AlreadyGone(t *testing.T) {
	r, _, _ := newDashboardEnv(t)

	// Deleting a missing bookmark succeeds; the outcome already holds.
	req := httptest.NewRequest(http.MethodPost, "/dashboard/bookmarks/missing/delete", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
}

func TestRelativeAgeInFragment(t *testing.T) {
	r, bs, user := newDashboardEnv(t)

	if _, err := bs.Create(context.Background(), user.ID, "Fresh", "fresh.example.com"); err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/list", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "just now") {
		t.Errorf("fragment = %q, want a relative age", rec.Body.String())
	}
}
