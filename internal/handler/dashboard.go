package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/store"
)

// DashboardPage is the template data for the dashboard view.
type DashboardPage struct {
	BasePage
	Bookmarks []*store.Bookmark
	Flash     *Flash
}

// BookmarkListFragment is the template data for the polled list partial.
type BookmarkListFragment struct {
	Bookmarks []*store.Bookmark
}

// DashboardHandler serves the authenticated bookmark dashboard.
type DashboardHandler struct {
	bookmarks store.BookmarkStoreIface
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(bs store.BookmarkStoreIface) *DashboardHandler {
	return &DashboardHandler{bookmarks: bs}
}

// Show renders the dashboard with the user's bookmarks, newest first.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	bookmarks, err := h.bookmarks.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "failed to load bookmarks", http.StatusInternalServerError)
		return
	}

	render(w, "dashboard.html", DashboardPage{
		BasePage:  newBasePage(user),
		Bookmarks: bookmarks,
	})
}

// List serves GET /dashboard/list, the list partial the page script polls to
// keep the view converged with other sessions.
func (h *DashboardHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	bookmarks, err := h.bookmarks.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "failed to load bookmarks", http.StatusInternalServerError)
		return
	}

	renderFragment(w, "bookmark_list", BookmarkListFragment{Bookmarks: bookmarks})
}

// Create handles POST /dashboard/bookmarks from the add form.
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	title := r.PostFormValue("title")
	rawURL := r.PostFormValue("url")

	_, err := h.bookmarks.Create(r.Context(), user.ID, title, rawURL)
	if err != nil {
		if errors.Is(err, store.ErrTitleRequired) || errors.Is(err, store.ErrURLRequired) {
			if isAsync(r) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			h.showWithFlash(w, r, &Flash{Type: "error", Message: err.Error()})
			return
		}
		http.Error(w, "failed to save bookmark", http.StatusInternalServerError)
		return
	}

	if isAsync(r) {
		h.List(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Delete handles POST /dashboard/bookmarks/{id}/delete. Deleting an already
// removed bookmark is treated as success so a stale page can't surface an
// error for an outcome that already holds.
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.bookmarks.Delete(r.Context(), id, user.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		http.Error(w, "failed to delete bookmark", http.StatusInternalServerError)
		return
	}

	if isAsync(r) {
		h.List(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *DashboardHandler) showWithFlash(w http.ResponseWriter, r *http.Request, flash *Flash) {
	user := auth.UserFromContext(r.Context())

	bookmarks, err := h.bookmarks.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "failed to load bookmarks", http.StatusInternalServerError)
		return
	}

	render(w, "dashboard.html", DashboardPage{
		BasePage:  newBasePage(user),
		Bookmarks: bookmarks,
		Flash:     flash,
	})
}
