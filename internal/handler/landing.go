package handler

import (
	"net/http"

	"github.com/marksync/marksync/internal/auth"
)

// LandingHandler serves the public landing page.
type LandingHandler struct{}

// NewLandingHandler creates a new LandingHandler.
func NewLandingHandler() *LandingHandler { return &LandingHandler{} }

// Index serves GET /. Authenticated users are redirected to /dashboard.
func (h *LandingHandler) Index(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	render(w, "landing.html", newBasePage(nil))
}
