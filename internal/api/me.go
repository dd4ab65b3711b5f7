package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marksync/marksync/internal/auth"
)

// registerMeRoutes registers the identity route on r.
func registerMeRoutes(r chi.Router) {
	r.Get("/me", handleMe)
}

// handleMe returns the user behind the presented token. CLI clients use it to
// learn their own user id before scoping a local view.
// GET /api/v1/me
func handleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}
