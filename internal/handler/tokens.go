package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/store"
)

// TokensPage is the template data for the token management settings page.
type TokensPage struct {
	BasePage
	Tokens   []*auth.TokenRecord
	NewToken string // plaintext shown once after creation; empty otherwise
	Flash    *Flash
}

// TokensHandler provides web UI handlers for API token management.
type TokensHandler struct {
	tokens auth.TokenStore
}

// NewTokensHandler creates a new TokensHandler.
func NewTokensHandler(ts auth.TokenStore) *TokensHandler {
	return &TokensHandler{tokens: ts}
}

// Index renders the token management page with the user's active tokens.
// GET /dashboard/settings/tokens
func (h *TokensHandler) Index(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	records, err := h.tokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "could not load tokens", http.StatusInternalServerError)
		return
	}

	render(w, "tokens.html", TokensPage{
		BasePage: newBasePage(user),
		Tokens:   records,
	})
}

// Create processes the token creation form and shows the plaintext once.
// POST /dashboard/settings/tokens
func (h *TokensHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("name")
	if name == "" {
		h.renderWithFlash(w, r, "", &Flash{Type: "error", Message: "Token name is required."})
		return
	}

	var expiresAt *time.Time
	if exp := r.PostFormValue("expires_in"); exp != "" {
		d, err := time.ParseDuration(exp)
		if err != nil {
			h.renderWithFlash(w, r, "", &Flash{Type: "error", Message: "Invalid expiry duration."})
			return
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	if _, err := h.tokens.Create(r.Context(), user.ID, name, hash, expiresAt); err != nil {
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}

	h.renderWithFlash(w, r, plaintext, &Flash{
		Type:    "success",
		Message: "Token created. Copy it now; it will not be shown again.",
	})
}

// Revoke soft-deletes a token owned by the current user.
// POST /dashboard/settings/tokens/{id}/revoke
func (h *TokensHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	tokenID := chi.URLParam(r, "id")

	if err := h.tokens.Revoke(r.Context(), tokenID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "revoke failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard/settings/tokens", http.StatusSeeOther)
}

func (h *TokensHandler) renderWithFlash(w http.ResponseWriter, r *http.Request, plaintext string, flash *Flash) {
	user := auth.UserFromContext(r.Context())
	records, _ := h.tokens.ListByUser(r.Context(), user.ID)

	render(w, "tokens.html", TokensPage{
		BasePage: newBasePage(user),
		Tokens:   records,
		NewToken: plaintext,
		Flash:    flash,
	})
}
