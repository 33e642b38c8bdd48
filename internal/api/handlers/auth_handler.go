package handlers

import (
	"net/http"

	"keyadmin/internal/engine/session"
	"keyadmin/internal/platform/config"
)

// AuthHandler owns the unauthenticated surface and the identity endpoint.
// Rendering the login and register forms is the UI collaborator's job; the
// console only guarantees the routes exist and carry the return target
// through.
type AuthHandler struct {
	cfg      *config.Config
	identity *session.Identity
}

func NewAuthHandler(cfg *config.Config, identity *session.Identity) *AuthHandler {
	return &AuthHandler{cfg: cfg, identity: identity}
}

// Landing is the target of the post-login redirect and the unauthenticated
// landing page.
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "landing"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"page": "login",
		"from": r.URL.Query().Get("from"),
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "register"})
}

// Config exposes the runtime configuration the UI needs before sign-in.
func (h *AuthHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"backend_url": h.cfg.Backend.BaseURL,
	})
}

// Me returns the caller's identity, fetched once per session and cached.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.Current(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
