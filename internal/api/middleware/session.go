package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	apiContext "keyadmin/internal/api/context"
	"keyadmin/internal/engine/session"
	"keyadmin/internal/platform/config"
)

// SessionMiddleware applies the session gate to every navigation. The gate
// itself is pure; this layer reads the cookie, acts on the decision, and
// stashes the token for the backend client.
type SessionMiddleware struct {
	cfg config.SessionConfig
	now func() time.Time
}

func NewSessionMiddleware(cfg config.SessionConfig) *SessionMiddleware {
	return &SessionMiddleware{cfg: cfg, now: time.Now}
}

func (m *SessionMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
			token = cookie.Value
		}

		decision := session.Decide(r.URL.Path, token, m.now())
		switch decision.Action {
		case session.RedirectLogin:
			target := m.cfg.LoginPath + "?from=" + url.QueryEscape(decision.From)
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		case session.RedirectApp:
			http.Redirect(w, r, m.cfg.AppPath, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.AccessToken, token)
		next(w, r.WithContext(ctx))
	}
}
