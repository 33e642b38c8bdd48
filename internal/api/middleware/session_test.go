package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apiContext "keyadmin/internal/api/context"
	"keyadmin/internal/platform/config"
)

var sessionCfg = config.SessionConfig{
	CookieName: "access_token",
	LoginPath:  "/login",
	AppPath:    "/",
}

func tokenExpiring(t *testing.T, at time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": at.Unix()}).
		SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func gateRequest(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	m := NewSessionMiddleware(sessionCfg)

	called := false
	handler := m.Handle(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if got, _ := r.Context().Value(apiContext.AccessToken).(string); got != token {
			t.Errorf("token not stashed in context, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code == http.StatusOK && !called {
		t.Error("allowed request never reached the handler")
	}
	return rec
}

func TestSessionMiddleware_ExpiredTokenRedirectsWithFrom(t *testing.T) {
	token := tokenExpiring(t, time.Now().Add(-10*time.Second))
	rec := gateRequest(t, "/api/keys", token)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?from=%2Fapi%2Fkeys" {
		t.Errorf("return target not preserved, got %q", loc)
	}
}

func TestSessionMiddleware_ValidTokenOnLoginRedirectsToApp(t *testing.T) {
	token := tokenExpiring(t, time.Now().Add(time.Hour))
	rec := gateRequest(t, "/login", token)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected app redirect, got %q", loc)
	}
}

func TestSessionMiddleware_ValidTokenAllowed(t *testing.T) {
	token := tokenExpiring(t, time.Now().Add(time.Hour))
	rec := gateRequest(t, "/api/keys", token)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestSessionMiddleware_PublicPathWithoutToken(t *testing.T) {
	rec := gateRequest(t, "/api/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public path to pass, got %d", rec.Code)
	}
}
