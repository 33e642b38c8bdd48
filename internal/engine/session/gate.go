package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Action int

const (
	Allow Action = iota
	RedirectLogin
	RedirectApp
)

// Decision is the gate's verdict for one navigation. From carries the
// originally requested path when the action is RedirectLogin.
type Decision struct {
	Action Action
	From   string
}

var publicPaths = map[string]bool{
	"/":           true,
	"/login":      true,
	"/register":   true,
	"/api/config": true,
}

// Paths that only make sense without a session.
var authOnlyPaths = map[string]bool{
	"/login":    true,
	"/register": true,
}

// Framework assets and static files are never gated.
var bypassPrefixes = []string{"/static/", "/assets/", "/favicon", "/_"}

// Decide classifies one navigation. It is a pure function of (path, token,
// now) and is re-evaluated on every request; the token can expire between
// navigations so no verdict is ever cached.
func Decide(path, token string, now time.Time) Decision {
	for _, p := range bypassPrefixes {
		if strings.HasPrefix(path, p) {
			return Decision{Action: Allow}
		}
	}

	valid := TokenValid(token, now)

	if !valid && !publicPaths[path] {
		return Decision{Action: RedirectLogin, From: path}
	}
	if valid && authOnlyPaths[path] {
		return Decision{Action: RedirectApp}
	}
	return Decision{Action: Allow}
}

// TokenValid decodes the token payload and checks the expiry claim. The
// signature is not verified; integrity is the server's responsibility and
// this check only exists to avoid bouncing requests off a 401. Any decode
// failure or missing exp claims the token expired.
func TokenValid(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Before(exp.Time)
}
