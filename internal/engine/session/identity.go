package session

import (
	"context"
	"sync"

	"keyadmin/internal/platform/models"
)

// IdentityFetcher resolves the caller behind the current session token.
type IdentityFetcher interface {
	Me(ctx context.Context) (*models.User, error)
}

// TokenSource yields the session token behind one request.
type TokenSource func(ctx context.Context) string

// Identity caches the current user per session token, fetched once per
// session and cleared by the unauthorized monitor. The console serves many
// sessions at once, so the cache is keyed by token; one caller's identity is
// never served to another.
//
// rearm is invoked after every successful fetch so the unauthorized signal
// is re-armed for the next failure epoch.
type Identity struct {
	mu      sync.Mutex
	fetcher IdentityFetcher
	token   TokenSource
	rearm   func()
	users   map[string]*models.User
}

func NewIdentity(fetcher IdentityFetcher, token TokenSource, rearm func()) *Identity {
	return &Identity{
		fetcher: fetcher,
		token:   token,
		rearm:   rearm,
		users:   make(map[string]*models.User),
	}
}

// Current returns the caller's cached user, fetching it on first use for
// this session.
func (i *Identity) Current(ctx context.Context) (*models.User, error) {
	token := i.token(ctx)

	i.mu.Lock()
	defer i.mu.Unlock()

	if user, ok := i.users[token]; ok {
		return user, nil
	}
	user, err := i.fetcher.Me(ctx)
	if err != nil {
		return nil, err
	}
	i.users[token] = user
	if i.rearm != nil {
		i.rearm()
	}
	return user, nil
}

// Clear drops every cached identity. The unauthorized monitor calls this on
// a 401; the failing session cannot be told apart here, so all sessions
// re-resolve on their next request.
func (i *Identity) Clear() {
	i.mu.Lock()
	i.users = make(map[string]*models.User)
	i.mu.Unlock()
}
