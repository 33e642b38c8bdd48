// Package keys coordinates the client-side view of private AI key resources:
// the joined key list, the lazy spend cache, and the mutation paths that
// invalidate them.
package keys

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"keyadmin/internal/platform/models"
)

// Scope is the visibility boundary a key list is fetched under: one user's
// keys, or every key for administrators. The zero value scopes to nobody.
type Scope struct {
	UserID  int
	AllKeys bool
}

func (s Scope) Zero() bool { return s.UserID == 0 && !s.AllKeys }

// DirectoryBackend is the slice of the backend API the aggregator reads.
type DirectoryBackend interface {
	ListKeys(ctx context.Context, ownerID int) ([]models.PrivateAIKey, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRegions(ctx context.Context) ([]models.Region, error)
	DeleteKey(ctx context.Context, id int) error
}

// Aggregator joins key records with team and owner metadata and caches the
// result per scope. The joins are display-only: the underlying key entities
// are never mutated, and a failed join degrades to an unjoined row rather
// than failing the list.
type Aggregator struct {
	mu      sync.Mutex
	backend DirectoryBackend
	lists   map[Scope][]models.KeyView
	regions []models.Region
}

func NewAggregator(backend DirectoryBackend) *Aggregator {
	return &Aggregator{
		backend: backend,
		lists:   make(map[Scope][]models.KeyView),
	}
}

// ListKeys returns the joined key rows visible to scope. A zero scope has
// nothing to scope by and returns an empty list without touching the network.
func (a *Aggregator) ListKeys(ctx context.Context, scope Scope) ([]models.KeyView, error) {
	if scope.Zero() {
		return []models.KeyView{}, nil
	}

	a.mu.Lock()
	if cached, ok := a.lists[scope]; ok {
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	ownerID := scope.UserID
	if scope.AllKeys {
		ownerID = 0
	}
	raw, err := a.backend.ListKeys(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := a.join(ctx, raw)

	// A response that resolved after the caller went away is discarded, not
	// cached.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	a.mu.Lock()
	a.lists[scope] = views
	a.mu.Unlock()
	return views, nil
}

// join resolves team names and owner emails. Teams are fetched once per
// distinct id, users in one bulk call; either view failing leaves its
// column empty.
func (a *Aggregator) join(ctx context.Context, raw []models.PrivateAIKey) []models.KeyView {
	teamNames := make(map[int]string)
	for _, k := range raw {
		if k.TeamID == nil {
			continue
		}
		if _, seen := teamNames[*k.TeamID]; seen {
			continue
		}
		team, err := a.backend.GetTeam(ctx, *k.TeamID)
		if err != nil {
			log.Warn().Err(err).Int("team_id", *k.TeamID).Msg("team lookup failed, rendering key without team name")
			teamNames[*k.TeamID] = ""
			continue
		}
		teamNames[*k.TeamID] = team.Name
	}

	emails := make(map[int]string)
	if hasOwners(raw) {
		users, err := a.backend.ListUsers(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("user directory fetch failed, rendering keys without owner emails")
		}
		for _, u := range users {
			emails[u.ID] = u.Email
		}
	}

	views := make([]models.KeyView, 0, len(raw))
	for _, k := range raw {
		view := models.KeyView{PrivateAIKey: k}
		if k.TeamID != nil {
			view.TeamName = teamNames[*k.TeamID]
		}
		if k.OwnerID != nil {
			view.OwnerEmail = emails[*k.OwnerID]
		}
		views = append(views, view)
	}
	return views
}

// Regions returns the active-region catalog for provisioning choices,
// fetched once and cached for the life of the process.
func (a *Aggregator) Regions(ctx context.Context) ([]models.Region, error) {
	a.mu.Lock()
	if a.regions != nil {
		cached := a.regions
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	all, err := a.backend.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]models.Region, 0, len(all))
	for _, r := range all {
		if r.IsActive {
			active = append(active, r)
		}
	}

	a.mu.Lock()
	a.regions = active
	a.mu.Unlock()
	return active, nil
}

// DeleteKey soft-deletes the key server-side and drops every cached list so
// the next read re-fetches.
func (a *Aggregator) DeleteKey(ctx context.Context, id int) error {
	if err := a.backend.DeleteKey(ctx, id); err != nil {
		return err
	}
	a.Invalidate()
	return nil
}

// Invalidate drops all cached key lists. The region catalog survives; region
// membership never changes from this client.
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	a.lists = make(map[Scope][]models.KeyView)
	a.mu.Unlock()
}

func hasOwners(keys []models.PrivateAIKey) bool {
	for _, k := range keys {
		if k.OwnerID != nil {
			return true
		}
	}
	return false
}
