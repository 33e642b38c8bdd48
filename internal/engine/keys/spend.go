package keys

import (
	"context"
	"sync"

	"keyadmin/internal/platform/models"
)

type SpendState int

const (
	SpendUnloaded SpendState = iota
	SpendLoading
	SpendLoaded
)

// SpendFetcher is the backend call behind the cache.
type SpendFetcher interface {
	FetchSpend(ctx context.Context, id int) (*models.SpendSnapshot, error)
}

type spendEntry struct {
	state SpendState
	snap  *models.SpendSnapshot
	err   error
	done  chan struct{}
}

// SpendCache lazily materializes per-key spend snapshots. Loads for one key
// coalesce into a single fetch; entries never expire on a timer and only an
// explicit Refresh or Invalidate moves a loaded entry.
//
// Callers gate on PrivateAIKey.Meterable before asking for spend; a key
// without a metering identity has no business in here.
type SpendCache struct {
	mu      sync.Mutex
	fetcher SpendFetcher
	entries map[int]*spendEntry
}

func NewSpendCache(fetcher SpendFetcher) *SpendCache {
	return &SpendCache{
		fetcher: fetcher,
		entries: make(map[int]*spendEntry),
	}
}

func (c *SpendCache) IsLoaded(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return ok && e.state == SpendLoaded
}

// Load returns the snapshot for id, fetching it on first use. Concurrent
// callers share one fetch and observe the same result. A failed initial
// load leaves the key unloaded so a later call can retry.
func (c *SpendCache) Load(ctx context.Context, id int) (*models.SpendSnapshot, error) {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		if e.state == SpendLoaded {
			snap := e.snap
			c.mu.Unlock()
			return snap, nil
		}
		// In flight: join the existing fetch.
		done := e.done
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
		snap, err := e.snap, e.err
		c.mu.Unlock()
		return snap, err
	}

	e := &spendEntry{state: SpendLoading, done: make(chan struct{})}
	c.entries[id] = e
	c.mu.Unlock()

	snap, err := c.fetcher.FetchSpend(ctx, id)

	c.mu.Lock()
	if err != nil {
		e.err = err
		if c.entries[id] == e {
			delete(c.entries, id)
		}
	} else {
		e.snap = snap
		e.state = SpendLoaded
	}
	close(e.done)
	c.mu.Unlock()
	return snap, err
}

// Refresh always issues a new fetch. On success the snapshot is replaced;
// on failure the prior snapshot, if any, is kept and the error returned.
// Two overlapping refreshes resolve in arrival order with no sequencing,
// so the last response to land wins.
func (c *SpendCache) Refresh(ctx context.Context, id int) (*models.SpendSnapshot, error) {
	c.mu.Lock()
	prior := c.entries[id]
	e := &spendEntry{state: SpendLoading, done: make(chan struct{})}
	if prior != nil {
		e.snap = prior.snap
	}
	c.entries[id] = e
	c.mu.Unlock()

	snap, err := c.fetcher.FetchSpend(ctx, id)

	c.mu.Lock()
	if err != nil {
		e.err = err
		if e.snap != nil {
			// Keep showing the last-known snapshot.
			e.state = SpendLoaded
		} else if c.entries[id] == e {
			delete(c.entries, id)
		}
	} else {
		e.snap = snap
		e.err = nil
		e.state = SpendLoaded
	}
	close(e.done)
	c.mu.Unlock()

	if err != nil {
		return e.snap, err
	}
	return snap, nil
}

// Invalidate forces the key back to unloaded. The next Load or Refresh
// fetches fresh; nothing is refetched eagerly.
func (c *SpendCache) Invalidate(id int) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}
