package keys

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	apperrors "keyadmin/internal/pkg/errors"
)

// Duration expressions are <integer><unit>, unit one of d/h/m. Anything
// past this shape is the server's call to accept or reject.
var durationExpr = regexp.MustCompile(`^[0-9]+[dhm]$`)

type BudgetBackend interface {
	UpdateBudgetPeriod(ctx context.Context, id int, duration string) error
}

// BudgetMutator applies budget-period changes. At most one mutation per key
// is in flight at a time; the busy flag is advisory double-submit protection
// for the caller, not server-side race prevention. Budget fields are never
// written locally: on success the spend entry is invalidated so the next
// fetch carries the server's recomputed values.
type BudgetMutator struct {
	backend BudgetBackend
	spend   *SpendCache

	mu   sync.Mutex
	busy map[int]bool
}

func NewBudgetMutator(backend BudgetBackend, spend *SpendCache) *BudgetMutator {
	return &BudgetMutator{
		backend: backend,
		spend:   spend,
		busy:    make(map[int]bool),
	}
}

func (m *BudgetMutator) SetBudgetPeriod(ctx context.Context, id int, duration string) error {
	if !durationExpr.MatchString(duration) {
		return fmt.Errorf("invalid budget duration %q: want <integer><d|h|m>", duration)
	}

	if !m.acquire(id) {
		return apperrors.ErrBudgetBusy
	}
	defer m.release(id)

	if err := m.backend.UpdateBudgetPeriod(ctx, id, duration); err != nil {
		return err
	}

	m.spend.Invalidate(id)
	return nil
}

// Busy reports whether a mutation for id is in flight.
func (m *BudgetMutator) Busy(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy[id]
}

func (m *BudgetMutator) acquire(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[id] {
		return false
	}
	m.busy[id] = true
	return true
}

func (m *BudgetMutator) release(id int) {
	m.mu.Lock()
	delete(m.busy, id)
	m.mu.Unlock()
}
