package session

import "sync"

// Monitor turns 401 responses from the backend into a single process-wide
// unauthorized signal. However many in-flight calls fail together, the
// callback fires once; Reset re-arms it after a fresh login.
type Monitor struct {
	mu             sync.Mutex
	tripped        bool
	onUnauthorized func()
}

func NewMonitor(onUnauthorized func()) *Monitor {
	return &Monitor{onUnauthorized: onUnauthorized}
}

// Trip fires the unauthorized callback if the monitor is armed. Safe to call
// from any goroutine; the callback runs outside the lock.
func (m *Monitor) Trip() {
	m.mu.Lock()
	if m.tripped {
		m.mu.Unlock()
		return
	}
	m.tripped = true
	cb := m.onUnauthorized
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (m *Monitor) Reset() {
	m.mu.Lock()
	m.tripped = false
	m.mu.Unlock()
}

func (m *Monitor) Tripped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tripped
}
