// Package slots bounds how many digests render at once.
package slots

import (
	"sort"
	"sync"
	"time"
)

// Render describes one in-flight render.
type Render struct {
	ID      string
	GuildID string
	UserID  string
	Started time.Time
}

// Manager tracks active renders and enforces the concurrency limit. A user
// holds at most one slot at a time.
type Manager struct {
	mu      sync.RWMutex
	active  map[string]Render
	max     int
	nowFunc func() time.Time
}

// NewManager creates a manager allowing max concurrent renders.
func NewManager(max int) *Manager {
	if max < 1 {
		max = 1
	}
	return &Manager{
		active:  make(map[string]Render),
		max:     max,
		nowFunc: time.Now,
	}
}

// Acquire reserves a slot for r. It returns a release func and true, or
// nil and false when the manager is full or the user already has a render
// running.
func (m *Manager) Acquire(r Render) (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) >= m.max {
		return nil, false
	}
	for _, a := range m.active {
		if a.UserID == r.UserID {
			return nil, false
		}
	}

	if r.Started.IsZero() {
		r.Started = m.nowFunc()
	}
	m.active[r.ID] = r

	var once sync.Once
	return func() { once.Do(func() { m.remove(r.ID) }) }, true
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, id)
}

// Count returns the number of active renders.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// List returns a snapshot of active renders, oldest first.
func (m *Manager) List() []Render {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Render, 0, len(m.active))
	for _, r := range m.active {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}
