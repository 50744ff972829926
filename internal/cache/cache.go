// Package cache holds the in-process caches used for derived ledger views
// (summaries and trend series).
package cache

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	applog "bilancio/internal/log"
)

// Sweepable is a cache the Manager can clean and report on.
type Sweepable interface {
	CleanExpired() int
	Stats() Stats
}

// Manager sweeps expired entries from named caches on an interval.
type Manager struct {
	mu     sync.Mutex
	caches map[string]Sweepable

	stop chan struct{}
	done chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]Sweepable),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds c under name, replacing any cache already using it.
func (m *Manager) Register(name string, c Sweepable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Stats reports every registered cache, keyed by name.
func (m *Manager) Stats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Stats, len(m.caches))
	for name, c := range m.caches {
		out[name] = c.Stats()
	}
	return out
}

// Names lists the registered caches in sorted order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sweep removes expired entries from every cache once.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup sweeps every interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("Expired cache entries removed", applog.FieldComponent, applog.ComponentCache, applog.FieldCount, n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine and waits for it. Call at most once, and
// only after StartCleanup.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}
