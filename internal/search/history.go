// internal/search/history.go
package search

import (
	"sync"
	"time"
)

// HistoryEntry is a snapshot of one completed orchestration, kept only for
// introspection. It carries no data needed for correctness.
type HistoryEntry struct {
	Query       string    `json:"query"`
	Branch      string    `json:"branch"`
	ResultCount int       `json:"resultCount"`
	ImageCount  int       `json:"imageCount"`
	Degraded    bool      `json:"degraded"`
	Timestamp   time.Time `json:"timestamp"`
}

// History is a fixed-capacity ring buffer of recent orchestrations. Once
// full, each append overwrites the oldest entry.
type History struct {
	mu       sync.Mutex
	entries  []HistoryEntry
	capacity int
	next     int
	full     bool
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 50
	}
	return &History{
		entries:  make([]HistoryEntry, capacity),
		capacity: capacity,
	}
}

// Append records an entry, evicting the oldest when at capacity.
func (h *History) Append(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = entry
	h.next = (h.next + 1) % h.capacity
	if h.next == 0 {
		h.full = true
	}
}

// Snapshot returns entries oldest-first.
func (h *History) Snapshot() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		out := make([]HistoryEntry, h.next)
		copy(out, h.entries[:h.next])
		return out
	}

	out := make([]HistoryEntry, 0, h.capacity)
	out = append(out, h.entries[h.next:]...)
	out = append(out, h.entries[:h.next]...)
	return out
}

// Len reports how many entries are currently retained.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.full {
		return h.capacity
	}
	return h.next
}
