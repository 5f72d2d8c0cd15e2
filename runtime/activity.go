package runtime

import (
	"sync"
	"time"

	"voice-lab/domain"
)

// ActivityTable tracks each user's last-seen timestamp, refreshed on message
// and interaction events. It is inert instrumentation: nothing acts on
// staleness, the table is only pruned periodically and surfaced in the
// diagnostics dump.
type ActivityTable struct {
	mu       sync.Mutex
	lastSeen map[domain.UserID]time.Time
}

func NewActivityTable() *ActivityTable {
	return &ActivityTable{lastSeen: make(map[domain.UserID]time.Time)}
}

func (t *ActivityTable) Touch(user domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSeen[user] = time.Now()
}

// Prune drops timestamps older than retention, returning how many were removed.
func (t *ActivityTable) Prune(retention time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	pruned := 0
	for user, seen := range t.lastSeen {
		if seen.Before(cutoff) {
			delete(t.lastSeen, user)
			pruned++
		}
	}
	return pruned
}

func (t *ActivityTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.lastSeen)
}
