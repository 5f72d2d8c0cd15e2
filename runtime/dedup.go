package runtime

import (
	"sync"
	"time"

	"voice-lab/domain"
)

type dedupKey struct {
	User   domain.UserID
	Room   domain.RoomID
	Action domain.ActionKind
}

// DedupGuard suppresses duplicate repeated actions from the same user on the
// same room inside a short debounce window. Entries expire on their own; a
// room purge stops the timers eagerly so a deleted room leaves nothing behind.
type DedupGuard struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[dedupKey]time.Time
	timers map[dedupKey]*time.Timer
}

func NewDedupGuard(window time.Duration) *DedupGuard {
	return &DedupGuard{
		window: window,
		seen:   make(map[dedupKey]time.Time),
		timers: make(map[dedupKey]*time.Timer),
	}
}

// Track records the action and reports whether it is a duplicate. A duplicate
// must be acknowledged by the caller without reprocessing.
func (g *DedupGuard) Track(user domain.UserID, room domain.RoomID, action domain.ActionKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := dedupKey{User: user, Room: room, Action: action}
	now := time.Now()
	if last, ok := g.seen[key]; ok && now.Sub(last) < g.window {
		return true
	}

	g.seen[key] = now
	if timer, ok := g.timers[key]; ok {
		timer.Stop()
	}
	g.timers[key] = time.AfterFunc(g.window, func() {
		g.expire(key)
	})
	return false
}

func (g *DedupGuard) expire(key dedupKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.seen, key)
	delete(g.timers, key)
}

// PurgeRoom drops every entry tracked for the given room.
func (g *DedupGuard) PurgeRoom(room domain.RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, timer := range g.timers {
		if key.Room == room {
			timer.Stop()
			delete(g.timers, key)
			delete(g.seen, key)
		}
	}
	for key := range g.seen {
		if key.Room == room {
			delete(g.seen, key)
		}
	}
}

func (g *DedupGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.seen)
}

// Close stops all pending expiry timers.
func (g *DedupGuard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, timer := range g.timers {
		timer.Stop()
		delete(g.timers, key)
	}
	g.seen = make(map[dedupKey]time.Time)
}
