package runtime

import (
	"sync"

	"voice-lab/domain"
)

// PermissionMutex prevents concurrent ownership-permission edits on the same
// room. Acquired before and released after any permission mutation, errors
// included.
type PermissionMutex struct {
	mu   sync.Mutex
	busy map[domain.RoomID]struct{}
}

func NewPermissionMutex() *PermissionMutex {
	return &PermissionMutex{busy: make(map[domain.RoomID]struct{})}
}

// TryAcquire reports whether the room's slot was free and is now taken.
func (m *PermissionMutex) TryAcquire(room domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.busy[room]; held {
		return false
	}
	m.busy[room] = struct{}{}
	return true
}

func (m *PermissionMutex) Release(room domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.busy, room)
}

func (m *PermissionMutex) Held(room domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, held := m.busy[room]
	return held
}

func (m *PermissionMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.busy)
}
