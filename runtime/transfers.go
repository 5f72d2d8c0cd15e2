package runtime

import (
	"sync"

	"github.com/samber/lo"

	"voice-lab/domain"
)

// TransferRequests holds, per room, the users who asked to claim ownership
// while the owner was absent. An entry is consumed when its requester
// rejoins an owner-less room; the whole set is cleared when the room
// disappears.
type TransferRequests struct {
	mu      sync.Mutex
	pending map[domain.RoomID]map[domain.UserID]struct{}
}

func NewTransferRequests() *TransferRequests {
	return &TransferRequests{pending: make(map[domain.RoomID]map[domain.UserID]struct{})}
}

func (t *TransferRequests) Add(room domain.RoomID, user domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.pending[room]
	if !ok {
		set = make(map[domain.UserID]struct{})
		t.pending[room] = set
	}
	set[user] = struct{}{}
}

// Take removes user's request for room, reporting whether one was pending.
func (t *TransferRequests) Take(room domain.RoomID, user domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.pending[room]
	if !ok {
		return false
	}
	if _, requested := set[user]; !requested {
		return false
	}
	delete(set, user)
	if len(set) == 0 {
		delete(t.pending, room)
	}
	return true
}

func (t *TransferRequests) Has(room domain.RoomID, user domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.pending[room]
	if !ok {
		return false
	}
	_, requested := set[user]
	return requested
}

func (t *TransferRequests) Clear(room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pending, room)
}

// Rooms lists every room with at least one pending request.
func (t *TransferRequests) Rooms() []domain.RoomID {
	t.mu.Lock()
	defer t.mu.Unlock()

	return lo.Keys(t.pending)
}

func (t *TransferRequests) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, set := range t.pending {
		total += len(set)
	}
	return total
}
