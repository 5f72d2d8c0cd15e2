package runtime

import (
	"sync"

	"github.com/samber/lo"

	"voice-lab/domain"
)

// SessionDirectory maps community -> trigger -> spawned room IDs and keeps
// the reverse "is this a spawned room" lookup. It is the authority on which
// channels this core is responsible for; anything not registered here is
// someone else's channel and is left alone.
type SessionDirectory struct {
	mu      sync.RWMutex
	spawned map[domain.CommunityID]map[domain.RoomID][]domain.RoomID
	rooms   map[domain.RoomID]domain.Room
}

func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{
		spawned: make(map[domain.CommunityID]map[domain.RoomID][]domain.RoomID),
		rooms:   make(map[domain.RoomID]domain.Room),
	}
}

func (d *SessionDirectory) Register(room domain.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[room.ID]; ok {
		return
	}
	d.rooms[room.ID] = room

	byTrigger, ok := d.spawned[room.Community]
	if !ok {
		byTrigger = make(map[domain.RoomID][]domain.RoomID)
		d.spawned[room.Community] = byTrigger
	}
	byTrigger[room.Trigger] = append(byTrigger[room.Trigger], room.ID)
}

func (d *SessionDirectory) Remove(id domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return
	}
	delete(d.rooms, id)

	byTrigger, ok := d.spawned[room.Community]
	if !ok {
		return
	}
	byTrigger[room.Trigger] = lo.Without(byTrigger[room.Trigger], id)
	if len(byTrigger[room.Trigger]) == 0 {
		delete(byTrigger, room.Trigger)
	}
	if len(byTrigger) == 0 {
		delete(d.spawned, room.Community)
	}
}

// Lookup reports whether id is a room this core spawned.
func (d *SessionDirectory) Lookup(id domain.RoomID) (domain.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[id]
	return room, ok
}

// Rooms returns a snapshot of every tracked room.
func (d *SessionDirectory) Rooms() []domain.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return lo.Values(d.rooms)
}

func (d *SessionDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.rooms)
}

// Restore replaces the directory content with a persisted snapshot.
func (d *SessionDirectory) Restore(rooms []domain.Room) {
	d.mu.Lock()
	d.spawned = make(map[domain.CommunityID]map[domain.RoomID][]domain.RoomID)
	d.rooms = make(map[domain.RoomID]domain.Room)
	d.mu.Unlock()

	for _, room := range rooms {
		d.Register(room)
	}
}
