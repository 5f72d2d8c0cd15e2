package runtime

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"voice-lab/domain"
)

// OwnershipTable is the authoritative owner + metadata per room. At most one
// record exists per live room; it is created with the spawning user and
// deleted together with the room.
type OwnershipTable struct {
	mu      sync.RWMutex
	records map[domain.RoomID]domain.OwnershipRecord
}

func NewOwnershipTable() *OwnershipTable {
	return &OwnershipTable{records: make(map[domain.RoomID]domain.OwnershipRecord)}
}

func (t *OwnershipTable) Insert(record domain.OwnershipRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[record.Room] = record
}

func (t *OwnershipTable) Get(room domain.RoomID) (domain.OwnershipRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.records[room]
	return record, ok
}

// SetOwner reassigns the record to a new owner, reporting whether a record
// existed at all.
func (t *OwnershipTable) SetOwner(room domain.RoomID, owner domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[room]
	if !ok {
		return false
	}
	record.Owner = owner
	t.records[room] = record
	return true
}

func (t *OwnershipTable) SetType(room domain.RoomID, key domain.TypeKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[room]
	if !ok {
		return false
	}
	record.RoomType = key
	t.records[room] = record
	return true
}

// Touch refreshes the record's last-interaction timestamp.
func (t *OwnershipTable) Touch(room domain.RoomID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[room]
	if !ok {
		return
	}
	record.LastInteractionAt = at
	t.records[room] = record
}

func (t *OwnershipTable) Delete(room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, room)
}

func (t *OwnershipTable) Records() []domain.OwnershipRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return lo.Values(t.records)
}

func (t *OwnershipTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.records)
}

// Restore replaces the table content with a persisted snapshot.
func (t *OwnershipTable) Restore(records []domain.OwnershipRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = make(map[domain.RoomID]domain.OwnershipRecord, len(records))
	for _, record := range records {
		t.records[record.Room] = record
	}
}
