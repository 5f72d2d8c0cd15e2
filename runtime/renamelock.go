package runtime

import (
	"sync"
	"time"

	"voice-lab/domain"
)

// LockStatus is the externally visible state of one rename lock, used by the
// diagnostics dump.
type LockStatus struct {
	Room       domain.RoomID
	Holder     domain.UserID
	InProgress bool
	Since      time.Time
}

type renameRecord struct {
	inProgress bool
	timestamp  time.Time
	holder     domain.UserID
}

// RenameLocks is the single-writer, timeout-bounded lock table guarding
// name-changing operations. The same holder may re-acquire before the
// timeout; a different holder is denied while the record is in progress
// and unexpired. Completed records are retained for the garbage
// collector's delayed-cleanup window rather than deleted on the spot.
type RenameLocks struct {
	mu      sync.Mutex
	timeout time.Duration
	records map[domain.RoomID]*renameRecord
	timers  map[domain.RoomID]*time.Timer
}

func NewRenameLocks(timeout time.Duration) *RenameLocks {
	return &RenameLocks{
		timeout: timeout,
		records: make(map[domain.RoomID]*renameRecord),
		timers:  make(map[domain.RoomID]*time.Timer),
	}
}

// Acquire attempts to take the rename lock for user, reporting whether it
// was granted. Re-entry by the current holder refreshes the lock.
func (l *RenameLocks) Acquire(room domain.RoomID, user domain.UserID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	record, ok := l.records[room]
	if ok && record.inProgress && now.Sub(record.timestamp) < l.timeout {
		if record.holder != user {
			return false
		}
		// Idempotent re-entry by the holder: refresh and keep going.
		record.timestamp = now
		l.resetTimer(room)
		return true
	}

	l.records[room] = &renameRecord{inProgress: true, timestamp: now, holder: user}
	l.resetTimer(room)
	return true
}

// resetTimer arms the auto-complete timer. Callers hold l.mu.
func (l *RenameLocks) resetTimer(room domain.RoomID) {
	if timer, ok := l.timers[room]; ok {
		timer.Stop()
	}
	l.timers[room] = time.AfterFunc(l.timeout, func() {
		l.Complete(room)
	})
}

// Complete marks the current record as done. The record stays around so the
// sweep can observe and eventually drop it.
func (l *RenameLocks) Complete(room domain.RoomID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[room]
	if !ok {
		return
	}
	record.inProgress = false
	record.timestamp = time.Now()
	if timer, ok := l.timers[room]; ok {
		timer.Stop()
		delete(l.timers, room)
	}
}

// Purge removes the record entirely, timer included.
func (l *RenameLocks) Purge(room domain.RoomID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, room)
	if timer, ok := l.timers[room]; ok {
		timer.Stop()
		delete(l.timers, room)
	}
}

// Sweep drops records older than maxAge unconditionally and completed
// records older than completedAge. It returns how many were dropped.
func (l *RenameLocks) Sweep(maxAge, completedAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	dropped := 0
	for room, record := range l.records {
		age := now.Sub(record.timestamp)
		if age < maxAge && (record.inProgress || age < completedAge) {
			continue
		}
		delete(l.records, room)
		if timer, ok := l.timers[room]; ok {
			timer.Stop()
			delete(l.timers, room)
		}
		dropped++
	}
	return dropped
}

// InProgress lists the currently held locks for diagnostics.
func (l *RenameLocks) InProgress() []LockStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []LockStatus
	for room, record := range l.records {
		if !record.inProgress {
			continue
		}
		out = append(out, LockStatus{
			Room:       room,
			Holder:     record.holder,
			InProgress: true,
			Since:      record.timestamp,
		})
	}
	return out
}

func (l *RenameLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.records)
}
