// Package observability aggregates the counters and recent failures the
// administrative diagnostic dump reports.
package observability

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"

	"voice-lab/domain"
	"voice-lab/domain/event"
)

const recentErrorCap = 32

// ErrorEntry is one failed platform operation, kept in a bounded ring.
type ErrorEntry struct {
	At        time.Time
	Operation string
	Room      domain.RoomID
	User      domain.UserID
	Err       string
}

// Recorder collects lifecycle counters and recent errors. It doubles as an
// event sink so every emitted domain event bumps its counter without extra
// plumbing in the manager.
type Recorder struct {
	mu           sync.Mutex
	recentErrors []ErrorEntry
	created      uint64
	closed       uint64
	transferred  uint64
	renamed      uint64
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Consume(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.(type) {
	case event.RoomCreated:
		r.created++
	case event.RoomClosed:
		r.closed++
	case event.OwnershipTransferred:
		r.transferred++
	case event.RoomRenamed:
		r.renamed++
	}
	return nil
}

// RecordError appends to the ring, dropping the oldest entry when full.
func (r *Recorder) RecordError(operation string, room domain.RoomID, user domain.UserID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := ErrorEntry{
		At:        time.Now(),
		Operation: operation,
		Room:      room,
		User:      user,
		Err:       err.Error(),
	}
	r.recentErrors = append(r.recentErrors, entry)
	if len(r.recentErrors) > recentErrorCap {
		r.recentErrors = r.recentErrors[len(r.recentErrors)-recentErrorCap:]
	}
}

func (r *Recorder) RecentErrors() []ErrorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ErrorEntry, len(r.recentErrors))
	copy(out, r.recentErrors)
	return out
}

func (r *Recorder) Counters() (created, closed, transferred, renamed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.created, r.closed, r.transferred, r.renamed
}

// Report is the diagnostic dump handed to the administrative surface.
type Report struct {
	Rooms              int
	OwnershipRecords   int
	PendingTransfers   int
	HeldPermissionEdit int
	RenameLockRecords  int
	TrackedActivity    int
	RoomsCreated       uint64
	RoomsClosed        uint64
	OwnersTransferred  uint64
	RoomsRenamed       uint64
	RecentErrors       []ErrorEntry
	RSSBytes           uint64
	CPUPercent         float64
}

// SelfStats reads the process's own memory and CPU figures. Failures are
// reported, not fatal; the rest of the dump is still useful without them.
func SelfStats() (rss uint64, cpu float64, err error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
