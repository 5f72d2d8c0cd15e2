// Package runtime is the lifecycle engine for user-owned voice rooms: one
// service object owning every tracking table, fed by platform events and
// decoded interaction commands, reconciled by periodic sweeps.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"voice-lab/contract"
	"voice-lab/domain"
	"voice-lab/domain/event"
	apperrors "voice-lab/errors"
	"voice-lab/moderation"
	"voice-lab/observability"
	"voice-lab/repositories"
)

// Reply is what the interaction dispatcher shows the acting user. Duplicate
// means the action was debounced and must be acknowledged without
// reprocessing.
type Reply struct {
	Content   string
	Duplicate bool
}

type renameInput struct {
	Name string `validate:"required,min=2,max=100"`
}

// Manager owns all room-lifecycle state. Mutating operations on one room are
// serialized through a per-room mutex, so the check-and-set that guards
// ownership transfers and rename acquisition can never interleave with
// another mutation of the same room. Operations on different rooms run
// independently.
type Manager struct {
	log       *slog.Logger
	platform  contract.Platform
	snapshots repositories.Snapshots
	settings  Settings
	validate  *validator.Validate
	censor    *moderation.Moderator
	recorder  *observability.Recorder
	sinks     []contract.EventSink

	triggers  *TriggerRegistry
	directory *SessionDirectory
	ownership *OwnershipTable
	dedup     *DedupGuard
	renames   *RenameLocks
	permEdits *PermissionMutex
	transfers *TransferRequests
	activity  *ActivityTable

	locksMu   sync.Mutex
	roomLocks map[domain.RoomID]*sync.Mutex

	namesMu sync.RWMutex
	names   map[domain.UserID]string
}

func NewManager(log *slog.Logger, platform contract.Platform, snapshots repositories.Snapshots,
	censor *moderation.Moderator, settings Settings, sinks ...contract.EventSink) *Manager {
	recorder := observability.NewRecorder()
	return &Manager{
		log:       log,
		platform:  platform,
		snapshots: snapshots,
		settings:  settings,
		validate:  validator.New(),
		censor:    censor,
		recorder:  recorder,
		sinks:     append([]contract.EventSink{recorder}, sinks...),
		triggers:  NewTriggerRegistry(),
		directory: NewSessionDirectory(),
		ownership: NewOwnershipTable(),
		dedup:     NewDedupGuard(settings.DebounceWindow),
		renames:   NewRenameLocks(settings.RenameTimeout),
		permEdits: NewPermissionMutex(),
		transfers: NewTransferRequests(),
		activity:  NewActivityTable(),
		roomLocks: make(map[domain.RoomID]*sync.Mutex),
		names:     make(map[domain.UserID]string),
	}
}

// Init seeds the storage keys and restores the persisted snapshots. Rooms
// restored here are best effort: the first sweep purges anything the
// platform no longer knows about.
func (m *Manager) Init() error {
	if err := m.snapshots.EnsureKeys(); err != nil {
		return fmt.Errorf("ensure storage: %w", err)
	}
	channels, err := m.snapshots.LoadTriggers()
	if err != nil {
		return fmt.Errorf("restore triggers: %w", err)
	}
	m.triggers.Restore(channels)

	rooms, err := m.snapshots.LoadSessions()
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	m.directory.Restore(rooms)

	records, err := m.snapshots.LoadOwnership()
	if err != nil {
		return fmt.Errorf("restore ownership: %w", err)
	}
	m.ownership.Restore(records)

	m.log.Info("Lifecycle state restored",
		"triggers", len(channels), "rooms", len(rooms), "owners", len(records))
	return nil
}

// Shutdown flushes a final snapshot and stops the expiry timers.
func (m *Manager) Shutdown() {
	m.persistAll()
	m.dedup.Close()
	m.log.Info("Lifecycle manager stopped")
}

// AddTrigger registers a spawning channel. Idempotent: re-adding an existing
// trigger changes nothing and persists nothing.
func (m *Manager) AddTrigger(ctx context.Context, community domain.CommunityID, channel domain.RoomID) error {
	if !m.triggers.Add(community, channel) {
		return nil
	}
	m.persistTriggers()
	m.emit(ctx, event.TriggerAdded{Community: community, Channel: channel, At: time.Now()})
	return nil
}

// RemoveTrigger unregisters a spawning channel, idempotently. Rooms already
// spawned from it keep living their own life.
func (m *Manager) RemoveTrigger(ctx context.Context, community domain.CommunityID, channel domain.RoomID) error {
	if !m.triggers.Remove(community, channel) {
		return nil
	}
	m.persistTriggers()
	m.emit(ctx, event.TriggerRemoved{Community: community, Channel: channel, At: time.Now()})
	return nil
}

func (m *Manager) ListTriggers(community domain.CommunityID) ([]domain.RoomID, error) {
	channels := m.triggers.List(community)
	if len(channels) == 0 {
		return nil, apperrors.ErrNoTriggerConfigured
	}
	return channels, nil
}

// OnMessage refreshes the author's activity timestamp. Message content is
// none of this core's business.
func (m *Manager) OnMessage(user domain.UserID) {
	m.activity.Touch(user)
}

// PruneActivity drops stale per-user activity timestamps.
func (m *Manager) PruneActivity() int {
	return m.activity.Prune(m.settings.ActivityRetention)
}

// Diagnostics assembles the administrative dump.
func (m *Manager) Diagnostics() observability.Report {
	created, closed, transferred, renamed := m.recorder.Counters()
	report := observability.Report{
		Rooms:              m.directory.Len(),
		OwnershipRecords:   m.ownership.Len(),
		PendingTransfers:   m.transfers.Len(),
		HeldPermissionEdit: m.permEdits.Len(),
		RenameLockRecords:  m.renames.Len(),
		TrackedActivity:    m.activity.Len(),
		RoomsCreated:       created,
		RoomsClosed:        closed,
		OwnersTransferred:  transferred,
		RoomsRenamed:       renamed,
		RecentErrors:       m.recorder.RecentErrors(),
	}
	rss, cpu, err := observability.SelfStats()
	if err != nil {
		m.log.Debug("Self stats unavailable", "error", err)
		return report
	}
	report.RSSBytes = rss
	report.CPUPercent = cpu
	return report
}

// RenameLockHolders exposes the in-progress rename locks for diagnostics.
func (m *Manager) RenameLockHolders() []LockStatus {
	return m.renames.InProgress()
}

// lockRoom takes the room's critical section, returning its unlock func.
func (m *Manager) lockRoom(id domain.RoomID) func() {
	m.locksMu.Lock()
	l, ok := m.roomLocks[id]
	if !ok {
		l = &sync.Mutex{}
		m.roomLocks[id] = l
	}
	m.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *Manager) dropRoomLock(id domain.RoomID) {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	delete(m.roomLocks, id)
}

// withPlatform races fn against the configured platform timeout. A deadline
// hit is surfaced as ErrPlatformTimeout so callers can distinguish transient
// failures from platform answers.
func (m *Manager) withPlatform(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.settings.PlatformTimeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return fmt.Errorf("%w: %v", apperrors.ErrPlatformTimeout, err)
	}
	return err
}

func (m *Manager) censorName(name string) string {
	if m.censor == nil {
		return name
	}
	return m.censor.Censor(name)
}

func (m *Manager) rememberName(user domain.UserID, name string) {
	if name == "" {
		return
	}
	m.namesMu.Lock()
	defer m.namesMu.Unlock()

	m.names[user] = name
}

func (m *Manager) displayName(user domain.UserID) string {
	m.namesMu.RLock()
	defer m.namesMu.RUnlock()

	if name, ok := m.names[user]; ok {
		return name
	}
	return string(user)
}

func (m *Manager) emit(ctx context.Context, e event.DomainEvent) {
	for _, sink := range m.sinks {
		if err := sink.Consume(ctx, e); err != nil {
			m.log.Warn("Event sink rejected event", "room", e.RoomID(), "error", err)
		}
	}
}

// fail logs a platform failure with its operation context and records it in
// the diagnostics ring. Failures never propagate into the event loop.
func (m *Manager) fail(operation string, room domain.RoomID, user domain.UserID, err error) {
	m.log.Error("Platform operation failed",
		"operation", operation, "room", room, "user", user, "error", err)
	m.recorder.RecordError(operation, room, user, err)
}

func (m *Manager) persistTriggers() {
	if err := m.snapshots.SaveTriggers(m.triggers.Snapshot()); err != nil {
		m.log.Error("Persisting trigger registry failed", "error", err)
	}
}

func (m *Manager) persistSessions() {
	if err := m.snapshots.SaveSessions(m.directory.Rooms()); err != nil {
		m.log.Error("Persisting session directory failed", "error", err)
	}
	if err := m.snapshots.SaveOwnership(m.ownership.Records()); err != nil {
		m.log.Error("Persisting ownership table failed", "error", err)
	}
}

func (m *Manager) persistAll() {
	m.persistTriggers()
	m.persistSessions()
}
