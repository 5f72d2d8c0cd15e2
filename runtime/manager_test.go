package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voice-lab/domain"
	"voice-lab/domain/event"
	apperrors "voice-lab/errors"
	"voice-lab/platform"
	"voice-lab/repositories"
)

// mapStorage keeps blobs in memory so engine tests don't need a database.
type mapStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: make(map[string][]byte)}
}

func (s *mapStorage) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *mapStorage) Save(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *mapStorage) GetAll(prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte)
	for key, value := range s.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out[key] = value
		}
	}
	return out, nil
}

func (s *mapStorage) SetAll(prefix string, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.data, key)
		}
	}
	for key, value := range values {
		s.data[key] = value
	}
	return nil
}

func (s *mapStorage) Ensure(key string, def []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		s.data[key] = def
	}
	return nil
}

// recordSink captures emitted events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordSink) all() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

func testSettings() Settings {
	return Settings{
		PlatformTimeout:        time.Second,
		DebounceWindow:         50 * time.Millisecond,
		RenameTimeout:          200 * time.Millisecond,
		MoveDelay:              5 * time.Millisecond,
		RenameLockMaxAge:       time.Hour,
		CompletedLockRetention: 30 * time.Minute,
		ActivityRetention:      time.Hour,
	}
}

func newTestEngine(t *testing.T) (*Manager, *platform.Memory, *mapStorage, *recordSink) {
	t.Helper()
	mem := platform.NewMemory()
	store := newMapStorage()
	sink := &recordSink{}
	m := NewManager(slog.Default(), mem, repositories.NewSnapshots(store), nil, testSettings(), sink)
	require.NoError(t, m.Init())
	t.Cleanup(m.Shutdown)
	return m, mem, store, sink
}

// spawnTestRoom registers a trigger channel, walks alice into it, and waits
// for the delayed move into the fresh room.
func spawnTestRoom(t *testing.T, m *Manager, mem *platform.Memory) domain.RoomID {
	t.Helper()
	ctx := context.Background()

	mem.AddRoom("guild-1", domain.RoomInfo{ID: "lobby", Name: "Lobby", Category: "voice", Bitrate: 64000, Limit: 8})
	require.NoError(t, m.AddTrigger(ctx, "guild-1", "lobby"))
	require.NoError(t, mem.PutMember("lobby", "alice"))

	m.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "alice", DisplayName: "Alice", New: "lobby"})

	rooms := m.directory.Rooms()
	require.Len(t, rooms, 1)

	time.Sleep(30 * time.Millisecond) // delayed MoveMember
	return rooms[0].ID
}

func TestManager_Join_Trigger_Spawns_Owned_Room(t *testing.T) {
	req := require.New(t)
	m, mem, _, sink := newTestEngine(t)

	// When alice joins the trigger channel
	roomID := spawnTestRoom(t, m, mem)

	// Then the room copies the trigger settings and carries her name
	info, err := mem.FetchRoom(context.Background(), roomID)
	req.NoError(err)
	req.Equal("Alice's room", info.Name)
	req.Equal(64000, info.Bitrate)
	req.Equal(8, info.Limit)

	// And she owns it, permission-wise and record-wise
	perms, ok := mem.Overwrite(roomID, domain.UserSubject("alice"))
	req.True(ok)
	req.Equal(domain.ManagerPermissions(), perms)

	perms, ok = mem.Overwrite(roomID, domain.EveryoneSubject())
	req.True(ok)
	req.Equal(domain.MemberPermissions(), perms)

	record, ok := m.ownership.Get(roomID)
	req.True(ok)
	req.Equal(domain.UserID("alice"), record.Owner)
	req.Equal(domain.TypeDefault, record.RoomType)

	// And she was moved out of the trigger into her room
	members, err := mem.ListMembers(context.Background(), roomID)
	req.NoError(err)
	req.Equal([]domain.UserID{"alice"}, members)

	// And a creation event went out
	created := false
	for _, e := range sink.all() {
		if _, ok := e.(event.RoomCreated); ok {
			created = true
		}
	}
	req.True(created)
}

func TestManager_Owner_Leaving_Hands_Room_To_Remaining_Member(t *testing.T) {
	req := require.New(t)
	m, mem, _, sink := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	// Given bob joined alice's room
	req.NoError(mem.PutMember(roomID, "bob"))
	m.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "bob", DisplayName: "Bob", New: roomID})

	// When the owner disconnects
	mem.RemoveMember("alice")
	m.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "alice", DisplayName: "Alice", Old: roomID})

	// Then bob owns the room
	record, ok := m.ownership.Get(roomID)
	req.True(ok)
	req.Equal(domain.UserID("bob"), record.Owner)

	perms, ok := mem.Overwrite(roomID, domain.UserSubject("bob"))
	req.True(ok)
	req.Equal(domain.ManagerPermissions(), perms)

	// And alice was demoted to a plain member
	perms, ok = mem.Overwrite(roomID, domain.UserSubject("alice"))
	req.True(ok)
	req.Equal(domain.MemberPermissions(), perms)

	// And the handover is flagged as automatic
	var transfer event.OwnershipTransferred
	for _, e := range sink.all() {
		if tr, ok := e.(event.OwnershipTransferred); ok {
			transfer = tr
		}
	}
	req.Equal(domain.UserID("bob"), transfer.To)
	req.True(transfer.Automatic)
}

func TestManager_Last_Member_Leaving_Deletes_Room(t *testing.T) {
	req := require.New(t)
	m, mem, _, sink := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	// When the only member disconnects
	mem.RemoveMember("alice")
	m.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "alice", Old: roomID})

	// Then the room and every tracker for it are gone
	req.False(mem.HasRoom(roomID))
	req.Zero(m.directory.Len())
	req.Zero(m.ownership.Len())
	req.Zero(m.transfers.Len())
	req.Zero(m.renames.Len())

	closed := false
	for _, e := range sink.all() {
		if _, ok := e.(event.RoomClosed); ok {
			closed = true
		}
	}
	req.True(closed)
}

func TestManager_Claim_Queued_Then_Consumed_On_Rejoin(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	// Given the owner vanished without a departure event reaching us
	mem.RemoveMember("alice")

	// When bob, outside the room, claims it
	reply, err := m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "bob",
		CustomID: domain.ClaimActionID(roomID),
	})
	req.NoError(err)
	req.False(reply.Duplicate)
	req.True(m.transfers.Has(roomID, "bob"))

	// Then joining the room consumes the claim
	req.NoError(mem.PutMember(roomID, "bob"))
	m.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "bob", DisplayName: "Bob", New: roomID})

	record, ok := m.ownership.Get(roomID)
	req.True(ok)
	req.Equal(domain.UserID("bob"), record.Owner)
	req.False(m.transfers.Has(roomID, "bob"))
}

func TestManager_Claim_Stays_Queued_When_Owner_Returns_First(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	mem.RemoveMember("alice")
	_, err := m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "bob",
		CustomID: domain.ClaimActionID(roomID),
	})
	req.NoError(err)

	// When the owner comes back before bob
	req.NoError(mem.PutMember(roomID, "alice"))
	req.NoError(mem.PutMember(roomID, "bob"))
	m.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "bob", New: roomID})

	// Then alice keeps the room and bob's claim stays pending
	record, _ := m.ownership.Get(roomID)
	req.Equal(domain.UserID("alice"), record.Owner)
	req.True(m.transfers.Has(roomID, "bob"))
}

func TestManager_Claim_Rejected_While_Owner_Present(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)

	_, err := m.HandleInteraction(context.Background(), domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "bob",
		CustomID: domain.ClaimActionID(roomID),
	})
	req.ErrorIs(err, apperrors.ErrOwnerStillPresent)
	req.False(m.transfers.Has(roomID, "bob"))
}

func TestManager_Duplicate_Interaction_Is_Debounced(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()
	mem.RemoveMember("alice")

	claim := domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "bob",
		CustomID: domain.ClaimActionID(roomID),
	}

	// Two identical presses inside the debounce window
	first, err := m.HandleInteraction(ctx, claim)
	req.NoError(err)
	req.False(first.Duplicate)

	second, err := m.HandleInteraction(ctx, claim)
	req.NoError(err)
	req.True(second.Duplicate)

	// After the window the press is fresh again
	time.Sleep(80 * time.Millisecond)
	third, err := m.HandleInteraction(ctx, claim)
	req.NoError(err)
	req.False(third.Duplicate)
}

func TestManager_Rename_Flow(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	// A non-owner can't even open the modal
	_, err := m.BeginRename(roomID, "bob")
	req.ErrorIs(err, apperrors.ErrNotRoomOwner)

	// The owner takes the lock and submits
	_, err = m.BeginRename(roomID, "alice")
	req.NoError(err)

	reply, err := m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionModal,
		User:     "alice",
		CustomID: domain.RenameModalID(roomID),
		Fields:   map[string]string{"room_name": "war room"},
	})
	req.NoError(err)
	req.NotEmpty(reply.Content)
	req.Equal("war room", mem.RoomName(roomID))

	// The completed lock no longer blocks a later rename
	req.Empty(m.RenameLockHolders())
}

func TestManager_Rename_Rejects_Bad_Names(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	for _, bad := range []string{"", " ", "x"} {
		_, err := m.HandleInteraction(ctx, domain.Interaction{
			Kind:     domain.InteractionModal,
			User:     "alice",
			CustomID: domain.RenameModalID(roomID),
			Fields:   map[string]string{"room_name": bad},
		})
		req.ErrorIs(err, apperrors.ErrInvalidRoomName)
	}
	req.Equal("Alice's room", mem.RoomName(roomID))
}

func TestManager_SetRoomType(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	reply, err := m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionSelect,
		User:     "alice",
		CustomID: domain.RoomMenuActionID(roomID),
		Values:   []string{domain.TypeValue(domain.TypeHuntingParty)},
	})
	req.NoError(err)
	req.NotEmpty(reply.Content)
	req.Equal("Alice's hunting party", mem.RoomName(roomID))

	record, _ := m.ownership.Get(roomID)
	req.Equal(domain.TypeHuntingParty, record.RoomType)
}

func TestManager_SetRoomType_Unknown_Key_Rejected(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)

	_, err := m.HandleInteraction(context.Background(), domain.Interaction{
		Kind:     domain.InteractionSelect,
		User:     "alice",
		CustomID: domain.RoomMenuActionID(roomID),
		Values:   []string{"type:karaoke"},
	})
	req.ErrorIs(err, apperrors.ErrUnknownRoomType)

	// The name was left untouched
	req.Equal("Alice's room", mem.RoomName(roomID))
}

func TestManager_Transfer_To_Member(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	req.NoError(mem.PutMember(roomID, "bob"))

	_, err := m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionSelect,
		User:     "alice",
		CustomID: domain.RoomMenuActionID(roomID),
		Values:   []string{domain.TransferValue("bob")},
	})
	req.NoError(err)

	record, _ := m.ownership.Get(roomID)
	req.Equal(domain.UserID("bob"), record.Owner)
}

func TestManager_Transfer_To_Absent_User_Rejected(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)

	_, err := m.HandleInteraction(context.Background(), domain.Interaction{
		Kind:     domain.InteractionSelect,
		User:     "alice",
		CustomID: domain.RoomMenuActionID(roomID),
		Values:   []string{domain.TransferValue("ghost")},
	})
	req.ErrorIs(err, apperrors.ErrTargetNotPresent)

	record, _ := m.ownership.Get(roomID)
	req.Equal(domain.UserID("alice"), record.Owner)
}

func TestManager_Close_Is_Owner_Only(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	_, err := m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "bob",
		CustomID: domain.CloseActionID(roomID),
	})
	req.ErrorIs(err, apperrors.ErrNotRoomOwner)
	req.True(mem.HasRoom(roomID))

	_, err = m.HandleInteraction(ctx, domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "alice",
		CustomID: domain.CloseActionID(roomID),
	})
	req.NoError(err)
	req.False(mem.HasRoom(roomID))
	req.Zero(m.directory.Len())
}

func TestManager_Interaction_On_Vanished_Room(t *testing.T) {
	req := require.New(t)
	m, _, _, _ := newTestEngine(t)

	_, err := m.HandleInteraction(context.Background(), domain.Interaction{
		Kind:     domain.InteractionButton,
		User:     "bob",
		CustomID: domain.ClaimActionID("room-gone"),
	})
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}

func TestManager_Sweep_Purges_Vanished_Rooms(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	// Given the platform lost the room behind our back
	req.NoError(mem.DeleteRoom(ctx, roomID, "platform hiccup"))

	req.NoError(m.Sweep(ctx))

	req.Zero(m.directory.Len())
	req.Zero(m.ownership.Len())
}

func TestManager_SweepEmptyRooms_Deletes_Deserted_Rooms(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	// Given everyone is gone but no departure event arrived
	mem.RemoveMember("alice")

	removed, err := m.SweepEmptyRooms(ctx)
	req.NoError(err)
	req.Equal(1, removed)
	req.False(mem.HasRoom(roomID))
	req.Zero(m.directory.Len())
}

func TestManager_State_Survives_Restart(t *testing.T) {
	req := require.New(t)
	m, mem, store, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	m.Shutdown()

	// When a fresh engine starts over the same storage
	restarted := NewManager(slog.Default(), mem, repositories.NewSnapshots(store), nil, testSettings())
	req.NoError(restarted.Init())
	t.Cleanup(restarted.Shutdown)

	room, ok := restarted.directory.Lookup(roomID)
	req.True(ok)
	req.Equal(domain.RoomID("lobby"), room.Trigger)

	record, ok := restarted.ownership.Get(roomID)
	req.True(ok)
	req.Equal(domain.UserID("alice"), record.Owner)

	channels, err := restarted.ListTriggers("guild-1")
	req.NoError(err)
	req.Equal([]domain.RoomID{"lobby"}, channels)
}

func TestManager_ListTriggers_Empty(t *testing.T) {
	req := require.New(t)
	m, _, _, _ := newTestEngine(t)

	_, err := m.ListTriggers("guild-1")
	req.ErrorIs(err, apperrors.ErrNoTriggerConfigured)
}

func TestManager_RemoveTrigger_Leaves_Spawned_Rooms_Alone(t *testing.T) {
	req := require.New(t)
	m, mem, _, _ := newTestEngine(t)
	roomID := spawnTestRoom(t, m, mem)
	ctx := context.Background()

	req.NoError(m.RemoveTrigger(ctx, "guild-1", "lobby"))

	_, err := m.ListTriggers("guild-1")
	req.ErrorIs(err, apperrors.ErrNoTriggerConfigured)
	req.True(mem.HasRoom(roomID))
	req.Equal(1, m.directory.Len())
}
