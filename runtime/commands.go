package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"voice-lab/domain"
	"voice-lab/domain/event"
	apperrors "voice-lab/errors"
)

// HandleInteraction decodes a raw interaction and runs the resulting command
// under the room's critical section. Button and select actions pass through
// the debounce guard first; modal submissions skip it because they are
// already gated by the rename lock taken at BeginRename time.
func (m *Manager) HandleInteraction(ctx context.Context, in domain.Interaction) (Reply, error) {
	cmd, err := domain.DecodeInteraction(in)
	if err != nil {
		return Reply{}, err
	}

	room, ok := m.directory.Lookup(cmd.RoomID())
	if !ok {
		// Stale control message for a vanished room: drop whatever we
		// still track for it and tell the user.
		m.forgetRoom(cmd.RoomID())
		return Reply{Content: "This room no longer exists."}, apperrors.ErrRoomNotFound
	}

	if in.Kind != domain.InteractionModal &&
		m.dedup.Track(cmd.Actor(), cmd.RoomID(), cmd.Kind()) {
		return Reply{Duplicate: true}, nil
	}
	m.ownership.Touch(cmd.RoomID(), time.Now())
	m.activity.Touch(cmd.Actor())

	unlock := m.lockRoom(cmd.RoomID())
	defer unlock()

	switch c := cmd.(type) {
	case domain.RenameRoomCommand:
		return m.rename(ctx, room, c)
	case domain.SetRoomTypeCommand:
		return m.setRoomType(ctx, room, c)
	case domain.TransferOwnershipCommand:
		return m.transferTo(ctx, room, c)
	case domain.ClaimOwnershipCommand:
		return m.claim(ctx, room, c)
	case domain.CloseRoomCommand:
		return m.closeByOwner(ctx, room, c)
	default:
		return Reply{}, fmt.Errorf("unhandled command %T", cmd)
	}
}

// BeginRename takes the rename lock before the dispatcher opens the rename
// modal. The same user may call it again to refresh; anyone else is denied
// until the lock completes or times out.
func (m *Manager) BeginRename(room domain.RoomID, user domain.UserID) (Reply, error) {
	if _, ok := m.directory.Lookup(room); !ok {
		m.forgetRoom(room)
		return Reply{Content: "This room no longer exists."}, apperrors.ErrRoomNotFound
	}
	if err := m.requireOwner(room, user); err != nil {
		return Reply{Content: "Only the room owner can rename it."}, err
	}
	if m.dedup.Track(user, room, domain.ActionRename) {
		return Reply{Duplicate: true}, nil
	}
	if !m.renames.Acquire(room, user) {
		return Reply{Content: "Someone is already renaming this room, try again later."}, apperrors.ErrRenameInProgress
	}
	return Reply{}, nil
}

func (m *Manager) requireOwner(room domain.RoomID, user domain.UserID) error {
	record, ok := m.ownership.Get(room)
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	if record.Owner != user {
		return apperrors.ErrNotRoomOwner
	}
	return nil
}

func (m *Manager) rename(ctx context.Context, room domain.Room, cmd domain.RenameRoomCommand) (Reply, error) {
	if err := m.requireOwner(room.ID, cmd.User); err != nil {
		return Reply{Content: "Only the room owner can rename it."}, err
	}

	name := strings.TrimSpace(cmd.NewName)
	if err := m.validate.Struct(renameInput{Name: name}); err != nil {
		return Reply{Content: "That name won't work, pick 2 to 100 characters."},
			fmt.Errorf("%w: %v", apperrors.ErrInvalidRoomName, err)
	}

	// Re-entrant for whoever holds the lock from BeginRename; a submit
	// racing another user's active rename is denied here.
	if !m.renames.Acquire(room.ID, cmd.User) {
		return Reply{Content: "Someone is already renaming this room, try again later."}, apperrors.ErrRenameInProgress
	}
	defer m.renames.Complete(room.ID)

	name = m.censorName(name)
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		return m.platform.RenameRoom(ctx, room.ID, name, "renamed by owner")
	}); err != nil {
		m.fail("rename_room", room.ID, cmd.User, err)
		return Reply{}, err
	}

	m.emit(ctx, event.RoomRenamed{ID: uuid.New(), Room: room.ID, Actor: cmd.User, Name: name, At: time.Now()})
	return Reply{Content: fmt.Sprintf("Room renamed to %q.", name)}, nil
}

func (m *Manager) setRoomType(ctx context.Context, room domain.Room, cmd domain.SetRoomTypeCommand) (Reply, error) {
	if err := m.requireOwner(room.ID, cmd.User); err != nil {
		return Reply{Content: "Only the room owner can change its purpose."}, err
	}

	// Invalid keys are rejected before any platform call.
	template, ok := domain.TypeByKey(cmd.Type)
	if !ok {
		return Reply{Content: "Unknown room purpose."}, fmt.Errorf("%w: %q", apperrors.ErrUnknownRoomType, cmd.Type)
	}

	if !m.renames.Acquire(room.ID, cmd.User) {
		return Reply{Content: "Someone is already renaming this room, try again later."}, apperrors.ErrRenameInProgress
	}
	defer m.renames.Complete(room.ID)

	name := m.censorName(template.RoomName(m.displayName(cmd.User)))
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		return m.platform.RenameRoom(ctx, room.ID, name, "room purpose changed")
	}); err != nil {
		m.fail("set_room_type", room.ID, cmd.User, err)
		return Reply{}, err
	}

	m.ownership.SetType(room.ID, cmd.Type)
	m.emit(ctx, event.RoomRenamed{ID: uuid.New(), Room: room.ID, Actor: cmd.User, Name: name, At: time.Now()})
	return Reply{Content: fmt.Sprintf("Room is now %q.", name)}, nil
}

func (m *Manager) transferTo(ctx context.Context, room domain.Room, cmd domain.TransferOwnershipCommand) (Reply, error) {
	if err := m.requireOwner(room.ID, cmd.User); err != nil {
		return Reply{Content: "Only the room owner can hand it over."}, err
	}
	if cmd.Target == cmd.User {
		return Reply{Content: "You already own this room."}, nil
	}

	var members []domain.UserID
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		var err error
		members, err = m.platform.ListMembers(ctx, room.ID)
		return err
	}); err != nil {
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			m.forgetRoom(room.ID)
			return Reply{Content: "This room no longer exists."}, err
		}
		m.fail("list_members", room.ID, cmd.User, err)
		return Reply{}, err
	}
	if !lo.Contains(members, cmd.Target) {
		return Reply{Content: "That user is not in the room."}, apperrors.ErrTargetNotPresent
	}

	return m.reassignOwner(ctx, room, cmd.User, cmd.Target, false)
}

// claim queues the actor as a transfer requester while the owner is absent.
// The claim is consumed the next time the actor joins the room.
func (m *Manager) claim(ctx context.Context, room domain.Room, cmd domain.ClaimOwnershipCommand) (Reply, error) {
	record, ok := m.ownership.Get(room.ID)
	if !ok {
		return Reply{}, apperrors.ErrRoomNotFound
	}
	if record.Owner == cmd.User {
		return Reply{Content: "You already own this room."}, nil
	}

	var members []domain.UserID
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		var err error
		members, err = m.platform.ListMembers(ctx, room.ID)
		return err
	}); err != nil {
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			m.forgetRoom(room.ID)
			return Reply{Content: "This room no longer exists."}, err
		}
		m.fail("list_members", room.ID, cmd.User, err)
		return Reply{}, err
	}
	if lo.Contains(members, record.Owner) {
		return Reply{Content: "The owner is still around."}, apperrors.ErrOwnerStillPresent
	}

	m.transfers.Add(room.ID, cmd.User)
	return Reply{Content: "Request noted. Rejoin the room to take it over."}, nil
}

func (m *Manager) closeByOwner(ctx context.Context, room domain.Room, cmd domain.CloseRoomCommand) (Reply, error) {
	if err := m.requireOwner(room.ID, cmd.User); err != nil {
		return Reply{Content: "Only the room owner can close it."}, err
	}
	m.deleteRoom(ctx, room, "closed by owner")
	return Reply{Content: "Room closed."}, nil
}

// reassignOwner runs the shared transfer steps: both owner-initiated
// transfers and automatic handovers funnel through here. Callers hold the
// room's critical section; the permission mutex below additionally fences
// the platform-visible permission edits, released on every path.
func (m *Manager) reassignOwner(ctx context.Context, room domain.Room, from, to domain.UserID, automatic bool) (Reply, error) {
	if _, ok := m.directory.Lookup(room.ID); !ok {
		// The room vanished under us: abort and purge instead of editing
		// permissions on a ghost.
		m.forgetRoom(room.ID)
		return Reply{}, apperrors.ErrRoomNotFound
	}
	if !m.permEdits.TryAcquire(room.ID) {
		return Reply{Content: "An ownership change is already running, try again later."}, apperrors.ErrOwnershipEditBusy
	}
	defer m.permEdits.Release(room.ID)

	// Demoting the previous owner is best effort: they may already be gone.
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		return m.platform.SetPermissionOverwrite(ctx, room.ID, domain.UserSubject(from), domain.MemberPermissions())
	}); err != nil {
		m.log.Debug("Revoking previous owner overwrite failed", "room", room.ID, "user", from, "error", err)
	}

	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		return m.platform.SetPermissionOverwrite(ctx, room.ID, domain.UserSubject(to), domain.ManagerPermissions())
	}); err != nil {
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			m.forgetRoom(room.ID)
			return Reply{}, err
		}
		m.fail("grant_owner", room.ID, to, err)
		return Reply{}, err
	}

	m.ownership.SetOwner(room.ID, to)
	m.transfers.Take(room.ID, to)
	m.notifyRoom(room.ID, fmt.Sprintf("%s now owns this room.", m.displayName(to)))
	m.log.Info("Ownership transferred", "room", room.ID, "from", from, "to", to, "automatic", automatic)
	m.emit(ctx, event.OwnershipTransferred{
		ID: uuid.New(), Room: room.ID, From: from, To: to, Automatic: automatic, At: time.Now(),
	})
	return Reply{Content: fmt.Sprintf("%s now owns this room.", m.displayName(to))}, nil
}

// notifyRoom posts an in-room notice. Delivery failures are warnings only.
func (m *Manager) notifyRoom(room domain.RoomID, content string) {
	if err := m.withPlatform(context.Background(), func(ctx context.Context) error {
		return m.platform.SendMessage(ctx, string(room), content)
	}); err != nil {
		m.log.Warn("Room notice delivery failed", "room", room, "error", err)
	}
}
