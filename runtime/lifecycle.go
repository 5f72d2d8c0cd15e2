package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"voice-lab/domain"
	"voice-lab/domain/event"
	apperrors "voice-lab/errors"
)

// OnVoiceState is the entry point for platform voice-state changes. It never
// returns an error: every branch handles its own failures so a bad event can
// not take the event loop down with it.
func (m *Manager) OnVoiceState(ctx context.Context, vs domain.VoiceState) {
	m.activity.Touch(vs.User)
	m.rememberName(vs.User, vs.DisplayName)

	if vs.Old != "" && vs.Old != vs.New {
		if room, ok := m.directory.Lookup(vs.Old); ok {
			m.handleDeparture(ctx, room, vs.User)
		}
	}
	if vs.New != "" && vs.New != vs.Old {
		if m.triggers.IsTrigger(vs.Community, vs.New) {
			m.spawnRoom(ctx, vs)
			return
		}
		if room, ok := m.directory.Lookup(vs.New); ok {
			m.handleArrival(ctx, room, vs.User)
		}
	}
}

// spawnRoom creates a fresh room for the user who just joined a trigger
// channel: bitrate and limit are copied from the trigger, the user gets the
// management overwrite, everyone keeps connect/speak.
func (m *Manager) spawnRoom(ctx context.Context, vs domain.VoiceState) {
	trigger := vs.New

	var info domain.RoomInfo
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		var err error
		info, err = m.platform.FetchRoom(ctx, trigger)
		return err
	}); err != nil {
		m.fail("fetch_trigger", trigger, vs.User, err)
		return
	}

	template, _ := domain.TypeByKey(domain.TypeDefault)
	name := m.censorName(template.RoomName(m.displayName(vs.User)))

	spec := domain.RoomSpec{
		Community: vs.Community,
		Category:  info.Category,
		Name:      name,
		Bitrate:   info.Bitrate,
		Limit:     info.Limit,
		Overwrites: []domain.Overwrite{
			{Subject: domain.UserSubject(vs.User), Perms: domain.ManagerPermissions()},
			{Subject: domain.EveryoneSubject(), Perms: domain.MemberPermissions()},
		},
	}

	var roomID domain.RoomID
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		var err error
		roomID, err = m.platform.CreateRoom(ctx, spec)
		return err
	}); err != nil {
		m.fail("create_room", trigger, vs.User, err)
		return
	}

	now := time.Now()
	m.directory.Register(domain.Room{ID: roomID, Community: vs.Community, Trigger: trigger, CreatedAt: now})
	m.ownership.Insert(domain.OwnershipRecord{
		Room:              roomID,
		Owner:             vs.User,
		CreatedAt:         now,
		RoomType:          domain.TypeDefault,
		LastInteractionAt: now,
	})
	m.persistSessions()

	// The platform needs a moment to propagate the new channel before the
	// member can be moved into it.
	user := vs.User
	community := vs.Community
	time.AfterFunc(m.settings.MoveDelay, func() {
		if err := m.withPlatform(context.Background(), func(ctx context.Context) error {
			return m.platform.MoveMember(ctx, community, user, roomID)
		}); err != nil {
			m.fail("move_member", roomID, user, err)
		}
	})

	// Control message delivery is best effort and never rolls back the room.
	go m.sendControlMessage(user, roomID, name)

	m.log.Info("Room spawned", "room", roomID, "trigger", trigger, "owner", user)
	m.emit(ctx, event.RoomCreated{ID: uuid.New(), Room: roomID, Community: vs.Community, Owner: user, At: now})
}

func (m *Manager) sendControlMessage(user domain.UserID, room domain.RoomID, name string) {
	content := fmt.Sprintf(
		"Your room %q is ready. Pick a purpose or hand it over via %s, close it via %s.",
		name, domain.RoomMenuActionID(room), domain.CloseActionID(room))
	if err := m.withPlatform(context.Background(), func(ctx context.Context) error {
		return m.platform.SendMessage(ctx, string(user), content)
	}); err != nil {
		m.log.Warn("Control message delivery failed", "room", room, "user", user, "error", err)
	}
}

// handleDeparture runs when a user leaves a tracked room: an empty room is
// deleted on the spot, an abandoned one is handed to a remaining member.
func (m *Manager) handleDeparture(ctx context.Context, room domain.Room, user domain.UserID) {
	unlock := m.lockRoom(room.ID)
	defer unlock()

	var members []domain.UserID
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		var err error
		members, err = m.platform.ListMembers(ctx, room.ID)
		return err
	}); err != nil {
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			m.forgetRoom(room.ID)
			return
		}
		m.fail("list_members", room.ID, user, err)
		return
	}

	// The platform may still report the departing user for a moment.
	members = lo.Without(members, user)

	if len(members) == 0 {
		m.deleteRoom(ctx, room, "room empty")
		return
	}

	record, ok := m.ownership.Get(room.ID)
	if !ok || record.Owner != user {
		return
	}

	// The owner left a non-empty room: hand it to a remaining member. The
	// platform's iteration order is arbitrary, there is no join-order FIFO.
	next := members[0]
	if _, err := m.reassignOwner(ctx, room, record.Owner, next, true); err != nil {
		m.log.Warn("Automatic ownership handover failed", "room", room.ID, "to", next, "error", err)
	}
}

// handleArrival consumes a pending ownership claim: if the joining user asked
// for the room while the owner was away and the owner is still absent, the
// transfer runs now.
func (m *Manager) handleArrival(ctx context.Context, room domain.Room, user domain.UserID) {
	unlock := m.lockRoom(room.ID)
	defer unlock()

	record, ok := m.ownership.Get(room.ID)
	if !ok || record.Owner == user {
		return
	}
	if !m.transfers.Has(room.ID, user) {
		return
	}

	var members []domain.UserID
	if err := m.withPlatform(ctx, func(ctx context.Context) error {
		var err error
		members, err = m.platform.ListMembers(ctx, room.ID)
		return err
	}); err != nil {
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			m.forgetRoom(room.ID)
			return
		}
		m.fail("list_members", room.ID, user, err)
		return
	}
	if lo.Contains(members, record.Owner) {
		// Owner came back first; the claim stays queued.
		return
	}

	if _, err := m.reassignOwner(ctx, room, record.Owner, user, true); err != nil {
		m.log.Warn("Claim handover failed", "room", room.ID, "to", user, "error", err)
	}
}

// deleteRoom removes the channel with a bounded timeout. On success all
// trackers are purged in the same operation; on failure the room stays
// tracked and the sweep retries later.
func (m *Manager) deleteRoom(ctx context.Context, room domain.Room, reason string) {
	err := m.withPlatform(ctx, func(ctx context.Context) error {
		return m.platform.DeleteRoom(ctx, room.ID, reason)
	})
	if err != nil && !errors.Is(err, apperrors.ErrRoomNotFound) {
		m.fail("delete_room", room.ID, "", err)
		return
	}

	m.forgetRoom(room.ID)
	m.log.Info("Room deleted", "room", room.ID, "reason", reason)
	m.emit(ctx, event.RoomClosed{ID: uuid.New(), Room: room.ID, Reason: reason, At: time.Now()})
}

// forgetRoom purges every tracker for a room that no longer exists.
func (m *Manager) forgetRoom(id domain.RoomID) {
	m.directory.Remove(id)
	m.ownership.Delete(id)
	m.renames.Purge(id)
	m.permEdits.Release(id)
	m.transfers.Clear(id)
	m.dedup.PurgeRoom(id)
	m.dropRoomLock(id)
	m.persistSessions()
}
