package runtime

import (
	"context"
	"errors"

	apperrors "voice-lab/errors"
)

// Sweep is the periodic reconciliation between tracked state and platform
// reality. It runs off the interaction path: expired lock records are
// dropped, vanished rooms are purged with all their trackers, orphaned
// transfer sets are cleared, and a consolidated snapshot is persisted.
func (m *Manager) Sweep(ctx context.Context) error {
	dropped := m.renames.Sweep(m.settings.RenameLockMaxAge, m.settings.CompletedLockRetention)
	if dropped > 0 {
		m.log.Debug("Stale rename locks dropped", "count", dropped)
	}

	for _, room := range m.directory.Rooms() {
		err := m.withPlatform(ctx, func(ctx context.Context) error {
			_, err := m.platform.FetchRoom(ctx, room.ID)
			return err
		})
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrRoomNotFound):
			unlock := m.lockRoom(room.ID)
			m.forgetRoom(room.ID)
			unlock()
			m.log.Info("Vanished room purged", "room", room.ID)
		default:
			// Transient failure: keep tracking, retry next sweep.
			m.fail("sweep_fetch", room.ID, "", err)
		}
	}

	for _, roomID := range m.transfers.Rooms() {
		if _, ok := m.directory.Lookup(roomID); !ok {
			m.transfers.Clear(roomID)
		}
	}

	m.persistAll()
	return ctx.Err()
}

// SweepEmptyRooms deletes every tracked room with zero members. It backs the
// manual sweep of the administrative surface; the deletion path is the same
// one the leave handler uses, so trackers are purged identically.
func (m *Manager) SweepEmptyRooms(ctx context.Context) (int, error) {
	removed := 0
	for _, room := range m.directory.Rooms() {
		unlock := m.lockRoom(room.ID)

		var count int
		err := m.withPlatform(ctx, func(ctx context.Context) error {
			members, err := m.platform.ListMembers(ctx, room.ID)
			count = len(members)
			return err
		})
		switch {
		case errors.Is(err, apperrors.ErrRoomNotFound):
			m.forgetRoom(room.ID)
			removed++
		case err != nil:
			m.fail("sweep_members", room.ID, "", err)
		case count == 0:
			m.deleteRoom(ctx, room, "empty room sweep")
			removed++
		}

		unlock()
	}
	return removed, ctx.Err()
}
