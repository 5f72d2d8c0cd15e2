package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voice-lab/domain"
)

func TestSnapshots_EnsureKeys_Seeds_Empty_State(t *testing.T) {
	req := require.New(t)
	snapshots := NewSnapshots(NewBadgerStorage(openTestDB(t), slog.Default()))

	req.NoError(snapshots.EnsureKeys())

	channels, err := snapshots.LoadTriggers()
	req.NoError(err)
	req.Empty(channels)

	rooms, err := snapshots.LoadSessions()
	req.NoError(err)
	req.Empty(rooms)

	records, err := snapshots.LoadOwnership()
	req.NoError(err)
	req.Empty(records)
}

func TestSnapshots_Persist_And_Restore_State(t *testing.T) {
	req := require.New(t)
	snapshots := NewSnapshots(NewBadgerStorage(openTestDB(t), slog.Default()))
	at := time.Now().UTC().Truncate(time.Second)

	triggers := map[domain.CommunityID][]domain.RoomID{
		"guild-1": {"lobby", "annex"},
	}
	rooms := []domain.Room{
		{ID: "room-1", Community: "guild-1", Trigger: "lobby", CreatedAt: at},
	}
	records := []domain.OwnershipRecord{
		{Room: "room-1", Owner: "alice", CreatedAt: at, RoomType: domain.TypeHuntingParty, LastInteractionAt: at},
	}

	req.NoError(snapshots.SaveTriggers(triggers))
	req.NoError(snapshots.SaveSessions(rooms))
	req.NoError(snapshots.SaveOwnership(records))

	gotTriggers, err := snapshots.LoadTriggers()
	req.NoError(err)
	req.Equal(triggers, gotTriggers)

	gotRooms, err := snapshots.LoadSessions()
	req.NoError(err)
	req.Len(gotRooms, 1)
	req.Equal(rooms[0].ID, gotRooms[0].ID)
	req.True(rooms[0].CreatedAt.Equal(gotRooms[0].CreatedAt))

	gotRecords, err := snapshots.LoadOwnership()
	req.NoError(err)
	req.Len(gotRecords, 1)
	req.Equal(records[0].Owner, gotRecords[0].Owner)
	req.Equal(records[0].RoomType, gotRecords[0].RoomType)
}

func TestSnapshots_EnsureKeys_Keeps_Existing_Data(t *testing.T) {
	req := require.New(t)
	snapshots := NewSnapshots(NewBadgerStorage(openTestDB(t), slog.Default()))

	req.NoError(snapshots.SaveTriggers(map[domain.CommunityID][]domain.RoomID{
		"guild-1": {"lobby"},
	}))

	// A later EnsureKeys, e.g. on restart, must not wipe persisted state
	req.NoError(snapshots.EnsureKeys())

	channels, err := snapshots.LoadTriggers()
	req.NoError(err)
	req.Equal([]domain.RoomID{"lobby"}, channels["guild-1"])
}
