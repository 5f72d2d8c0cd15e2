package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voice-lab/domain"
	"voice-lab/mocks"
	"voice-lab/platform"
	"voice-lab/repositories"
	"voice-lab/runtime"
)

func newService(t *testing.T) (*RoomService, *platform.Memory) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	// Persistence is not the subject here, the storage mock just says yes.
	storage := mocks.NewMockStorage(ctrl)
	storage.EXPECT().Ensure(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	storage.EXPECT().Load(gomock.Any()).Return(nil, nil).AnyTimes()
	storage.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mem := platform.NewMemory()
	settings := runtime.DefaultSettings()
	settings.MoveDelay = 5 * time.Millisecond

	manager := runtime.NewManager(slog.Default(), mem, repositories.NewSnapshots(storage), nil, settings)
	require.NoError(t, manager.Init())
	t.Cleanup(manager.Shutdown)

	return NewRoomService(manager), mem
}

func TestRoomService_Trigger_Administration(t *testing.T) {
	req := require.New(t)
	service, _ := newService(t)
	ctx := context.Background()

	req.NoError(service.AddTrigger(ctx, "guild-1", "lobby"))

	channels, err := service.ListTriggers("guild-1")
	req.NoError(err)
	req.Equal([]domain.RoomID{"lobby"}, channels)

	req.NoError(service.RemoveTrigger(ctx, "guild-1", "lobby"))
	_, err = service.ListTriggers("guild-1")
	req.Error(err)
}

func TestRoomService_Voice_Events_Drive_The_Engine(t *testing.T) {
	req := require.New(t)
	service, mem := newService(t)
	ctx := context.Background()

	mem.AddRoom("guild-1", domain.RoomInfo{ID: "lobby", Name: "Lobby", Bitrate: 64000, Limit: 4})
	req.NoError(service.AddTrigger(ctx, "guild-1", "lobby"))
	req.NoError(mem.PutMember("lobby", "alice"))

	service.OnVoiceState(ctx, domain.VoiceState{Community: "guild-1", User: "alice", DisplayName: "Alice", New: "lobby"})
	service.OnMessage("alice")

	report := service.Diagnostics()
	req.Equal(1, report.Rooms)
	req.Equal(1, report.OwnershipRecords)
	req.Equal(uint64(1), report.RoomsCreated)

	// The sole member walks away; the manual sweep collects the husk
	mem.RemoveMember("alice")
	removed, err := service.SweepEmptyRooms(ctx)
	req.NoError(err)
	req.Equal(1, removed)
	req.Zero(service.Diagnostics().Rooms)
}
