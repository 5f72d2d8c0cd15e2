//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"context"

	"voice-lab/domain"
	"voice-lab/observability"
	"voice-lab/runtime"
)

// IRoomService is the surface the surrounding dispatcher talks to: platform
// events in, replies and administrative answers out.
type IRoomService interface {
	OnVoiceState(ctx context.Context, vs domain.VoiceState)
	OnMessage(user domain.UserID)
	HandleInteraction(ctx context.Context, in domain.Interaction) (runtime.Reply, error)
	BeginRename(room domain.RoomID, user domain.UserID) (runtime.Reply, error)

	AddTrigger(ctx context.Context, community domain.CommunityID, channel domain.RoomID) error
	RemoveTrigger(ctx context.Context, community domain.CommunityID, channel domain.RoomID) error
	ListTriggers(community domain.CommunityID) ([]domain.RoomID, error)
	Diagnostics() observability.Report
	SweepEmptyRooms(ctx context.Context) (int, error)
}

type RoomService struct {
	manager *runtime.Manager
}

func NewRoomService(manager *runtime.Manager) *RoomService {
	return &RoomService{manager: manager}
}

func (s *RoomService) OnVoiceState(ctx context.Context, vs domain.VoiceState) {
	s.manager.OnVoiceState(ctx, vs)
}

func (s *RoomService) OnMessage(user domain.UserID) {
	s.manager.OnMessage(user)
}

func (s *RoomService) HandleInteraction(ctx context.Context, in domain.Interaction) (runtime.Reply, error) {
	return s.manager.HandleInteraction(ctx, in)
}

func (s *RoomService) BeginRename(room domain.RoomID, user domain.UserID) (runtime.Reply, error) {
	return s.manager.BeginRename(room, user)
}

func (s *RoomService) AddTrigger(ctx context.Context, community domain.CommunityID, channel domain.RoomID) error {
	return s.manager.AddTrigger(ctx, community, channel)
}

func (s *RoomService) RemoveTrigger(ctx context.Context, community domain.CommunityID, channel domain.RoomID) error {
	return s.manager.RemoveTrigger(ctx, community, channel)
}

func (s *RoomService) ListTriggers(community domain.CommunityID) ([]domain.RoomID, error) {
	return s.manager.ListTriggers(community)
}

func (s *RoomService) Diagnostics() observability.Report {
	report := s.manager.Diagnostics()
	return report
}

func (s *RoomService) SweepEmptyRooms(ctx context.Context) (int, error) {
	return s.manager.SweepEmptyRooms(ctx)
}
