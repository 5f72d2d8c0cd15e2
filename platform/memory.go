// Package platform provides an in-memory stand-in for the chat platform.
// The real client lives in the gateway process; this one backs tests and
// local runs with the same interface semantics, including not-found errors
// and member listings.
package platform

import (
	"context"
	"fmt"
	"sync"

	"voice-lab/domain"
	apperrors "voice-lab/errors"
)

// Message is a recorded SendMessage call.
type Message struct {
	Target  string
	Content string
}

// Move is a recorded MoveMember call.
type Move struct {
	Community domain.CommunityID
	User      domain.UserID
	Target    domain.RoomID
}

type memoryRoom struct {
	info       domain.RoomInfo
	community  domain.CommunityID
	members    []domain.UserID
	overwrites map[domain.Subject]domain.Permissions
}

// Memory implements contract.Platform over plain maps. Member order follows
// insertion so tests can rely on it; the real platform promises nothing.
type Memory struct {
	mu       sync.Mutex
	nextID   int
	rooms    map[domain.RoomID]*memoryRoom
	messages []Message
	moves    []Move
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[domain.RoomID]*memoryRoom)}
}

// AddRoom seeds a pre-existing channel, e.g. a trigger.
func (m *Memory) AddRoom(community domain.CommunityID, info domain.RoomInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms[info.ID] = &memoryRoom{
		info:       info,
		community:  community,
		overwrites: make(map[domain.Subject]domain.Permissions),
	}
}

// PutMember places a user in a room, removing them from any other room first.
func (m *Memory) PutMember(room domain.RoomID, user domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.putMemberLocked(room, user)
}

func (m *Memory) putMemberLocked(room domain.RoomID, user domain.UserID) error {
	target, ok := m.rooms[room]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	for _, r := range m.rooms {
		r.members = without(r.members, user)
	}
	target.members = append(target.members, user)
	return nil
}

// RemoveMember takes a user out of whatever room they are in.
func (m *Memory) RemoveMember(user domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		r.members = without(r.members, user)
	}
}

func (m *Memory) CreateRoom(_ context.Context, spec domain.RoomSpec) (domain.RoomID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := domain.RoomID(fmt.Sprintf("room-%d", m.nextID))
	room := &memoryRoom{
		info: domain.RoomInfo{
			ID:       id,
			Name:     spec.Name,
			Category: spec.Category,
			Bitrate:  spec.Bitrate,
			Limit:    spec.Limit,
		},
		community:  spec.Community,
		overwrites: make(map[domain.Subject]domain.Permissions),
	}
	for _, ow := range spec.Overwrites {
		room.overwrites[ow.Subject] = ow.Perms
	}
	m.rooms[id] = room
	return id, nil
}

func (m *Memory) DeleteRoom(_ context.Context, id domain.RoomID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[id]; !ok {
		return apperrors.ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *Memory) RenameRoom(_ context.Context, id domain.RoomID, name, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	room.info.Name = name
	return nil
}

func (m *Memory) SetPermissionOverwrite(_ context.Context, id domain.RoomID, subject domain.Subject, perms domain.Permissions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	room.overwrites[subject] = perms
	return nil
}

func (m *Memory) MoveMember(_ context.Context, community domain.CommunityID, user domain.UserID, target domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.moves = append(m.moves, Move{Community: community, User: user, Target: target})
	return m.putMemberLocked(target, user)
}

func (m *Memory) SendMessage(_ context.Context, target string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, Message{Target: target, Content: content})
	return nil
}

func (m *Memory) FetchRoom(_ context.Context, id domain.RoomID) (domain.RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return domain.RoomInfo{}, apperrors.ErrRoomNotFound
	}
	return room.info, nil
}

func (m *Memory) ListMembers(_ context.Context, id domain.RoomID) ([]domain.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	out := make([]domain.UserID, len(room.members))
	copy(out, room.members)
	return out, nil
}

// Inspection helpers for tests.

func (m *Memory) HasRoom(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rooms[id]
	return ok
}

func (m *Memory) RoomName(id domain.RoomID) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[id]; ok {
		return room.info.Name
	}
	return ""
}

func (m *Memory) Overwrite(id domain.RoomID, subject domain.Subject) (domain.Permissions, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return domain.Permissions{}, false
	}
	perms, ok := room.overwrites[subject]
	return perms, ok
}

func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Memory) Moves() []Move {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Move, len(m.moves))
	copy(out, m.moves)
	return out
}

func without(members []domain.UserID, user domain.UserID) []domain.UserID {
	out := members[:0]
	for _, member := range members {
		if member != user {
			out = append(out, member)
		}
	}
	return out
}
