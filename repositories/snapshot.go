package repositories

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"voice-lab/contract"
	"voice-lab/domain"
)

// Storage keys for the persisted snapshots. Kept under distinct namespaces
// so the inspect tool can scan them by prefix.
const (
	KeyTriggers  = "config:triggers"
	KeySessions  = "session:directory"
	KeyOwnership = "session:ownership"
)

type triggerSnapshot struct {
	Channels map[domain.CommunityID][]domain.RoomID
}

type sessionSnapshot struct {
	Rooms []domain.Room
}

type ownershipSnapshot struct {
	Records []domain.OwnershipRecord
}

// Snapshots persists the trigger registry, the session directory, and the
// ownership table as cbor blobs through the storage collaborator. Written on
// every mutating config/session change and at each garbage-collection sweep.
type Snapshots struct {
	storage contract.Storage
}

func NewSnapshots(storage contract.Storage) Snapshots {
	return Snapshots{storage: storage}
}

// EnsureKeys seeds empty snapshots so a fresh database always has the
// expected keys in place.
func (s Snapshots) EnsureKeys() error {
	empty := [][2]any{
		{KeyTriggers, triggerSnapshot{Channels: map[domain.CommunityID][]domain.RoomID{}}},
		{KeySessions, sessionSnapshot{}},
		{KeyOwnership, ownershipSnapshot{}},
	}
	for _, pair := range empty {
		blob, err := cbor.Marshal(pair[1])
		if err != nil {
			return err
		}
		if err := s.storage.Ensure(pair[0].(string), blob); err != nil {
			return fmt.Errorf("ensure %s: %w", pair[0], err)
		}
	}
	return nil
}

func (s Snapshots) SaveTriggers(channels map[domain.CommunityID][]domain.RoomID) error {
	return s.save(KeyTriggers, triggerSnapshot{Channels: channels})
}

func (s Snapshots) LoadTriggers() (map[domain.CommunityID][]domain.RoomID, error) {
	var snap triggerSnapshot
	if err := s.load(KeyTriggers, &snap); err != nil {
		return nil, err
	}
	if snap.Channels == nil {
		snap.Channels = map[domain.CommunityID][]domain.RoomID{}
	}
	return snap.Channels, nil
}

func (s Snapshots) SaveSessions(rooms []domain.Room) error {
	return s.save(KeySessions, sessionSnapshot{Rooms: rooms})
}

func (s Snapshots) LoadSessions() ([]domain.Room, error) {
	var snap sessionSnapshot
	if err := s.load(KeySessions, &snap); err != nil {
		return nil, err
	}
	return snap.Rooms, nil
}

func (s Snapshots) SaveOwnership(records []domain.OwnershipRecord) error {
	return s.save(KeyOwnership, ownershipSnapshot{Records: records})
}

func (s Snapshots) LoadOwnership() ([]domain.OwnershipRecord, error) {
	var snap ownershipSnapshot
	if err := s.load(KeyOwnership, &snap); err != nil {
		return nil, err
	}
	return snap.Records, nil
}

func (s Snapshots) save(key string, value any) error {
	blob, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.storage.Save(key, blob)
}

func (s Snapshots) load(key string, into any) error {
	blob, err := s.storage.Load(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if blob == nil {
		return nil
	}
	return cbor.Unmarshal(blob, into)
}
