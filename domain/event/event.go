package event

import (
	"time"

	"github.com/google/uuid"

	"voice-lab/domain"
)

type DomainEvent interface {
	RoomID() domain.RoomID
}

type RoomCreated struct {
	ID        uuid.UUID
	Room      domain.RoomID
	Community domain.CommunityID
	Owner     domain.UserID
	At        time.Time
}

func (e RoomCreated) RoomID() domain.RoomID { return e.Room }

type RoomClosed struct {
	ID     uuid.UUID
	Room   domain.RoomID
	Reason string
	At     time.Time
}

func (e RoomClosed) RoomID() domain.RoomID { return e.Room }

type RoomRenamed struct {
	ID    uuid.UUID
	Room  domain.RoomID
	Actor domain.UserID
	Name  string
	At    time.Time
}

func (e RoomRenamed) RoomID() domain.RoomID { return e.Room }

// OwnershipTransferred covers both owner-initiated transfers and the
// automatic reassignment that runs when the owner leaves a non-empty room.
type OwnershipTransferred struct {
	ID        uuid.UUID
	Room      domain.RoomID
	From      domain.UserID
	To        domain.UserID
	Automatic bool
	At        time.Time
}

func (e OwnershipTransferred) RoomID() domain.RoomID { return e.Room }

type TriggerAdded struct {
	Community domain.CommunityID
	Channel   domain.RoomID
	At        time.Time
}

func (e TriggerAdded) RoomID() domain.RoomID { return e.Channel }

type TriggerRemoved struct {
	Community domain.CommunityID
	Channel   domain.RoomID
	At        time.Time
}

func (e TriggerRemoved) RoomID() domain.RoomID { return e.Channel }
