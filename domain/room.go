// Package domain holds the core records of the voice room lifecycle:
// rooms spawned from trigger channels, their ownership, and the commands
// users issue against them. Identifiers are opaque platform strings.
package domain

import "time"

type CommunityID string

type RoomID string

type UserID string

// TriggerChannel is an admin-configured channel whose join event spawns
// a new room. Its lifecycle is independent of the rooms it spawned.
type TriggerChannel struct {
	Community CommunityID
	Channel   RoomID
}

// Room is an ephemeral voice channel spawned from a trigger. It is
// destroyed as soon as its membership reaches zero or when the owner
// closes it explicitly.
type Room struct {
	ID        RoomID
	Community CommunityID
	Trigger   RoomID
	CreatedAt time.Time
}

// OwnershipRecord tracks the single user holding management rights over
// a room. Exactly one record exists per live room.
type OwnershipRecord struct {
	Room              RoomID
	Owner             UserID
	CreatedAt         time.Time
	RoomType          TypeKey
	LastInteractionAt time.Time
}

// RoomSpec describes the channel the platform should create. Bitrate and
// limit are copied from the trigger channel.
type RoomSpec struct {
	Community  CommunityID
	Category   string
	Name       string
	Bitrate    int
	Limit      int
	Overwrites []Overwrite
}

// RoomInfo is what the platform reports back about an existing channel.
type RoomInfo struct {
	ID       RoomID
	Name     string
	Category string
	Bitrate  int
	Limit    int
}

type SubjectKind int

const (
	SubjectUser SubjectKind = iota
	SubjectEveryone
)

// Subject identifies who a permission overwrite applies to.
type Subject struct {
	Kind SubjectKind
	User UserID
}

func UserSubject(user UserID) Subject {
	return Subject{Kind: SubjectUser, User: user}
}

func EveryoneSubject() Subject {
	return Subject{Kind: SubjectEveryone}
}

// Permissions is the subset of platform permissions this core manipulates.
type Permissions struct {
	ManageRoom bool
	Connect    bool
	Speak      bool
}

// ManagerPermissions is granted to the current room owner.
func ManagerPermissions() Permissions {
	return Permissions{ManageRoom: true, Connect: true, Speak: true}
}

// MemberPermissions is granted to everyone and to demoted owners.
func MemberPermissions() Permissions {
	return Permissions{Connect: true, Speak: true}
}

type Overwrite struct {
	Subject Subject
	Perms   Permissions
}

// VoiceState is a platform voice-state change: the user moved from Old to
// New. An empty Old means the user just connected, an empty New means
// they disconnected entirely.
type VoiceState struct {
	Community   CommunityID
	User        UserID
	DisplayName string
	Old         RoomID
	New         RoomID
}
