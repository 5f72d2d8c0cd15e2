package domain

// ActionKind names a user-initiated action for debounce tracking: two
// identical (user, room, kind) actions inside the debounce window are
// treated as one.
type ActionKind string

const (
	ActionRename   ActionKind = "rename"
	ActionRoomType ActionKind = "room_type"
	ActionTransfer ActionKind = "transfer"
	ActionClaim    ActionKind = "claim"
	ActionClose    ActionKind = "close"
)

// Command is a decoded user action against a room. Interactions are decoded
// into commands once at the platform boundary; everything past that point
// works with these values, never with raw action strings.
type Command interface {
	RoomID() RoomID
	Actor() UserID
	Kind() ActionKind
}

type RenameRoomCommand struct {
	Room    RoomID
	User    UserID
	NewName string
}

func (c RenameRoomCommand) RoomID() RoomID   { return c.Room }
func (c RenameRoomCommand) Actor() UserID    { return c.User }
func (c RenameRoomCommand) Kind() ActionKind { return ActionRename }

type SetRoomTypeCommand struct {
	Room RoomID
	User UserID
	Type TypeKey
}

func (c SetRoomTypeCommand) RoomID() RoomID   { return c.Room }
func (c SetRoomTypeCommand) Actor() UserID    { return c.User }
func (c SetRoomTypeCommand) Kind() ActionKind { return ActionRoomType }

type TransferOwnershipCommand struct {
	Room   RoomID
	User   UserID
	Target UserID
}

func (c TransferOwnershipCommand) RoomID() RoomID   { return c.Room }
func (c TransferOwnershipCommand) Actor() UserID    { return c.User }
func (c TransferOwnershipCommand) Kind() ActionKind { return ActionTransfer }

// ClaimOwnershipCommand queues the actor as a claimant while the current
// owner is absent. The claim is consumed when the actor next joins the room.
type ClaimOwnershipCommand struct {
	Room RoomID
	User UserID
}

func (c ClaimOwnershipCommand) RoomID() RoomID   { return c.Room }
func (c ClaimOwnershipCommand) Actor() UserID    { return c.User }
func (c ClaimOwnershipCommand) Kind() ActionKind { return ActionClaim }

type CloseRoomCommand struct {
	Room RoomID
	User UserID
}

func (c CloseRoomCommand) RoomID() RoomID   { return c.Room }
func (c CloseRoomCommand) Actor() UserID    { return c.User }
func (c CloseRoomCommand) Kind() ActionKind { return ActionClose }
