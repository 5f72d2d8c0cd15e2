package domain

import (
	"fmt"
	"strings"

	apperrors "voice-lab/errors"
)

type InteractionKind int

const (
	InteractionButton InteractionKind = iota
	InteractionSelect
	InteractionModal
)

// Interaction is the raw payload handed over by the platform dispatcher.
// Context travels in colon-delimited opaque strings: "{action}:{roomId}"
// for buttons and the select-menu namespace, "{subaction}:{param}" for
// nested select values, and "rename_modal:{roomId}" for modal submissions.
type Interaction struct {
	Kind     InteractionKind
	User     UserID
	CustomID string
	Values   []string
	Fields   map[string]string
}

const (
	actionClaim    = "claim"
	actionClose    = "close"
	actionRoomMenu = "room_menu"
	actionRename   = "rename_modal"

	subactionType     = "type"
	subactionTransfer = "transfer"

	fieldRoomName = "room_name"
)

// DecodeInteraction turns a raw interaction into a Command. This is the only
// place action strings are parsed; anything malformed is rejected here so
// handlers never see a half-decoded payload.
func DecodeInteraction(in Interaction) (Command, error) {
	action, param, err := splitAction(in.CustomID)
	if err != nil {
		return nil, err
	}
	room := RoomID(param)

	switch in.Kind {
	case InteractionButton:
		switch action {
		case actionClaim:
			return ClaimOwnershipCommand{Room: room, User: in.User}, nil
		case actionClose:
			return CloseRoomCommand{Room: room, User: in.User}, nil
		}
	case InteractionSelect:
		if action != actionRoomMenu || len(in.Values) == 0 {
			break
		}
		sub, subParam, err := splitAction(in.Values[0])
		if err != nil {
			return nil, err
		}
		switch sub {
		case subactionType:
			return SetRoomTypeCommand{Room: room, User: in.User, Type: TypeKey(subParam)}, nil
		case subactionTransfer:
			return TransferOwnershipCommand{Room: room, User: in.User, Target: UserID(subParam)}, nil
		}
	case InteractionModal:
		if action != actionRename {
			break
		}
		name, ok := in.Fields[fieldRoomName]
		if !ok {
			return nil, fmt.Errorf("%w: modal %q has no %s field", apperrors.ErrMalformedAction, in.CustomID, fieldRoomName)
		}
		return RenameRoomCommand{Room: room, User: in.User, NewName: name}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrMalformedAction, in.CustomID)
}

// Action string builders, used when composing control messages so the
// encoding stays symmetric with DecodeInteraction.

func ClaimActionID(room RoomID) string    { return join(actionClaim, string(room)) }
func CloseActionID(room RoomID) string    { return join(actionClose, string(room)) }
func RoomMenuActionID(room RoomID) string { return join(actionRoomMenu, string(room)) }
func RenameModalID(room RoomID) string    { return join(actionRename, string(room)) }

func TypeValue(key TypeKey) string        { return join(subactionType, string(key)) }
func TransferValue(target UserID) string  { return join(subactionTransfer, string(target)) }

func join(action, param string) string {
	return action + ":" + param
}

func splitAction(raw string) (string, string, error) {
	action, param, found := strings.Cut(raw, ":")
	if !found || action == "" || param == "" {
		return "", "", fmt.Errorf("%w: %q", apperrors.ErrMalformedAction, raw)
	}
	return action, param, nil
}
