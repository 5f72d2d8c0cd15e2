package domain

import "fmt"

type TypeKey string

const (
	TypeDefault      TypeKey = "default"
	TypeFreeTalk     TypeKey = "free_talk"
	TypeHuntingParty TypeKey = "hunting_party"
	TypeTradingParty TypeKey = "trading_party"
	TypeStudy        TypeKey = "study"
	TypeMusic        TypeKey = "music"
)

// RoomTypeTemplate formats a display name into a room name and carries the
// illustration shown on the room's control message. Templates are immutable;
// the catalog below is the full set.
type RoomTypeTemplate struct {
	Key        TypeKey
	nameFormat string
	ImageRef   string
}

func (t RoomTypeTemplate) RoomName(displayName string) string {
	return fmt.Sprintf(t.nameFormat, displayName)
}

var catalog = []RoomTypeTemplate{
	{Key: TypeDefault, nameFormat: "%s's room", ImageRef: "img/room_default.png"},
	{Key: TypeFreeTalk, nameFormat: "%s's free talk", ImageRef: "img/room_free_talk.png"},
	{Key: TypeHuntingParty, nameFormat: "%s's hunting party", ImageRef: "img/room_hunting.png"},
	{Key: TypeTradingParty, nameFormat: "%s's trading party", ImageRef: "img/room_trading.png"},
	{Key: TypeStudy, nameFormat: "%s's study room", ImageRef: "img/room_study.png"},
	{Key: TypeMusic, nameFormat: "%s's music room", ImageRef: "img/room_music.png"},
}

// TypeByKey resolves a catalog entry. Unknown keys must be rejected before
// any platform call is made.
func TypeByKey(key TypeKey) (RoomTypeTemplate, bool) {
	for _, t := range catalog {
		if t.Key == key {
			return t, true
		}
	}
	return RoomTypeTemplate{}, false
}

func RoomTypes() []RoomTypeTemplate {
	out := make([]RoomTypeTemplate, len(catalog))
	copy(out, catalog)
	return out
}
