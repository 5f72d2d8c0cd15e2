package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voice-lab/domain"
)

func TestTriggerRegistry_Add_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewTriggerRegistry()
	community := domain.CommunityID("guild-1")
	channel := domain.RoomID("lobby")

	// When the same trigger is added twice
	req.True(registry.Add(community, channel))
	req.False(registry.Add(community, channel))

	// Then a single entry exists
	req.Len(registry.List(community), 1)
	req.True(registry.IsTrigger(community, channel))
}

func TestTriggerRegistry_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewTriggerRegistry()
	community := domain.CommunityID("guild-1")
	channel := domain.RoomID("lobby")

	registry.Add(community, channel)

	// When the trigger is removed twice
	req.True(registry.Remove(community, channel))
	req.False(registry.Remove(community, channel))

	// Then nothing is left
	req.False(registry.IsTrigger(community, channel))
	req.Empty(registry.List(community))
}

func TestTriggerRegistry_List_Is_Sorted(t *testing.T) {
	req := require.New(t)
	registry := NewTriggerRegistry()
	community := domain.CommunityID("guild-1")

	registry.Add(community, "charlie")
	registry.Add(community, "alpha")
	registry.Add(community, "bravo")

	req.Equal([]domain.RoomID{"alpha", "bravo", "charlie"}, registry.List(community))
}

func TestTriggerRegistry_Communities_Are_Isolated(t *testing.T) {
	req := require.New(t)
	registry := NewTriggerRegistry()

	registry.Add("guild-1", "lobby")

	req.False(registry.IsTrigger("guild-2", "lobby"))
	req.Empty(registry.List("guild-2"))
}

func TestTriggerRegistry_Snapshot_Restore_Roundtrip(t *testing.T) {
	req := require.New(t)
	registry := NewTriggerRegistry()
	registry.Add("guild-1", "lobby")
	registry.Add("guild-1", "annex")
	registry.Add("guild-2", "hall")

	restored := NewTriggerRegistry()
	restored.Restore(registry.Snapshot())

	req.Equal(registry.Snapshot(), restored.Snapshot())
	req.True(restored.IsTrigger("guild-2", "hall"))
}
