package runtime

import (
	"sort"
	"sync"

	"voice-lab/domain"
)

// TriggerRegistry is the per-community list of channels whose join events
// spawn rooms. Mutations are persisted by the Manager right after they
// succeed; the registry itself only owns the in-memory view.
type TriggerRegistry struct {
	mu       sync.RWMutex
	channels map[domain.CommunityID]map[domain.RoomID]struct{}
}

func NewTriggerRegistry() *TriggerRegistry {
	return &TriggerRegistry{channels: make(map[domain.CommunityID]map[domain.RoomID]struct{})}
}

// Add inserts a trigger channel. It reports whether the registry changed,
// so calling it twice yields a single entry.
func (r *TriggerRegistry) Add(community domain.CommunityID, channel domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[community]
	if !ok {
		set = make(map[domain.RoomID]struct{})
		r.channels[community] = set
	}
	if _, exists := set[channel]; exists {
		return false
	}
	set[channel] = struct{}{}
	return true
}

// Remove deletes a trigger channel, reporting whether it was present.
func (r *TriggerRegistry) Remove(community domain.CommunityID, channel domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[community]
	if !ok {
		return false
	}
	if _, exists := set[channel]; !exists {
		return false
	}
	delete(set, channel)
	if len(set) == 0 {
		delete(r.channels, community)
	}
	return true
}

func (r *TriggerRegistry) IsTrigger(community domain.CommunityID, channel domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[community]
	if !ok {
		return false
	}
	_, exists := set[channel]
	return exists
}

// List returns a sorted snapshot of the community's trigger channels.
func (r *TriggerRegistry) List(community domain.CommunityID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[community]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(set))
	for channel := range set {
		out = append(out, channel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot copies the full registry for persistence.
func (r *TriggerRegistry) Snapshot() map[domain.CommunityID][]domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.CommunityID][]domain.RoomID, len(r.channels))
	for community, set := range r.channels {
		channels := make([]domain.RoomID, 0, len(set))
		for channel := range set {
			channels = append(channels, channel)
		}
		sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
		out[community] = channels
	}
	return out
}

// Restore replaces the registry content with a persisted snapshot.
func (r *TriggerRegistry) Restore(snapshot map[domain.CommunityID][]domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = make(map[domain.CommunityID]map[domain.RoomID]struct{}, len(snapshot))
	for community, channels := range snapshot {
		set := make(map[domain.RoomID]struct{}, len(channels))
		for _, channel := range channels {
			set[channel] = struct{}{}
		}
		r.channels[community] = set
	}
}
