package runtime

import "time"

// Settings carries every timing knob of the lifecycle engine. Values come
// from the environment in production; tests shrink them to keep runs fast.
type Settings struct {
	// PlatformTimeout bounds every platform call.
	PlatformTimeout time.Duration
	// DebounceWindow suppresses duplicate repeated actions.
	DebounceWindow time.Duration
	// RenameTimeout bounds how long a rename lock may stay in progress.
	RenameTimeout time.Duration
	// MoveDelay postpones moving the spawning user into the fresh room
	// until the platform has propagated the new channel.
	MoveDelay time.Duration
	// RenameLockMaxAge is the unconditional drop age for lock records.
	RenameLockMaxAge time.Duration
	// CompletedLockRetention is how long completed lock records are kept.
	CompletedLockRetention time.Duration
	// ActivityRetention is the prune age for per-user activity timestamps.
	ActivityRetention time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		PlatformTimeout:        10 * time.Second,
		DebounceWindow:         10 * time.Second,
		RenameTimeout:          time.Minute,
		MoveDelay:              500 * time.Millisecond,
		RenameLockMaxAge:       time.Hour,
		CompletedLockRetention: 30 * time.Minute,
		ActivityRetention:      2 * time.Hour,
	}
}
