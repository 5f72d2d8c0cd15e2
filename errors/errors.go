package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Platform talking failures. Timeout aborts the operation and releases
	// any held lock; it is never retried automatically.
	ErrPlatformTimeout = fmt.Errorf("platform call timed out")

	// State lookups.
	ErrRoomNotFound     = fmt.Errorf("room not found")
	ErrTargetNotPresent = fmt.Errorf("target user is not in the room")

	// Actor checks.
	ErrNotRoomOwner = fmt.Errorf("not the room owner")

	// Concurrency conflicts. The caller is told to try again later,
	// nothing is scheduled on their behalf.
	ErrRenameInProgress  = fmt.Errorf("a rename is already in progress")
	ErrOwnershipEditBusy = fmt.Errorf("an ownership change is already in progress")

	// Configuration.
	ErrNoTriggerConfigured = fmt.Errorf("no trigger channel configured")
	ErrUnknownRoomType     = fmt.Errorf("unknown room type")
	ErrInvalidRoomName     = fmt.Errorf("invalid room name")
	ErrOwnerStillPresent   = fmt.Errorf("the owner is still in the room")

	// Wire decoding.
	ErrMalformedAction = fmt.Errorf("malformed action payload")

	// Moderation wordlists.
	ErrEmptyWords = fmt.Errorf("no words have been found")
)
