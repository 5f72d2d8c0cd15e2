//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"voice-lab/domain"
	"voice-lab/domain/event"
)

// Platform is the chat-platform client this core drives. Every call is
// raced against a bounded timeout by the caller; implementations must
// honor context cancellation. FetchRoom and ListMembers return
// errors.ErrRoomNotFound when the channel no longer exists.
type Platform interface {
	CreateRoom(ctx context.Context, spec domain.RoomSpec) (domain.RoomID, error)
	DeleteRoom(ctx context.Context, id domain.RoomID, reason string) error
	RenameRoom(ctx context.Context, id domain.RoomID, name, reason string) error
	SetPermissionOverwrite(ctx context.Context, id domain.RoomID, subject domain.Subject, perms domain.Permissions) error
	MoveMember(ctx context.Context, community domain.CommunityID, user domain.UserID, target domain.RoomID) error
	SendMessage(ctx context.Context, target string, content string) error
	FetchRoom(ctx context.Context, id domain.RoomID) (domain.RoomInfo, error)
	ListMembers(ctx context.Context, id domain.RoomID) ([]domain.UserID, error)
}

// Storage is the durable blob key-value collaborator. The core persists
// config and session snapshots on every mutating change and at each
// garbage-collection sweep.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
	GetAll(prefix string) (map[string][]byte, error)
	SetAll(prefix string, values map[string][]byte) error
	// Ensure writes def under key only when the key is missing.
	Ensure(key string, def []byte) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; the supervisor recovers its panics.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}
