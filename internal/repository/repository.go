// Package repository implements persistence for events, users and
// registrations. PostgresStore uses pgx directly (no ORM); MemoryStore offers
// the same transactional contract without a database.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate")

// ErrUnavailable marks failures that are safe to retry: lock waits,
// serialization failures, timeouts and lost connections.
var ErrUnavailable = errors.New("store unavailable")

// Tx is an open store transaction scoped to one registration attempt.
// LockEvent holds an exclusive lock on the event until the transaction ends.
type Tx interface {
	LockEvent(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	RegistrationExists(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
	InsertRegistration(ctx context.Context, reg *model.Registration) error
}

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(tx Tx) error
