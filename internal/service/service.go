// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// DefaultTxTimeout bounds a registration transaction, lock wait included.
const DefaultTxTimeout = 5 * time.Second

// RegistrationStore is the store contract the Coordinator relies on.
type RegistrationStore interface {
	WithinTx(ctx context.Context, fn repository.TxFunc) error
	DeleteRegistration(ctx context.Context, eventID, userID uuid.UUID) error
}

// EventReader is the read side used by QueryService.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error)
	ListRegisteredUsers(ctx context.Context, eventID uuid.UUID) ([]model.RegisteredUser, error)
	CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
}

// CatalogStore creates events and users.
type CatalogStore interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	CreateUser(ctx context.Context, u *model.User) error
}

// Clock returns the current time.
type Clock func() time.Time

type options struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     Clock
	txTimeout time.Duration
}

// Option configures a service.
type Option func(*options)

// WithLogger sets the logger used for store failures and admission outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the collectors the service reports to. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithTxTimeout sets the bound on a single registration transaction.
func WithTxTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.txTimeout = d
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:    slog.Default(),
		clock:     time.Now,
		txTimeout: DefaultTxTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// storeFailure converts an unanticipated store error into a Transient or
// Internal error and logs it. attrs identify the request.
func storeFailure(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) error {
	if errors.Is(err, repository.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		logger.WarnContext(ctx, msg, append(attrs, "error", err, "retryable", true)...)
		return apperr.Transient(err)
	}
	logger.ErrorContext(ctx, msg, append(attrs, "error", err)...)
	return apperr.Internal(err)
}
