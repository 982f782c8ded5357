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

// Admission failures, one per precondition of Register.
var (
	ErrEventNotFound     = apperr.New(apperr.KindNotFound, "event not found")
	ErrEventExpired      = apperr.New(apperr.KindInvalidState, "cannot register for a past event")
	ErrUserNotFound      = apperr.New(apperr.KindNotFound, "user not found")
	ErrAlreadyRegistered = apperr.New(apperr.KindConflict, "user is already registered for this event")
	ErrEventFull         = apperr.New(apperr.KindConflict, "event is full")
	ErrNotRegistered     = apperr.New(apperr.KindNotFound, "user is not registered for this event")
)

// Coordinator admits and cancels registrations. It keeps no state between
// calls; every Register runs in its own store transaction.
type Coordinator struct {
	store     RegistrationStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     Clock
	txTimeout time.Duration
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(store RegistrationStore, opts ...Option) *Coordinator {
	o := newOptions(opts)
	return &Coordinator{
		store:     store,
		logger:    o.logger,
		metrics:   o.metrics,
		clock:     o.clock,
		txTimeout: o.txTimeout,
	}
}

// Register claims one seat of eventID for userID.
//
// The event row is locked first, so concurrent attempts for the same event
// run one at a time and the count-then-insert cannot overshoot capacity.
// Checks run in a fixed order and the first failing one decides the error:
// missing event, past event, missing user, duplicate, full.
func (c *Coordinator) Register(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	var reg *model.Registration
	err := c.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		reg, err = c.admit(ctx, tx, eventID, userID)
		return err
	})
	if err != nil {
		err = c.registerFailure(ctx, err, eventID, userID)
		c.metrics.ObserveRegistration(outcomeOf(err), time.Since(start))
		return nil, err
	}

	c.metrics.ObserveRegistration(metrics.OutcomeAdmitted, time.Since(start))
	c.logger.DebugContext(ctx, "registration admitted",
		"event_id", eventID,
		"user_id", userID,
		"registration_id", reg.ID,
	)
	return reg, nil
}

func (c *Coordinator) admit(ctx context.Context, tx repository.Tx, eventID, userID uuid.UUID) (*model.Registration, error) {
	event, err := tx.LockEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	// Sampled after the lock so time spent waiting counts against the event.
	now := c.clock()
	if !event.IsOpenAt(now) {
		return nil, ErrEventExpired
	}

	if _, err := tx.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	exists, err := tx.RegistrationExists(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	count, err := tx.CountRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if count >= event.Capacity {
		return nil, ErrEventFull
	}

	reg := &model.Registration{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: now.UTC(),
	}
	if err := tx.InsertRegistration(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// registerFailure passes admission errors through and classifies the rest.
// A unique-constraint hit means another transaction already inserted the
// same pair, which is the duplicate case.
func (c *Coordinator) registerFailure(ctx context.Context, err error, eventID, userID uuid.UUID) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyRegistered
	}
	return storeFailure(ctx, c.logger, "registration failed", err,
		"event_id", eventID,
		"user_id", userID,
	)
}

// Cancel removes the registration of userID for eventID. It does not lock
// the event: a delete can only relax capacity and uniqueness. Past events
// can be cancelled too.
func (c *Coordinator) Cancel(ctx context.Context, eventID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	err := c.store.DeleteRegistration(ctx, eventID, userID)
	switch {
	case err == nil:
		c.metrics.IncrementCancellations()
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotRegistered
	}
	return storeFailure(ctx, c.logger, "cancellation failed", err,
		"event_id", eventID,
		"user_id", userID,
	)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrEventNotFound):
		return metrics.OutcomeEventNotFound
	case errors.Is(err, ErrEventExpired):
		return metrics.OutcomeEventExpired
	case errors.Is(err, ErrUserNotFound):
		return metrics.OutcomeUserNotFound
	case errors.Is(err, ErrAlreadyRegistered):
		return metrics.OutcomeAlreadyRegistered
	case errors.Is(err, ErrEventFull):
		return metrics.OutcomeEventFull
	case apperr.HasKind(err, apperr.KindTransient):
		return metrics.OutcomeTransient
	}
	return metrics.OutcomeInternal
}
