package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// QueryService serves read-only views of events.
type QueryService struct {
	store  EventReader
	logger *slog.Logger
	clock  Clock
}

// NewQueryService constructs a QueryService.
func NewQueryService(store EventReader, opts ...Option) *QueryService {
	o := newOptions(opts)
	return &QueryService{store: store, logger: o.logger, clock: o.clock}
}

// GetEvent returns an event with the users registered for it.
func (s *QueryService) GetEvent(ctx context.Context, id uuid.UUID) (*model.EventDetail, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	users, err := s.store.ListRegisteredUsers(ctx, id)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list registered users failed", err, "event_id", id)
	}
	if users == nil {
		users = []model.RegisteredUser{}
	}
	return &model.EventDetail{Event: *event, Users: users}, nil
}

// ListUpcoming returns events that have not started yet, soonest first.
func (s *QueryService) ListUpcoming(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.ListUpcoming(ctx, s.clock())
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list upcoming events failed", err)
	}
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// GetStats reports how much of an event's capacity is taken.
func (s *QueryService) GetStats(ctx context.Context, id uuid.UUID) (*model.EventStats, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountRegistrations(ctx, id)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "count registrations failed", err, "event_id", id)
	}
	stats := model.NewEventStats(event.Capacity, total)
	return &stats, nil
}

func (s *QueryService) getEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storeFailure(ctx, s.logger, "get event failed", err, "event_id", id)
	}
	return event, nil
}
