package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

type queryFixture struct {
	ctx         context.Context
	store       *repository.MemoryStore
	coordinator *Coordinator
	queries     *QueryService
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	return &queryFixture{
		ctx:         context.Background(),
		store:       store,
		coordinator: NewCoordinator(store, WithClock(fixedClock)),
		queries:     NewQueryService(store, WithClock(fixedClock)),
	}
}

func (f *queryFixture) event(t *testing.T, offset time.Duration, location string, capacity int) *model.Event {
	t.Helper()
	e := &model.Event{
		ID:       uuid.New(),
		Title:    "Workshop " + location,
		Datetime: fixedNow.Add(offset),
		Location: location,
		Capacity: capacity,
	}
	require.NoError(t, f.store.CreateEvent(f.ctx, e))
	return e
}

func (f *queryFixture) registerNew(t *testing.T, eventID uuid.UUID, name string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	_, err := f.coordinator.Register(f.ctx, eventID, u.ID)
	require.NoError(t, err)
	return u
}

func TestGetStats(t *testing.T) {
	f := newQueryFixture(t)
	event := f.event(t, time.Hour, "Madrid", 10)
	for _, name := range []string{"ana", "bea", "carla"} {
		f.registerNew(t, event.ID, name)
	}

	stats, err := f.queries.GetStats(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStats{
		TotalRegistrations: 3,
		RemainingCapacity:  7,
		PercentageUsed:     "30.00%",
	}, *stats)
}

func TestGetStatsMissingEvent(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.queries.GetStats(f.ctx, uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestListUpcoming(t *testing.T) {
	f := newQueryFixture(t)
	a := f.event(t, time.Hour, "locZ", 5)
	b := f.event(t, time.Hour, "locA", 5)
	f.event(t, -time.Hour, "locB", 5)

	events, err := f.queries.ListUpcoming(f.ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, b.ID, events[0].ID)
	assert.Equal(t, a.ID, events[1].ID)
}

func TestListUpcomingEmpty(t *testing.T) {
	f := newQueryFixture(t)

	events, err := f.queries.ListUpcoming(f.ctx)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestGetEvent(t *testing.T) {
	f := newQueryFixture(t)
	event := f.event(t, time.Hour, "Lyon", 3)

	t.Run("without registrations", func(t *testing.T) {
		detail, err := f.queries.GetEvent(f.ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, *event, detail.Event)
		assert.NotNil(t, detail.Users)
		assert.Empty(t, detail.Users)
	})

	t.Run("lists registered users in order", func(t *testing.T) {
		first := f.registerNew(t, event.ID, "first")
		second := f.registerNew(t, event.ID, "second")

		detail, err := f.queries.GetEvent(f.ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, []model.RegisteredUser{
			{ID: first.ID, Name: first.Name, Email: first.Email},
			{ID: second.ID, Name: second.Name, Email: second.Email},
		}, detail.Users)
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := f.queries.GetEvent(f.ctx, uuid.New())
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

type failingReader struct {
	err error
}

func (r failingReader) GetEvent(context.Context, uuid.UUID) (*model.Event, error) {
	return nil, r.err
}

func (r failingReader) ListUpcoming(context.Context, time.Time) ([]model.Event, error) {
	return nil, r.err
}

func (r failingReader) ListRegisteredUsers(context.Context, uuid.UUID) ([]model.RegisteredUser, error) {
	return nil, r.err
}

func (r failingReader) CountRegistrations(context.Context, uuid.UUID) (int, error) {
	return 0, r.err
}

func TestQueryStoreFailures(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	internal := NewQueryService(failingReader{err: errors.New("relation does not exist")}, WithLogger(logger))
	_, err := internal.ListUpcoming(ctx)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	_, err = internal.GetEvent(ctx, uuid.New())
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	transient := NewQueryService(failingReader{err: repository.ErrUnavailable}, WithLogger(logger))
	_, err = transient.GetStats(ctx, uuid.New())
	assert.Equal(t, apperr.KindTransient, apperr.KindOf(err))
}
