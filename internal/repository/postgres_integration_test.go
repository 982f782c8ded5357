//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Shivanand-hulikatti/event-registration/internal/database"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
	"github.com/Shivanand-hulikatti/event-registration/internal/service"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *repository.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("eventregistration"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err, "start postgres container")
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	cfg, err := pgxpool.ParseConfig(dsn)
	s.Require().NoError(err)
	cfg.MaxConns = 40
	s.pool, err = pgxpool.NewWithConfig(s.ctx, cfg)
	s.Require().NoError(err)

	s.Require().NoError(database.Migrate(s.ctx, s.pool))
	s.Require().NoError(database.Migrate(s.ctx, s.pool), "migration is idempotent")
	s.store = repository.NewPostgresStore(s.pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE registrations, users, events`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newEvent(at time.Time, location string, capacity int) *model.Event {
	e := &model.Event{
		ID:        uuid.New(),
		Title:     "Meetup " + location,
		Datetime:  at.UTC().Truncate(time.Microsecond),
		Location:  location,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.CreateEvent(s.ctx, e))
	return e
}

func (s *PostgresStoreSuite) newUser(email string) *model.User {
	u := &model.User{ID: uuid.New(), Name: "Ada", Email: email, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *PostgresStoreSuite) TestEventRoundTrip() {
	e := s.newEvent(time.Now().Add(time.Hour), "Lisbon", 10)

	got, err := s.store.GetEvent(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.Title, got.Title)
	s.True(e.Datetime.Equal(got.Datetime))

	_, err = s.store.GetEvent(s.ctx, uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmail() {
	s.newUser("ada@example.com")
	err := s.store.CreateUser(s.ctx, &model.User{ID: uuid.New(), Name: "Other", Email: "ada@example.com", CreatedAt: time.Now()})
	s.ErrorIs(err, repository.ErrDuplicate)
}

func (s *PostgresStoreSuite) TestListUpcomingOrdering() {
	at := time.Now().Add(time.Hour)
	s.newEvent(at, "locZ", 1)
	s.newEvent(at, "locA", 1)
	s.newEvent(time.Now().Add(-time.Hour), "locM", 1)

	events, err := s.store.ListUpcoming(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("locA", events[0].Location)
	s.Equal("locZ", events[1].Location)
}

func (s *PostgresStoreSuite) TestRegistrationUniqueConstraint() {
	e := s.newEvent(time.Now().Add(time.Hour), "Oslo", 5)
	u := s.newUser("grace@example.com")
	insert := func() error {
		return s.store.WithinTx(s.ctx, func(tx repository.Tx) error {
			return tx.InsertRegistration(s.ctx, &model.Registration{
				ID: uuid.New(), UserID: u.ID, EventID: e.ID, CreatedAt: time.Now(),
			})
		})
	}
	s.Require().NoError(insert())
	s.ErrorIs(insert(), repository.ErrDuplicate)

	s.Require().NoError(s.store.DeleteRegistration(s.ctx, e.ID, u.ID))
	s.ErrorIs(s.store.DeleteRegistration(s.ctx, e.ID, u.ID), repository.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentRegistrationsRespectCapacity() {
	const capacity, callers = 10, 40
	e := s.newEvent(time.Now().Add(time.Hour), "Arena", capacity)
	users := make([]*model.User, callers)
	for i := range users {
		users[i] = s.newUser(fmt.Sprintf("racer%d@example.com", i))
	}

	coord := service.NewCoordinator(s.store,
		service.WithLogger(slog.New(slog.DiscardHandler)),
		service.WithTxTimeout(30*time.Second),
	)

	var wg sync.WaitGroup
	var admitted, full, unexpected atomic.Int32
	start := make(chan struct{})
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := coord.Register(s.ctx, e.ID, u.ID)
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, service.ErrEventFull):
				full.Add(1)
			default:
				unexpected.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(capacity), admitted.Load())
	s.Equal(int32(callers-capacity), full.Load())
	s.Zero(unexpected.Load())

	n, err := s.store.CountRegistrations(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(capacity, n)
}
