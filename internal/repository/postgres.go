package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// PostgresStore handles persistence for events, users and registrations.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return classify("ping", s.db.Ping(ctx))
}

// CreateEvent inserts a new event.
func (s *PostgresStore) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, datetime, location, capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Title, e.Datetime, e.Location, e.Capacity, e.CreatedAt,
	)
	return classify("insert event", err)
}

// GetEvent returns a single event or ErrNotFound.
func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	err := s.db.QueryRow(ctx,
		`SELECT id, title, datetime, location, capacity, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt)
	if err != nil {
		return nil, classify("get event", err)
	}
	return &e, nil
}

// ListUpcoming returns events starting after now, soonest first and by
// location for events sharing a start time.
func (s *PostgresStore) ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, datetime, location, capacity, created_at
		 FROM events
		 WHERE datetime > $1
		 ORDER BY datetime ASC, location ASC`,
		now,
	)
	if err != nil {
		return nil, classify("list upcoming events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, classify("list upcoming events", rows.Err())
}

// ListRegisteredUsers returns the users registered for an event in
// registration order.
func (s *PostgresStore) ListRegisteredUsers(ctx context.Context, eventID uuid.UUID) ([]model.RegisteredUser, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.name, u.email
		 FROM registrations r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1
		 ORDER BY r.created_at ASC, r.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, classify("list registered users", err)
	}
	defer rows.Close()

	var users []model.RegisteredUser
	for rows.Next() {
		var u model.RegisteredUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan registered user: %w", err)
		}
		users = append(users, u)
	}
	return users, classify("list registered users", rows.Err())
}

// CountRegistrations returns the number of registrations for an event.
func (s *PostgresStore) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&n)
	return n, classify("count registrations", err)
}

// CreateUser inserts a user. A taken email yields ErrDuplicate.
func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, name, email, created_at)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Name, u.Email, u.CreatedAt,
	)
	return classify("insert user", err)
}

// DeleteRegistration removes the registration of userID for eventID, or
// returns ErrNotFound when there is none. Only that one row is touched.
func (s *PostgresStore) DeleteRegistration(ctx context.Context, eventID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return classify("delete registration", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithinTx runs fn inside a transaction and commits when fn returns nil.
//
// Registrations must not be admitted with a plain read-then-write: two
// transactions could both read count = capacity-1 and both insert. Callers
// take the event row with LockEvent (SELECT … FOR UPDATE) first, which
// serialises every admission for that event until COMMIT or ROLLBACK while
// leaving other events unaffected.
func (s *PostgresStore) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin transaction", err)
	}
	// Ensure the transaction is always resolved, even when ctx has expired.
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockEvent(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	var e model.Event
	err := t.tx.QueryRow(ctx,
		`SELECT id, title, datetime, location, capacity, created_at
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt)
	if err != nil {
		return nil, classify("lock event row", err)
	}
	return &e, nil
}

func (t *pgTx) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var u model.User
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, classify("get user", err)
	}
	return &u, nil
}

func (t *pgTx) RegistrationExists(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	return exists, classify("check duplicate", err)
}

func (t *pgTx) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&n)
	return n, classify("count registrations", err)
}

func (t *pgTx) InsertRegistration(ctx context.Context, reg *model.Registration) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO registrations (id, user_id, event_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.UserID, reg.EventID, reg.CreatedAt,
	)
	return classify("insert registration", err)
}
