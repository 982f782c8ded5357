package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// MemoryStore keeps all state in process. It honours the same contract as
// PostgresStore: LockEvent takes a per-event lock held until the transaction
// ends, and inserts become visible only on commit.
type MemoryStore struct {
	mu            sync.RWMutex
	events        map[uuid.UUID]model.Event
	users         map[uuid.UUID]model.User
	emails        map[string]uuid.UUID
	registrations map[uuid.UUID][]model.Registration // by event, insertion order

	locksMu sync.Mutex
	locks   map[uuid.UUID]chan struct{}
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:        make(map[uuid.UUID]model.Event),
		users:         make(map[uuid.UUID]model.User),
		emails:        make(map[string]uuid.UUID),
		registrations: make(map[uuid.UUID][]model.Registration),
		locks:         make(map[uuid.UUID]chan struct{}),
	}
}

// Ping reports only context cancellation; there is no backend to reach.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateEvent stores e. A reused ID yields ErrDuplicate.
func (s *MemoryStore) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("insert event: %w", ErrDuplicate)
	}
	s.events[e.ID] = *e
	return nil
}

// GetEvent returns a copy of the event or ErrNotFound.
func (s *MemoryStore) GetEvent(_ context.Context, id uuid.UUID) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("get event: %w", ErrNotFound)
	}
	return &e, nil
}

// ListUpcoming returns events after now ordered by datetime, then location.
func (s *MemoryStore) ListUpcoming(_ context.Context, now time.Time) ([]model.Event, error) {
	s.mu.RLock()
	var events []model.Event
	for _, e := range s.events {
		if e.Datetime.After(now) {
			events = append(events, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(events, func(a, b model.Event) int {
		if c := a.Datetime.Compare(b.Datetime); c != 0 {
			return c
		}
		return cmp.Compare(a.Location, b.Location)
	})
	return events, nil
}

// ListRegisteredUsers returns the users registered for eventID in registration order.
func (s *MemoryStore) ListRegisteredUsers(_ context.Context, eventID uuid.UUID) ([]model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []model.RegisteredUser
	for _, r := range s.registrations[eventID] {
		u := s.users[r.UserID]
		users = append(users, model.RegisteredUser{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return users, nil
}

// CountRegistrations returns the committed registrations for eventID.
func (s *MemoryStore) CountRegistrations(_ context.Context, eventID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registrations[eventID]), nil
}

// CreateUser stores u. Emails are unique case-insensitively.
func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, taken := s.emails[key]; taken {
		return fmt.Errorf("insert user: %w: users_email_key", ErrDuplicate)
	}
	s.users[u.ID] = *u
	s.emails[key] = u.ID
	return nil
}

// DeleteRegistration removes one registration or returns ErrNotFound.
func (s *MemoryStore) DeleteRegistration(_ context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs := s.registrations[eventID]
	i := slices.IndexFunc(regs, func(r model.Registration) bool { return r.UserID == userID })
	if i < 0 {
		return ErrNotFound
	}
	s.registrations[eventID] = slices.Delete(regs, i, i+1)
	return nil
}

// WithinTx runs fn with a fresh transaction. Pending inserts are applied on
// success and discarded otherwise; held event locks are released either way.
func (s *MemoryStore) WithinTx(ctx context.Context, fn TxFunc) error {
	tx := &memoryTx{store: s, held: make(map[uuid.UUID]chan struct{})}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", ErrUnavailable, err)
	}
	return tx.commit()
}

// lockFor returns the lock channel for an event. Callers must only ask for
// events that exist, so the map is bounded by the number of events.
func (s *MemoryStore) lockFor(id uuid.UUID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

type memoryTx struct {
	store   *MemoryStore
	held    map[uuid.UUID]chan struct{}
	pending []model.Registration
}

func (t *memoryTx) LockEvent(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	if _, ok := t.held[eventID]; !ok {
		// Events are never deleted, so one that exists now still exists once locked.
		if _, err := t.store.GetEvent(ctx, eventID); err != nil {
			return nil, err
		}
		l := t.store.lockFor(eventID)
		select {
		case l <- struct{}{}:
			t.held[eventID] = l
		case <-ctx.Done():
			return nil, fmt.Errorf("lock event row: %w: %w", ErrUnavailable, ctx.Err())
		}
	}
	return t.store.GetEvent(ctx, eventID)
}

func (t *memoryTx) GetUser(_ context.Context, userID uuid.UUID) (*model.User, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	u, ok := t.store.users[userID]
	if !ok {
		return nil, fmt.Errorf("get user: %w", ErrNotFound)
	}
	return &u, nil
}

func (t *memoryTx) RegistrationExists(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	match := func(r model.Registration) bool { return r.EventID == eventID && r.UserID == userID }

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return slices.ContainsFunc(t.store.registrations[eventID], match) ||
		slices.ContainsFunc(t.pending, match), nil
}

func (t *memoryTx) CountRegistrations(_ context.Context, eventID uuid.UUID) (int, error) {
	t.store.mu.RLock()
	n := len(t.store.registrations[eventID])
	t.store.mu.RUnlock()
	for _, r := range t.pending {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) InsertRegistration(ctx context.Context, reg *model.Registration) error {
	exists, _ := t.RegistrationExists(ctx, reg.EventID, reg.UserID)
	if exists {
		return fmt.Errorf("insert registration: %w: registrations_user_id_event_id_key", ErrDuplicate)
	}
	t.pending = append(t.pending, *reg)
	return nil
}

func (t *memoryTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, r := range t.pending {
		if slices.ContainsFunc(t.store.registrations[r.EventID], func(x model.Registration) bool {
			return x.UserID == r.UserID
		}) {
			return fmt.Errorf("insert registration: %w: registrations_user_id_event_id_key", ErrDuplicate)
		}
	}
	for _, r := range t.pending {
		t.store.registrations[r.EventID] = append(t.store.registrations[r.EventID], r)
	}
	t.pending = nil
	return nil
}

func (t *memoryTx) release() {
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
}
