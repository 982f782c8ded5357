package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// maxTextLength bounds free-text fields.
const maxTextLength = "255"

// datetimeLayouts are the ISO 8601 forms accepted for event datetimes.
// Layouts without an offset are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"20060102T150405Z0700",
	"20060102T150405",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102",
}

// CatalogService creates events and users.
type CatalogService struct {
	store   CatalogStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   Clock
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(store CatalogStore, opts ...Option) *CatalogService {
	o := newOptions(opts)
	return &CatalogService{store: store, logger: o.logger, metrics: o.metrics, clock: o.clock}
}

// CreateEvent validates the request and stores a new event.
func (s *CatalogService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	title := strings.TrimSpace(req.Title)
	location := strings.TrimSpace(req.Location)

	var details []string
	if title == "" {
		details = append(details, "Title is required")
	} else if !govalidator.StringLength(title, "1", maxTextLength) {
		details = append(details, "Title must be at most 255 characters")
	}
	datetime, err := parseDatetime(req.Datetime)
	if err != nil {
		details = append(details, "Datetime must be in ISO 8601 format")
	}
	if location == "" {
		details = append(details, "Location is required")
	} else if !govalidator.StringLength(location, "1", maxTextLength) {
		details = append(details, "Location must be at most 255 characters")
	}
	if req.Capacity < model.MinCapacity || req.Capacity > model.MaxCapacity {
		details = append(details, fmt.Sprintf("Capacity must be between %d and %d", model.MinCapacity, model.MaxCapacity))
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details...)
	}

	event := &model.Event{
		ID:        uuid.New(),
		Title:     title,
		Datetime:  datetime,
		Location:  location,
		Capacity:  req.Capacity,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, storeFailure(ctx, s.logger, "create event failed", err)
	}
	s.metrics.IncrementEventsCreated()
	return event, nil
}

// CreateUser validates the request and stores a new user. Emails are
// compared case-insensitively and must be unique.
func (s *CatalogService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var details []string
	if name == "" {
		details = append(details, "Name is required")
	} else if !govalidator.StringLength(name, "1", maxTextLength) {
		details = append(details, "Name must be at most 255 characters")
	}
	if !govalidator.IsEmail(email) {
		details = append(details, "A valid email is required")
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details...)
	}

	user := &model.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Validation("email must be unique")
		}
		return nil, storeFailure(ctx, s.logger, "create user failed", err)
	}
	s.metrics.IncrementUsersCreated()
	return user, nil
}

func parseDatetime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime %q", v)
}
