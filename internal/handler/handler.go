// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// Registrar admits and cancels registrations.
type Registrar interface {
	Register(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, userID uuid.UUID) error
}

// EventQueries serves read-only event views.
type EventQueries interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*model.EventDetail, error)
	ListUpcoming(ctx context.Context) ([]model.Event, error)
	GetStats(ctx context.Context, id uuid.UUID) (*model.EventStats, error)
}

// Catalog creates events and users.
type Catalog interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
}

// EventHandler holds all HTTP handlers for the registration API.
type EventHandler struct {
	registrar Registrar
	queries   EventQueries
	catalog   Catalog
	logger    *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(registrar Registrar, queries EventQueries, catalog Catalog, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{registrar: registrar, queries: queries, catalog: catalog, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a classified error onto a status code. Internal errors
// keep a generic message; the cause was already logged by the service.
func (h *EventHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		h.logger.ErrorContext(r.Context(), "unclassified error", "path", r.URL.Path, "error", err)
		ae = apperr.Internal(err)
	}

	switch ae.Kind {
	case apperr.KindTransient:
		w.Header().Set("Retry-After", "1")
	case apperr.KindInternal:
		ae = apperr.Internal(nil)
	}
	writeJSON(w, apperr.HTTPStatus(ae.Kind), model.ErrorResponse{Error: ae.Message, Details: ae.Details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body: " + err.Error())
	}
	return nil
}

func eventIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("Event ID must be a valid UUID")
	}
	return id, nil
}

// registrationIDs reads the event id from the path and the user id from the
// body, reporting both problems at once.
func registrationIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, error) {
	var req model.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	var details []string
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		details = append(details, "Event ID must be a valid UUID")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		details = append(details, "User ID must be a valid UUID")
	}
	if len(details) > 0 {
		return uuid.Nil, uuid.Nil, apperr.Validation(details...)
	}
	return eventID, userID, nil
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.catalog.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateEventResponse{EventID: event.ID})
}

// ListUpcoming handles GET /events/upcoming
func (h *EventHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListUpcoming(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
// Returns the event and the users registered for it.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.queries.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// GetStats handles GET /events/{id}/stats
func (h *EventHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stats, err := h.queries.GetStats(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Register handles POST /events/{id}/register
// Performs a concurrency-safe registration for the specified event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, userID, err := registrationIDs(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.registrar.Register(r.Context(), eventID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.MessageResponse{Message: "Successfully registered for the event."})
}

// Cancel handles DELETE /events/{id}/register
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, userID, err := registrationIDs(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.registrar.Cancel(r.Context(), eventID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Successfully cancelled registration for the event."})
}

// CreateUser handles POST /users
func (h *EventHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.catalog.CreateUser(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /health
func HealthCheck(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Index handles GET /
func Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Event Management API is running!"))
}
