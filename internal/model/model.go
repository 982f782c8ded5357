// Package model defines the core domain types for the event registration system.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MinCapacity and MaxCapacity bound Event.Capacity.
const (
	MinCapacity = 1
	MaxCapacity = 1000
)

// Event represents a scheduled event with a fixed number of seats.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Datetime  time.Time `json:"datetime"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsOpenAt reports whether registrations are still accepted at now.
// The event datetime must be strictly after now.
func (e *Event) IsOpenAt(now time.Time) bool {
	return e.Datetime.After(now)
}

// User is a person who can register for events.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registration is the join row between a user and an event.
type Registration struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	EventID   uuid.UUID `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisteredUser is the public view of a user attending an event.
type RegisteredUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// EventDetail is an event together with its registered users.
type EventDetail struct {
	Event
	Users []RegisteredUser `json:"users"`
}

// EventStats summarises how much of an event's capacity is used.
type EventStats struct {
	TotalRegistrations int    `json:"totalRegistrations"`
	RemainingCapacity  int    `json:"remainingCapacity"`
	PercentageUsed     string `json:"percentageUsed"`
}

// NewEventStats derives stats from a capacity and a registration count.
// capacity is always >= MinCapacity for stored events.
func NewEventStats(capacity, total int) EventStats {
	pct := float64(total) / float64(capacity) * 100
	return EventStats{
		TotalRegistrations: total,
		RemainingCapacity:  capacity - total,
		PercentageUsed:     fmt.Sprintf("%.2f%%", pct),
	}
}

// CreateEventRequest is the payload for creating a new event.
// Datetime is kept as text so format errors are reported per field.
type CreateEventRequest struct {
	Title    string `json:"title"`
	Datetime string `json:"datetime"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// CreateUserRequest is the payload for creating a new user.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegistrationRequest is the payload for registering or cancelling.
type RegistrationRequest struct {
	UserID string `json:"userId"`
}

// CreateEventResponse is returned after an event is created.
type CreateEventResponse struct {
	EventID uuid.UUID `json:"eventId"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
