package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEventStats(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		total    int
		want     EventStats
	}{
		{"partially used", 10, 3, EventStats{3, 7, "30.00%"}},
		{"empty", 5, 0, EventStats{0, 5, "0.00%"}},
		{"full", 4, 4, EventStats{4, 0, "100.00%"}},
		{"repeating fraction", 3, 1, EventStats{1, 2, "33.33%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewEventStats(tt.capacity, tt.total))
		})
	}
}

func TestEventIsOpenAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&Event{Datetime: now.Add(time.Second)}).IsOpenAt(now))
	assert.False(t, (&Event{Datetime: now}).IsOpenAt(now), "an event starting now is closed")
	assert.False(t, (&Event{Datetime: now.Add(-time.Hour)}).IsOpenAt(now))
}
