package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", New(KindConflict, "event is full"), KindConflict},
		{"wrapped classified", fmt.Errorf("register: %w", New(KindNotFound, "event not found")), KindNotFound},
		{"deadline", fmt.Errorf("lock: %w", context.DeadlineExceeded), KindTransient},
		{"plain error", cause, KindInternal},
		{"internal helper", Internal(cause), KindInternal},
		{"transient helper", Transient(cause), KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorIs(t *testing.T) {
	full := New(KindConflict, "event is full")

	assert.ErrorIs(t, fmt.Errorf("tx: %w", New(KindConflict, "event is full")), full)
	assert.NotErrorIs(t, New(KindConflict, "already registered"), full)
	assert.NotErrorIs(t, New(KindNotFound, "event is full"), full)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, KindInternal, "insert failed")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "insert failed")
}

func TestValidationDetails(t *testing.T) {
	err := Validation("Title is required", "Location is required")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, []string{"Title is required", "Location is required"}, err.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindInvalidState))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(KindTransient))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("unknown"))
}
