package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndLabel(t *testing.T) {
	tests := []struct {
		err     *Error
		status  int
		label   string
		exposed bool
	}{
		{Validation("name is required"), http.StatusBadRequest, "Validation error", true},
		{NotFound("Incident with ID %d not found", 4), http.StatusNotFound, "Not found", true},
		{Conflict("dup"), http.StatusConflict, "Conflict", true},
		{Unauthorized("no token"), http.StatusUnauthorized, "Unauthorized", true},
		{Storage(errors.New("disk"), "Failed to save"), http.StatusInternalServerError, "Internal server error", false},
		{Internal(errors.New("boom"), "Failed"), http.StatusInternalServerError, "Internal server error", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
			assert.Equal(t, tt.label, tt.err.Label())
			assert.Equal(t, tt.exposed, tt.err.Exposed())
		})
	}
}

func TestAsUnwrapsWrapped(t *testing.T) {
	nf := NotFound("Threat actor with ID %d not found", 7)
	wrapped := fmt.Errorf("get actor: %w", nf)

	got := As(wrapped, "fallback")
	assert.Same(t, nf, got)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestAsFallsBackToInternal(t *testing.T) {
	cause := errors.New("nil pointer somewhere")
	got := As(cause, "Failed to retrieve indicators")

	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "Failed to retrieve indicators", got.Message)
	assert.ErrorIs(t, got, cause)
}
