package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
	"threatdash/pkg/logger"
)

func decodeInto(t *testing.T, body string, maxBytes int64, collection string) (models.ActorInput, error) {
	t.Helper()
	var in models.ActorInput
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := decodeBody(httptest.NewRecorder(), r, maxBytes, collection, &in)
	return in, err
}

func TestDecodeBodyMapsLegacyNames(t *testing.T) {
	in, err := decodeInto(t, `{"actorName":"APT1","knownAliases":["Comment Crew"],"_id":"abc"}`, 0, models.CollectionActors)
	require.NoError(t, err)
	assert.Equal(t, "APT1", in.Name)
	assert.Equal(t, []string{"Comment Crew"}, in.Aliases)

	in, err = decodeInto(t, `{"actorName":"APT2","isActive":false}`, 0, models.CollectionActors)
	require.NoError(t, err)
	assert.Equal(t, models.ActorStatusInactive, in.Status)
}

func TestDecodeBodyErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		max     int64
		message string
	}{
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, "Request body exceeds 16 bytes"},
		{"array", `[1,2]`, 0, "Request body must be a JSON object"},
		{"wrong type", `{"name":42}`, 0, "Invalid request body: name must be of type string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeInto(t, tt.body, tt.max, models.CollectionActors)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.message, apperr.As(err, "").Message)
		})
	}

	_, err := decodeInto(t, `{"name":`, 0, "")
	require.Error(t, err)
	assert.Equal(t, "Invalid request body: malformed JSON", apperr.As(err, "").Message)
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, logger.Nop(), apperr.Storage(errors.New("disk on fire"), ""), "Failed to create threat actor")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, "Failed to create threat actor", body.Message)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestRespondErrorUsesKind(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, logger.Nop(), apperr.Conflict("Indicator already exists"), "fallback")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Conflict","message":"Indicator already exists"}`, rec.Body.String())
}

func TestExpandParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?expand=actor,+indicators,,", nil)
	assert.Equal(t, []string{"actor", "indicators"}, expandParam(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, expandParam(r))
}
