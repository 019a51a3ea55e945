package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
)

func requireValidation(t *testing.T, err error) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
	return apperr.As(err, "")
}

func TestRequiredFieldsAreNamed(t *testing.T) {
	in := models.IndicatorInput{Type: "IP", Source: "feed"}
	in.Normalize()

	e := requireValidation(t, Struct(in))
	assert.Equal(t, "value is required", e.Message)
}

func TestWhitespaceOnlyIsMissing(t *testing.T) {
	in := models.ActorInput{Name: "   ", Origin: "RU", Description: "x"}
	in.Normalize()

	e := requireValidation(t, Struct(in))
	assert.Contains(t, e.Message, "name is required")
}

func TestEnumMessage(t *testing.T) {
	in := models.IncidentInput{Title: "t", Description: "d", Severity: "catastrophic"}
	in.Normalize()

	e := requireValidation(t, Struct(in))
	assert.Equal(t, "severity must be one of: low, medium, high, critical", e.Message)
}

func TestNestedFieldPath(t *testing.T) {
	in := models.IncidentInput{Title: "t", Description: "d", Impact: models.Impact{Integrity: "extreme"}}
	in.Normalize()

	e := requireValidation(t, Struct(in))
	assert.Contains(t, e.Message, "impact.integrity must be one of")
}

func TestMultipleErrorsJoined(t *testing.T) {
	in := models.FeedInput{Name: "OTX", Type: "community", URL: "not a url"}
	in.Normalize()

	e := requireValidation(t, Struct(in))
	assert.Contains(t, e.Message, "url must be a valid URL")
	assert.Contains(t, e.Message, "description is required")
}

func TestPatchRules(t *testing.T) {
	assert.NoError(t, Struct(models.ActorPatch{}))

	empty := ""
	e := requireValidation(t, Struct(models.ActorPatch{Name: &empty}))
	assert.Equal(t, "name is required", e.Message)

	bad := models.ActorStatus("dormant")
	requireValidation(t, Struct(models.ActorPatch{Status: &bad}))

	ok := models.ActorStatusInactive
	assert.NoError(t, Struct(models.ActorPatch{Status: &ok}))
}

func TestValidPayloadPasses(t *testing.T) {
	in := models.FeedInput{
		Name:        "AlienVault OTX",
		Type:        "Community",
		URL:         "https://otx.alienvault.com",
		Description: "Open threat exchange",
	}
	in.Normalize()
	assert.NoError(t, Struct(in))

	reg := models.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1"}
	assert.NoError(t, Struct(reg))

	reg.Password = "123"
	e := requireValidation(t, Struct(reg))
	assert.Equal(t, "password must be at least 6 characters", e.Message)
}
