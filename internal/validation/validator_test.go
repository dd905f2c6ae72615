package validation_test

import (
	"net/http"
	"testing"

	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
	"github.com/reelnotes/reelnotes-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	ExternalID int64   `json:"externalId" validate:"required,gt=0"`
	Note       *string `json:"note,omitempty"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(addRequest{ExternalID: 550})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		req     addRequest
		wantMsg string
	}{
		{"missing id", addRequest{}, "is required"},
		{"negative id", addRequest{ExternalID: -4}, "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			// JSON tag name, not the struct field name.
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details["externalId"])
			assert.NotContains(t, details, "ExternalID")
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("externalId", int64(12), "gt=0"))

	err := v.Var("externalId", int64(0), "gt=0")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
