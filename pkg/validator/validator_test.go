package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `json:"o:name" validate:"required"`
	Email string `json:"o:email" validate:"required,email"`
	Role  string `json:"o:role" validate:"omitempty,oneof=admin guest"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{Name: "Alice", Email: "alice@example.com", Role: "guest"}
	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailuresUseJSONNames(t *testing.T) {
	err := ValidateStruct(testPayload{Email: "invalid", Role: "root"})
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	fields := map[string]string{}
	for _, v := range vErrs {
		fields[v.Field] = v.Tag
	}
	require.Equal(t, "required", fields["o:name"])
	require.Equal(t, "email", fields["o:email"])
	require.Equal(t, "oneof", fields["o:role"])
}

func TestSlugRule(t *testing.T) {
	require.NoError(t, ValidateVar("main-site", "slug"))
	require.Error(t, ValidateVar("Main Site", "slug"))
	require.Error(t, ValidateVar("", "slug"))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("profile", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "profile"
	})
	require.NoError(t, err)

	type custom struct {
		Value string `validate:"profile"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "profile"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}

func TestValidationErrorMessages(t *testing.T) {
	err := ValidateStruct(testPayload{Email: "invalid", Role: "root"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
	require.Contains(t, err.Error(), "email must be a valid email address")
	require.Contains(t, err.Error(), "role must be one of: admin guest")

	require.Equal(t, "site id must be a lowercase identifier", ValidationError{Field: "site_id", Tag: "slug"}.Message())
	require.Equal(t, "field failed validation: uuid", ValidationError{Tag: "uuid"}.Message())
}
