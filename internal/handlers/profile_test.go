package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/handlers/testutil"
	"github.com/charlesng35/userprofile/internal/models"
)

type profilePayload struct {
	User    map[string]any        `json:"user"`
	Display []fields.DisplayValue `json:"display"`
}

func TestProfileHandler_SelfServiceUsesPublicContexts(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	user := env.CreateUser(models.RoleGuest, "password123")
	token := env.Token(user)

	_, err := env.Services.Settings.Apply(t.Context(), user.ID, fields.AdminEdit, map[string]any{
		"userprofile_phone": "555-0100",
		"userprofile_notes": "admins only",
	}, fields.ModeCreate)
	require.NoError(t, err)

	w := env.Request(http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got profilePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &got)
	require.Equal(t, map[string]any{"userprofile_phone": "555-0100"}, got.User["o:setting"])
	require.Len(t, got.Display, 1)
	require.Equal(t, "Phone", got.Display[0].Label)

	// Excluded fields are ignored on input and kept in storage.
	w = env.Request(http.MethodPatch, "/api/profile", map[string]any{
		"o:name": "Guest Renamed",
		"o:setting": map[string]any{
			"userprofile_org":   "beta",
			"userprofile_notes": "overwritten?",
		},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &got)
	require.Equal(t, "Guest Renamed", got.User["o:name"])

	values, err := env.Services.Settings.Get(t.Context(), user.ID)
	require.NoError(t, err)
	require.Equal(t, fields.Values{
		"userprofile_phone": "555-0100",
		"userprofile_org":   "beta",
		"userprofile_notes": "admins only",
	}, values)

	w = env.Request(http.MethodGet, "/api/profile/fieldset", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var form []fields.FormElement
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &form)
	require.Len(t, form, 2)
	require.Equal(t, "beta", form[1].Value)
}

func TestProfileHandler_UpdateSettings(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	user := env.CreateUser(models.RoleGuest, "password123")
	token := env.Token(user)

	w := env.Request(http.MethodPut, "/api/profile/settings", map[string]any{"userprofile_org": "alpha"}, token)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, testutil.DecodeResponse(t, w).Error.Fields, "userprofile_phone")

	w = env.Request(http.MethodPut, "/api/profile/settings", map[string]any{
		"userprofile_phone": "555-0199",
		"userprofile_org":   "alpha",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var values map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &values)
	require.Equal(t, map[string]any{"userprofile_phone": "555-0199", "userprofile_org": "alpha"}, values)
}

func TestProfileHandler_RequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)
	w := env.Request(http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
