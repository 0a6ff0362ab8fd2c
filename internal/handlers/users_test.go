package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/handlers/testutil"
	"github.com/charlesng35/userprofile/internal/models"
	"github.com/charlesng35/userprofile/pkg/response"
)

func TestUserHandler_CreateWithSettings(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	admin := env.CreateUser(models.RoleAdmin, "password123")
	token := env.Token(admin)

	w := env.Request(http.MethodPost, "/api/users", map[string]any{
		"o:email":  "reader@example.com",
		"o:name":   "Reader",
		"password": "password123",
		"o:role":   "researcher",
		"o:setting": map[string]any{
			"userprofile_phone": "555-0100",
			"userprofile_org":   "alpha",
			"userprofile_notes": "met at the conference",
		},
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &created)
	require.Equal(t, "researcher", created["o:role"])
	require.Equal(t, map[string]any{
		"userprofile_phone": "555-0100",
		"userprofile_org":   "alpha",
		"userprofile_notes": "met at the conference",
	}, created["o:setting"])

	id := created["o:id"].(string)
	w = env.Request(http.MethodGet, "/api/users/"+id, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUserHandler_CreateRejectsInvalidSettings(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	token := env.Token(env.CreateUser(models.RoleAdmin, "password123"))

	w := env.Request(http.MethodPost, "/api/users", map[string]any{
		"o:email":   "broken@example.com",
		"o:name":    "Broken",
		"password":  "password123",
		"o:setting": map[string]any{"userprofile_org": "gamma"},
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	require.Equal(t, "Some profile values are invalid.", resp.Error.Message)
	require.Equal(t, []string{"Phone: a value is required."}, resp.Error.Fields["userprofile_phone"])
	require.Equal(t, []string{`Organisation: the value "gamma" is not allowed.`}, resp.Error.Fields["userprofile_org"])

	_, err := env.Services.Users.GetByEmail(t.Context(), "broken@example.com")
	require.Error(t, err)
}

func TestUserHandler_ValidationMessagesFollowLocale(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	token := env.Token(env.CreateUser(models.RoleAdmin, "password123"))

	w := env.RequestWithHeaders(http.MethodPost, "/api/users", map[string]any{
		"o:email":   "fr@example.com",
		"o:name":    "Francophone",
		"password":  "password123",
		"o:setting": map[string]any{},
	}, token, map[string]string{"Accept-Language": "fr-FR"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "fr-FR", w.Header().Get("Content-Language"))

	resp := testutil.DecodeResponse(t, w)
	require.NotEqual(t, "Some profile values are invalid.", resp.Error.Message)
	require.Len(t, resp.Error.Fields["userprofile_phone"], 1)
}

func TestUserHandler_UpdateMergesSettings(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	token := env.Token(env.CreateUser(models.RoleAdmin, "password123"))
	user := env.CreateUser(models.RoleGuest, "password123")

	_, err := env.Services.Settings.Apply(t.Context(), user.ID, fields.AdminEdit, map[string]any{
		"userprofile_phone": "555-0100",
		"userprofile_org":   "beta",
	}, fields.ModeCreate)
	require.NoError(t, err)

	w := env.Request(http.MethodPatch, "/api/users/"+user.ID, map[string]any{
		"o:name":    "Renamed",
		"o:setting": map[string]any{"userprofile_org": ""},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, "Renamed", updated["o:name"])
	require.Equal(t, map[string]any{"userprofile_phone": "555-0100"}, updated["o:setting"])

	// Without o:setting the stored values are untouched.
	w = env.Request(http.MethodPatch, "/api/users/"+user.ID, map[string]any{"o:name": "Again"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	values, err := env.Services.Settings.Get(t.Context(), user.ID)
	require.NoError(t, err)
	require.Equal(t, fields.Values{"userprofile_phone": "555-0100"}, values)
}

func TestUserHandler_ListDeleteAndFieldset(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	admin := env.CreateUser(models.RoleAdmin, "password123")
	token := env.Token(admin)
	user := env.CreateUser(models.RoleAuthor, "password123")

	w := env.Request(http.MethodGet, "/api/users?role=author", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	var list []map[string]any
	testutil.DecodeInto(t, resp.Data, &list)
	require.Len(t, list, 1)
	require.Equal(t, user.ID, list[0]["o:id"])
	require.Equal(t, 1, resp.Meta.Total)
	require.Equal(t, "1", w.Header().Get(response.TotalResultsHeader))

	w = env.Request(http.MethodGet, "/api/users/"+user.ID+"/fieldset", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var form []fields.FormElement
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &form)
	require.Len(t, form, 3)
	require.Equal(t, "userprofile_phone", form[0].Name)
	require.True(t, form[0].Required)

	w = env.Request(http.MethodGet, "/api/users/new/fieldset", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodDelete, "/api/users/"+user.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/users/"+user.ID, nil, token)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "USER_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodDelete, "/api/users/"+admin.ID, nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "USER_LAST_ADMIN", testutil.DecodeResponse(t, w).Error.Code)
}

func TestUserHandler_RequiresAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Token(env.CreateUser(models.RoleEditor, "password123"))

	w := env.Request(http.MethodGet, "/api/users", nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/admin/profile/config", nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)
}
