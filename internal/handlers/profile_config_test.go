package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/handlers/testutil"
	"github.com/charlesng35/userprofile/internal/models"
)

type configPayload struct {
	Elements string         `json:"elements"`
	Format   string         `json:"format"`
	Fields   []fields.Field `json:"fields"`
	Message  string         `json:"message"`
}

func TestProfileConfigHandler_SaveAndGet(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Token(env.CreateUser(models.RoleAdmin, "password123"))

	w := env.Request(http.MethodGet, "/api/admin/profile/config", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got configPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &got)
	require.Empty(t, got.Fields)

	w = env.Request(http.MethodPut, "/api/admin/profile/config", map[string]string{
		"elements": profileFieldList,
		"format":   "ini",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &got)
	require.Equal(t, "ini", got.Format)
	require.Len(t, got.Fields, 3)
	require.Equal(t, "The list of elements has been saved.", got.Message)

	w = env.Request(http.MethodGet, "/api/admin/profile/fields?context=public_edit", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var visible []fields.Field
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &visible)
	require.Len(t, visible, 2)

	w = env.Request(http.MethodGet, "/api/admin/profile/fields?context=nowhere", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileConfigHandler_RejectsBrokenList(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SaveFieldList(profileFieldList, "ini")
	token := env.Token(env.CreateUser(models.RoleAdmin, "password123"))

	w := env.Request(http.MethodPut, "/api/admin/profile/config", map[string]string{
		"elements": `{"elements": [`,
		"format":   "json",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "FIELD_LIST_INVALID", resp.Error.Code)
	require.Contains(t, resp.Error.Message, "The list of elements is invalid:")

	// The previous list is still in place.
	list, err := env.Services.FieldConfig.Fields(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, list.Len())

	w = env.Request(http.MethodPut, "/api/admin/profile/config", map[string]string{
		"elements": "",
		"format":   "toml",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
