package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/settings"
)

func TestUserSettingsApplyAndGet(t *testing.T) {
	env := newServiceEnv(t, testFieldList)
	ctx := context.Background()
	userID := "c2bd1b5e-6d55-4b34-9a3f-1f7b1d0e2a10"

	values, err := env.settings.Apply(ctx, userID, fields.AdminEdit, map[string]any{
		"userprofile_phone": "555-0100",
		"userprofile_org":   "alpha",
		"userprofile_notes": "vip",
		"other_module_key":  "kept out",
	}, fields.ModeCreate)
	require.NoError(t, err)
	require.Len(t, values, 3)

	stored, err := env.settings.Get(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, fields.Values{
		"userprofile_phone": "555-0100",
		"userprofile_org":   "alpha",
		"userprofile_notes": "vip",
	}, stored)

	// Public edits cannot touch excluded fields and clearing a value deletes it.
	_, err = env.settings.Apply(ctx, userID, fields.PublicEdit, map[string]any{
		"userprofile_org":   nil,
		"userprofile_notes": "changed",
	}, fields.ModeUpdate)
	require.NoError(t, err)

	stored, err = env.settings.Get(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, fields.Values{
		"userprofile_phone": "555-0100",
		"userprofile_notes": "vip",
	}, stored)

	store, err := settings.NewStore(env.db)
	require.NoError(t, err)
	_, found, err := store.Get(ctx, settings.ScopeUser, userID, "userprofile_org")
	require.NoError(t, err)
	require.False(t, found)
}

func TestUserSettingsApplyRejectsInvalid(t *testing.T) {
	env := newServiceEnv(t, testFieldList)
	ctx := context.Background()

	_, err := env.settings.Apply(ctx, "u1", fields.AdminEdit, map[string]any{
		"userprofile_org": "gamma",
	}, fields.ModeCreate)

	var verr *fields.ValidationErrors
	require.ErrorAs(t, err, &verr)
	byField := verr.ByField()
	require.Equal(t, fields.ReasonRequired, byField["userprofile_phone"][0].Reason)
	require.Equal(t, fields.ReasonNotAllowed, byField["userprofile_org"][0].Reason)

	stored, err := env.settings.Get(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestUserSettingsFieldsetAndDisplay(t *testing.T) {
	env := newServiceEnv(t, testFieldList)
	ctx := context.Background()

	_, err := env.settings.Apply(ctx, "u2", fields.AdminEdit, map[string]any{
		"userprofile_phone": "555",
		"userprofile_org":   "beta",
		"userprofile_notes": "internal",
	}, fields.ModeCreate)
	require.NoError(t, err)

	form, err := env.settings.Fieldset(ctx, "u2", fields.PublicEdit)
	require.NoError(t, err)
	require.Len(t, form, 2)
	require.Equal(t, "beta", form[1].Value)

	blank, err := env.settings.Fieldset(ctx, "", fields.AdminEdit)
	require.NoError(t, err)
	require.Len(t, blank, 3)
	require.Nil(t, blank[0].Value)

	shown, err := env.settings.Display(ctx, "u2", fields.PublicShow)
	require.NoError(t, err)
	require.Len(t, shown, 2)
	require.Equal(t, []string{"Beta"}, shown[1].Display)
}

func TestUserSettingsHydrate(t *testing.T) {
	env := newServiceEnv(t, testFieldList)
	ctx := context.Background()

	_, err := env.settings.Apply(ctx, "u3", fields.AdminEdit, map[string]any{
		"userprofile_phone": "555",
		"userprofile_notes": "internal",
	}, fields.ModeCreate)
	require.NoError(t, err)

	rep := map[string]any{"o:id": "u3"}
	require.NoError(t, env.hooks.Trigger(ctx, hooks.Event{
		Name:   hooks.UserHydrate,
		UserID: "u3",
		Params: map[string]any{
			hooks.ParamRepresentation: rep,
			hooks.ParamContext:        fields.PublicShow,
		},
	}))
	require.Equal(t, map[string]any{"userprofile_phone": "555"}, rep[hooks.ParamSetting])
}
