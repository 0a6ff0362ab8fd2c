package handlers

import (
	"context"
	"time"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/models"
)

// userRepresentation renders a user the way the API exposes it. The "o:setting"
// member is added by the hydration listeners for fieldCtx.
func userRepresentation(ctx context.Context, m *hooks.Manager, user *models.User, fieldCtx fields.Context) (map[string]any, error) {
	rep := map[string]any{
		"o:id":        user.ID,
		"o:email":     user.Email,
		"o:name":      user.Name,
		"o:role":      user.Role,
		"o:is_active": user.IsActive,
		"o:created":   user.CreatedAt.UTC().Format(time.RFC3339),
		"o:modified":  user.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		rep["o:last_login"] = user.LastLoginAt.UTC().Format(time.RFC3339)
	}

	err := m.Trigger(ctx, hooks.Event{
		Name:   hooks.UserHydrate,
		UserID: user.ID,
		Params: map[string]any{
			hooks.ParamRepresentation: rep,
			hooks.ParamContext:        fieldCtx,
		},
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}
