package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/settings"
	"github.com/charlesng35/userprofile/pkg/metrics"
)

// UserSettingsService validates and stores the profile values of users.
type UserSettingsService struct {
	db     *gorm.DB
	store  *settings.Store
	config *FieldConfigService
}

// NewUserSettingsService constructs the service on top of the field configuration.
func NewUserSettingsService(db *gorm.DB, config *FieldConfigService) (*UserSettingsService, error) {
	if db == nil {
		return nil, errors.New("user settings service: db is required")
	}
	if config == nil {
		return nil, errors.New("user settings service: field config is required")
	}
	store, err := settings.NewStore(db)
	if err != nil {
		return nil, err
	}
	return &UserSettingsService{db: db, store: store, config: config}, nil
}

// Register attaches the validation and hydration listeners to m.
func (s *UserSettingsService) Register(m *hooks.Manager) {
	m.On(hooks.UserCreatePre, s.onWrite(fields.ModeCreate))
	m.On(hooks.UserUpdatePre, s.onWrite(fields.ModeUpdate))
	m.On(hooks.UserHydrate, s.onHydrate)
}

// Get returns the stored values of the fields currently configured.
func (s *UserSettingsService) Get(ctx context.Context, userID string) (fields.Values, error) {
	ctx = ensureContext(ctx)

	list, err := s.config.Fields(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.store, list, userID)
}

// Apply validates incoming for fieldCtx and stores the merged result.
func (s *UserSettingsService) Apply(ctx context.Context, userID string, fieldCtx fields.Context, incoming map[string]any, mode fields.Mode) (fields.Values, error) {
	ctx = ensureContext(ctx)

	values, writer, err := s.prepare(ctx, userID, fieldCtx, incoming, mode)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writer(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Fieldset returns the form for fieldCtx populated with the user's values. An empty
// userID renders the blank form used when creating a user.
func (s *UserSettingsService) Fieldset(ctx context.Context, userID string, fieldCtx fields.Context) ([]fields.FormElement, error) {
	ctx = ensureContext(ctx)

	list, err := s.config.Fields(ctx)
	if err != nil {
		return nil, err
	}
	values := fields.Values{}
	if userID != "" {
		if values, err = s.load(ctx, s.store, list, userID); err != nil {
			return nil, err
		}
	}
	return fields.Fieldset(list, fieldCtx, values), nil
}

// Display returns the user's non-empty values visible in fieldCtx.
func (s *UserSettingsService) Display(ctx context.Context, userID string, fieldCtx fields.Context) ([]fields.DisplayValue, error) {
	ctx = ensureContext(ctx)

	list, err := s.config.Fields(ctx)
	if err != nil {
		return nil, err
	}
	values, err := s.load(ctx, s.store, list, userID)
	if err != nil {
		return nil, err
	}
	return fields.Display(list, fieldCtx, values), nil
}

// prepare validates incoming and returns the merged values plus a writer that stores
// them. Keys of configured fields missing from the merged values are deleted.
func (s *UserSettingsService) prepare(ctx context.Context, userID string, fieldCtx fields.Context, incoming map[string]any, mode fields.Mode) (fields.Values, hooks.TxWriter, error) {
	list, err := s.config.Fields(ctx)
	if err != nil {
		return nil, nil, err
	}

	existing := fields.Values{}
	if mode == fields.ModeUpdate && userID != "" {
		if existing, err = s.load(ctx, s.store, list, userID); err != nil {
			return nil, nil, err
		}
	}

	values, err := fields.Validate(list, fieldCtx, incoming, existing, mode)
	if err != nil {
		var verr *fields.ValidationErrors
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				metrics.ValidationFailures.WithLabelValues(string(v.Reason)).Inc()
			}
		}
		return nil, nil, err
	}

	var writer hooks.TxWriter = func(tx *gorm.DB, id string) error {
		store := s.store.WithTx(tx)
		var removed []string
		for _, name := range list.Names() {
			if _, ok := values[name]; !ok {
				removed = append(removed, name)
			}
		}
		if len(removed) > 0 {
			if err := store.Delete(ctx, settings.ScopeUser, id, removed...); err != nil {
				return fmt.Errorf("user settings service: delete values: %w", err)
			}
		}
		stored := make(map[string]any, len(values))
		for key, value := range values {
			stored[key] = value
		}
		if err := store.SetMany(ctx, settings.ScopeUser, id, stored); err != nil {
			return fmt.Errorf("user settings service: store values: %w", err)
		}
		return nil
	}
	return values, writer, nil
}

func (s *UserSettingsService) load(ctx context.Context, store *settings.Store, list fields.FieldList, userID string) (fields.Values, error) {
	all, err := store.All(ctx, settings.ScopeUser, userID)
	if err != nil {
		return nil, fmt.Errorf("user settings service: load values: %w", err)
	}
	values := fields.Values{}
	for _, name := range list.Names() {
		if value, ok := all[name]; ok {
			values[name] = value
		}
	}
	return values, nil
}

func (s *UserSettingsService) onWrite(mode fields.Mode) hooks.Listener {
	return func(ctx context.Context, event hooks.Event) error {
		raw, present := event.Param(hooks.ParamSetting)
		if !present {
			return nil
		}
		incoming, ok := raw.(map[string]any)
		if !ok && raw != nil {
			return &fields.ValidationErrors{Violations: []fields.Violation{{
				Field:  hooks.ParamSetting,
				Reason: fields.ReasonInvalid,
			}}}
		}

		fieldCtx := fields.AdminEdit
		if value, ok := event.Param(hooks.ParamContext); ok {
			if c, ok := value.(fields.Context); ok {
				fieldCtx = c
			}
		}

		_, writer, err := s.prepare(ctx, event.UserID, fieldCtx, incoming, mode)
		if err != nil {
			return err
		}
		event.Params[hooks.ParamWriter] = writer
		return nil
	}
}

func (s *UserSettingsService) onHydrate(ctx context.Context, event hooks.Event) error {
	rep, ok := event.Params[hooks.ParamRepresentation].(map[string]any)
	if !ok || event.UserID == "" {
		return nil
	}

	fieldCtx := fields.AdminShow
	if value, ok := event.Param(hooks.ParamContext); ok {
		if c, ok := value.(fields.Context); ok {
			fieldCtx = c
		}
	}

	list, err := s.config.Fields(ctx)
	if err != nil {
		return err
	}
	values, err := s.load(ctx, s.store, list, event.UserID)
	if err != nil {
		return err
	}

	visible := map[string]any{}
	for _, field := range list.Visible(fieldCtx) {
		if value, ok := values[field.Name]; ok {
			visible[field.Name] = value
		}
	}
	rep[hooks.ParamSetting] = visible
	return nil
}
