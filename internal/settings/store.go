// Package settings is the scoped key/value store that profile values, site settings
// and the field-list configuration live in.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/userprofile/internal/models"
)

// Scope selects which owner a setting belongs to.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeSite   Scope = "site"
	ScopeUser   Scope = "user"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeSite, ScopeUser:
		return true
	default:
		return false
	}
}

// Store persists JSON-encoded values keyed by (scope, scope id, key).
type Store struct {
	db *gorm.DB
}

// NewStore builds a Store on the supplied database handle.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("settings: db is required")
	}
	return &Store{db: db}, nil
}

// WithTx returns a Store bound to an open transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Get returns the decoded value for key. The bool is false when nothing is stored.
func (s *Store) Get(ctx context.Context, scope Scope, id, key string) (any, bool, error) {
	var raw json.RawMessage
	ok, err := s.GetInto(ctx, scope, id, key, &raw)
	if err != nil || !ok {
		return nil, ok, err
	}
	value, err := decodeValue(raw)
	if err != nil {
		return nil, false, fmt.Errorf("settings: decode %q: %w", key, err)
	}
	return value, true, nil
}

// GetInto decodes the stored value for key into dest.
func (s *Store) GetInto(ctx context.Context, scope Scope, id, key string, dest any) (bool, error) {
	if err := checkScope(scope, id); err != nil {
		return false, err
	}

	var row models.Setting
	err := s.db.WithContext(ctx).
		Take(&row, "scope = ? AND scope_id = ? AND setting_key = ?", string(scope), id, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settings: get %s/%s/%s: %w", scope, id, key, err)
	}

	if err := json.Unmarshal(row.Value, dest); err != nil {
		return false, fmt.Errorf("settings: decode %q: %w", key, err)
	}
	return true, nil
}

// All returns every value stored for the owner.
func (s *Store) All(ctx context.Context, scope Scope, id string) (map[string]any, error) {
	if err := checkScope(scope, id); err != nil {
		return nil, err
	}

	var rows []models.Setting
	err := s.db.WithContext(ctx).
		Where("scope = ? AND scope_id = ?", string(scope), id).
		Order("setting_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("settings: list %s/%s: %w", scope, id, err)
	}

	out := make(map[string]any, len(rows))
	for _, row := range rows {
		value, err := decodeValue(row.Value)
		if err != nil {
			return nil, fmt.Errorf("settings: decode %q: %w", row.Key, err)
		}
		out[row.Key] = value
	}
	return out, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, scope Scope, id, key string, value any) error {
	return s.SetMany(ctx, scope, id, map[string]any{key: value})
}

// SetMany upserts several keys for one owner in a single transaction.
func (s *Store) SetMany(ctx context.Context, scope Scope, id string, values map[string]any) error {
	if err := checkScope(scope, id); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	rows := make([]models.Setting, 0, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			return errors.New("settings: key is required")
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("settings: encode %q: %w", key, err)
		}
		rows = append(rows, models.Setting{
			Scope:   string(scope),
			ScopeID: id,
			Key:     key,
			Value:   datatypes.JSON(encoded),
		})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "scope_id"}, {Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("settings: store %s/%s: %w", scope, id, err)
	}
	return nil
}

// Delete removes the supplied keys; with no keys every value of the owner is removed.
func (s *Store) Delete(ctx context.Context, scope Scope, id string, keys ...string) error {
	if err := checkScope(scope, id); err != nil {
		return err
	}

	query := s.db.WithContext(ctx).Where("scope = ? AND scope_id = ?", string(scope), id)
	if len(keys) > 0 {
		query = query.Where("setting_key IN ?", keys)
	}
	if err := query.Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("settings: delete %s/%s: %w", scope, id, err)
	}
	return nil
}

func checkScope(scope Scope, id string) error {
	if !scope.Valid() {
		return fmt.Errorf("settings: unknown scope %q", scope)
	}
	if scope == ScopeGlobal && id != "" {
		return errors.New("settings: global scope takes no id")
	}
	if scope != ScopeGlobal && strings.TrimSpace(id) == "" {
		return fmt.Errorf("settings: %s scope requires an id", scope)
	}
	return nil
}

// decodeValue turns stored JSON back into plain Go values, keeping numbers as float64.
func decodeValue(raw []byte) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
