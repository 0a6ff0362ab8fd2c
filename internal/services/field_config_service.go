package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/cache"
	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/settings"
	apperrors "github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/logger"
	"github.com/charlesng35/userprofile/pkg/metrics"
)

// Global settings holding the field list and what is derived from it.
const (
	SettingElements = "userprofile_elements"
	SettingFormat   = "userprofile_format"
	SettingFields   = "userprofile_fields"

	fieldCacheKey = "profile:fields"
)

// ErrInvalidFieldList is returned when a submitted field list cannot be compiled. The
// message carries the reader error.
var ErrInvalidFieldList = apperrors.New("FIELD_LIST_INVALID", "The list of elements is invalid", http.StatusBadRequest)

// FieldConfigService owns the administrator supplied field list.
type FieldConfigService struct {
	db       *gorm.DB
	store    *settings.Store
	cache    cache.Store
	cacheTTL time.Duration
	hooks    *hooks.Manager
	audit    *AuditService
}

// NewFieldConfigService wires the service. cacheStore and hookManager may be nil.
func NewFieldConfigService(db *gorm.DB, auditService *AuditService, cacheStore cache.Store, hookManager *hooks.Manager) (*FieldConfigService, error) {
	if db == nil {
		return nil, errors.New("field config service: db is required")
	}
	store, err := settings.NewStore(db)
	if err != nil {
		return nil, err
	}
	return &FieldConfigService{
		db:       db,
		store:    store,
		cache:    cacheStore,
		cacheTTL: 10 * time.Minute,
		hooks:    hookManager,
		audit:    auditService,
	}, nil
}

// Get returns the stored source together with its derived fields.
func (s *FieldConfigService) Get(ctx context.Context) (fields.Definition, error) {
	ctx = ensureContext(ctx)

	src, format, err := s.source(ctx)
	if err != nil {
		return fields.Definition{}, err
	}
	list, err := s.Fields(ctx)
	if err != nil {
		return fields.Definition{}, err
	}
	return fields.Definition{Source: src, Format: format, Fields: list}, nil
}

// Save compiles src and, when it is valid, stores it with its derived fields. A broken
// list leaves the stored configuration untouched.
func (s *FieldConfigService) Save(ctx context.Context, actor, src, format string) (fields.Definition, error) {
	ctx = ensureContext(ctx)

	parsedFormat, err := fields.ParseFormat(format)
	if err != nil {
		return fields.Definition{}, apperrors.NewBadRequest(err.Error())
	}

	def, err := fields.Compile(src, parsedFormat)
	if err != nil {
		metrics.FieldListReloads.WithLabelValues("failure").Inc()
		recordAudit(s.audit, ctx, AuditEntry{
			UserID:   actorID(actor),
			Action:   "profile.config.save",
			Resource: SettingElements,
			Result:   "failure",
			Metadata: map[string]any{"error": err.Error()},
		})
		return fields.Definition{}, ErrInvalidFieldList.WithMessage(err.Error()).WithInternal(err)
	}
	metrics.FieldListReloads.WithLabelValues("success").Inc()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.store.WithTx(tx).SetMany(ctx, settings.ScopeGlobal, "", map[string]any{
			SettingElements: def.Source,
			SettingFormat:   string(def.Format),
			SettingFields:   def.Fields,
		})
	})
	if err != nil {
		return fields.Definition{}, fmt.Errorf("field config service: save: %w", err)
	}
	s.invalidate(ctx)

	if err := s.hooks.Trigger(ctx, hooks.Event{
		Name:   hooks.ConfigSaved,
		Params: map[string]any{"fields": def.Fields.Names()},
	}); err != nil {
		logger.For(ctx, "profile").Warn("config.saved listener failed", zap.Error(err))
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   actorID(actor),
		Action:   "profile.config.save",
		Resource: SettingElements,
		Result:   "success",
		Metadata: map[string]any{
			"format": string(def.Format),
			"fields": def.Fields.Names(),
		},
	})

	return def, nil
}

// Regenerate rebuilds the derived fields from the stored source. It reports false,
// without error, when the stored source no longer compiles.
func (s *FieldConfigService) Regenerate(ctx context.Context) (bool, error) {
	ctx = ensureContext(ctx)

	src, format, err := s.source(ctx)
	if err != nil {
		return false, err
	}
	def, err := fields.Compile(src, format)
	if err != nil {
		metrics.FieldListReloads.WithLabelValues("failure").Inc()
		logger.For(ctx, "profile").Warn("stored field list does not compile", zap.Error(err))
		return false, nil
	}
	metrics.FieldListReloads.WithLabelValues("success").Inc()

	if err := s.store.SetMany(ctx, settings.ScopeGlobal, "", map[string]any{
		SettingFormat: string(def.Format),
		SettingFields: def.Fields,
	}); err != nil {
		return false, fmt.Errorf("field config service: regenerate: %w", err)
	}
	s.invalidate(ctx)
	return true, nil
}

// Fields returns the derived field list, reading through the cache when one is set.
func (s *FieldConfigService) Fields(ctx context.Context) (fields.FieldList, error) {
	ctx = ensureContext(ctx)

	if s.cache != nil {
		if list, ok, err := cache.GetJSON[fields.FieldList](ctx, s.cache, fieldCacheKey); err == nil && ok {
			metrics.FieldCacheLookups.WithLabelValues("hit").Inc()
			return list, nil
		}
		metrics.FieldCacheLookups.WithLabelValues("miss").Inc()
	}

	var list fields.FieldList
	ok, err := s.store.GetInto(ctx, settings.ScopeGlobal, "", SettingFields, &list)
	if err != nil {
		return fields.FieldList{}, fmt.Errorf("field config service: load fields: %w", err)
	}
	if !ok {
		// Nothing derived yet; fall back to compiling the stored source.
		src, format, err := s.source(ctx)
		if err != nil {
			return fields.FieldList{}, err
		}
		if def, err := fields.Compile(src, format); err == nil {
			list = def.Fields
		}
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, fieldCacheKey, list, s.cacheTTL); err != nil {
			logger.For(ctx, "profile").Debug("field cache write failed", zap.Error(err))
		}
	}
	return list, nil
}

// Initialize stores src as the field list unless one is already stored. Used at
// install time, where a broken default must not block installation.
func (s *FieldConfigService) Initialize(ctx context.Context, src, format string) error {
	ctx = ensureContext(ctx)

	if _, ok, err := s.store.Get(ctx, settings.ScopeGlobal, "", SettingElements); err != nil || ok {
		return err
	}
	if _, err := s.Save(ctx, "", src, format); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == ErrInvalidFieldList.Code {
			logger.For(ctx, "profile").Warn("default field list is invalid, installing an empty one", zap.Error(err))
			_, err = s.Save(ctx, "", "", string(fields.FormatINI))
		}
		return err
	}
	return nil
}

func (s *FieldConfigService) source(ctx context.Context) (string, fields.Format, error) {
	var src, format string
	if _, err := s.store.GetInto(ctx, settings.ScopeGlobal, "", SettingElements, &src); err != nil {
		return "", "", fmt.Errorf("field config service: load source: %w", err)
	}
	if _, err := s.store.GetInto(ctx, settings.ScopeGlobal, "", SettingFormat, &format); err != nil {
		return "", "", fmt.Errorf("field config service: load format: %w", err)
	}
	parsed, err := fields.ParseFormat(format)
	if err != nil {
		parsed = fields.FormatAuto
	}
	if parsed == fields.FormatAuto {
		parsed = fields.DetectFormat(src)
	}
	return src, parsed, nil
}

func (s *FieldConfigService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fieldCacheKey); err != nil {
		logger.For(ctx, "profile").Warn("field cache invalidation failed", zap.Error(err))
	}
}
