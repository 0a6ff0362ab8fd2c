package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/settings"
	apperrors "github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/validator"
)

// SiteSettingsService exposes the site scope of the settings store.
type SiteSettingsService struct {
	db    *gorm.DB
	store *settings.Store
	audit *AuditService
}

func NewSiteSettingsService(db *gorm.DB, auditService *AuditService) (*SiteSettingsService, error) {
	if db == nil {
		return nil, errors.New("site settings service: db is required")
	}
	store, err := settings.NewStore(db)
	if err != nil {
		return nil, err
	}
	return &SiteSettingsService{db: db, store: store, audit: auditService}, nil
}

// Get returns every setting of site.
func (s *SiteSettingsService) Get(ctx context.Context, site string) (map[string]any, error) {
	ctx = ensureContext(ctx)
	if err := validateSite(site); err != nil {
		return nil, err
	}
	return s.store.All(ctx, settings.ScopeSite, site)
}

// Update merges values into the site settings. A nil value deletes its key.
func (s *SiteSettingsService) Update(ctx context.Context, site, actor string, values map[string]any) (map[string]any, error) {
	ctx = ensureContext(ctx)
	if err := validateSite(site); err != nil {
		return nil, err
	}

	set := map[string]any{}
	var removed []string
	for key, value := range values {
		if err := validator.ValidateVar(key, "slug,max=190"); err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid setting key %q", key))
		}
		if value == nil {
			removed = append(removed, key)
			continue
		}
		set[key] = value
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		if len(removed) > 0 {
			if err := store.Delete(ctx, settings.ScopeSite, site, removed...); err != nil {
				return err
			}
		}
		return store.SetMany(ctx, settings.ScopeSite, site, set)
	})
	if err != nil {
		return nil, fmt.Errorf("site settings service: update: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   actorID(actor),
		Action:   "site.settings.update",
		Resource: site,
		Result:   "success",
		Metadata: map[string]any{"set": len(set), "removed": removed},
	})

	return s.store.All(ctx, settings.ScopeSite, site)
}

func validateSite(site string) error {
	if err := validator.ValidateVar(site, "required,slug,max=64"); err != nil {
		return apperrors.NewBadRequest("invalid site identifier")
	}
	return nil
}
