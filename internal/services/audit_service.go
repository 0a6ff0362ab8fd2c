package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/auditctx"
	"github.com/charlesng35/userprofile/internal/models"
)

// AuditEntry is one event to record. UserID and IPAddress default to the actor
// attached to the context by the auth middleware.
type AuditEntry struct {
	UserID    *string
	Action    string
	Resource  string
	Result    string
	IPAddress string
	Metadata  map[string]any
}

// AuditFilters narrow List. An Action ending in "*" matches every action with that
// prefix, so "profile.*" covers settings and field list changes.
type AuditFilters struct {
	UserID   string
	Action   string
	Result   string
	Resource string
	Since    *time.Time
	Until    *time.Time
}

type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService records who changed profile data and the field list.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

func (e AuditEntry) row(ctx context.Context) (models.AuditLog, error) {
	row := models.AuditLog{
		Action:    strings.TrimSpace(e.Action),
		Resource:  strings.TrimSpace(e.Resource),
		Result:    strings.TrimSpace(e.Result),
		IPAddress: strings.TrimSpace(e.IPAddress),
		Metadata:  datatypes.JSON("{}"),
	}
	if row.Action == "" {
		return row, errors.New("audit service: action is required")
	}
	if row.Result == "" {
		return row, errors.New("audit service: result is required")
	}
	if e.Metadata != nil {
		encoded, err := json.Marshal(e.Metadata)
		if err != nil {
			return row, fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		row.Metadata = encoded
	}

	userID := ""
	if e.UserID != nil {
		userID = strings.TrimSpace(*e.UserID)
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		if userID == "" {
			userID = actor.UserID
		}
		if row.IPAddress == "" {
			row.IPAddress = actor.IPAddress
		}
	}
	if userID != "" {
		row.UserID = &userID
	}
	return row, nil
}

// Log stores entry.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)
	row, err := entry.row(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// List returns one page of matching entries, newest first, and the total match count.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	page, perPage := normalizePage(opts.Page, opts.PageSize)
	query := s.db.WithContext(ensureContext(ctx)).Model(&models.AuditLog{})
	for _, filter := range auditScopes(opts.Filters) {
		query = filter(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}
	var logs []models.AuditLog
	err := query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, total, nil
}

// CleanupOlderThan deletes entries older than retentionDays and reports how many.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	res := s.db.WithContext(ensureContext(ctx)).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func where(query string, arg any) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, arg) }
}

func auditScopes(f AuditFilters) []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	if f.UserID != "" {
		scopes = append(scopes, where("user_id = ?", f.UserID))
	}
	if prefix, ok := strings.CutSuffix(f.Action, "*"); ok {
		scopes = append(scopes, where("action LIKE ?", prefix+"%"))
	} else if f.Action != "" {
		scopes = append(scopes, where("action = ?", f.Action))
	}
	if f.Result != "" {
		scopes = append(scopes, where("result = ?", f.Result))
	}
	if f.Resource != "" {
		scopes = append(scopes, where("resource = ?", f.Resource))
	}
	if f.Since != nil {
		scopes = append(scopes, where("created_at >= ?", *f.Since))
	}
	if f.Until != nil {
		scopes = append(scopes, where("created_at <= ?", *f.Until))
	}
	return scopes
}
