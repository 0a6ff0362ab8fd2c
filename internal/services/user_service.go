package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/models"
	"github.com/charlesng35/userprofile/internal/settings"
	"github.com/charlesng35/userprofile/pkg/crypto"
	apperrors "github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrLastAdmin prevents removing the only active administrator.
	ErrLastAdmin = apperrors.New("USER_LAST_ADMIN", "The last active administrator cannot be removed or demoted", http.StatusBadRequest)
	// ErrUserInactive is returned when a disabled account tries to sign in.
	ErrUserInactive = apperrors.New("USER_INACTIVE", "This account is disabled", http.StatusForbidden)
	// ErrEmailTaken is returned when another account already uses the email.
	ErrEmailTaken = apperrors.New("USER_EMAIL_TAKEN", "A user with this email already exists", http.StatusConflict)
)

const minPasswordLength = 8

// CreateUserInput describes the fields accepted when creating a user. A nil Settings
// map means the request carried no "o:setting" object.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	IsActive *bool
	Settings map[string]any
	Context  fields.Context
	Actor    string
}

// UpdateUserInput enumerates mutable user attributes.
type UpdateUserInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *string
	IsActive *bool
	Settings map[string]any
	Context  fields.Context
	Actor    string
}

// UserFilters captures listing filters.
type UserFilters struct {
	IsActive *bool
	Role     string
	Query    string
}

// ListUsersOptions controls pagination for user listing.
type ListUsersOptions struct {
	Page     int
	PageSize int
	Filters  UserFilters
}

// UserService manages the user lifecycle. Profile values submitted with a user are
// handed to the hook listeners before anything is written.
type UserService struct {
	db           *gorm.DB
	settings     *settings.Store
	hooks        *hooks.Manager
	auditService *AuditService
	now          func() time.Time
}

// NewUserService constructs a UserService instance. hookManager may be nil.
func NewUserService(db *gorm.DB, auditService *AuditService, hookManager *hooks.Manager) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	store, err := settings.NewStore(db)
	if err != nil {
		return nil, err
	}
	return &UserService{
		db:           db,
		settings:     store,
		hooks:        hookManager,
		auditService: auditService,
		now:          time.Now,
	}, nil
}

// Create provisions a new user with a hashed password and its profile values.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	role := strings.TrimSpace(input.Role)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if role == "" {
		role = models.RoleGuest
	}
	if !models.ValidRole(role) {
		return nil, apperrors.NewBadRequest("unknown role")
	}

	event := s.writeEvent(hooks.UserCreatePre, "", input.Settings, input.Context)
	if err := s.hooks.Trigger(ctx, event); err != nil {
		return nil, err
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		// gorm skips false on create when the column has a default.
		if !user.IsActive {
			if err := tx.Model(user).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		if writer := event.Writer(); writer != nil {
			return writer(tx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, userWriteError("create user", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   actorID(input.Actor),
		Action:   "user.create",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{
			"email": user.Email,
			"role":  user.Role,
		},
	})

	return user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads a user by email address, ignoring case.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user by email: %w", err)
	}
	return &user, nil
}

// List retrieves users matching the supplied filters with pagination.
func (s *UserService) List(ctx context.Context, opts ListUsersOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalizePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if opts.Filters.IsActive != nil {
		query = query.Where("is_active = ?", *opts.Filters.IsActive)
	}
	if role := strings.TrimSpace(opts.Filters.Role); role != "" {
		query = query.Where("role = ?", role)
	}
	if q := strings.TrimSpace(opts.Filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}

	return users, total, nil
}

// Update persists mutable attributes and profile values for an existing user.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*input.Email)); email != "" && email != user.Email {
			updates["email"] = email
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		if name != user.Name {
			updates["name"] = name
		}
	}
	if input.Role != nil && *input.Role != user.Role {
		if !models.ValidRole(*input.Role) {
			return nil, apperrors.NewBadRequest("unknown role")
		}
		updates["role"] = *input.Role
	}
	if input.IsActive != nil && *input.IsActive != user.IsActive {
		updates["is_active"] = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hashed, err := crypto.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("user service: hash password: %w", err)
		}
		updates["password"] = hashed
	}

	demoted := user.IsAdmin() && user.IsActive &&
		((input.Role != nil && *input.Role != models.RoleAdmin) || (input.IsActive != nil && !*input.IsActive))
	if demoted {
		if err := s.ensureOtherAdmin(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	event := s.writeEvent(hooks.UserUpdatePre, user.ID, input.Settings, input.Context)
	if err := s.hooks.Trigger(ctx, event); err != nil {
		return nil, err
	}
	writer := event.Writer()

	if len(updates) == 0 && writer == nil {
		return user, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(user).Updates(updates).Error; err != nil {
				return err
			}
		}
		if writer != nil {
			return writer(tx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, userWriteError("update user", err)
	}

	updated, err := s.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	delete(updates, "password")
	metadata := map[string]any{"changes": updates}
	if input.Password != nil {
		metadata["password_changed"] = true
	}
	if writer != nil {
		metadata["settings"] = true
	}
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   actorID(input.Actor),
		Action:   "user.update",
		Resource: user.ID,
		Result:   "success",
		Metadata: metadata,
	})

	return updated, nil
}

// Delete removes a user together with its user-scoped settings.
func (s *UserService) Delete(ctx context.Context, id, actor string) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() && user.IsActive {
		if err := s.ensureOtherAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.settings.WithTx(tx).Delete(ctx, settings.ScopeUser, user.ID); err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return fmt.Errorf("user service: delete user: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   actorID(actor),
		Action:   "user.delete",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"email": user.Email},
	})
	return nil
}

// Authenticate verifies credentials and stamps the last login time.
func (s *UserService) Authenticate(ctx context.Context, email, password, ip string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.recordLogin(ctx, nil, email, ip, "failure")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !crypto.VerifyPassword(user.Password, password) {
		s.recordLogin(ctx, &user.ID, email, ip, "failure")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.recordLogin(ctx, &user.ID, email, ip, "failure")
		return nil, ErrUserInactive
	}

	now := s.now()
	updates := map[string]any{"last_login_at": now}
	if crypto.NeedsRehash(user.Password) {
		if hashed, err := crypto.HashPassword(password); err == nil {
			updates["password"] = hashed
			user.Password = hashed
		}
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: stamp login: %w", err)
	}
	user.LastLoginAt = &now

	s.recordLogin(ctx, &user.ID, email, ip, "success")
	return user, nil
}

// CountActiveAdmins returns how many enabled administrators exist.
func (s *UserService) CountActiveAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ensureContext(ctx)).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("user service: count admins: %w", err)
	}
	return count, nil
}

func (s *UserService) ensureOtherAdmin(ctx context.Context, excludeID string) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ? AND id <> ?", models.RoleAdmin, true, excludeID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("user service: count admins: %w", err)
	}
	if count == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (s *UserService) writeEvent(name, userID string, setting map[string]any, fieldCtx fields.Context) hooks.Event {
	params := map[string]any{}
	if setting != nil {
		params[hooks.ParamSetting] = setting
		if fieldCtx == "" {
			fieldCtx = fields.AdminEdit
		}
		params[hooks.ParamContext] = fieldCtx
	}
	return hooks.Event{Name: name, UserID: userID, Params: params}
}

func (s *UserService) recordLogin(ctx context.Context, userID *string, email, ip, result string) {
	metrics.AuthAttempts.WithLabelValues(result).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:    userID,
		Action:    "auth.login",
		Resource:  strings.ToLower(strings.TrimSpace(email)),
		Result:    result,
		IPAddress: ip,
	})
}
