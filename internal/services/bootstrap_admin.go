package services

import (
	"context"
	"strings"

	"github.com/charlesng35/userprofile/internal/models"
)

// BootstrapAdmin describes the administrator created on an empty installation.
type BootstrapAdmin struct {
	Email    string
	Name     string
	Password string
}

// EnsureBootstrapAdmin creates the configured administrator when no active admin
// exists. It reports whether an account was created.
func EnsureBootstrapAdmin(ctx context.Context, users *UserService, admin BootstrapAdmin) (bool, error) {
	if strings.TrimSpace(admin.Email) == "" || admin.Password == "" {
		return false, nil
	}

	count, err := users.CountActiveAdmins(ctx)
	if err != nil || count > 0 {
		return false, err
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}
	active := true
	if _, err := users.Create(ctx, CreateUserInput{
		Email:    admin.Email,
		Name:     name,
		Password: admin.Password,
		Role:     models.RoleAdmin,
		IsActive: &active,
	}); err != nil {
		return false, err
	}
	return true, nil
}
