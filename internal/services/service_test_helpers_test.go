package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/cache"
	"github.com/charlesng35/userprofile/internal/database/testutil"
	"github.com/charlesng35/userprofile/internal/hooks"
)

const testFieldList = `
elements.phone.name = "userprofile_phone"
elements.phone.type = "tel"
elements.phone.options.label = "Phone"
elements.phone.attributes.required = true

elements.org.name = "userprofile_org"
elements.org.type = "select"
elements.org.options.label = "Organisation"
elements.org.options.value_options.alpha = "Alpha"
elements.org.options.value_options.beta = "Beta"

elements.notes.name = "userprofile_notes"
elements.notes.type = "textarea"

exclude.public_edit[] = userprofile_notes
exclude.public_show[] = userprofile_notes
`

type serviceEnv struct {
	db       *gorm.DB
	audit    *AuditService
	config   *FieldConfigService
	settings *UserSettingsService
	users    *UserService
	hooks    *hooks.Manager
}

func newServiceEnv(t *testing.T, fieldList string) *serviceEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)

	manager := hooks.NewManager()
	configSvc, err := NewFieldConfigService(db, auditSvc, cache.NewDatabaseStore(db), manager)
	require.NoError(t, err)

	settingsSvc, err := NewUserSettingsService(db, configSvc)
	require.NoError(t, err)
	settingsSvc.Register(manager)

	userSvc, err := NewUserService(db, auditSvc, manager)
	require.NoError(t, err)

	if fieldList != "" {
		_, err := configSvc.Save(context.Background(), "", fieldList, "ini")
		require.NoError(t, err)
	}

	return &serviceEnv{
		db:       db,
		audit:    auditSvc,
		config:   configSvc,
		settings: settingsSvc,
		users:    userSvc,
		hooks:    manager,
	}
}
