package config

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type tenantRow struct {
	ID             int
	OrganizationId string
}

func newGuardedDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.Use(NewTenantGuardPlugin()))
	return gdb, mock
}

func emptyTenantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id"})
}

func TestTenantGuardScopesQueries(t *testing.T) {
	gdb, mock := newGuardedDB(t)
	ctx := utils.SetOrganizationIdInContext(context.Background(), "org-1")

	mock.ExpectQuery("SELECT * FROM `tenant_rows` WHERE `tenant_rows`.`organization_id` = ?").
		WithArgs("org-1").
		WillReturnRows(emptyTenantRows())

	var rows []tenantRow
	require.NoError(t, gdb.WithContext(ctx).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantGuardKeepsExplicitScope(t *testing.T) {
	gdb, mock := newGuardedDB(t)
	ctx := utils.SetOrganizationIdInContext(context.Background(), "org-1")

	mock.ExpectQuery("SELECT * FROM `tenant_rows` WHERE organization_id = ?").
		WithArgs("org-9").
		WillReturnRows(emptyTenantRows())

	var rows []tenantRow
	require.NoError(t, gdb.WithContext(ctx).Where("organization_id = ?", "org-9").Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantGuardBypass(t *testing.T) {
	for name, ctx := range map[string]context.Context{
		"no organization": context.Background(),
		"skip flag":       utils.SetSkipTenantScopeInContext(utils.SetOrganizationIdInContext(context.Background(), "org-1"), true),
		"admin":           utils.SetIsAdminInContext(utils.SetOrganizationIdInContext(context.Background(), "org-1"), true),
	} {
		t.Run(name, func(t *testing.T) {
			gdb, mock := newGuardedDB(t)
			mock.ExpectQuery("SELECT * FROM `tenant_rows`").WillReturnRows(emptyTenantRows())

			var rows []tenantRow
			require.NoError(t, gdb.WithContext(ctx).Find(&rows).Error)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWhereHasTenantColumn(t *testing.T) {
	in := clause.Where{Exprs: []clause.Expression{
		clause.IN{Column: clause.Column{Name: "organization_id"}, Values: []any{"a", "b"}},
	}}
	assert.True(t, whereHasTenantColumn(clause.Clause{Expression: in}))

	nested := clause.Where{Exprs: []clause.Expression{
		clause.AndConditions{Exprs: []clause.Expression{clause.Eq{Column: "organization_id", Value: "a"}}},
	}}
	assert.True(t, whereHasTenantColumn(clause.Clause{Expression: nested}))

	other := clause.Where{Exprs: []clause.Expression{clause.Eq{Column: "seller_id", Value: "s"}}}
	assert.False(t, whereHasTenantColumn(clause.Clause{Expression: other}))
	assert.False(t, whereHasTenantColumn(clause.Clause{}))
}
