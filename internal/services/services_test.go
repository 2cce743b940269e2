package services

import (
	"testing"
	"time"

	"samiti/internal/access"
	"samiti/internal/models"
	"samiti/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 服务层测试共用的内存数据库与数据铺设工具

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Membership{},
		&models.Donation{},
		&models.Expense{},
		&models.Event{},
		&models.Task{},
		&models.BhogItem{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bhog_tenant_name ON bhog_items (tenant_id, name)").Error)
	return db
}

func seedOrg(t *testing.T, db *gorm.DB, name, slug, kind string, budgetTarget *string) *models.Organization {
	org := &models.Organization{
		Name:   name,
		Slug:   slug,
		Kind:   kind,
		Status: models.OrgStatusActive,
	}
	if budgetTarget != nil {
		d := decimal.RequireFromString(*budgetTarget)
		org.BudgetTarget = &d
	}
	require.NoError(t, db.Create(org).Error)
	return org
}

func seedMember(t *testing.T, db *gorm.DB, tenantID, userID uint, email, role string) *models.Membership {
	now := time.Now()
	member := &models.Membership{
		UserID:   &userID,
		Email:    email,
		Role:     role,
		JoinedAt: &now,
	}
	member.TenantID = tenantID
	require.NoError(t, db.Create(member).Error)
	return member
}

func seedDonation(t *testing.T, db *gorm.DB, tenantID uint, amount, category string) *models.Donation {
	d := &models.Donation{
		DonorName: "测试捐款人",
		Amount:    decimal.RequireFromString(amount),
		Category:  category,
	}
	d.TenantID = tenantID
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedExpense(t *testing.T, db *gorm.DB, tenantID uint, amount, status string, eventID *uint) *models.Expense {
	e := &models.Expense{
		Title:   "测试支出",
		Amount:  decimal.RequireFromString(amount),
		Status:  status,
		EventID: eventID,
	}
	e.TenantID = tenantID
	require.NoError(t, db.Create(e).Error)
	return e
}

func gateFor(db *gorm.DB, userID uint, email string) *access.Gate {
	return access.NewGate(db, access.StaticResolver{
		Principal: &access.Principal{ID: userID, Email: email},
	})
}

// testFixture 单个组织加常用角色成员的测试基座
type testFixture struct {
	db        *gorm.DB
	org       *models.Organization
	admin     *models.Membership
	treasurer *models.Membership
	volunteer *models.Membership
}

func defaultPageParams() *pagination.PageParams {
	return &pagination.PageParams{Page: 1, PageSize: pagination.DefaultPageSize}
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }
