package tenantdb

import (
	"testing"

	"samiti/internal/models"
	apperrors "samiti/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

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
		&models.Organization{},
		&models.Membership{},
		&models.Donation{},
		&models.Expense{},
		&models.Event{},
		&models.Task{},
		&models.BhogItem{},
	))
	// 供品的插入或更新依赖 (tenant_id, name) 唯一索引
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bhog_tenant_name ON bhog_items (tenant_id, name)").Error)
	return db
}

func mustStore(t *testing.T, db *gorm.DB, tenantID uint) *ScopedStore {
	store, err := ForTenant(db, tenantID)
	require.NoError(t, err)
	return store
}

func newDonation(amount string) *models.Donation {
	return &models.Donation{
		DonorName: "测试捐款人",
		Amount:    decimal.RequireFromString(amount),
		Category:  models.DonationCategoryGeneral,
	}
}

func TestForTenant_ZeroTenantID(t *testing.T) {
	db := newTestDB(t)
	_, err := ForTenant(db, 0)
	assert.ErrorIs(t, err, apperrors.ErrMissingTenantContext)
}

func TestCreate_InjectsTenantID(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 1)

	// 载荷里写了别的租户ID也会被覆盖
	d := newDonation("100.00")
	d.TenantID = 999
	require.NoError(t, store.Create(d))
	assert.Equal(t, uint(1), d.TenantID)

	var got models.Donation
	require.NoError(t, db.First(&got, d.ID).Error)
	assert.Equal(t, uint(1), got.TenantID)
}

func TestCreate_InjectsTenantIDForSlice(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 3)

	batch := []*models.Donation{newDonation("10.00"), newDonation("20.00")}
	require.NoError(t, store.Create(&batch))

	var count int64
	require.NoError(t, db.Model(&models.Donation{}).Where("tenant_id = ?", 3).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFind_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	store1 := mustStore(t, db, 1)
	store2 := mustStore(t, db, 2)

	require.NoError(t, store1.Create(newDonation("100.00")))
	require.NoError(t, store1.Create(newDonation("200.00")))
	require.NoError(t, store2.Create(newDonation("999.00")))

	// 无过滤条件时租户谓词就是全部条件
	var ds []models.Donation
	require.NoError(t, store1.Find(&ds))
	require.Len(t, ds, 2)
	for _, d := range ds {
		assert.Equal(t, uint(1), d.TenantID)
	}

	count, err := store2.Count(&models.Donation{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpdates_ScopedAndStripsTenantID(t *testing.T) {
	db := newTestDB(t)
	store1 := mustStore(t, db, 1)
	store2 := mustStore(t, db, 2)

	d := newDonation("100.00")
	require.NoError(t, store1.Create(d))

	// 另一个租户的存储更新不到这一行
	affected, err := store2.Updates(&models.Donation{}, "id = ?", []interface{}{d.ID},
		map[string]interface{}{"note": "hijacked"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	// 更新载荷里的 tenant_id 被剥除，行不会迁到别的租户
	affected, err = store1.Updates(&models.Donation{}, "id = ?", []interface{}{d.ID},
		map[string]interface{}{"note": "updated", "tenant_id": uint(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var got models.Donation
	require.NoError(t, db.First(&got, d.ID).Error)
	assert.Equal(t, uint(1), got.TenantID)
	assert.Equal(t, "updated", got.Note)
}

func TestArchive_HidesFromDefaultReads(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 1)

	d := newDonation("100.00")
	require.NoError(t, store.Create(d))

	affected, err := store.Archive(&models.Donation{}, "id = ?", d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var got models.Donation
	err = store.First(&got, "id = ?", d.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 审计视图可见
	require.NoError(t, store.IncludeArchived().First(&got, "id = ?", d.ID))
	assert.True(t, got.IsArchived)
}

func TestGuard_RejectsUnscopedModel(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 1)

	// 组织是全局实体，不在白名单内，必须响亮失败
	var orgs []models.Organization
	assert.ErrorIs(t, store.Find(&orgs), apperrors.ErrNotTenantScoped)
	assert.ErrorIs(t, store.Create(&models.Organization{Name: "x", Slug: "x"}), apperrors.ErrNotTenantScoped)

	_, err := store.Updates(&models.Organization{}, "id = ?", []interface{}{1},
		map[string]interface{}{"name": "y"})
	assert.ErrorIs(t, err, apperrors.ErrNotTenantScoped)
}

func TestUpsert_InsertAndUpdateBranches(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 1)

	item := &models.BhogItem{Name: "Modak", Quantity: 11, Unit: "kg", MemberID: 1}
	require.NoError(t, store.Upsert(item,
		[]string{"tenant_id", "name"},
		[]string{"quantity", "unit", "note", "member_id"}))

	// 同名再登记走更新分支；updateColumns 里的 tenant_id 被过滤
	again := &models.BhogItem{Name: "Modak", Quantity: 21, Unit: "kg", MemberID: 2}
	again.TenantID = 999
	require.NoError(t, store.Upsert(again,
		[]string{"tenant_id", "name"},
		[]string{"quantity", "unit", "note", "member_id", "tenant_id"}))

	var items []models.BhogItem
	require.NoError(t, db.Where("name = ?", "Modak").Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, uint(1), items[0].TenantID)
	assert.Equal(t, 21, items[0].Quantity)
	assert.Equal(t, uint(2), items[0].MemberID)

	// 另一租户的同名供品互不干扰
	other := mustStore(t, db, 2)
	require.NoError(t, other.Upsert(&models.BhogItem{Name: "Modak", Quantity: 5, MemberID: 9},
		[]string{"tenant_id", "name"},
		[]string{"quantity", "unit", "note", "member_id"}))

	var count int64
	require.NoError(t, db.Model(&models.BhogItem{}).Where("name = ?", "Modak").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestPage_ReturnsTotalWithinTenant(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 1)
	other := mustStore(t, db, 2)

	for _, amount := range []string{"10.00", "20.00", "30.00"} {
		require.NoError(t, store.Create(newDonation(amount)))
	}
	require.NoError(t, other.Create(newDonation("99.00")))

	var ds []models.Donation
	total, err := store.Page(&ds, nil, nil, "id ASC", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, ds, 2)
}

func TestTransaction_KeepsScope(t *testing.T) {
	db := newTestDB(t)
	store := mustStore(t, db, 1)

	err := store.Transaction(func(tx *ScopedStore) error {
		if err := tx.Create(newDonation("50.00")); err != nil {
			return err
		}
		return tx.Create(newDonation("60.00"))
	})
	require.NoError(t, err)

	count, err := store.Count(&models.Donation{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 事务内出错则全部回滚
	err = store.Transaction(func(tx *ScopedStore) error {
		if err := tx.Create(newDonation("70.00")); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	count, err = store.Count(&models.Donation{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
