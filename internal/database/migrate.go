package database

import (
	"samiti/internal/models"
	"samiti/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Membership{},
		&models.Donation{},
		&models.Expense{},
		&models.Event{},
		&models.Task{},
		&models.BhogItem{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	// 供品按 (tenant_id, name) 去重，Upsert 的冲突目标依赖该索引
	err = DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_bhog_tenant_name ON bhog_items (tenant_id, name)").Error
	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
