package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event 活动模型。BudgetTarget 为空表示不设预算，
// 该活动的利用率按策略固定报 0（见财务聚合服务）。
type Event struct {
	TenantModel
	Name         string           `json:"name" gorm:"not null;size:100"`
	Description  string           `json:"description" gorm:"size:500"`
	BudgetTarget *decimal.Decimal `json:"budget_target" gorm:"type:decimal(14,2)"`
	StartAt      *time.Time       `json:"start_at"`
	EndAt        *time.Time       `json:"end_at"`
	Status       string           `json:"status" gorm:"size:20;default:'active'"`
}

// TableName 表名
func (Event) TableName() string {
	return "events"
}

// 活动状态常量
const (
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)
