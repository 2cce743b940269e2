package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense 支出记录。
// 状态机：pending -> approved / rejected，离开 pending 后不可再变更。
// 审批必须走单条条件更新（WHERE status = 'pending'），以影响行数判定成败，
// 两个财务并发审批同一笔支出时只有一人能赢。
type Expense struct {
	TenantModel
	Title        string          `json:"title" gorm:"not null;size:200"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Status       string          `json:"status" gorm:"size:20;not null;default:'pending';index"`
	EventID      *uint           `json:"event_id" gorm:"index"` // 为空表示组织级支出
	MemberID     uint            `json:"member_id"`             // 报销人成员ID
	ApprovedByID *uint           `json:"approved_by_id"`        // 审批人成员ID
	ApprovedAt   *time.Time      `json:"approved_at"`
	Note         string          `json:"note" gorm:"size:500"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

// TableName 表名
func (Expense) TableName() string {
	return "expenses"
}

// 支出状态常量
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

// IsTerminal 是否已到终态
func (e *Expense) IsTerminal() bool {
	return e.Status == ExpenseStatusApproved || e.Status == ExpenseStatusRejected
}
