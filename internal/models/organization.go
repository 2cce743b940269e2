package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Organization 组织（租户）模型 - 数据隔离边界。
// 全局实体，不经过租户作用域存储，由显式处理跨租户可见性的代码管理。
type Organization struct {
	BaseModel
	Name         string           `json:"name" gorm:"not null;size:100"`
	Slug         string           `json:"slug" gorm:"unique;not null;size:50;index"`
	Kind         string           `json:"kind" gorm:"not null;size:20;default:'festival'"`
	BudgetTarget *decimal.Decimal `json:"budget_target" gorm:"type:decimal(14,2)"`
	StartDate    *time.Time       `json:"start_date"`
	EndDate      *time.Time       `json:"end_date"`
	Status       string           `json:"status" gorm:"default:'active';size:20"`
}

// TableName 表名
func (o *Organization) TableName() string {
	return "organizations"
}

// 组织类型常量
const (
	// OrgKindFestival 公开节庆委员会：可用资金 = 一般捐款 + 赞助
	OrgKindFestival = "festival"
	// OrgKindClub 私有俱乐部：可用资金 = 预算目标 + 一般捐款 + 赞助
	OrgKindClub = "club"
)

// 组织状态常量
const (
	OrgStatusActive   = "active"
	OrgStatusInactive = "inactive"
)

// IsValidKind 检查组织类型是否合法
func IsValidKind(kind string) bool {
	return kind == OrgKindFestival || kind == OrgKindClub
}
