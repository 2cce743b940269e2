package models

import (
	"time"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantModel 租户数据基础模型。
// 所有组织私有数据内嵌该结构：tenant_id 创建后不可变更，
// is_archived 为软删除标记，归档行保留作审计但对业务查询不可见。
type TenantModel struct {
	BaseModel
	TenantID   uint `json:"tenant_id" gorm:"not null;index"`
	IsArchived bool `json:"is_archived" gorm:"default:false;index"`
}

// SetTenantID 实现租户数据接口，供作用域存储在写入时注入租户ID
func (m *TenantModel) SetTenantID(id uint) {
	m.TenantID = id
}

// GetTenantID 获取租户ID
func (m *TenantModel) GetTenantID() uint {
	return m.TenantID
}
