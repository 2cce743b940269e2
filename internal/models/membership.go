package models

import (
	"time"
)

// Membership 成员关系 - 用户与组织之间携带角色的关联。
// UserID 可以为空：管理员按邮箱邀请时先落一条仅有邮箱的成员记录，
// 被邀请人注册并接受邀请后再回填 UserID。门禁查找按 user_id 或 email
// 双键匹配，正是为了覆盖这类记录。
type Membership struct {
	TenantModel
	UserID      *uint      `json:"user_id" gorm:"index:idx_member_user_tenant"`
	Email       string     `json:"email" gorm:"size:200;not null;index"`
	Role        string     `json:"role" gorm:"size:30;not null;default:'volunteer'"`
	InviteToken *string    `json:"-" gorm:"size:64;index"` // 待接受邀请的令牌
	InvitedBy   *uint      `json:"invited_by"`             // 邀请人成员ID
	JoinedAt    *time.Time `json:"joined_at"`              // 接受邀请时间

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Membership) TableName() string {
	return "memberships"
}

// 角色常量。ADMIN 高于其余角色；TREASURER 与 COMMITTEE_MEMBER 是平级，
// 互相之间没有高低关系，角色检查一律按集合成员判断，不做大小比较。
const (
	RoleAdmin           = "admin"
	RoleTreasurer       = "treasurer"
	RoleCommitteeMember = "committee_member"
	RoleVolunteer       = "volunteer"
)

// IsValidRole 检查角色是否合法
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTreasurer, RoleCommitteeMember, RoleVolunteer:
		return true
	}
	return false
}

// IsPending 是否为尚未接受的邀请记录
func (m *Membership) IsPending() bool {
	return m.UserID == nil
}
