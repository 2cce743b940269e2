package access

import (
	"errors"

	"samiti/internal/models"
	apperrors "samiti/pkg/errors"

	"gorm.io/gorm"
)

// Principal 当前调用者身份，由外部会话系统解析得到
type Principal struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Resolver 身份解析器 - 从环境会话上下文获取调用身份。
// 会话与凭证签发属于外部协作者，这里只消费结果。
type Resolver interface {
	CurrentPrincipal() (*Principal, bool)
}

// StaticResolver 固定身份解析器（测试及内部任务使用）
type StaticResolver struct {
	Principal *Principal
}

func (r StaticResolver) CurrentPrincipal() (*Principal, bool) {
	if r.Principal == nil {
		return nil, false
	}
	return r.Principal, true
}

// Capability 授权凭据 - 通过门禁检查后得到的 {身份, 成员} 对。
// 所有特权操作必须先拿到它，再去构造租户作用域存储。
type Capability struct {
	Principal *Principal
	Member    *models.Membership
}

// Gate 访问门禁：认证 + 成员关系解析 + 角色检查的单一入口。
// 每次特权调用都必须重新执行检查，角色和归档状态随时可能变化，
// 禁止跨请求缓存检查结果。
type Gate struct {
	db       *gorm.DB
	resolver Resolver
}

// NewGate 创建访问门禁。按请求构造，不得长期持有。
func NewGate(db *gorm.DB, resolver Resolver) *Gate {
	return &Gate{db: db, resolver: resolver}
}

// Authorize 授权检查。
// 1. 解析身份，失败返回 ErrUnauthenticated
// 2. 在未归档成员中按 user_id 或 email 双键查找成员关系，
//    没有则返回 ErrNotAMember（邮箱匹配覆盖"先邀请后注册"的成员记录）
// 3. requiredRoles 非空时检查角色集合，不满足返回 InsufficientRoleError
func (g *Gate) Authorize(tenantID uint, requiredRoles ...string) (*Capability, error) {
	principal, ok := g.resolver.CurrentPrincipal()
	if !ok || principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	if tenantID == 0 {
		return nil, apperrors.ErrMissingTenantContext
	}

	var member models.Membership
	err := g.db.
		Where("tenant_id = ? AND is_archived = ?", tenantID, false).
		Where("user_id = ? OR email = ?", principal.ID, principal.Email).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotAMember
		}
		// 存储错误原样透传，不降级为拒绝访问
		return nil, err
	}

	if len(requiredRoles) > 0 && !roleIn(member.Role, requiredRoles) {
		return nil, &apperrors.InsufficientRoleError{
			Required: requiredRoles,
			Actual:   member.Role,
		}
	}

	return &Capability{Principal: principal, Member: &member}, nil
}

// roleIn 集合成员判断。角色之间除 ADMIN 外没有全序关系，
// 不做任何大小比较。
func roleIn(role string, set []string) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}
