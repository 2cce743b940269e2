package services

import (
	"fmt"
	"strings"
	"time"

	"samiti/internal/access"
	"samiti/internal/models"
	"samiti/internal/tenantdb"
	apperrors "samiti/pkg/errors"
	"samiti/pkg/logger"
	"samiti/pkg/pagination"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MembershipService 成员关系服务：邀请、接受、角色变更、归档。
// 成员记录永不物理删除，归档行保留作审计。
type MembershipService struct {
	db       *gorm.DB
	log      *logrus.Logger
	notifier *Notifier
}

func NewMembershipService(db *gorm.DB, notifier *Notifier) *MembershipService {
	return &MembershipService{
		db:       db,
		log:      logger.GetLogger(),
		notifier: notifier,
	}
}

// InviteRequest 邀请请求
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// List 分页列出成员，任何成员可查看
func (s *MembershipService) List(gate *access.Gate, tenantID uint, params *pagination.PageParams) ([]*models.Membership, int64, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, 0, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, 0, err
	}

	var members []*models.Membership
	total, err := store.Page(&members, nil, nil, "created_at ASC", params.Offset(), params.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// Invite 按邮箱邀请新成员，仅限管理员。
// 先落一条仅有邮箱的成员记录（UserID为空），被邀请人注册后
// 凭令牌接受邀请时再回填UserID。门禁的双键匹配保证这类记录
// 在接受之前就已经对该邮箱的登录用户生效。
func (s *MembershipService) Invite(gate *access.Gate, tenantID uint, req *InviteRequest) (*models.Membership, error) {
	cap, err := gate.Authorize(tenantID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperrors.NewValidationError("email", "邮箱不能为空")
	}
	if !models.IsValidRole(req.Role) {
		return nil, apperrors.NewValidationError("role", "非法的角色: "+req.Role)
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	// 同一邮箱在该组织内只允许一条活跃成员记录
	count, err := store.Count(&models.Membership{}, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("该邮箱已是组织成员或已有待处理邀请")
	}

	token := uuid.NewString()
	member := &models.Membership{
		Email:       email,
		Role:        req.Role,
		InviteToken: &token,
		InvitedBy:   &cap.Member.ID,
	}
	if err := store.Create(member); err != nil {
		s.log.Errorf("创建邀请失败: %v", err)
		return nil, err
	}

	s.notifier.Notify(tenantID, cap.Member.ID, NotifyMemberInvited, "成员邀请", map[string]interface{}{
		"email": email,
		"role":  req.Role,
	})

	return member, nil
}

// AcceptInvite 接受邀请，把登录用户回填到仅有邮箱的成员记录上。
// 条件更新以 user_id IS NULL 为前置条件，影响行数为唯一成功信号：
// 同一邀请被并发接受时只有一次生效。
func (s *MembershipService) AcceptInvite(principal *access.Principal, token string) (*models.Membership, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if token == "" {
		return nil, apperrors.NewValidationError("token", "邀请令牌不能为空")
	}

	var member models.Membership
	if err := s.db.Where("invite_token = ? AND is_archived = ?", token, false).
		First(&member).Error; err != nil {
		return nil, err
	}
	if !strings.EqualFold(member.Email, principal.Email) {
		return nil, fmt.Errorf("邀请邮箱不匹配")
	}

	now := time.Now()
	result := s.db.Model(&models.Membership{}).
		Where("id = ? AND user_id IS NULL AND is_archived = ?", member.ID, false).
		Updates(map[string]interface{}{
			"user_id":      principal.ID,
			"joined_at":    now,
			"invite_token": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrAlreadyProcessedOrMissing
	}

	if err := s.db.First(&member, member.ID).Error; err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   principal.ID,
		"tenant_id": member.TenantID,
	}).Info("用户接受邀请加入组织")

	return &member, nil
}

// ChangeRole 变更成员角色，仅限管理员
func (s *MembershipService) ChangeRole(gate *access.Gate, tenantID, memberID uint, role string) error {
	cap, err := gate.Authorize(tenantID, models.RoleAdmin)
	if err != nil {
		return err
	}
	if !models.IsValidRole(role) {
		return apperrors.NewValidationError("role", "非法的角色: "+role)
	}
	if cap.Member.ID == memberID && role != models.RoleAdmin {
		return fmt.Errorf("不能降级自己的管理员角色")
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Updates(&models.Membership{}, "id = ?", []interface{}{memberID},
		map[string]interface{}{"role": role})
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Archive 归档成员（软删除），仅限管理员，不允许归档自己
func (s *MembershipService) Archive(gate *access.Gate, tenantID, memberID uint) error {
	cap, err := gate.Authorize(tenantID, models.RoleAdmin)
	if err != nil {
		return err
	}
	if cap.Member.ID == memberID {
		return fmt.Errorf("不能归档自己的成员记录")
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Archive(&models.Membership{}, "id = ?", memberID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"member_id": memberID,
		"operator":  cap.Member.ID,
	}).Info("成员已归档")
	return nil
}
