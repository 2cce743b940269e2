package services

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"samiti/internal/access"
	"samiti/internal/models"
	"samiti/internal/tenantdb"
	"samiti/pkg/logger"
	apperrors "samiti/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrganizationService 组织服务。组织是全局实体，本服务是少数
// 直接使用原始DB句柄、需要显式考虑跨租户可见性的代码之一。
type OrganizationService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// CreateOrganizationRequest 创建组织请求
type CreateOrganizationRequest struct {
	Name         string     `json:"name" binding:"required"`
	Slug         string     `json:"slug" binding:"required,slug"`
	Kind         string     `json:"kind"`
	BudgetTarget *string    `json:"budget_target"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

// UpdateOrganizationRequest 更新组织请求
type UpdateOrganizationRequest struct {
	Name         string     `json:"name"`
	BudgetTarget *string    `json:"budget_target"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Bootstrap 创建组织并建立创建人的ADMIN成员关系。
// 两条写入必须在同一个事务内提交：只有组织没有管理员成员
// 是不可恢复的不变量破坏。
func (s *OrganizationService) Bootstrap(principal *access.Principal, req *CreateOrganizationRequest) (*models.Organization, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := s.validateCreateParams(req); err != nil {
		return nil, err
	}

	budgetTarget, err := parseOptionalAmount(req.BudgetTarget, "budget_target")
	if err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = models.OrgKindFestival
	}

	// 检查slug是否重复
	var count int64
	s.db.Model(&models.Organization{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	org := &models.Organization{
		Name:         req.Name,
		Slug:         req.Slug,
		Kind:         kind,
		BudgetTarget: budgetTarget,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       models.OrgStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		store, err := tenantdb.ForTenant(tx, org.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		member := &models.Membership{
			UserID:   &principal.ID,
			Email:    principal.Email,
			Role:     models.RoleAdmin,
			JoinedAt: &now,
		}
		return store.Create(member)
	})
	if err != nil {
		s.log.Errorf("创建组织失败: %v", err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": org.ID,
		"slug":      org.Slug,
		"user_id":   principal.ID,
	}).Info("组织创建完成，创建人已成为管理员")

	return org, nil
}

// Get 获取组织信息，要求调用人是该组织成员
func (s *OrganizationService) Get(gate *access.Gate, tenantID uint) (*models.Organization, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, err
	}

	var org models.Organization
	if err := s.db.First(&org, tenantID).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Update 更新组织信息，仅限管理员
func (s *OrganizationService) Update(gate *access.Gate, tenantID uint, req *UpdateOrganizationRequest) (*models.Organization, error) {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin); err != nil {
		return nil, err
	}

	var org models.Organization
	if err := s.db.First(&org, tenantID).Error; err != nil {
		return nil, err
	}

	if req.Name != "" {
		if utf8.RuneCountInString(req.Name) > 100 {
			return nil, apperrors.NewValidationError("name", "组织名称长度不能超过100个字符")
		}
		org.Name = req.Name
	}
	if req.BudgetTarget != nil {
		budgetTarget, err := parseOptionalAmount(req.BudgetTarget, "budget_target")
		if err != nil {
			return nil, err
		}
		org.BudgetTarget = budgetTarget
	}
	if req.StartDate != nil {
		org.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		org.EndDate = req.EndDate
	}

	if err := s.db.Save(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ListForPrincipal 列出调用人已加入的全部组织
func (s *OrganizationService) ListForPrincipal(principal *access.Principal) ([]*models.Organization, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	var orgs []*models.Organization
	err := s.db.
		Joins("JOIN memberships ON memberships.tenant_id = organizations.id").
		Where("memberships.is_archived = ?", false).
		Where("memberships.user_id = ? OR memberships.email = ?", principal.ID, principal.Email).
		Find(&orgs).Error
	return orgs, err
}

// ListActive 列出所有活跃组织（内部定时任务用，不对外暴露）
func (s *OrganizationService) listActive() ([]*models.Organization, error) {
	var orgs []*models.Organization
	err := s.db.Where("status = ?", models.OrgStatusActive).Find(&orgs).Error
	return orgs, err
}

// validateCreateParams 创建参数校验
func (s *OrganizationService) validateCreateParams(req *CreateOrganizationRequest) error {
	nameLen := utf8.RuneCountInString(req.Name)
	if nameLen == 0 || nameLen > 100 {
		return apperrors.NewValidationError("name", "组织名称长度必须在1-100个字符之间")
	}
	if len(req.Slug) < 2 || len(req.Slug) > 50 {
		return apperrors.NewValidationError("slug", "组织标识长度必须在2-50个字符之间")
	}
	if !slugPattern.MatchString(req.Slug) {
		return apperrors.NewValidationError("slug", "组织标识只能包含小写字母、数字和连字符")
	}
	if req.Kind != "" && !models.IsValidKind(req.Kind) {
		return apperrors.NewValidationError("kind", "组织类型必须是 festival 或 club")
	}
	return nil
}

// parseOptionalAmount 解析可选的十进制金额字符串，拒绝负数
func parseOptionalAmount(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, apperrors.NewValidationError(field, fmt.Sprintf("金额格式错误: %s", *raw))
	}
	if d.IsNegative() {
		return nil, apperrors.NewValidationError(field, "金额不能为负数")
	}
	return &d, nil
}
