package services

import (
	"testing"

	"samiti/internal/access"
	"samiti/internal/models"
	apperrors "samiti/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBootstrap_CreatesOrgWithAdminMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)
	principal := &access.Principal{ID: 1, Email: "founder@example.com"}

	org, err := svc.Bootstrap(principal, &CreateOrganizationRequest{
		Name: "Ganeshotsav 2026",
		Slug: "ganeshotsav-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrgKindFestival, org.Kind) // 默认类型
	assert.Equal(t, models.OrgStatusActive, org.Status)

	// 创建人必须同时成为该组织的管理员成员
	var member models.Membership
	require.NoError(t, db.Where("tenant_id = ?", org.ID).First(&member).Error)
	assert.Equal(t, models.RoleAdmin, member.Role)
	require.NotNil(t, member.UserID)
	assert.Equal(t, principal.ID, *member.UserID)
	assert.NotNil(t, member.JoinedAt)

	// 创建人立即拥有管理员权限
	_, err = gateFor(db, 1, "founder@example.com").Authorize(org.ID, models.RoleAdmin)
	assert.NoError(t, err)
}

func TestBootstrap_SlugValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)
	principal := &access.Principal{ID: 1, Email: "founder@example.com"}

	for _, slug := range []string{"Invalid-Upper", "has space", "-leading", "trailing-", "a"} {
		_, err := svc.Bootstrap(principal, &CreateOrganizationRequest{Name: "组织", Slug: slug})
		assert.True(t, apperrors.IsValidation(err), "slug %q 应当被拒绝", slug)
	}

	// 合法slug通过
	_, err := svc.Bootstrap(principal, &CreateOrganizationRequest{Name: "组织", Slug: "abc-123"})
	assert.NoError(t, err)
}

func TestBootstrap_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)
	principal := &access.Principal{ID: 1, Email: "founder@example.com"}

	_, err := svc.Bootstrap(principal, &CreateOrganizationRequest{Name: "组织", Slug: "ganeshotsav-2026"})
	require.NoError(t, err)

	_, err = svc.Bootstrap(principal, &CreateOrganizationRequest{Name: "另一个", Slug: "ganeshotsav-2026"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestBootstrap_InvalidKindAndBudget(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)
	principal := &access.Principal{ID: 1, Email: "founder@example.com"}

	_, err := svc.Bootstrap(principal, &CreateOrganizationRequest{
		Name: "组织", Slug: "org-a", Kind: "corporation",
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Bootstrap(principal, &CreateOrganizationRequest{
		Name: "组织", Slug: "org-a", BudgetTarget: strPtr("-100"),
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Bootstrap(principal, &CreateOrganizationRequest{
		Name: "组织", Slug: "org-a", BudgetTarget: strPtr("not-a-number"),
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestOrganizationGet_RequiresMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)
	org := seedOrg(t, db, "组织", "org-a", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	got, err := svc.Get(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	_, err = svc.Get(gateFor(db, 2, "stranger@example.com"), org.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)
}

func TestOrganizationUpdate_AdminOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)
	org := seedOrg(t, db, "组织", "org-a", models.OrgKindClub, nil)
	seedMember(t, db, org.ID, 1, "admin@example.com", models.RoleAdmin)
	seedMember(t, db, org.ID, 2, "treasurer@example.com", models.RoleTreasurer)

	_, err := svc.Update(gateFor(db, 2, "treasurer@example.com"), org.ID,
		&UpdateOrganizationRequest{Name: "新名字"})
	var roleErr *apperrors.InsufficientRoleError
	assert.ErrorAs(t, err, &roleErr)

	updated, err := svc.Update(gateFor(db, 1, "admin@example.com"), org.ID,
		&UpdateOrganizationRequest{Name: "新名字", BudgetTarget: strPtr("50000.00")})
	require.NoError(t, err)
	assert.Equal(t, "新名字", updated.Name)
	require.NotNil(t, updated.BudgetTarget)
	assert.True(t, updated.BudgetTarget.Equal(mustDecimal("50000.00")))
}

func TestListForPrincipal(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)

	orgA := seedOrg(t, db, "组织A", "org-a", models.OrgKindFestival, nil)
	orgB := seedOrg(t, db, "组织B", "org-b", models.OrgKindClub, nil)
	seedOrg(t, db, "组织C", "org-c", models.OrgKindFestival, nil)

	seedMember(t, db, orgA.ID, 1, "user@example.com", models.RoleVolunteer)
	// 仅邮箱的邀请记录也算"已加入列表"的依据
	invitee := &models.Membership{Email: "user@example.com", Role: models.RoleTreasurer}
	invitee.TenantID = orgB.ID
	require.NoError(t, db.Create(invitee).Error)

	orgs, err := svc.ListForPrincipal(&access.Principal{ID: 1, Email: "user@example.com"})
	require.NoError(t, err)
	assert.Len(t, orgs, 2)
}
