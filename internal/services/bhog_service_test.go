package services

import (
	"testing"

	"samiti/internal/models"
	apperrors "samiti/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBhogRegister_UpsertByName(t *testing.T) {
	db := newTestDB(t)
	org := seedOrg(t, db, "Ganeshotsav 2026", "ganeshotsav-2026", models.OrgKindFestival, nil)
	first := seedMember(t, db, org.ID, 1, "a@example.com", models.RoleVolunteer)
	second := seedMember(t, db, org.ID, 2, "b@example.com", models.RoleVolunteer)
	svc := NewBhogService(db)

	item, err := svc.Register(gateFor(db, 1, "a@example.com"), org.ID,
		&RegisterBhogRequest{Name: "Modak", Quantity: 11, Unit: "kg"})
	require.NoError(t, err)
	assert.Equal(t, 11, item.Quantity)
	assert.Equal(t, first.ID, item.MemberID)

	// 同名供品由后来者覆盖数量和认领人，不产生第二条记录
	item, err = svc.Register(gateFor(db, 2, "b@example.com"), org.ID,
		&RegisterBhogRequest{Name: "Modak", Quantity: 21, Unit: "kg", Note: "加量"})
	require.NoError(t, err)
	assert.Equal(t, 21, item.Quantity)
	assert.Equal(t, second.ID, item.MemberID)

	var count int64
	require.NoError(t, db.Model(&models.BhogItem{}).Where("tenant_id = ?", org.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 数量缺省按1处理
	item, err = svc.Register(gateFor(db, 1, "a@example.com"), org.ID,
		&RegisterBhogRequest{Name: "Laddu"})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestDonationCreate_RoleRestriction(t *testing.T) {
	db := newTestDB(t)
	org := seedOrg(t, db, "Ganeshotsav 2026", "ganeshotsav-2026", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 2, "treasurer@example.com", models.RoleTreasurer)
	seedMember(t, db, org.ID, 3, "volunteer@example.com", models.RoleVolunteer)
	svc := NewDonationService(db)

	// 志愿者不能登记捐款
	_, err := svc.Create(gateFor(db, 3, "volunteer@example.com"), org.ID,
		&CreateDonationRequest{DonorName: "张三", Amount: "100.00"})
	var roleErr *apperrors.InsufficientRoleError
	assert.ErrorAs(t, err, &roleErr)

	donation, err := svc.Create(gateFor(db, 2, "treasurer@example.com"), org.ID,
		&CreateDonationRequest{DonorName: "张三", Amount: "100.00"})
	require.NoError(t, err)
	assert.Equal(t, models.DonationCategoryGeneral, donation.Category) // 类别缺省为 general
	assert.Equal(t, org.ID, donation.TenantID)

	_, err = svc.Create(gateFor(db, 2, "treasurer@example.com"), org.ID,
		&CreateDonationRequest{DonorName: "张三", Amount: "100.00", Category: "crypto"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDonationList_FilterByCategory(t *testing.T) {
	db := newTestDB(t)
	org := seedOrg(t, db, "Ganeshotsav 2026", "ganeshotsav-2026", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 3, "volunteer@example.com", models.RoleVolunteer)
	svc := NewDonationService(db)

	seedDonation(t, db, org.ID, "100.00", models.DonationCategoryGeneral)
	seedDonation(t, db, org.ID, "200.00", models.DonationCategorySponsorship)
	seedDonation(t, db, org.ID, "300.00", models.DonationCategorySponsorship)

	gate := gateFor(db, 3, "volunteer@example.com")
	donations, total, err := svc.List(gate, org.ID, models.DonationCategorySponsorship, defaultPageParams())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, d := range donations {
		assert.Equal(t, models.DonationCategorySponsorship, d.Category)
	}
}
