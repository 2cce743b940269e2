package services

import (
	"testing"

	"samiti/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedEvent(t *testing.T, db *gorm.DB, tenantID uint, name string, budgetTarget *string, status string) *models.Event {
	e := &models.Event{Name: name, Status: status}
	if budgetTarget != nil {
		d := mustDecimal(*budgetTarget)
		e.BudgetTarget = &d
	}
	e.TenantID = tenantID
	require.NoError(t, db.Create(e).Error)
	return e
}

// 节庆组织：可用资金 = 一般捐款 + 赞助，超支时余额为负、利用率超100
func TestSnapshot_FestivalOverspent(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "Ganeshotsav 2026", "ganeshotsav-2026", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	seedDonation(t, db, org.ID, "15000.00", models.DonationCategoryGeneral)
	seedExpense(t, db, org.ID, "20000.00", models.ExpenseStatusApproved, nil)

	snapshot, err := svc.Snapshot(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.GeneralFunds.Equal(mustDecimal("15000.00")))
	assert.True(t, snapshot.Sponsorships.IsZero())
	assert.True(t, snapshot.TotalAvailable.Equal(mustDecimal("15000.00")))
	assert.True(t, snapshot.ApprovedExpenses.Equal(mustDecimal("20000.00")))
	assert.True(t, snapshot.Remaining.Equal(mustDecimal("-5000.00")))
	assert.True(t, snapshot.UtilizationRate.GreaterThan(hundred))
	assert.True(t, snapshot.IsOverspent)
}

// 俱乐部组织：预算目标计入可用资金，利用率精确到整数百分比
func TestSnapshot_ClubWithBudgetTarget(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "读书会", "book-club", models.OrgKindClub, strPtr("100000.00"))
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleTreasurer)

	seedDonation(t, db, org.ID, "20000.00", models.DonationCategoryGeneral)
	seedDonation(t, db, org.ID, "5000.00", models.DonationCategorySponsorship)
	seedExpense(t, db, org.ID, "50000.00", models.ExpenseStatusApproved, nil)

	snapshot, err := svc.Snapshot(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.GeneralFunds.Equal(mustDecimal("20000.00")))
	assert.True(t, snapshot.Sponsorships.Equal(mustDecimal("5000.00")))
	assert.True(t, snapshot.TotalAvailable.Equal(mustDecimal("125000.00")))
	assert.True(t, snapshot.Remaining.Equal(mustDecimal("75000.00")))
	assert.True(t, snapshot.UtilizationRate.Equal(decimal.NewFromInt(40)),
		"期望精确的40%%，得到 %s", snapshot.UtilizationRate)
	assert.False(t, snapshot.IsOverspent)
}

// 十进制加法必须精确，0.1+0.2 这类浮点误差不允许出现
func TestSnapshot_DecimalExactness(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "组织", "org-a", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	seedDonation(t, db, org.ID, "0.10", models.DonationCategoryGeneral)
	seedDonation(t, db, org.ID, "0.20", models.DonationCategoryGeneral)

	snapshot, err := svc.Snapshot(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.GeneralFunds.Equal(mustDecimal("0.30")),
		"期望精确的0.30，得到 %s", snapshot.GeneralFunds)
}

// 分母为零时利用率按策略定义为 0
func TestSnapshot_ZeroAvailable(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "组织", "org-a", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	seedExpense(t, db, org.ID, "100.00", models.ExpenseStatusApproved, nil)

	snapshot, err := svc.Snapshot(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.UtilizationRate.IsZero())
	assert.False(t, snapshot.IsOverspent)
	assert.True(t, snapshot.Remaining.Equal(mustDecimal("-100.00")))
}

// 待审批支出单独统计，不扣减余额
func TestSnapshot_PendingExcludedFromRemaining(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "组织", "org-a", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	seedDonation(t, db, org.ID, "1000.00", models.DonationCategoryGeneral)
	seedExpense(t, db, org.ID, "300.00", models.ExpenseStatusApproved, nil)
	seedExpense(t, db, org.ID, "600.00", models.ExpenseStatusPending, nil)
	seedExpense(t, db, org.ID, "999.00", models.ExpenseStatusRejected, nil)

	snapshot, err := svc.Snapshot(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.ApprovedExpenses.Equal(mustDecimal("300.00")))
	assert.True(t, snapshot.PendingExpenses.Equal(mustDecimal("600.00")))
	assert.True(t, snapshot.Remaining.Equal(mustDecimal("700.00")))
}

// 别的租户的数据绝不进入快照
func TestSnapshot_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "组织A", "org-a", models.OrgKindFestival, nil)
	other := seedOrg(t, db, "组织B", "org-b", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	seedDonation(t, db, org.ID, "100.00", models.DonationCategoryGeneral)
	seedDonation(t, db, other.ID, "88888.00", models.DonationCategoryGeneral)
	seedExpense(t, db, other.ID, "77777.00", models.ExpenseStatusApproved, nil)

	snapshot, err := svc.Snapshot(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.GeneralFunds.Equal(mustDecimal("100.00")))
	assert.True(t, snapshot.ApprovedExpenses.IsZero())
}

func TestEventBreakdown(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)
	org := seedOrg(t, db, "组织", "org-a", models.OrgKindFestival, nil)
	seedMember(t, db, org.ID, 1, "member@example.com", models.RoleVolunteer)

	budgeted := seedEvent(t, db, org.ID, "文化晚会", strPtr("1000.00"), models.EventStatusActive)
	unbudgeted := seedEvent(t, db, org.ID, "清洁日", nil, models.EventStatusActive)
	seedEvent(t, db, org.ID, "已取消", strPtr("500.00"), models.EventStatusCancelled)

	seedExpense(t, db, org.ID, "250.00", models.ExpenseStatusApproved, &budgeted.ID)
	seedExpense(t, db, org.ID, "400.00", models.ExpenseStatusPending, &budgeted.ID)
	seedExpense(t, db, org.ID, "80.00", models.ExpenseStatusApproved, &unbudgeted.ID)

	breakdown, err := svc.EventBreakdown(gateFor(db, 1, "member@example.com"), org.ID)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)

	byID := make(map[uint]EventBudget, len(breakdown))
	for _, b := range breakdown {
		byID[b.EventID] = b
	}

	b := byID[budgeted.ID]
	assert.True(t, b.ApprovedExpenses.Equal(mustDecimal("250.00")))
	assert.True(t, b.Remaining.Equal(mustDecimal("750.00")))
	assert.True(t, b.UtilizationRate.Equal(decimal.NewFromInt(25)))
	assert.False(t, b.IsOverspent)

	// 未设预算的活动即使有支出，利用率也按策略固定报 0
	u := byID[unbudgeted.ID]
	assert.True(t, u.ApprovedExpenses.Equal(mustDecimal("80.00")))
	assert.True(t, u.UtilizationRate.IsZero())
	assert.False(t, u.IsOverspent)
}
