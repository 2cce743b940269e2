package services

import (
	"samiti/internal/access"
	"samiti/internal/models"
	"samiti/internal/tenantdb"
	"samiti/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FinanceService 财务聚合服务。
// 全程使用精确十进制运算，到最终展示前绝不转浮点。
// 所有数据都经由租户作用域存储读取。
type FinanceService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewFinanceService(db *gorm.DB) *FinanceService {
	return &FinanceService{
		db:  db,
		log: logger.GetLogger(),
	}
}

var hundred = decimal.NewFromInt(100)

// LiquiditySnapshot 组织级流动性快照
type LiquiditySnapshot struct {
	GeneralFunds     decimal.Decimal `json:"general_funds"`     // 一般捐款合计
	Sponsorships     decimal.Decimal `json:"sponsorships"`      // 赞助合计（单独核算）
	ApprovedExpenses decimal.Decimal `json:"approved_expenses"` // 已审批支出合计
	PendingExpenses  decimal.Decimal `json:"pending_expenses"`  // 待审批支出合计
	TotalAvailable   decimal.Decimal `json:"total_available"`   // 可用资金（按组织类型计算）
	Remaining        decimal.Decimal `json:"remaining"`         // 余额，可为负（表示超支）
	UtilizationRate  decimal.Decimal `json:"utilization_rate"`  // 利用率（百分比）
	IsOverspent      bool            `json:"is_overspent"`      // 利用率 > 100
}

// EventBudget 单个活动的预算执行情况
type EventBudget struct {
	EventID          uint            `json:"event_id"`
	Name             string          `json:"name"`
	BudgetTarget     decimal.Decimal `json:"budget_target"`
	ApprovedExpenses decimal.Decimal `json:"approved_expenses"`
	Remaining        decimal.Decimal `json:"remaining"`
	UtilizationRate  decimal.Decimal `json:"utilization_rate"`
	IsOverspent      bool            `json:"is_overspent"`
}

// Snapshot 计算组织流动性快照，任何成员可查看
func (s *FinanceService) Snapshot(gate *access.Gate, tenantID uint) (*LiquiditySnapshot, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, err
	}
	return s.snapshotFor(tenantID)
}

// snapshotFor 快照计算本体。未导出：除门禁保护的 Snapshot 外，
// 只有进程内定时任务可以直接调用。
func (s *FinanceService) snapshotFor(tenantID uint) (*LiquiditySnapshot, error) {
	var org models.Organization
	if err := s.db.First(&org, tenantID).Error; err != nil {
		return nil, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	// 捐款按类别分仓：赞助单独核算，其余计入一般资金
	var donations []models.Donation
	if err := store.Find(&donations); err != nil {
		return nil, err
	}
	general := decimal.Zero
	sponsorships := decimal.Zero
	for _, d := range donations {
		if d.Category == models.DonationCategorySponsorship {
			sponsorships = sponsorships.Add(d.Amount)
		} else {
			general = general.Add(d.Amount)
		}
	}

	var expenses []models.Expense
	if err := store.Find(&expenses, "status IN ?",
		[]string{models.ExpenseStatusApproved, models.ExpenseStatusPending}); err != nil {
		return nil, err
	}
	approved := decimal.Zero
	pending := decimal.Zero
	for _, e := range expenses {
		switch e.Status {
		case models.ExpenseStatusApproved:
			approved = approved.Add(e.Amount)
		case models.ExpenseStatusPending:
			pending = pending.Add(e.Amount)
		}
	}

	// 可用资金口径随组织类型变化：
	// festival: 一般捐款 + 赞助
	// club:     预算目标 + 一般捐款 + 赞助（赞助单独核算，
	//           俱乐部的"划拨"口径只含预算目标加一般捐款）
	total := general.Add(sponsorships)
	if org.Kind == models.OrgKindClub && org.BudgetTarget != nil {
		total = total.Add(*org.BudgetTarget)
	}

	snapshot := &LiquiditySnapshot{
		GeneralFunds:     general,
		Sponsorships:     sponsorships,
		ApprovedExpenses: approved,
		PendingExpenses:  pending,
		TotalAvailable:   total,
		Remaining:        total.Sub(approved),
		UtilizationRate:  utilization(approved, total),
	}
	snapshot.IsOverspent = snapshot.UtilizationRate.GreaterThan(hundred)
	return snapshot, nil
}

// EventBreakdown 按活动拆分预算执行情况，任何成员可查看
func (s *FinanceService) EventBreakdown(gate *access.Gate, tenantID uint) ([]EventBudget, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	if err := store.Find(&events, "status = ?", models.EventStatusActive); err != nil {
		return nil, err
	}

	breakdown := make([]EventBudget, 0, len(events))
	for _, event := range events {
		var expenses []models.Expense
		if err := store.Find(&expenses, "event_id = ? AND status = ?",
			event.ID, models.ExpenseStatusApproved); err != nil {
			return nil, err
		}
		spent := decimal.Zero
		for _, e := range expenses {
			spent = spent.Add(e.Amount)
		}

		target := decimal.Zero
		if event.BudgetTarget != nil {
			target = *event.BudgetTarget
		}

		// 未设预算的活动利用率按策略固定报 0，即使有支出。
		// 这会掩盖无预算活动的真实超支，与来源系统保持一致，
		// 口径调整需要产品决策而不是在这里顺手"修复"。
		rate := utilization(spent, target)

		breakdown = append(breakdown, EventBudget{
			EventID:          event.ID,
			Name:             event.Name,
			BudgetTarget:     target,
			ApprovedExpenses: spent,
			Remaining:        target.Sub(spent),
			UtilizationRate:  rate,
			IsOverspent:      rate.GreaterThan(hundred),
		})
	}
	return breakdown, nil
}

// utilization 利用率（百分比）。分母为零时按策略定义为 0，
// 不是 100，也不是 NaN 或无穷。
func utilization(spent, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return spent.Div(total).Mul(hundred)
}
