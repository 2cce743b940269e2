package services

import (
	"time"
	"unicode/utf8"

	"samiti/internal/access"
	"samiti/internal/models"
	"samiti/internal/tenantdb"
	apperrors "samiti/pkg/errors"
	"samiti/pkg/logger"
	"samiti/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExpenseService 支出服务，包含审批状态机。
// 审批是本系统唯一有并发竞争风险的多步操作：两个财务同时审批
// 同一笔待审支出时，必须恰好一人成功、另一人得到确定性的失败。
type ExpenseService struct {
	db       *gorm.DB
	log      *logrus.Logger
	notifier *Notifier
}

func NewExpenseService(db *gorm.DB, notifier *Notifier) *ExpenseService {
	return &ExpenseService{
		db:       db,
		log:      logger.GetLogger(),
		notifier: notifier,
	}
}

// CreateExpenseRequest 创建支出请求
type CreateExpenseRequest struct {
	Title   string `json:"title" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
	EventID *uint  `json:"event_id"`
	Note    string `json:"note"`
}

// Create 提交支出，任何成员可提交，初始状态为 pending
func (s *ExpenseService) Create(gate *access.Gate, tenantID uint, req *CreateExpenseRequest) (*models.Expense, error) {
	cap, err := gate.Authorize(tenantID)
	if err != nil {
		return nil, err
	}

	amount, err := parseRequiredAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	titleLen := utf8.RuneCountInString(req.Title)
	if titleLen == 0 || titleLen > 200 {
		return nil, apperrors.NewValidationError("title", "支出名称长度必须在1-200个字符之间")
	}
	if utf8.RuneCountInString(req.Note) > 500 {
		return nil, apperrors.NewValidationError("note", "备注长度不能超过500个字符")
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	// 关联活动必须存在于本组织内
	if req.EventID != nil {
		var event models.Event
		if err := store.First(&event, "id = ?", *req.EventID); err != nil {
			return nil, apperrors.NewValidationError("event_id", "关联的活动不存在")
		}
	}

	expense := &models.Expense{
		Title:    req.Title,
		Amount:   amount,
		Status:   models.ExpenseStatusPending,
		EventID:  req.EventID,
		MemberID: cap.Member.ID,
		Note:     req.Note,
	}
	if err := store.Create(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// List 分页列出支出，可按状态过滤
func (s *ExpenseService) List(gate *access.Gate, tenantID uint, status string, params *pagination.PageParams) ([]*models.Expense, int64, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, 0, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, 0, err
	}

	var query interface{}
	var args []interface{}
	if status != "" {
		query = "status = ?"
		args = []interface{}{status}
	}

	var expenses []*models.Expense
	total, err := store.Page(&expenses, query, args, "created_at DESC", params.Offset(), params.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// Approve 审批通过。见 decide。
func (s *ExpenseService) Approve(gate *access.Gate, tenantID, expenseID uint) (*models.Expense, error) {
	return s.decide(gate, tenantID, expenseID, models.ExpenseStatusApproved)
}

// Reject 审批驳回。见 decide。
func (s *ExpenseService) Reject(gate *access.Gate, tenantID, expenseID uint) (*models.Expense, error) {
	return s.decide(gate, tenantID, expenseID, models.ExpenseStatusRejected)
}

// decide 审批状态迁移：pending -> approved / rejected。
// 单条条件更新，WHERE 子句编码了成功的前置条件（id、租户、
// status = pending、未归档），影响行数是唯一的成功信号。
// 并发审批时只有一个事务能观察到 pending 并赢得更新，
// 输家拿到 ErrAlreadyProcessedOrMissing，不会覆盖赢家的决定。
// 禁止改写成先读后写。
func (s *ExpenseService) decide(gate *access.Gate, tenantID, expenseID uint, status string) (*models.Expense, error) {
	cap, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleTreasurer)
	if err != nil {
		return nil, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	affected, err := store.Updates(&models.Expense{},
		"id = ? AND status = ?", []interface{}{expenseID, models.ExpenseStatusPending},
		map[string]interface{}{
			"status":         status,
			"approved_by_id": cap.Member.ID,
			"approved_at":    now,
		})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// 记录不存在、不属于本租户、已归档或已被处理——对调用方而言结果相同
		return nil, apperrors.ErrAlreadyProcessedOrMissing
	}

	var expense models.Expense
	if err := store.First(&expense, "id = ?", expenseID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"expense_id": expenseID,
		"status":     status,
		"approver":   cap.Member.ID,
	}).Info("支出审批完成")

	notifyType := NotifyExpenseApproved
	if status == models.ExpenseStatusRejected {
		notifyType = NotifyExpenseRejected
	}
	s.notifier.Notify(tenantID, cap.Member.ID, notifyType, expense.Title, map[string]interface{}{
		"expense_id": expense.ID,
		"amount":     expense.Amount.String(),
		"status":     status,
	})

	return &expense, nil
}

// Archive 归档支出，仅限管理员和财务。已审批的支出也可归档，
// 归档只影响统计口径，不改变审批终态。
func (s *ExpenseService) Archive(gate *access.Gate, tenantID, expenseID uint) error {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleTreasurer); err != nil {
		return err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Archive(&models.Expense{}, "id = ?", expenseID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// parseRequiredAmount 解析必填金额，必须为正数
func parseRequiredAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("amount", "金额格式错误: "+raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, apperrors.NewValidationError("amount", "金额必须大于0")
	}
	return d, nil
}
