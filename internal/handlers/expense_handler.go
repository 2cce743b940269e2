package handlers

import (
	"samiti/internal/services"
	"samiti/pkg/pagination"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 支出处理器
type ExpenseHandler struct {
	service *services.ExpenseService
}

func NewExpenseHandler(service *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// Create 提交支出
func (h *ExpenseHandler) Create(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	expense, err := h.service.Create(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "支出已提交，等待审批", expense)
}

// List 分页列出支出
func (h *ExpenseHandler) List(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	params := pagination.ParsePageParams(c)
	expenses, total, err := h.service.List(newGate(c), tenantID, c.Query("status"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, expenses, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Approve 审批通过
func (h *ExpenseHandler) Approve(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	expenseID, ok := parseIDParam(c, "expense_id")
	if !ok {
		return
	}

	expense, err := h.service.Approve(newGate(c), tenantID, expenseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "审批通过", expense)
}

// Reject 审批驳回
func (h *ExpenseHandler) Reject(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	expenseID, ok := parseIDParam(c, "expense_id")
	if !ok {
		return
	}

	expense, err := h.service.Reject(newGate(c), tenantID, expenseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已驳回", expense)
}

// Archive 归档支出
func (h *ExpenseHandler) Archive(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	expenseID, ok := parseIDParam(c, "expense_id")
	if !ok {
		return
	}

	if err := h.service.Archive(newGate(c), tenantID, expenseID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "支出已归档", nil)
}
