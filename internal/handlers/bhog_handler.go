package handlers

import (
	"samiti/internal/services"
	"samiti/pkg/pagination"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// BhogHandler 供品清单处理器
type BhogHandler struct {
	service *services.BhogService
}

func NewBhogHandler(service *services.BhogService) *BhogHandler {
	return &BhogHandler{service: service}
}

// Register 登记供品（同名供品覆盖数量等字段）
func (h *BhogHandler) Register(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.RegisterBhogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	item, err := h.service.Register(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "供品登记成功", item)
}

// List 分页列出供品
func (h *BhogHandler) List(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	params := pagination.ParsePageParams(c)
	items, total, err := h.service.List(newGate(c), tenantID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Archive 归档供品
func (h *BhogHandler) Archive(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	if err := h.service.Archive(newGate(c), tenantID, itemID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "供品已归档", nil)
}
