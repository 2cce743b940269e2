package handlers

import (
	"samiti/internal/middleware"
	"samiti/internal/services"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrganizationHandler 组织处理器
type OrganizationHandler struct {
	service *services.OrganizationService
}

func NewOrganizationHandler(service *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// Create 创建组织（创建人自动成为管理员）
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req services.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	org, err := h.service.Bootstrap(middleware.CurrentPrincipal(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "组织创建成功", org)
}

// Get 获取组织信息
func (h *OrganizationHandler) Get(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	org, err := h.service.Get(newGate(c), tenantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, org)
}

// Update 更新组织信息
func (h *OrganizationHandler) Update(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	org, err := h.service.Update(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, org)
}

// ListMine 列出当前用户加入的组织
func (h *OrganizationHandler) ListMine(c *gin.Context) {
	orgs, err := h.service.ListForPrincipal(middleware.CurrentPrincipal(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, orgs)
}
