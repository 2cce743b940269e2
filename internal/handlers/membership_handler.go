package handlers

import (
	"samiti/internal/middleware"
	"samiti/internal/services"
	"samiti/pkg/pagination"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// MembershipHandler 成员处理器
type MembershipHandler struct {
	service *services.MembershipService
}

func NewMembershipHandler(service *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// List 分页列出成员
func (h *MembershipHandler) List(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	params := pagination.ParsePageParams(c)
	members, total, err := h.service.List(newGate(c), tenantID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, members, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Invite 按邮箱邀请成员
func (h *MembershipHandler) Invite(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	member, err := h.service.Invite(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "邀请已创建", member)
}

// AcceptInvite 接受邀请
func (h *MembershipHandler) AcceptInvite(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	member, err := h.service.AcceptInvite(middleware.CurrentPrincipal(c), req.Token)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已加入组织", member)
}

// ChangeRole 变更成员角色
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "member_id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.ChangeRole(newGate(c), tenantID, memberID, req.Role); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "角色已更新", nil)
}

// Archive 归档成员
func (h *MembershipHandler) Archive(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "member_id")
	if !ok {
		return
	}

	if err := h.service.Archive(newGate(c), tenantID, memberID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "成员已归档", nil)
}
