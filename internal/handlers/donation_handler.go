package handlers

import (
	"samiti/internal/services"
	"samiti/pkg/pagination"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// DonationHandler 捐款处理器
type DonationHandler struct {
	service *services.DonationService
}

func NewDonationHandler(service *services.DonationService) *DonationHandler {
	return &DonationHandler{service: service}
}

// Create 登记捐款
func (h *DonationHandler) Create(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	donation, err := h.service.Create(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "捐款登记成功", donation)
}

// List 分页列出捐款
func (h *DonationHandler) List(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	params := pagination.ParsePageParams(c)
	donations, total, err := h.service.List(newGate(c), tenantID, c.Query("category"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, donations, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Archive 归档捐款记录
func (h *DonationHandler) Archive(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	donationID, ok := parseIDParam(c, "donation_id")
	if !ok {
		return
	}

	if err := h.service.Archive(newGate(c), tenantID, donationID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "捐款记录已归档", nil)
}
