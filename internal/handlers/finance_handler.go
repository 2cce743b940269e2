package handlers

import (
	"samiti/internal/services"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// FinanceHandler 财务聚合处理器
type FinanceHandler struct {
	service *services.FinanceService
}

func NewFinanceHandler(service *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: service}
}

// Snapshot 获取组织流动性快照
func (h *FinanceHandler) Snapshot(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	snapshot, err := h.service.Snapshot(newGate(c), tenantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// EventBreakdown 按活动拆分预算执行情况
func (h *FinanceHandler) EventBreakdown(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	breakdown, err := h.service.EventBreakdown(newGate(c), tenantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, breakdown)
}
