package handlers

import (
	"samiti/internal/services"
	"samiti/pkg/pagination"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// EventHandler 活动处理器
type EventHandler struct {
	service *services.EventService
}

func NewEventHandler(service *services.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// Create 创建活动
func (h *EventHandler) Create(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event, err := h.service.Create(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "活动创建成功", event)
}

// List 分页列出活动
func (h *EventHandler) List(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	params := pagination.ParsePageParams(c)
	events, total, err := h.service.List(newGate(c), tenantID, c.Query("status"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, events, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新活动
func (h *EventHandler) Update(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event, err := h.service.Update(newGate(c), tenantID, eventID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, event)
}

// Archive 归档活动
func (h *EventHandler) Archive(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	if err := h.service.Archive(newGate(c), tenantID, eventID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "活动已归档", nil)
}
