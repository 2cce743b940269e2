package handlers

import (
	"samiti/internal/services"
	"samiti/pkg/pagination"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create 创建任务
func (h *TaskHandler) Create(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	task, err := h.service.Create(newGate(c), tenantID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "任务创建成功", task)
}

// List 分页列出任务
func (h *TaskHandler) List(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	params := pagination.ParsePageParams(c)
	tasks, total, err := h.service.List(newGate(c), tenantID, c.Query("status"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, tasks, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// UpdateStatus 更新任务状态
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.UpdateStatus(newGate(c), tenantID, taskID, req.Status); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "任务状态已更新", nil)
}

// Archive 归档任务
func (h *TaskHandler) Archive(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	if err := h.service.Archive(newGate(c), tenantID, taskID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "任务已归档", nil)
}
