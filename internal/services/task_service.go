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

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskService 志愿任务服务
type TaskService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title      string         `json:"title" binding:"required"`
	AssigneeID *uint          `json:"assignee_id"`
	EventID    *uint          `json:"event_id"`
	DueAt      *time.Time     `json:"due_at"`
	Detail     datatypes.JSON `json:"detail"`
}

// Create 创建任务，仅限管理员和委员
func (s *TaskService) Create(gate *access.Gate, tenantID uint, req *CreateTaskRequest) (*models.Task, error) {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleCommitteeMember); err != nil {
		return nil, err
	}

	titleLen := utf8.RuneCountInString(req.Title)
	if titleLen == 0 || titleLen > 200 {
		return nil, apperrors.NewValidationError("title", "任务标题长度必须在1-200个字符之间")
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	// 负责人必须是本组织的活跃成员
	if req.AssigneeID != nil {
		var member models.Membership
		if err := store.First(&member, "id = ?", *req.AssigneeID); err != nil {
			return nil, apperrors.NewValidationError("assignee_id", "负责人不是本组织成员")
		}
	}

	task := &models.Task{
		Title:      req.Title,
		Status:     models.TaskStatusPending,
		AssigneeID: req.AssigneeID,
		EventID:    req.EventID,
		DueAt:      req.DueAt,
		Detail:     req.Detail,
	}
	if err := store.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

// List 分页列出任务，可按状态过滤
func (s *TaskService) List(gate *access.Gate, tenantID uint, status string, params *pagination.PageParams) ([]*models.Task, int64, error) {
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

	var tasks []*models.Task
	total, err := store.Page(&tasks, query, args, "due_at ASC", params.Offset(), params.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// UpdateStatus 更新任务状态，任何成员都可推进自己负责的任务，
// 管理员和委员可推进任意任务
func (s *TaskService) UpdateStatus(gate *access.Gate, tenantID, taskID uint, status string) error {
	cap, err := gate.Authorize(tenantID)
	if err != nil {
		return err
	}
	if !models.IsValidTaskStatus(status) {
		return apperrors.NewValidationError("status", "非法的任务状态: "+status)
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	query := "id = ?"
	args := []interface{}{taskID}
	if cap.Member.Role != models.RoleAdmin && cap.Member.Role != models.RoleCommitteeMember {
		query = "id = ? AND assignee_id = ?"
		args = append(args, cap.Member.ID)
	}

	affected, err := store.Updates(&models.Task{}, query, args,
		map[string]interface{}{"status": status})
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"task_id":   taskID,
		"status":    status,
	}).Info("任务状态已更新")
	return nil
}

// Archive 归档任务，仅限管理员和委员
func (s *TaskService) Archive(gate *access.Gate, tenantID, taskID uint) error {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleCommitteeMember); err != nil {
		return err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Archive(&models.Task{}, "id = ?", taskID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
