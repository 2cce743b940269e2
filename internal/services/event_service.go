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
	"gorm.io/gorm"
)

// EventService 活动服务
type EventService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Name         string     `json:"name" binding:"required"`
	Description  string     `json:"description"`
	BudgetTarget *string    `json:"budget_target"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
}

// UpdateEventRequest 更新活动请求
type UpdateEventRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	BudgetTarget *string `json:"budget_target"`
	Status       string  `json:"status"`
}

// Create 创建活动，仅限管理员和委员
func (s *EventService) Create(gate *access.Gate, tenantID uint, req *CreateEventRequest) (*models.Event, error) {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleCommitteeMember); err != nil {
		return nil, err
	}

	nameLen := utf8.RuneCountInString(req.Name)
	if nameLen == 0 || nameLen > 100 {
		return nil, apperrors.NewValidationError("name", "活动名称长度必须在1-100个字符之间")
	}
	budgetTarget, err := parseOptionalAmount(req.BudgetTarget, "budget_target")
	if err != nil {
		return nil, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:         req.Name,
		Description:  req.Description,
		BudgetTarget: budgetTarget,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Status:       models.EventStatusActive,
	}
	if err := store.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

// List 分页列出活动
func (s *EventService) List(gate *access.Gate, tenantID uint, status string, params *pagination.PageParams) ([]*models.Event, int64, error) {
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

	var events []*models.Event
	total, err := store.Page(&events, query, args, "start_at ASC", params.Offset(), params.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Update 更新活动，仅限管理员和委员。
// 更新走作用域存储的条件更新：载荷里即使混进 tenant_id 也会被剥除。
func (s *EventService) Update(gate *access.Gate, tenantID, eventID uint, req *UpdateEventRequest) (*models.Event, error) {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleCommitteeMember); err != nil {
		return nil, err
	}

	values := map[string]interface{}{}
	if req.Name != "" {
		if utf8.RuneCountInString(req.Name) > 100 {
			return nil, apperrors.NewValidationError("name", "活动名称长度不能超过100个字符")
		}
		values["name"] = req.Name
	}
	if req.Description != nil {
		values["description"] = *req.Description
	}
	if req.BudgetTarget != nil {
		budgetTarget, err := parseOptionalAmount(req.BudgetTarget, "budget_target")
		if err != nil {
			return nil, err
		}
		values["budget_target"] = budgetTarget
	}
	if req.Status != "" {
		switch req.Status {
		case models.EventStatusActive, models.EventStatusCompleted, models.EventStatusCancelled:
			values["status"] = req.Status
		default:
			return nil, apperrors.NewValidationError("status", "非法的活动状态: "+req.Status)
		}
	}
	if len(values) == 0 {
		return nil, apperrors.NewValidationError("body", "没有需要更新的字段")
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	affected, err := store.Updates(&models.Event{}, "id = ?", []interface{}{eventID}, values)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var event models.Event
	if err := store.First(&event, "id = ?", eventID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"event_id":  eventID,
	}).Info("活动已更新")
	return &event, nil
}

// Archive 归档活动，仅限管理员
func (s *EventService) Archive(gate *access.Gate, tenantID, eventID uint) error {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin); err != nil {
		return err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Archive(&models.Event{}, "id = ?", eventID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
