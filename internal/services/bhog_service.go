package services

import (
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

// BhogService 供品清单服务
type BhogService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewBhogService(db *gorm.DB) *BhogService {
	return &BhogService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// RegisterBhogRequest 登记供品请求
type RegisterBhogRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	EventID  *uint  `json:"event_id"`
	Note     string `json:"note"`
}

// Register 登记供品。同名供品走插入或更新：插入分支注入租户ID，
// 更新分支只覆盖数量、单位、备注和认领人。
func (s *BhogService) Register(gate *access.Gate, tenantID uint, req *RegisterBhogRequest) (*models.BhogItem, error) {
	cap, err := gate.Authorize(tenantID)
	if err != nil {
		return nil, err
	}

	nameLen := utf8.RuneCountInString(req.Name)
	if nameLen == 0 || nameLen > 100 {
		return nil, apperrors.NewValidationError("name", "供品名称长度必须在1-100个字符之间")
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	item := &models.BhogItem{
		Name:     req.Name,
		Quantity: quantity,
		Unit:     req.Unit,
		EventID:  req.EventID,
		MemberID: cap.Member.ID,
		Note:     req.Note,
	}
	err = store.Upsert(item,
		[]string{"tenant_id", "name"},
		[]string{"quantity", "unit", "note", "member_id", "event_id"})
	if err != nil {
		return nil, err
	}

	if err := store.First(item, "name = ?", req.Name); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"name":      item.Name,
		"quantity":  item.Quantity,
	}).Info("供品登记完成")
	return item, nil
}

// List 分页列出供品
func (s *BhogService) List(gate *access.Gate, tenantID uint, params *pagination.PageParams) ([]*models.BhogItem, int64, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, 0, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, 0, err
	}

	var items []*models.BhogItem
	total, err := store.Page(&items, nil, nil, "name ASC", params.Offset(), params.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Archive 归档供品，仅限管理员和委员
func (s *BhogService) Archive(gate *access.Gate, tenantID, itemID uint) error {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleCommitteeMember); err != nil {
		return err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Archive(&models.BhogItem{}, "id = ?", itemID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
