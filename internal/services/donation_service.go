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

// DonationService 捐款服务
type DonationService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewDonationService(db *gorm.DB) *DonationService {
	return &DonationService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// CreateDonationRequest 登记捐款请求
type CreateDonationRequest struct {
	DonorName string `json:"donor_name" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Category  string `json:"category"`
	Note      string `json:"note"`
}

// Create 登记捐款，志愿者以外的成员均可登记
func (s *DonationService) Create(gate *access.Gate, tenantID uint, req *CreateDonationRequest) (*models.Donation, error) {
	cap, err := gate.Authorize(tenantID,
		models.RoleAdmin, models.RoleTreasurer, models.RoleCommitteeMember)
	if err != nil {
		return nil, err
	}

	amount, err := parseRequiredAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	nameLen := utf8.RuneCountInString(req.DonorName)
	if nameLen == 0 || nameLen > 100 {
		return nil, apperrors.NewValidationError("donor_name", "捐款人姓名长度必须在1-100个字符之间")
	}

	category := req.Category
	if category == "" {
		category = models.DonationCategoryGeneral
	}
	if !models.IsValidDonationCategory(category) {
		return nil, apperrors.NewValidationError("category", "非法的捐款类别: "+category)
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, err
	}

	donation := &models.Donation{
		DonorName: req.DonorName,
		Amount:    amount,
		Category:  category,
		Note:      req.Note,
		MemberID:  cap.Member.ID,
	}
	if err := store.Create(donation); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"amount":    amount.String(),
		"category":  category,
	}).Info("捐款登记完成")

	return donation, nil
}

// List 分页列出捐款，可按类别过滤
func (s *DonationService) List(gate *access.Gate, tenantID uint, category string, params *pagination.PageParams) ([]*models.Donation, int64, error) {
	if _, err := gate.Authorize(tenantID); err != nil {
		return nil, 0, err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return nil, 0, err
	}

	var query interface{}
	var args []interface{}
	if category != "" {
		query = "category = ?"
		args = []interface{}{category}
	}

	var donations []*models.Donation
	total, err := store.Page(&donations, query, args, "created_at DESC", params.Offset(), params.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

// Archive 归档捐款记录（登记错误时的订正手段），仅限管理员和财务
func (s *DonationService) Archive(gate *access.Gate, tenantID, donationID uint) error {
	if _, err := gate.Authorize(tenantID, models.RoleAdmin, models.RoleTreasurer); err != nil {
		return err
	}

	store, err := tenantdb.ForTenant(s.db, tenantID)
	if err != nil {
		return err
	}

	affected, err := store.Archive(&models.Donation{}, "id = ?", donationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
