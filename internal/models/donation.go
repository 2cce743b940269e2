package models

import (
	"github.com/shopspring/decimal"
)

// Donation 捐款记录。金额使用精确十进制，严禁浮点。
type Donation struct {
	TenantModel
	DonorName string          `json:"donor_name" gorm:"not null;size:100"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Category  string          `json:"category" gorm:"size:30;not null;default:'general'"`
	Note      string          `json:"note" gorm:"size:500"`
	MemberID  uint            `json:"member_id"` // 登记人成员ID
}

// TableName 表名
func (Donation) TableName() string {
	return "donations"
}

// 捐款类别常量。sponsorship 与一般资金分开核算：
// 俱乐部类型组织的"划拨"口径只含预算目标加一般捐款。
const (
	DonationCategoryGeneral     = "general"
	DonationCategorySponsorship = "sponsorship"
	DonationCategoryBhog        = "bhog"
	DonationCategoryOther       = "other"
)

// IsValidDonationCategory 检查捐款类别是否合法
func IsValidDonationCategory(category string) bool {
	switch category {
	case DonationCategoryGeneral, DonationCategorySponsorship, DonationCategoryBhog, DonationCategoryOther:
		return true
	}
	return false
}
