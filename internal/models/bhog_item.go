package models

// BhogItem 供品清单项（节庆组织的祭祀供品登记）
type BhogItem struct {
	TenantModel
	Name     string `json:"name" gorm:"not null;size:100"`
	Quantity int    `json:"quantity" gorm:"not null;default:1"`
	Unit     string `json:"unit" gorm:"size:20"`
	EventID  *uint  `json:"event_id" gorm:"index"`
	MemberID uint   `json:"member_id"` // 认领人成员ID
	Note     string `json:"note" gorm:"size:500"`
}

// TableName 表名
func (BhogItem) TableName() string {
	return "bhog_items"
}
