package models

import (
	"time"

	"gorm.io/datatypes"
)

// Task 志愿任务模型
type Task struct {
	TenantModel
	Title      string         `json:"title" gorm:"not null;size:200"`
	Status     string         `json:"status" gorm:"size:20;not null;default:'pending';index"`
	AssigneeID *uint          `json:"assignee_id" gorm:"index"` // 负责人成员ID
	EventID    *uint          `json:"event_id" gorm:"index"`
	DueAt      *time.Time     `json:"due_at"`
	Detail     datatypes.JSON `json:"detail,omitempty"` // 自由格式的任务明细
}

// TableName 表名
func (Task) TableName() string {
	return "tasks"
}

// 任务状态常量
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// IsValidTaskStatus 检查任务状态是否合法
func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}
