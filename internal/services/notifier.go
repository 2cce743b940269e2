package services

import (
	"samiti/pkg/logger"
	"samiti/pkg/queue"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 通知类型常量
const (
	NotifyExpenseApproved = "expense_approved"
	NotifyExpenseRejected = "expense_rejected"
	NotifyMemberInvited   = "member_invited"
)

// Notifier 通知分发器。包装Redis通知队列，队列不可用时退化为空操作：
// 通知是尽力而为，不允许影响业务写入的结果。
type Notifier struct {
	queue *queue.NotifyQueue
	log   *logrus.Logger
}

func NewNotifier(q *queue.NotifyQueue) *Notifier {
	return &Notifier{
		queue: q,
		log:   logger.GetLogger(),
	}
}

// Notify 通知入队，失败仅记录日志
func (n *Notifier) Notify(tenantID, actorID uint, notifyType, title string, payload map[string]interface{}) {
	if n == nil || n.queue == nil {
		return
	}

	err := n.queue.Enqueue(&queue.Notification{
		ID:       uuid.NewString(),
		Type:     notifyType,
		TenantID: tenantID,
		ActorID:  actorID,
		Title:    title,
		Payload:  payload,
	})
	if err != nil {
		n.log.Errorf("通知入队失败 type=%s tenant=%d: %v", notifyType, tenantID, err)
	}
}
