package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NotifyQueue 基于Redis的通知队列。
// 写入列表供邮件等后台投递方消费，同时按租户频道发布一份供在线推送。
type NotifyQueue struct {
	client *redis.Client
	prefix string
}

// Notification 队列中的通知消息
type Notification struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`      // expense_approved / expense_rejected / member_invited ...
	TenantID uint                   `json:"tenant_id"` // 所属组织
	ActorID  uint                   `json:"actor_id"`  // 触发人（成员ID）
	Title    string                 `json:"title"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
	Created  int64                  `json:"created"`
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewNotifyQueue 创建通知队列实例
func NewNotifyQueue(config *Config) *NotifyQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "samiti:notify"
	}

	return &NotifyQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *NotifyQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *NotifyQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

// GetClient 获取底层Redis客户端
func (q *NotifyQueue) GetClient() *redis.Client {
	return q.client
}

// queueKey 投递队列键
func (q *NotifyQueue) queueKey() string {
	return q.prefix + ":pending"
}

// channelKey 按租户划分的发布频道
func (q *NotifyQueue) channelKey(tenantID uint) string {
	return fmt.Sprintf("%s:tenant:%d", q.prefix, tenantID)
}

// Enqueue 通知入队并发布到租户频道
func (q *NotifyQueue) Enqueue(n *Notification) error {
	ctx := context.Background()

	if n.Created == 0 {
		n.Created = time.Now().Unix()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("序列化通知失败: %v", err)
	}

	if err := q.client.LPush(ctx, q.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("通知入队失败: %v", err)
	}

	// 发布失败不影响入队结果，在线推送是尽力而为
	q.client.Publish(ctx, q.channelKey(n.TenantID), data)

	return nil
}

// Subscribe 订阅某个租户的通知频道
func (q *NotifyQueue) Subscribe(ctx context.Context, tenantID uint) *redis.PubSub {
	return q.client.Subscribe(ctx, q.channelKey(tenantID))
}

// QueueLength 获取待投递队列长度
func (q *NotifyQueue) QueueLength() (int64, error) {
	ctx := context.Background()
	return q.client.LLen(ctx, q.queueKey()).Result()
}
