package database

import (
	"sync"

	"samiti/pkg/config"
	"samiti/pkg/queue"
)

var (
	notifyQueueInstance *queue.NotifyQueue
	notifyQueueOnce     sync.Once
)

// GetNotifyQueue 获取通知队列的单例实例
func GetNotifyQueue() *queue.NotifyQueue {
	notifyQueueOnce.Do(func() {
		cfg := config.GetConfig()
		notifyQueueInstance = queue.NewNotifyQueue(&queue.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return notifyQueueInstance
}

// CloseNotifyQueue 关闭Redis连接
func CloseNotifyQueue() error {
	if notifyQueueInstance != nil {
		return notifyQueueInstance.Close()
	}
	return nil
}
