package services

import (
	"fmt"

	"samiti/pkg/config"
	"samiti/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SnapshotScheduler 财务快照定时任务。
// 按配置的cron表达式为每个活跃组织计算一次流动性快照并记录日志，
// 超支组织以警告级别输出，便于运营跟进。
type SnapshotScheduler struct {
	cron    *cron.Cron
	log     *logrus.Logger
	orgs    *OrganizationService
	finance *FinanceService
}

func NewSnapshotScheduler(db *gorm.DB) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:    cron.New(),
		log:     logger.GetLogger(),
		orgs:    NewOrganizationService(db),
		finance: NewFinanceService(db),
	}
}

// Start 启动定时任务
func (s *SnapshotScheduler) Start() error {
	cfg := config.GetConfig()
	if !cfg.Snapshot.Enabled {
		s.log.Info("财务快照定时任务未启用")
		return nil
	}

	_, err := s.cron.AddFunc(cfg.Snapshot.Cron, s.run)
	if err != nil {
		return fmt.Errorf("注册财务快照任务失败: %v", err)
	}

	s.cron.Start()
	s.log.Infof("财务快照定时任务已启动: %s", cfg.Snapshot.Cron)
	return nil
}

// Stop 停止定时任务
func (s *SnapshotScheduler) Stop() {
	s.cron.Stop()
}

// run 执行一轮快照
func (s *SnapshotScheduler) run() {
	orgs, err := s.orgs.listActive()
	if err != nil {
		s.log.Errorf("财务快照：获取活跃组织失败: %v", err)
		return
	}

	for _, org := range orgs {
		snapshot, err := s.finance.snapshotFor(org.ID)
		if err != nil {
			s.log.Errorf("财务快照：组织 %d 计算失败: %v", org.ID, err)
			continue
		}

		entry := s.log.WithFields(logrus.Fields{
			"tenant_id":         org.ID,
			"slug":              org.Slug,
			"total_available":   snapshot.TotalAvailable.String(),
			"approved_expenses": snapshot.ApprovedExpenses.String(),
			"remaining":         snapshot.Remaining.String(),
			"utilization":       snapshot.UtilizationRate.Round(2).String(),
		})
		if snapshot.IsOverspent {
			entry.Warn("组织已超支")
		} else {
			entry.Info("财务快照")
		}
	}
}
