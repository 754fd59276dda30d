/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-02-11 21:45:30
 * @LastEditTime: 2026-02-11 21:45:30
 * @LastEditors: 安知鱼
 */
package task

import (
	"log/slog"
	"os"

	"github.com/anzhiyu-c/anheyu-music/pkg/service/music"

	"github.com/robfig/cron/v3"
)

// Scheduler 封装了 cron 实例和其依赖。
// 它是整个定时任务模块的核心协调者，负责任务的注册、启动和停止。
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	// 在这里注入所有任务可能需要的 service 依赖
	scanSvc  *music.ScanService
	scanCron string
}

// NewScheduler 是 Scheduler 的构造函数。
// 它使用 slog 来创建 logger，并将其传递给装饰器。
func NewScheduler(scanSvc *music.ScanService, scanCron string) *Scheduler {
	// 1. 创建一个 slog.Logger 实例，并为其添加一个固定的 "system":"cron" 属性。
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "cron")

	// 2. 创建一个新的 cron 调度器实例，并将新的 logger 传递给装饰器。
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.DelayIfStillRunning(cron.DefaultLogger),
		),
	)

	return &Scheduler{
		cron:     c,
		logger:   logger,
		scanSvc:  scanSvc,
		scanCron: scanCron,
	}
}

// RegisterJobs 在调度器中注册所有定义好的定时任务。
func (s *Scheduler) RegisterJobs() {
	s.logger.Info("Registering all periodic jobs...")

	// --- 任务1: 定时全量曲库扫描（带有限次重试） ---
	scanJob := NewLibraryScanJob(s.scanSvc, s.logger)

	_, err := s.cron.AddJob(s.scanCron, scanJob)
	if err != nil {
		s.logger.Error("Failed to add 'LibraryScanJob'", slog.Any("error", err))
		os.Exit(1)
	}
	s.logger.Info("-> Successfully registered 'LibraryScanJob'", "schedule", s.scanCron)

	s.logger.Info("All periodic jobs registered.")
}

// Start 启动 cron 调度器。
func (s *Scheduler) Start() {
	s.logger.Info("Cron scheduler started.")
	s.cron.Start()
}

// Stop 优雅地停止 cron 调度器。
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler gracefully stopped.")
}
