/*
 * @Description: 定时曲库扫描任务 - 失败时有限次重试
 * @Author: 安知鱼
 * @Date: 2026-02-11 21:52:08
 * @LastEditTime: 2026-02-11 21:52:08
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anzhiyu-c/anheyu-music/pkg/service/music"
)

const (
	// scanMaxAttempts 单个调度周期内的最大尝试次数（首次 + 重试）
	scanMaxAttempts = 3
	// scanRetryDelay 两次尝试之间的固定间隔
	scanRetryDelay = 30 * time.Second
)

// LibraryScanJob 负责按计划触发全量曲库扫描。
// 致命失败（如存储桶不可达）在本周期内最多重试到 scanMaxAttempts 次，
// 仍失败则放弃，等待下一个调度周期，不无限累积。
type LibraryScanJob struct {
	scanSvc *music.ScanService
	logger  *slog.Logger
}

// NewLibraryScanJob 是任务的构造函数。
func NewLibraryScanJob(scanSvc *music.ScanService, logger *slog.Logger) *LibraryScanJob {
	return &LibraryScanJob{
		scanSvc: scanSvc,
		logger:  logger,
	}
}

// Name 方法返回任务的可读名称。
func (j *LibraryScanJob) Name() string {
	return "LibraryScanJob"
}

// Run 是 Job 接口要求实现的方法，包含了核心的扫描与重试逻辑。
func (j *LibraryScanJob) Run() {
	ctx := context.Background()

	for attempt := 1; attempt <= scanMaxAttempts; attempt++ {
		result, err := j.scanSvc.Scan(ctx)
		if err == nil {
			j.logger.Info("定时扫描完成",
				slog.Int("scanned", result.ScannedCount),
				slog.Int("new", result.NewCount),
				slog.Int("updated", result.UpdatedCount),
				slog.Int("errors", len(result.Errors)),
			)
			return
		}

		// 手动触发的扫描正在跑，本周期直接让位，不参与重试
		if errors.Is(err, music.ErrScanInProgress) {
			j.logger.Info("已有扫描在运行，本周期跳过")
			return
		}

		j.logger.Error("定时扫描失败",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", scanMaxAttempts),
			slog.Any("error", err),
		)
		if attempt < scanMaxAttempts {
			time.Sleep(scanRetryDelay)
		}
	}

	j.logger.Error("定时扫描重试耗尽，等待下一个调度周期")
}
