/*
 * @Description: 扫描编排器 - 列举存储桶、逐专辑处理、聚合错误、互斥与取消
 * @Author: 安知鱼
 * @Date: 2026-02-11 20:55:37
 * @LastEditTime: 2026-02-11 20:55:37
 * @LastEditors: 安知鱼
 */
package music

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anzhiyu-c/anheyu-music/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/model"
)

// ErrScanInProgress 同一进程内已有扫描在运行
var ErrScanInProgress = errors.New("已有扫描任务在运行中")

// ScanState 扫描生命周期状态
type ScanState int32

const (
	ScanStateIdle ScanState = iota
	ScanStateListing
	ScanStateScanning
	ScanStateCompleted
	ScanStateFailed
)

func (s ScanState) String() string {
	switch s {
	case ScanStateIdle:
		return "idle"
	case ScanStateListing:
		return "listing"
	case ScanStateScanning:
		return "scanning"
	case ScanStateCompleted:
		return "completed"
	case ScanStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ScanService 编排一次完整的曲库扫描。
// 同一实例在进程内互斥：第二个并发调用立即拿到 ErrScanInProgress，
// 不排队等待。单条目的失败只记入错误列表，不中断整轮扫描。
type ScanService struct {
	store     storage.ObjectStorage
	extractor *Extractor
	covers    *CoverResolver
	syncer    *Synchronizer

	running atomic.Bool
	state   atomic.Int32

	mu         sync.Mutex
	lastResult *model.ScanResult
}

func NewScanService(store storage.ObjectStorage, extractor *Extractor, covers *CoverResolver, syncer *Synchronizer) *ScanService {
	return &ScanService{
		store:     store,
		extractor: extractor,
		covers:    covers,
		syncer:    syncer,
	}
}

// State 返回当前扫描状态
func (s *ScanService) State() ScanState {
	return ScanState(s.state.Load())
}

// LastResult 返回最近一次扫描的结果快照，从未扫描过时为 nil
func (s *ScanService) LastResult() *model.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Scan 执行一轮全量扫描并返回结果摘要。
// 列举失败是致命错误（没有清单就无事可做），进入 Failed 态并返回错误；
// 之后的单条目失败一律聚合进 result.Errors，扫描继续。
// ctx 取消是协作式的：当前条目处理完后停止接收新条目，
// 已落库的部分保留，结果标记 Completed。
func (s *ScanService) Scan(ctx context.Context) (*model.ScanResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	result := &model.ScanResult{}

	s.state.Store(int32(ScanStateListing))
	log.Println("[ScanService] ✅ 开始扫描，正在列举存储桶对象...")

	objects, err := s.store.List(ctx, "")
	if err != nil {
		s.state.Store(int32(ScanStateFailed))
		log.Printf("[ScanService] 错误: 列举存储桶失败: %v", err)
		return nil, fmt.Errorf("列举存储桶失败: %w", err)
	}

	albums := GroupByAlbum(objects)
	log.Printf("[ScanService] 列举完成: %d 个对象, %d 个专辑", len(objects), len(albums))

	s.state.Store(int32(ScanStateScanning))

	// 固定专辑顺序，日志和重复扫描的行为才可比对
	albumNames := make([]string, 0, len(albums))
	for name := range albums {
		albumNames = append(albumNames, name)
	}
	sort.Strings(albumNames)

	cancelled := false
	for _, album := range albumNames {
		if cancelled {
			break
		}
		for _, obj := range albums[album] {
			if ctx.Err() != nil {
				log.Printf("[ScanService] 提示: 收到取消信号，停止接收新条目，已处理 %d 个", result.ScannedCount)
				cancelled = true
				break
			}
			if !IsAudioObject(obj.Key) {
				continue
			}
			s.processObject(ctx, obj, albums[album], result)
		}
	}

	s.finish(result, start)
	return result, nil
}

// processObject 处理单个音频对象，任何失败只记入 result
func (s *ScanService) processObject(ctx context.Context, obj TrackObject, albumObjects []TrackObject, result *model.ScanResult) {
	data, err := s.store.FetchBytes(ctx, obj.Key)
	if err != nil {
		log.Printf("[ScanService] 警告: 获取对象 %s 失败: %v", obj.Key, err)
		result.AddError(obj.Key, err)
		return
	}

	meta := s.extractor.Extract(obj, data)

	// 身份键是稳定的非预签名 URL，预签名 URL 会过期不能当身份
	identity, err := s.store.AccessURL(ctx, obj.Key, false)
	if err != nil {
		log.Printf("[ScanService] 警告: 构造对象 %s 的访问地址失败: %v", obj.Key, err)
		result.AddError(obj.Key, err)
		return
	}

	coverPath, coverColor, coverErr := s.covers.Resolve(ctx, meta, obj, albumObjects)
	if coverErr != nil {
		// 封面失败降级为占位图，条目本身照常入库
		log.Printf("[ScanService] 警告: 解析对象 %s 的封面失败: %v", obj.Key, coverErr)
		result.AddError(obj.Key, coverErr)
	}

	created, err := s.syncer.Upsert(ctx, identity, meta, coverPath, coverColor, obj.Size)
	if err != nil {
		log.Printf("[ScanService] 警告: 同步对象 %s 失败: %v", obj.Key, err)
		result.AddError(obj.Key, err)
		return
	}

	result.ScannedCount++
	if created {
		result.NewCount++
	} else {
		result.UpdatedCount++
	}
}

// finish 补全结果摘要并迁移到终态
func (s *ScanService) finish(result *model.ScanResult, start time.Time) {
	result.DurationSeconds = time.Since(start).Seconds()

	total, err := s.syncer.trackRepo.Count(context.Background())
	if err != nil {
		log.Printf("[ScanService] 警告: 统计曲库总量失败: %v", err)
	} else {
		result.TotalCatalogSize = total
	}

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	s.state.Store(int32(ScanStateCompleted))
	log.Printf("[ScanService] ✅ 扫描完成: 处理 %d, 新增 %d, 更新 %d, 错误 %d, 耗时 %.2fs",
		result.ScannedCount, result.NewCount, result.UpdatedCount, len(result.Errors), result.DurationSeconds)
}
