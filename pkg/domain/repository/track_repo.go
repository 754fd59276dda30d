/*
 * @Description: 曲库仓储接口定义
 * @Author: 安知鱼
 * @Date: 2026-02-11 17:09:48
 * @LastEditTime: 2026-02-11 17:09:48
 * @LastEditors: 安知鱼
 */
package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-music/pkg/domain/model"
)

// TrackRepository 定义了曲目主表的持久化接口。
// 扫描管线只依赖按 Identity 的 upsert 语义，不依赖任何数据库特性。
type TrackRepository interface {
	// FindByIdentity 按访问 URL 查找曲目；未找到时返回 constant.ErrNotFound
	FindByIdentity(ctx context.Context, identity string) (*model.Track, error)
	// FindByPublicID 按公共 ID 查找曲目
	FindByPublicID(ctx context.Context, publicID string) (*model.Track, error)
	// Create 插入新曲目并回填生成的 ID 和 PublicID
	Create(ctx context.Context, track *model.Track) error
	// Update 更新扫描可推导的字段（标题/艺术家/专辑/流派/时长/封面），
	// 绝不触碰 play_count
	Update(ctx context.Context, track *model.Track) error
	// IncrementPlayCount 播放事件计数（扫描管线之外的协作方使用）
	IncrementPlayCount(ctx context.Context, id uint) error
	// List 分页返回曲目
	List(ctx context.Context, offset, limit int) ([]*model.Track, error)
	// Count 返回当前曲库总规模
	Count(ctx context.Context) (int, error)
}

// TrackMetadataRepository 定义了扩展元数据侧表的持久化接口
type TrackMetadataRepository interface {
	// Replace 以 track_id 为键整体替换扩展元数据行（全字段覆盖）
	Replace(ctx context.Context, meta *model.TrackMetadata) error
	// FindByTrackID 查询单条扩展元数据；未找到时返回 constant.ErrNotFound
	FindByTrackID(ctx context.Context, trackID uint) (*model.TrackMetadata, error)
}
