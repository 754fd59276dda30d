/*
 * @Description: 曲库同步器 - 以访问 URL 为身份做 upsert，保护播放计数
 * @Author: 安知鱼
 * @Date: 2026-02-11 20:41:52
 * @LastEditTime: 2026-02-11 20:41:52
 * @LastEditors: 安知鱼
 */
package music

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-music/pkg/constant"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/repository"
)

// Synchronizer 把一次提取结果落到曲库。
// 身份键是曲目的非预签名访问 URL：对同一对象的重复扫描
// 更新既有记录而不是产生重复行。
type Synchronizer struct {
	trackRepo repository.TrackRepository
	metaRepo  repository.TrackMetadataRepository
}

func NewSynchronizer(trackRepo repository.TrackRepository, metaRepo repository.TrackMetadataRepository) *Synchronizer {
	return &Synchronizer{
		trackRepo: trackRepo,
		metaRepo:  metaRepo,
	}
}

// Upsert 新建或更新一条曲目及其扩展元数据，返回是否为新建。
// 更新路径绝不触碰 playCount：它由播放行为单独累加。
// 扩展元数据每次整表替换，上一轮残留的字段不会泄漏到本轮。
func (s *Synchronizer) Upsert(ctx context.Context, identity string, meta *ExtractedMetadata, coverPath, coverColor string, fileSize int64) (bool, error) {
	track := &model.Track{
		Identity:        identity,
		Title:           meta.Title,
		Artist:          meta.Artist,
		Album:           meta.Album,
		Genre:           meta.Genre,
		DurationSeconds: meta.DurationSeconds,
		CoverPath:       coverPath,
		CoverColor:      coverColor,
	}

	existing, err := s.trackRepo.FindByIdentity(ctx, identity)
	created := false
	switch {
	case err == nil:
		track.ID = existing.ID
		track.PlayCount = existing.PlayCount
		track.CreatedAt = existing.CreatedAt
		if err := s.trackRepo.Update(ctx, track); err != nil {
			return false, fmt.Errorf("更新曲目 %q 失败: %w", identity, err)
		}
	case errors.Is(err, constant.ErrNotFound):
		if err := s.trackRepo.Create(ctx, track); err != nil {
			return false, fmt.Errorf("创建曲目 %q 失败: %w", identity, err)
		}
		created = true
	default:
		return false, fmt.Errorf("查询曲目 %q 失败: %w", identity, err)
	}

	trackMeta := &model.TrackMetadata{
		TrackID:     track.ID,
		TrackNumber: meta.TrackNumber,
		DiscNumber:  meta.DiscNumber,
		BPM:         meta.BPM,
		ISRC:        meta.ISRC,
		Lyrics:      meta.Lyrics,
		Composer:    meta.Composer,
		Copyright:   meta.Copyright,
		Label:       meta.Label,
		Comment:     meta.Comment,
		BitRateKbps: meta.BitRateKbps,
		SampleRate:  meta.SampleRate,
		Channels:    meta.Channels,
		Codec:       meta.Codec,
		FileSize:    fileSize,
		ScannedAt:   time.Now(),
	}
	if err := s.metaRepo.Replace(ctx, trackMeta); err != nil {
		return created, fmt.Errorf("替换曲目 %q 的扩展元数据失败: %w", identity, err)
	}

	return created, nil
}
