/*
 * @Description: 扩展元数据仓储的 database/sql 实现
 * @Author: 安知鱼
 * @Date: 2026-02-11 18:52:07
 * @LastEditTime: 2026-02-11 18:52:07
 * @LastEditors: 安知鱼
 */
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-music/pkg/constant"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/repository"
)

type sqlTrackMetadataRepo struct {
	db     *sql.DB
	dbType string
}

// NewTrackMetadataRepository 是扩展元数据仓储的构造函数
func NewTrackMetadataRepository(db *sql.DB, dbType string) repository.TrackMetadataRepository {
	return &sqlTrackMetadataRepo{db: db, dbType: dbType}
}

// Replace 以 track_id 为键整体替换扩展元数据。
// 所有字段全量覆盖，两次扫描之间消失的标签因此会被正确清空。
func (r *sqlTrackMetadataRepo) Replace(ctx context.Context, meta *model.TrackMetadata) error {
	if meta.ScannedAt.IsZero() {
		meta.ScannedAt = time.Now()
	}

	var query string
	switch r.dbType {
	case "mysql":
		query = `INSERT INTO track_metadata
			(track_id, track_number, disc_number, bpm, isrc, lyrics, composer, copyright, label, comment,
			 bit_rate_kbps, sample_rate, channels, codec, file_size, scanned_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
			track_number = VALUES(track_number), disc_number = VALUES(disc_number), bpm = VALUES(bpm),
			isrc = VALUES(isrc), lyrics = VALUES(lyrics), composer = VALUES(composer),
			copyright = VALUES(copyright), label = VALUES(label), comment = VALUES(comment),
			bit_rate_kbps = VALUES(bit_rate_kbps), sample_rate = VALUES(sample_rate),
			channels = VALUES(channels), codec = VALUES(codec), file_size = VALUES(file_size),
			scanned_at = VALUES(scanned_at)`
	default:
		// sqlite 与 postgres 共用标准的 ON CONFLICT 语法
		query = rebind(r.dbType, `INSERT INTO track_metadata
			(track_id, track_number, disc_number, bpm, isrc, lyrics, composer, copyright, label, comment,
			 bit_rate_kbps, sample_rate, channels, codec, file_size, scanned_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (track_id) DO UPDATE SET
			track_number = EXCLUDED.track_number, disc_number = EXCLUDED.disc_number, bpm = EXCLUDED.bpm,
			isrc = EXCLUDED.isrc, lyrics = EXCLUDED.lyrics, composer = EXCLUDED.composer,
			copyright = EXCLUDED.copyright, label = EXCLUDED.label, comment = EXCLUDED.comment,
			bit_rate_kbps = EXCLUDED.bit_rate_kbps, sample_rate = EXCLUDED.sample_rate,
			channels = EXCLUDED.channels, codec = EXCLUDED.codec, file_size = EXCLUDED.file_size,
			scanned_at = EXCLUDED.scanned_at`)
	}

	_, err := r.db.ExecContext(ctx, query,
		meta.TrackID, meta.TrackNumber, meta.DiscNumber, meta.BPM,
		nullable(meta.ISRC), nullable(meta.Lyrics), nullable(meta.Composer),
		nullable(meta.Copyright), nullable(meta.Label), nullable(meta.Comment),
		meta.BitRateKbps, meta.SampleRate, meta.Channels, nullable(meta.Codec),
		meta.FileSize, meta.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("替换扩展元数据失败 (track_id: %d): %w", meta.TrackID, err)
	}
	return nil
}

func (r *sqlTrackMetadataRepo) FindByTrackID(ctx context.Context, trackID uint) (*model.TrackMetadata, error) {
	query := rebind(r.dbType, `SELECT id, track_id, track_number, disc_number, bpm, isrc, lyrics,
		composer, copyright, label, comment, bit_rate_kbps, sample_rate, channels, codec, file_size, scanned_at
		FROM track_metadata WHERE track_id = ?`)

	var m model.TrackMetadata
	var isrc, lyrics, composer, copyright, label, comment, codec sql.NullString
	err := r.db.QueryRowContext(ctx, query, trackID).Scan(
		&m.ID, &m.TrackID, &m.TrackNumber, &m.DiscNumber, &m.BPM, &isrc, &lyrics,
		&composer, &copyright, &label, &comment, &m.BitRateKbps, &m.SampleRate,
		&m.Channels, &codec, &m.FileSize, &m.ScannedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constant.ErrNotFound
		}
		return nil, fmt.Errorf("查询扩展元数据失败 (track_id: %d): %w", trackID, err)
	}

	m.ISRC = isrc.String
	m.Lyrics = lyrics.String
	m.Composer = composer.String
	m.Copyright = copyright.String
	m.Label = label.String
	m.Comment = comment.String
	m.Codec = codec.String
	return &m, nil
}
