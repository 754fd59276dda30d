/*
 * @Description: 曲目仓储的 database/sql 实现
 * @Author: 安知鱼
 * @Date: 2026-02-11 18:40:21
 * @LastEditTime: 2026-02-11 18:40:21
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
	"github.com/anzhiyu-c/anheyu-music/pkg/idgen"
)

type sqlTrackRepo struct {
	db     *sql.DB
	dbType string
}

// NewTrackRepository 是曲目仓储的构造函数
func NewTrackRepository(db *sql.DB, dbType string) repository.TrackRepository {
	return &sqlTrackRepo{db: db, dbType: dbType}
}

// rebind 把 ? 风格的 SQL 转换为目标方言的占位符风格
func rebind(dbType, query string) string {
	if dbType != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

const trackColumns = `id, identity, title, artist, album, genre, duration_seconds,
	cover_path, cover_color, play_count, created_at, updated_at`

// scanTrack 从一行结果构建领域模型，可空列经由 sql.Null* 映射为空串
func scanTrack(row interface{ Scan(dest ...any) error }) (*model.Track, error) {
	var t model.Track
	var title, artist, album, genre, coverColor sql.NullString
	err := row.Scan(
		&t.ID, &t.Identity, &title, &artist, &album, &genre, &t.DurationSeconds,
		&t.CoverPath, &coverColor, &t.PlayCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Title = title.String
	t.Artist = artist.String
	t.Album = album.String
	t.Genre = genre.String
	t.CoverColor = coverColor.String

	// 公共 ID 由数据库 ID 即时编码，不落库
	if publicID, err := idgen.GeneratePublicID(t.ID, idgen.EntityTypeTrack); err == nil {
		t.PublicID = publicID
	}
	return &t, nil
}

// nullable 把空串映射为 NULL，保持"标签缺失"与"空标签"在库中一致
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *sqlTrackRepo) FindByIdentity(ctx context.Context, identity string) (*model.Track, error) {
	query := rebind(r.dbType, `SELECT `+trackColumns+` FROM tracks WHERE identity = ?`)
	track, err := scanTrack(r.db.QueryRowContext(ctx, query, identity))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constant.ErrNotFound
		}
		return nil, fmt.Errorf("按 identity 查询曲目失败: %w", err)
	}
	return track, nil
}

func (r *sqlTrackRepo) FindByPublicID(ctx context.Context, publicID string) (*model.Track, error) {
	dbID, entityType, err := idgen.DecodePublicID(publicID)
	if err != nil {
		return nil, constant.ErrNotFound
	}
	if entityType != idgen.EntityTypeTrack {
		return nil, constant.ErrNotFound
	}

	query := rebind(r.dbType, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`)
	track, err := scanTrack(r.db.QueryRowContext(ctx, query, dbID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constant.ErrNotFound
		}
		return nil, fmt.Errorf("按 ID 查询曲目失败: %w", err)
	}
	return track, nil
}

func (r *sqlTrackRepo) Create(ctx context.Context, track *model.Track) error {
	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	if r.dbType == "postgres" {
		query := rebind(r.dbType, `INSERT INTO tracks
			(identity, title, artist, album, genre, duration_seconds, cover_path, cover_color, play_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?) RETURNING id`)
		err := r.db.QueryRowContext(ctx, query,
			track.Identity, nullable(track.Title), nullable(track.Artist), nullable(track.Album),
			nullable(track.Genre), track.DurationSeconds, track.CoverPath, nullable(track.CoverColor),
			now, now,
		).Scan(&track.ID)
		if err != nil {
			return fmt.Errorf("插入曲目失败: %w", err)
		}
	} else {
		query := `INSERT INTO tracks
			(identity, title, artist, album, genre, duration_seconds, cover_path, cover_color, play_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
		result, err := r.db.ExecContext(ctx, query,
			track.Identity, nullable(track.Title), nullable(track.Artist), nullable(track.Album),
			nullable(track.Genre), track.DurationSeconds, track.CoverPath, nullable(track.CoverColor),
			now, now,
		)
		if err != nil {
			return fmt.Errorf("插入曲目失败: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("读取新曲目 ID 失败: %w", err)
		}
		track.ID = uint(id)
	}

	if publicID, err := idgen.GeneratePublicID(track.ID, idgen.EntityTypeTrack); err == nil {
		track.PublicID = publicID
	}
	return nil
}

// Update 只覆盖扫描可推导的字段，play_count 不在 SET 列表中
func (r *sqlTrackRepo) Update(ctx context.Context, track *model.Track) error {
	track.UpdatedAt = time.Now()
	query := rebind(r.dbType, `UPDATE tracks SET
		title = ?, artist = ?, album = ?, genre = ?, duration_seconds = ?,
		cover_path = ?, cover_color = ?, updated_at = ?
		WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query,
		nullable(track.Title), nullable(track.Artist), nullable(track.Album), nullable(track.Genre),
		track.DurationSeconds, track.CoverPath, nullable(track.CoverColor), track.UpdatedAt, track.ID,
	)
	if err != nil {
		return fmt.Errorf("更新曲目失败: %w", err)
	}
	return nil
}

func (r *sqlTrackRepo) IncrementPlayCount(ctx context.Context, id uint) error {
	query := rebind(r.dbType, `UPDATE tracks SET play_count = play_count + 1 WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("递增播放计数失败: %w", err)
	}
	return nil
}

func (r *sqlTrackRepo) List(ctx context.Context, offset, limit int) ([]*model.Track, error) {
	query := rebind(r.dbType, `SELECT `+trackColumns+` FROM tracks ORDER BY album, title LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("查询曲目列表失败: %w", err)
	}
	defer rows.Close()

	var tracks []*model.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("读取曲目行失败: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

func (r *sqlTrackRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("统计曲库规模失败: %w", err)
	}
	return count, nil
}
