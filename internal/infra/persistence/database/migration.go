/*
 * @Description: 数据库迁移服务（创建曲库表结构）
 * @Author: 安知鱼
 * @Date: 2026-02-11 18:12:30
 */
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// MigrationService 数据库迁移服务
type MigrationService struct {
	db     *sql.DB
	dbType string
}

// NewMigrationService 创建迁移服务
func NewMigrationService(db *sql.DB, dbType string) *MigrationService {
	return &MigrationService{
		db:     db,
		dbType: NormalizeDBType(dbType),
	}
}

// RunMigrations 执行所有迁移
func (m *MigrationService) RunMigrations(ctx context.Context) error {
	log.Println("📋 开始执行数据库迁移...")

	if err := m.createTracksTable(ctx); err != nil {
		return fmt.Errorf("tracks 表迁移失败: %w", err)
	}
	if err := m.createTrackMetadataTable(ctx); err != nil {
		return fmt.Errorf("track_metadata 表迁移失败: %w", err)
	}

	log.Println("✅ 数据库迁移完成")
	return nil
}

// pkColumn 返回各方言的自增主键列定义
func (m *MigrationService) pkColumn() string {
	switch m.dbType {
	case "mysql":
		return "id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
	case "postgres":
		return "id BIGSERIAL PRIMARY KEY"
	default: // sqlite
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// timestampColumn 返回各方言带默认值的时间戳列定义
func (m *MigrationService) timestampColumn() string {
	switch m.dbType {
	case "postgres":
		return "TIMESTAMPTZ NOT NULL DEFAULT NOW()"
	default:
		return "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}
}

// createTracksTable 创建曲目主表。
// identity 上的唯一约束是 upsert 幂等性的根基：重复扫描同一对象
// 只会原地更新这一行，绝不产生重复。
func (m *MigrationService) createTracksTable(ctx context.Context) error {
	identityCol := "identity VARCHAR(1024) NOT NULL"
	if m.dbType == "mysql" {
		// MySQL 的唯一索引有键长限制，收窄到 768
		identityCol = "identity VARCHAR(768) NOT NULL"
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tracks (
	%s,
	%s,
	title VARCHAR(512) NULL,
	artist VARCHAR(512) NULL,
	album VARCHAR(512) NULL,
	genre VARCHAR(128) NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	cover_path VARCHAR(1024) NOT NULL DEFAULT '',
	cover_color VARCHAR(16) NULL,
	play_count INTEGER NOT NULL DEFAULT 0,
	created_at %s,
	updated_at %s,
	CONSTRAINT uq_tracks_identity UNIQUE (identity)
)`, m.pkColumn(), identityCol, m.timestampColumn(), m.timestampColumn())

	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	log.Println("  ✓ tracks 表就绪")
	return nil
}

// createTrackMetadataTable 创建扩展元数据侧表（与 tracks 一对一）。
// track_id 上的唯一约束支撑"整行替换"的 upsert 语义。
func (m *MigrationService) createTrackMetadataTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS track_metadata (
	%s,
	track_id BIGINT NOT NULL,
	track_number INTEGER NOT NULL DEFAULT 0,
	disc_number INTEGER NOT NULL DEFAULT 0,
	bpm INTEGER NOT NULL DEFAULT 0,
	isrc VARCHAR(64) NULL,
	lyrics TEXT NULL,
	composer VARCHAR(512) NULL,
	copyright VARCHAR(512) NULL,
	label VARCHAR(512) NULL,
	comment TEXT NULL,
	bit_rate_kbps INTEGER NOT NULL DEFAULT 0,
	sample_rate INTEGER NOT NULL DEFAULT 0,
	channels INTEGER NOT NULL DEFAULT 0,
	codec VARCHAR(64) NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	scanned_at %s,
	CONSTRAINT uq_track_metadata_track_id UNIQUE (track_id)
)`, m.pkColumn(), m.timestampColumn())

	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	log.Println("  ✓ track_metadata 表就绪")
	return nil
}
