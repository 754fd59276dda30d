/*
 * @Description: 音乐曲库核心业务模型
 * @Author: 安知鱼
 * @Date: 2026-02-11 17:02:33
 * @LastEditTime: 2026-02-11 17:02:33
 * @LastEditors: 安知鱼
 */
package model

import "time"

// Track 是曲库中一条可播放音频对象的核心模型。
// Identity 是对象的公开访问 URL，作为 upsert 的自然唯一键：
// 重复扫描同一对象时原地更新，绝不产生重复行。
type Track struct {
	ID        uint      `json:"id"`
	PublicID  string    `json:"publicId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Identity        string `json:"identity"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	Genre           string `json:"genre"`
	DurationSeconds int    `json:"durationSeconds"`
	CoverPath       string `json:"coverPath"`
	// CoverColor 是封面主色调（#rrggbb），供播放器做主题取色
	CoverColor string `json:"coverColor"`
	// PlayCount 仅由播放事件递增，扫描管线从不重置它
	PlayCount int `json:"playCount"`
}

// TrackMetadata 是与 Track 一对一的扩展元数据记录。
// 每次成功扫描都整体替换（不做逐字段合并），因此两次扫描之间被
// 抹掉的标签会被正确清空。
type TrackMetadata struct {
	ID      uint `json:"id"`
	TrackID uint `json:"trackId"`

	TrackNumber int    `json:"trackNumber"`
	DiscNumber  int    `json:"discNumber"`
	BPM         int    `json:"bpm"`
	ISRC        string `json:"isrc"`
	Lyrics      string `json:"lyrics"`
	Composer    string `json:"composer"`
	Copyright   string `json:"copyright"`
	Label       string `json:"label"`
	Comment     string `json:"comment"`

	BitRateKbps int    `json:"bitRateKbps"`
	SampleRate  int    `json:"sampleRate"`
	Channels    int    `json:"channels"`
	Codec       string `json:"codec"`
	FileSize    int64  `json:"fileSize"`

	ScannedAt time.Time `json:"scannedAt"`
}
