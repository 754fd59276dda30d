/*
 * @Description: 元数据提取器 - 解析音频字节流并按回退链归一化标签
 * @Author: 安知鱼
 * @Date: 2026-02-11 20:04:58
 * @LastEditTime: 2026-02-11 20:04:58
 * @LastEditors: 安知鱼
 */
package music

import (
	"bytes"
	"log"
	"strings"

	"github.com/dhowden/tag"
)

// ExtractedMetadata 是单个音频对象经归一化后的元数据记录
type ExtractedMetadata struct {
	Title           string
	Artist          string
	Album           string
	Genre           string
	DurationSeconds int

	TrackNumber int
	DiscNumber  int
	BPM         int
	ISRC        string
	Lyrics      string
	Composer    string
	Copyright   string
	Label       string
	Comment     string

	BitRateKbps int
	SampleRate  int
	Channels    int
	Codec       string
	FileSize    int64

	// 内嵌封面，供封面解析器作为第一优先级来源
	HasPicture  bool
	PictureData []byte
	PictureMIME string
}

// Extractor 负责从音频文件内容中提取元数据
type Extractor struct{}

// NewExtractor 构造函数
func NewExtractor() *Extractor {
	return &Extractor{}
}

// 各容器格式的原始标签键候选，按优先顺序查找
var (
	rawKeysBPM       = []string{"TBPM", "bpm", "tmpo"}
	rawKeysISRC      = []string{"TSRC", "isrc"}
	rawKeysCopyright = []string{"TCOP", "copyright", "cprt"}
	rawKeysLabel     = []string{"TPUB", "label", "organization", "publisher"}
	rawKeysLyrics    = []string{"USLT", "lyrics", "\xa9lyr"}
	rawKeysComment   = []string{"COMM", "comment", "\xa9cmt", "description"}
	rawKeysComposer  = []string{"TCOM", "composer", "\xa9wrt"}
)

// Extract 解析一个已完整缓冲的音频对象。
// 标签解析失败不是致命错误：返回仅保留文件大小的最小记录，
// 下游回退链会用文件名和分组推导出可用的值。
func (e *Extractor) Extract(obj TrackObject, data []byte) *ExtractedMetadata {
	meta := &ExtractedMetadata{FileSize: int64(len(data))}

	// 音频物理属性直接从二进制头部读取，与标签解析互相独立
	props := ProbeAudioProperties(data, obj.Filename)
	meta.DurationSeconds = props.DurationSeconds
	meta.BitRateKbps = props.BitRateKbps
	meta.SampleRate = props.SampleRate
	meta.Channels = props.Channels
	meta.Codec = props.Codec

	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		if err != tag.ErrNoTagsFound {
			log.Printf("[Extractor-Music] 信息: 解析 %s 的标签失败: %v，将退化为文件名推导。", obj.Key, err)
		}
		e.applyFallbacks(meta, obj)
		return meta
	}

	meta.Title = cleanTag(m.Title())
	meta.Artist = cleanTag(m.Artist())
	meta.Album = cleanTag(m.Album())
	meta.Genre = firstGenre(m.Genre())
	meta.Composer = cleanTag(m.Composer())
	meta.Lyrics = cleanTag(m.Lyrics())
	meta.Comment = cleanTag(m.Comment())

	meta.TrackNumber, _ = m.Track()
	meta.DiscNumber, _ = m.Disc()

	raw := m.Raw()
	meta.BPM = rawFirstInt(raw, rawKeysBPM)
	meta.ISRC = rawFirst(raw, rawKeysISRC)
	meta.Copyright = rawFirst(raw, rawKeysCopyright)
	meta.Label = rawFirst(raw, rawKeysLabel)
	if meta.Composer == "" {
		meta.Composer = rawFirst(raw, rawKeysComposer)
	}
	if meta.Lyrics == "" {
		meta.Lyrics = rawFirst(raw, rawKeysLyrics)
	}
	if meta.Comment == "" {
		meta.Comment = rawFirst(raw, rawKeysComment)
	}

	if ft := m.FileType(); ft != tag.UnknownFileType && meta.Codec == "" {
		meta.Codec = string(ft)
	}

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		meta.HasPicture = true
		meta.PictureData = pic.Data
		meta.PictureMIME = pic.MIMEType
	}

	e.applyFallbacks(meta, obj)
	return meta
}

// applyFallbacks 应用归一化回退链（首个非空值生效）：
// 标题 ← 标签标题，否则去扩展名的文件名；
// 专辑 ← 标签专辑，否则分组器推导的专辑名；
// 艺术家/流派无回退来源，保持为空。
func (e *Extractor) applyFallbacks(meta *ExtractedMetadata, obj TrackObject) {
	if meta.Title == "" {
		meta.Title = stripExt(obj.Filename)
	}
	if meta.Album == "" {
		meta.Album = obj.Album
	}
	if meta.DurationSeconds < 0 {
		meta.DurationSeconds = 0
	}
}

// stripExt 去掉文件名的扩展名
func stripExt(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx]
	}
	return filename
}

// cleanTag 清除标签字符串里的空字符和首尾空白
func cleanTag(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// firstGenre 取流派列表的第一项。
// ID3 的多值流派以空字符或分号相连，这里只保留首个。
func firstGenre(genre string) string {
	for _, sep := range []string{"\x00", ";"} {
		if idx := strings.Index(genre, sep); idx >= 0 {
			genre = genre[:idx]
		}
	}
	return strings.TrimSpace(genre)
}

// rawFirst 依次尝试候选键，经 TagValue 归一化后返回首个非空值
func rawFirst(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if val, ok := raw[key]; ok {
			if s := cleanTag(NewTagValue(val).FirstString()); s != "" {
				return s
			}
		}
	}
	return ""
}

// rawFirstInt 同 rawFirst，但解析为整数
func rawFirstInt(raw map[string]any, keys []string) int {
	for _, key := range keys {
		if val, ok := raw[key]; ok {
			if n := NewTagValue(val).FirstInt(); n > 0 {
				return n
			}
		}
	}
	return 0
}
