/*
 * @Description: 专辑分组器 - 按路径前缀把平铺的对象列表划分为逻辑专辑
 * @Author: 安知鱼
 * @Date: 2026-02-11 19:20:15
 * @LastEditTime: 2026-02-11 19:20:15
 * @LastEditors: 安知鱼
 */
package music

import (
	"path/filepath"
	"strings"

	"github.com/anzhiyu-c/anheyu-music/internal/infra/storage"
)

// SinglesAlbum 是桶根目录下散落文件的固定归属专辑。
// 平铺文件被有意归入同一组，而不是当作错误。
const SinglesAlbum = "Singles"

// TrackObject 是经过分组标注的单个存储对象
type TrackObject struct {
	Key      string
	Size     int64
	Filename string
	Album    string
}

// audioExts 是扫描管线支持的音频格式
var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
}

// IsAudioObject 判断文件名是否为受支持的音频格式
func IsAudioObject(filename string) bool {
	return audioExts[strings.ToLower(filepath.Ext(filename))]
}

// GroupByAlbum 把平铺的对象列表划分为"专辑名 -> 成员对象"的映射。
// 规则：按 / 切分对象键，两段及以上时倒数第二段是专辑名、最后一段是
// 文件名；只有一段（根目录文件）时归入 Singles。
// 注意：嵌套超过一层的对象（如 Artist/Album/Disc1/x.mp3）会被归到
// 最内层目录（"Disc1"）下，这是沿用的既有行为。
func GroupByAlbum(objects []storage.ObjectInfo) map[string][]TrackObject {
	albums := make(map[string][]TrackObject)

	for _, obj := range objects {
		key := strings.TrimPrefix(obj.Key, "/")
		if key == "" {
			continue
		}

		segments := strings.Split(key, "/")
		filename := segments[len(segments)-1]
		if filename == "" {
			continue
		}

		album := SinglesAlbum
		if len(segments) >= 2 {
			album = segments[len(segments)-2]
		}

		albums[album] = append(albums[album], TrackObject{
			Key:      key,
			Size:     obj.Size,
			Filename: filename,
			Album:    album,
		})
	}

	return albums
}
