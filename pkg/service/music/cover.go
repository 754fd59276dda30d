/*
 * @Description: 封面解析器 - 内嵌图片/同目录封面文件/占位图三级回退，内容寻址去重
 * @Author: 安知鱼
 * @Date: 2026-02-11 20:26:19
 * @LastEditTime: 2026-02-11 20:26:19
 * @LastEditors: 安知鱼
 */
package music

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/disintegration/imaging"

	"github.com/anzhiyu-c/anheyu-music/internal/infra/storage"
)

// coverBaseNames 和 coverExts 组成同目录封面文件的固定白名单，
// 文件名匹配不区分大小写。专辑目录的子目录（如 art/cover.jpg）
// 不参与匹配，这是沿用的既有行为。
var (
	coverBaseNames = map[string]bool{"cover": true, "folder": true, "album": true, "artwork": true}
	coverExts      = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

// cachedCover 是一次持久化的结果，按内容哈希缓存
type cachedCover struct {
	path  string
	color string
}

// CoverResolver 为每个音频对象确定唯一封面。
// 资产按字节内容的 SHA-256 寻址：相同图片无论被多少专辑引用，
// 始终落到同一个存储路径，这是有意的去重设计。
type CoverResolver struct {
	store       storage.ObjectStorage
	coverDir    string
	placeholder string

	mu    sync.Mutex
	cache map[string]cachedCover
}

// NewCoverResolver 构造函数。封面目录不存在时会自动创建。
func NewCoverResolver(store storage.ObjectStorage, coverDir, placeholder string) *CoverResolver {
	return &CoverResolver{
		store:       store,
		coverDir:    coverDir,
		placeholder: placeholder,
		cache:       make(map[string]cachedCover),
	}
}

// Resolve 按固定优先级确定封面（前一级产出即止）：
//  1. 标签里的内嵌图片；
//  2. 同专辑目录下白名单命名的封面文件；
//  3. 占位图。
//
// 返回封面引用路径和主色调。持久化失败不阻断条目本身：
// 返回占位图和错误，由调用方记入扫描错误列表。
func (r *CoverResolver) Resolve(ctx context.Context, meta *ExtractedMetadata, obj TrackObject, albumObjects []TrackObject) (string, string, error) {
	if meta.HasPicture {
		path, color, err := r.persist(meta.PictureData, extFromMIME(meta.PictureMIME))
		if err != nil {
			return r.placeholder, "", fmt.Errorf("持久化内嵌封面失败: %w", err)
		}
		return path, color, nil
	}

	if sibling := findSiblingCover(albumObjects); sibling != nil {
		data, err := r.store.FetchBytes(ctx, sibling.Key)
		if err != nil {
			return r.placeholder, "", fmt.Errorf("获取同目录封面 %s 失败: %w", sibling.Key, err)
		}
		path, color, err := r.persist(data, strings.ToLower(filepath.Ext(sibling.Filename)))
		if err != nil {
			return r.placeholder, "", fmt.Errorf("持久化同目录封面失败: %w", err)
		}
		return path, color, nil
	}

	return r.placeholder, "", nil
}

// findSiblingCover 在专辑成员里找首个命中白名单的图片文件
func findSiblingCover(albumObjects []TrackObject) *TrackObject {
	for i := range albumObjects {
		name := strings.ToLower(albumObjects[i].Filename)
		ext := filepath.Ext(name)
		if coverExts[ext] && coverBaseNames[strings.TrimSuffix(name, ext)] {
			return &albumObjects[i]
		}
	}
	return nil
}

// extFromMIME 由声明的图片 MIME 推导存储扩展名
func extFromMIME(mime string) string {
	if strings.EqualFold(mime, "image/png") {
		return ".png"
	}
	return ".jpg"
}

// persist 把封面字节写入内容寻址存储，返回引用路径和主色调。
// 同一哈希的并发/重复写入是无害竞争：文件已存在即视为成功。
func (r *CoverResolver) persist(data []byte, ext string) (string, string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	r.mu.Lock()
	if cached, ok := r.cache[hash]; ok {
		r.mu.Unlock()
		return cached.path, cached.color, nil
	}
	r.mu.Unlock()

	filename := hash + ext
	fullPath := filepath.Join(r.coverDir, filename)
	webPath := "/covers/" + filename

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		if err := os.MkdirAll(r.coverDir, 0755); err != nil {
			return "", "", fmt.Errorf("创建封面目录失败: %w", err)
		}
		if err := os.WriteFile(fullPath, data, 0644); err != nil {
			return "", "", fmt.Errorf("写入封面文件失败: %w", err)
		}
		// 缩略图是播放列表场景的优化，失败不影响原始资产
		r.generateThumbnail(data, hash)
	}

	color := r.extractPrimaryColor(data)

	r.mu.Lock()
	r.cache[hash] = cachedCover{path: webPath, color: color}
	r.mu.Unlock()

	return webPath, color, nil
}

// generateThumbnail 生成 400px 宽的 JPEG 缩略图变体
func (r *CoverResolver) generateThumbnail(data []byte, hash string) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("[CoverResolver] 警告: 解码封面图片失败，跳过缩略图: %v", err)
		return
	}

	thumb := imaging.Resize(src, 400, 0, imaging.Lanczos)
	thumbPath := filepath.Join(r.coverDir, hash+"_thumb.jpg")
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(80)); err != nil {
		log.Printf("[CoverResolver] 警告: 保存封面缩略图失败: %v", err)
	}
}

// extractPrimaryColor 用 K-Means 提取封面主色调（#rrggbb），供播放器取色
func (r *CoverResolver) extractPrimaryColor(data []byte) string {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("[CoverResolver] 信息: 解码封面提取主色调失败: %v", err)
		return ""
	}

	colors, err := prominentcolor.KmeansWithArgs(1, img)
	if err != nil || len(colors) == 0 {
		log.Printf("[CoverResolver] 信息: 提取封面主色调失败: %v", err)
		return ""
	}

	c := colors[0].Color
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
