/*
 * @Description: 定义了对象存储客户端需要遵守的接口、公共结构和错误
 * @Author: 安知鱼
 * @Date: 2026-02-11 17:20:41
 * @LastEditTime: 2026-02-11 17:20:41
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"errors"
	"time"
)

// ObjectInfo 封装了 List/Head 操作返回的单个对象信息。
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ErrStoreUnavailable 表示凭证缺失或后端不可达，对整轮扫描是致命的
var ErrStoreUnavailable = errors.New("对象存储不可用")

// ErrObjectNotFound 表示对象键不存在，按单对象错误处理
var ErrObjectNotFound = errors.New("对象不存在")

// ObjectStorage 定义了扫描管线依赖的对象存储能力。
// 客户端在启动时构造一次，通过接口注入编排器及其协作方。
type ObjectStorage interface {
	// List 列出指定前缀下的全部对象，内部跟随分页游标直到穷尽
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// FetchBytes 一次性读入整个对象。标签解析器需要随机访问，
	// 前向流无法满足，因此刻意整体缓冲
	FetchBytes(ctx context.Context, key string) ([]byte, error)
	// Head 返回单个对象的元信息
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	// AccessURL 返回对象的访问 URL；presigned 为 true 时生成带
	// 过期时间的预签名链接，否则返回稳定的公开 URL
	AccessURL(ctx context.Context, key string, presigned bool) (string, error)
	// KeyFromAccessURL 从非预签名访问 URL 还原对象键
	KeyFromAccessURL(accessURL string) (string, error)
}
