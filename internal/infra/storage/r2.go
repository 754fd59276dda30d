/*
 * @Description: Cloudflare R2（S3兼容）对象存储客户端实现（使用aws-sdk-go-v2）
 * @Author: 安知鱼
 * @Date: 2026-02-11 17:28:06
 * @LastEditTime: 2026-02-11 17:28:06
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// R2Config 描述一个 R2/S3 兼容存储桶的连接信息
type R2Config struct {
	// Endpoint 为空时使用 AWS 官方域名；R2 填账号级端点
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicDomain 是播放直链的自定义公开域名（可选）
	PublicDomain string
	// PresignExpiry 是预签名链接有效期，零值时默认 1 小时
	PresignExpiry time.Duration
}

// R2Client 实现了 ObjectStorage 接口，用于处理与 R2/S3 的所有交互。
type R2Client struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     R2Config
}

// NewR2Client 是 R2Client 的构造函数。
// 客户端在启动时构造一次并显式注入使用方，取代按需创建的全局单例。
func NewR2Client(ctx context.Context, cfg R2Config) (*R2Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: 缺少存储桶名称", ErrStoreUnavailable)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: 缺少 AccessKey 或 SecretKey", ErrStoreUnavailable)
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建 S3 配置失败: %v", ErrStoreUnavailable, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // 自定义endpoint通常需要path-style
		}
	})

	log.Printf("[R2] 客户端创建成功 - 存储桶: %s, 区域: %s", cfg.Bucket, region)

	return &R2Client{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// normalizeKey 统一去掉对象键的前导分隔符（S3对象键不应该以/开头）
func normalizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

// List 列出指定前缀下的全部对象，跟随 ContinuationToken 直到穷尽
func (c *R2Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	prefix = normalizeKey(prefix)

	var objects []ObjectInfo
	var continuationToken *string

	for {
		output, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.cfg.Bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: 列出对象失败: %v", ErrStoreUnavailable, err)
		}

		for _, obj := range output.Contents {
			if obj.Key == nil {
				continue
			}
			// 跳过模拟目录的空对象
			if strings.HasSuffix(*obj.Key, "/") {
				continue
			}

			var size int64
			if obj.Size != nil {
				size = *obj.Size
			}
			var modTime time.Time
			if obj.LastModified != nil {
				modTime = *obj.LastModified
			}

			objects = append(objects, ObjectInfo{
				Key:          *obj.Key,
				Size:         size,
				LastModified: modTime,
			})
		}

		if output.IsTruncated == nil || !*output.IsTruncated {
			break
		}
		continuationToken = output.NextContinuationToken
	}

	log.Printf("[R2] List完成 - 前缀: %q, 共 %d 个对象", prefix, len(objects))
	return objects, nil
}

// FetchBytes 一次性读入整个对象内容
func (c *R2Client) FetchBytes(ctx context.Context, key string) ([]byte, error) {
	key = normalizeKey(key)

	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("获取对象 %s 失败: %w", key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 内容失败: %w", key, err)
	}
	return data, nil
}

// Head 返回单个对象的元信息
func (c *R2Client) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	key = normalizeKey(key)

	output, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("获取对象 %s 元信息失败: %w", key, err)
	}

	info := &ObjectInfo{Key: key}
	if output.ContentLength != nil {
		info.Size = *output.ContentLength
	}
	if output.LastModified != nil {
		info.LastModified = *output.LastModified
	}
	return info, nil
}

// AccessURL 生成对象的访问 URL。
// presigned 为 false 时返回稳定的公开 URL，扫描管线用它作为曲目的
// 唯一身份键；presigned 为 true 时生成带过期时间的播放直链。
func (c *R2Client) AccessURL(ctx context.Context, key string, presigned bool) (string, error) {
	key = normalizeKey(key)

	if presigned {
		expiry := c.cfg.PresignExpiry
		if expiry <= 0 {
			expiry = time.Hour
		}

		result, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(c.cfg.Bucket),
			Key:    aws.String(key),
		}, func(opts *s3.PresignOptions) {
			opts.Expires = expiry
		})
		if err != nil {
			return "", fmt.Errorf("生成预签名URL失败: %w", err)
		}
		return result.URL, nil
	}

	return fmt.Sprintf("%s/%s", c.publicBaseURL(), key), nil
}

// publicBaseURL 返回非预签名 URL 的固定前缀，优先级：
// 自定义公开域名 > 端点拼桶名 > AWS 标准域名
func (c *R2Client) publicBaseURL() string {
	switch {
	case c.cfg.PublicDomain != "":
		baseURL := strings.TrimSuffix(c.cfg.PublicDomain, "/")
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			baseURL = "https://" + baseURL
		}
		return baseURL
	case c.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(c.cfg.Endpoint, "/"), c.cfg.Bucket)
	default:
		region := c.cfg.Region
		if region == "" || region == "auto" {
			region = "us-east-1"
		}
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s", region, c.cfg.Bucket)
	}
}

// KeyFromAccessURL 是 AccessURL(presigned=false) 的逆运算：
// 从作为身份键的公开 URL 还原对象键。前缀不匹配说明配置在两次
// 扫描之间变过，旧记录的身份已无法解析。
func (c *R2Client) KeyFromAccessURL(accessURL string) (string, error) {
	prefix := c.publicBaseURL() + "/"
	if !strings.HasPrefix(accessURL, prefix) {
		return "", fmt.Errorf("访问地址 %q 不属于当前存储配置", accessURL)
	}
	return strings.TrimPrefix(accessURL, prefix), nil
}

// isNotFound 判断 SDK 错误是否为"对象不存在"
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
