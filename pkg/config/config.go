/*
 * @Description: 统一配置管理 (手动加载，文件 + 环境变量双来源)
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-02-11 16:40:12
 * @LastEditors: 安知鱼
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug,
	KeyDBType, KeyDBHost, KeyDBPort, KeyDBUser, KeyDBPassword, KeyDBName,
	KeyStorageEndpoint, KeyStorageRegion, KeyStorageBucket,
	KeyStorageAccessKey, KeyStorageSecretKey, KeyStoragePublicDomain,
	KeyStoragePresignExpiry,
	KeyMusicCoverDir, KeyMusicPlaceholderCover,
	KeyMusicScanEnabled, KeyMusicScanCron,
}

const (
	KeyServerPort  = "System.Port"
	KeyServerDebug = "System.Debug"

	KeyDBType     = "Database.Type"
	KeyDBHost     = "Database.Host"
	KeyDBPort     = "Database.Port"
	KeyDBUser     = "Database.User"
	KeyDBPassword = "Database.Password"
	KeyDBName     = "Database.Name"

	// Storage 分区描述 R2/S3 兼容对象存储的连接信息
	KeyStorageEndpoint      = "Storage.Endpoint"
	KeyStorageRegion        = "Storage.Region"
	KeyStorageBucket        = "Storage.Bucket"
	KeyStorageAccessKey     = "Storage.AccessKey"
	KeyStorageSecretKey     = "Storage.SecretKey"
	KeyStoragePublicDomain  = "Storage.PublicDomain"
	KeyStoragePresignExpiry = "Storage.PresignExpiry"

	// Music 分区描述音乐库扫描行为
	KeyMusicCoverDir         = "Music.CoverDir"
	KeyMusicPlaceholderCover = "Music.PlaceholderCover"
	KeyMusicScanEnabled      = "Music.ScanEnabled"
	KeyMusicScanCron         = "Music.ScanCron"
)

type Config struct {
	vp *viper.Viper
}

// NewConfig 是最终的构造函数，手动加载配置，确保可靠性
func NewConfig() (*Config, error) {
	vp := viper.New()
	filePath := "data/conf.ini"

	// --- 步骤 1: 使用 go-ini 从文件加载配置 (作为默认值) ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				log.Printf("✅ 已创建默认配置文件: %s", filePath)
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					log.Printf("警告: 重新加载配置文件失败: %v", err)
				}
			}
		} else {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	// 如果文件成功加载，则将其中的值全部设置到 Viper 中
	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == "DEFAULT" {
					viperKey = key.Name()
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Println("从 data/conf.ini 文件加载了默认配置。")
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	envPrefix := "ANHEYU"

	for _, key := range allKeys {
		// 构建环境变量名，例如 ANHEYU_STORAGE_BUCKET
		envVarName := fmt.Sprintf("%s_%s", envPrefix, envReplacer.Replace(strings.ToUpper(key)))

		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// GetStringOrDefault 读取字符串配置，空值时回退到默认值
func (c *Config) GetStringOrDefault(key, def string) string {
	if v := c.vp.GetString(key); v != "" {
		return v
	}
	return def
}

// GetIntOrDefault 读取整数配置，零值时回退到默认值
func (c *Config) GetIntOrDefault(key string, def int) int {
	if v := c.vp.GetInt(key); v != 0 {
		return v
	}
	return def
}

// createDefaultConfigFile 在首次启动时生成一份带注释的默认配置
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false

[Database]
# 支持 mysql / mariadb / postgres / sqlite
Type = sqlite
Name = anheyu_music.db

[Storage]
# R2/S3 兼容对象存储，Endpoint 留空时使用 AWS 官方域名
Endpoint =
Region = auto
Bucket =
AccessKey =
SecretKey =
# 播放直链的自定义公开域名（可选）
PublicDomain =
# 预签名链接有效期（秒），默认 3600
PresignExpiry = 3600

[Music]
# 封面资产落盘目录
CoverDir = data/covers
PlaceholderCover = /static/img/default-cover.svg
# 定时扫描（六段 cron 表达式，秒开头）
ScanEnabled = true
ScanCron = 0 0 4 * * *
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
