/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-02-11 22:05:43
 * @LastEditTime: 2026-02-11 22:05:43
 * @LastEditors: 安知鱼
 */
// anheyu-music/cmd/server/app.go
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-music/internal/app/task"
	"github.com/anzhiyu-c/anheyu-music/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-music/internal/infra/persistence/sqldb"
	"github.com/anzhiyu-c/anheyu-music/internal/infra/router"
	"github.com/anzhiyu-c/anheyu-music/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-music/pkg/config"
	music_handler "github.com/anzhiyu-c/anheyu-music/pkg/handler/music"
	"github.com/anzhiyu-c/anheyu-music/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-music/pkg/service/music"
)

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg       *config.Config
	engine    *gin.Engine
	scheduler *task.Scheduler
	sqlDB     *sql.DB
	scanSvc   *music.ScanService
	store     storage.ObjectStorage
}

func (a *App) PrintBanner() {
	banner := `

       █████╗ ███╗   ██╗███████╗██╗  ██╗██╗██╗   ██╗██╗   ██╗
      ██╔══██╗████╗  ██║╚══███╔╝██║  ██║██║╚██╗ ██╔╝██║   ██║
      ███████║██╔██╗ ██║  ███╔╝ ███████║██║ ╚████╔╝ ██║   ██║
      ██╔══██║██║╚██╗██║ ███╔╝  ██╔══██║██║  ╚██╔╝  ██║   ██║
      ██║  ██║██║ ╚████║███████╗██║  ██║██║   ██║   ╚██████╔╝
      ╚═╝  ╚═╝╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝╚═╝   ╚═╝    ╚═════╝

`
	log.Println(banner)
	log.Println("--------------------------------------------------------")
	log.Println(" Anheyu Music - 音乐曲库服务")
	log.Println("--------------------------------------------------------")
}

// NewApp 是应用的构造函数，它执行所有的初始化和依赖注入工作
func NewApp() (*App, func(), error) {
	// --- Phase 1: 加载外部配置 ---
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// --- Phase 2: 初始化基础设施 ---
	sqlDB, err := database.NewSQLDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("创建数据库连接池失败: %w", err)
	}

	cleanup := func() {
		log.Println("执行清理操作：关闭数据库连接...")
		sqlDB.Close()
	}

	dbType := database.NormalizeDBType(cfg.GetString(config.KeyDBType))

	migrator := database.NewMigrationService(sqlDB, dbType)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		return nil, cleanup, fmt.Errorf("数据库初始化失败: %w", err)
	}

	// --- Phase 2.5: 初始化 ID 编码器 ---
	if err := idgen.InitSqidsEncoder(); err != nil {
		return nil, cleanup, fmt.Errorf("初始化 ID 编码器失败: %w", err)
	}
	log.Println("✅ ID 编码器初始化成功")

	// --- Phase 3: 初始化对象存储客户端 ---
	store, err := storage.NewR2Client(context.Background(), storage.R2Config{
		Endpoint:      cfg.GetString(config.KeyStorageEndpoint),
		Region:        cfg.GetString(config.KeyStorageRegion),
		Bucket:        cfg.GetString(config.KeyStorageBucket),
		AccessKey:     cfg.GetString(config.KeyStorageAccessKey),
		SecretKey:     cfg.GetString(config.KeyStorageSecretKey),
		PublicDomain:  cfg.GetString(config.KeyStoragePublicDomain),
		PresignExpiry: time.Duration(cfg.GetIntOrDefault(config.KeyStoragePresignExpiry, 3600)) * time.Second,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("初始化对象存储客户端失败: %w", err)
	}

	// --- Phase 4: 初始化数据仓库层 ---
	trackRepo := sqldb.NewTrackRepository(sqlDB, dbType)
	metaRepo := sqldb.NewTrackMetadataRepository(sqlDB, dbType)

	// --- Phase 5: 初始化业务逻辑层 ---
	coverDir := cfg.GetStringOrDefault(config.KeyMusicCoverDir, "data/covers")
	placeholder := cfg.GetStringOrDefault(config.KeyMusicPlaceholderCover, "/static/img/default-cover.svg")

	extractor := music.NewExtractor()
	covers := music.NewCoverResolver(store, coverDir, placeholder)
	syncer := music.NewSynchronizer(trackRepo, metaRepo)
	scanSvc := music.NewScanService(store, extractor, covers, syncer)

	// --- Phase 6: 初始化处理器与路由 ---
	musicHandler := music_handler.NewMusicHandler(scanSvc, trackRepo, metaRepo, store)
	appRouter := router.NewRouter(musicHandler, coverDir)

	// --- Phase 7: 初始化定时任务调度器 ---
	var scheduler *task.Scheduler
	if cfg.GetBool(config.KeyMusicScanEnabled) {
		scanCron := cfg.GetStringOrDefault(config.KeyMusicScanCron, "0 0 4 * * *")
		scheduler = task.NewScheduler(scanSvc, scanCron)
	} else {
		log.Println("提示: 定时扫描未启用，仅可通过 API 手动触发")
	}

	// --- Phase 8: 配置 Gin 引擎 ---
	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
		log.Println("运行模式: Debug (Gin 将打印详细路由日志)")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("运行模式: Release (Gin 启动日志已禁用)")
	}

	engine := gin.Default()
	err = engine.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	if err != nil {
		return nil, cleanup, fmt.Errorf("设置信任代理失败: %w", err)
	}
	engine.ForwardedByClientIP = true
	appRouter.Setup(engine)

	app := &App{
		cfg:       cfg,
		engine:    engine,
		scheduler: scheduler,
		sqlDB:     sqlDB,
		scanSvc:   scanSvc,
		store:     store,
	}

	return app, cleanup, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

func (a *App) DB() *sql.DB {
	return a.sqlDB
}

// ScanService 返回扫描编排器实例（暴露给嵌入方使用）
func (a *App) ScanService() *music.ScanService {
	return a.scanSvc
}

func (a *App) Run() error {
	if a.scheduler != nil {
		a.scheduler.RegisterJobs()
		a.scheduler.Start()
	}

	port := a.cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}
	fmt.Printf("应用程序启动成功，正在监听端口: %s\n", port)

	return a.engine.Run(":" + port)
}

func (a *App) Stop() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		log.Println("任务调度器已停止。")
	}
}
