/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-02-11 21:32:14
 * @LastEditTime: 2026-02-11 21:32:14
 * @LastEditors: 安知鱼
 */
package router

import (
	"github.com/gin-gonic/gin"

	music_handler "github.com/anzhiyu-c/anheyu-music/pkg/handler/music"
)

// NoCacheMiddleware 全局反缓存中间件，确保所有API响应都不会被CDN缓存
func NoCacheMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		// 🚫 强制禁用所有形式的缓存
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")

		// 继续处理请求
		c.Next()
	})
}

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	musicHandler *music_handler.MusicHandler
	coverDir     string
}

// NewRouter 是 Router 的构造函数，通过依赖注入接收所有处理器。
func NewRouter(musicHandler *music_handler.MusicHandler, coverDir string) *Router {
	return &Router{
		musicHandler: musicHandler,
		coverDir:     coverDir,
	}
}

// Setup 注册全部路由。
func (r *Router) Setup(engine *gin.Engine) {
	// 封面资产按内容寻址，可被CDN长期缓存，不走 /api 前缀
	engine.Static("/covers", r.coverDir)

	// 创建 /api 分组
	apiGroup := engine.Group("/api")
	// 应用全局反缓存中间件
	apiGroup.Use(NoCacheMiddleware())

	r.registerMusicRoutes(apiGroup)
}

func (r *Router) registerMusicRoutes(api *gin.RouterGroup) {
	musicGroup := api.Group("/music")
	{
		musicGroup.POST("/scan", r.musicHandler.TriggerScan)
		musicGroup.GET("/scan/status", r.musicHandler.GetScanStatus)
		musicGroup.GET("/tracks", r.musicHandler.ListTracks)
		musicGroup.GET("/tracks/:id", r.musicHandler.GetTrackDetail)
		musicGroup.GET("/tracks/:id/url", r.musicHandler.GetTrackURL)
	}
}
