/*
 * @Description: 音乐处理器 - 扫描触发、曲库浏览、播放地址签发的RESTful API端点
 * @Author: 安知鱼
 * @Date: 2026-02-11 21:10:26
 * @LastEditTime: 2026-02-11 21:10:26
 * @LastEditors: 安知鱼
 */
package music_handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-music/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-music/pkg/constant"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-music/pkg/response"
	"github.com/anzhiyu-c/anheyu-music/pkg/service/music"
)

// MusicHandler 音乐处理器
type MusicHandler struct {
	scanSvc   *music.ScanService
	trackRepo repository.TrackRepository
	metaRepo  repository.TrackMetadataRepository
	store     storage.ObjectStorage
}

// NewMusicHandler 创建新的音乐处理器
func NewMusicHandler(scanSvc *music.ScanService, trackRepo repository.TrackRepository, metaRepo repository.TrackMetadataRepository, store storage.ObjectStorage) *MusicHandler {
	return &MusicHandler{
		scanSvc:   scanSvc,
		trackRepo: trackRepo,
		metaRepo:  metaRepo,
		store:     store,
	}
}

// TriggerScan 触发一轮全量曲库扫描
// @Summary      触发曲库扫描
// @Description  同步执行一轮全量扫描并返回摘要；单条目失败聚合在 errors 字段中，不影响 200 返回
// @Tags         曲库扫描
// @Produce      json
// @Success      200  {object}  response.Response{data=model.ScanResult}  "扫描完成"
// @Failure      409  {object}  response.Response  "已有扫描在运行"
// @Failure      500  {object}  response.Response  "扫描失败"
// @Router       /music/scan [post]
func (h *MusicHandler) TriggerScan(c *gin.Context) {
	result, err := h.scanSvc.Scan(c.Request.Context())
	if err != nil {
		if errors.Is(err, music.ErrScanInProgress) {
			response.Fail(c, http.StatusConflict, err.Error())
			return
		}
		response.Fail(c, http.StatusInternalServerError, "扫描失败: "+err.Error())
		return
	}

	// 有条目级错误也是一轮完成的扫描，摘要里自带 errors 列表
	response.Success(c, result, "扫描完成")
}

// GetScanStatus 查询扫描状态
// @Summary      查询扫描状态
// @Description  返回当前扫描状态机状态和最近一次扫描的结果摘要
// @Tags         曲库扫描
// @Produce      json
// @Success      200  {object}  response.Response  "查询成功"
// @Router       /music/scan/status [get]
func (h *MusicHandler) GetScanStatus(c *gin.Context) {
	response.Success(c, gin.H{
		"state":      h.scanSvc.State().String(),
		"lastResult": h.scanSvc.LastResult(),
	}, "查询成功")
}

// ListTracks 分页获取曲目列表
// @Summary      获取曲目列表
// @Description  按专辑、标题排序分页返回曲目
// @Tags         曲库浏览
// @Produce      json
// @Param        page      query  int  false  "页码，从1开始"  default(1)
// @Param        pageSize  query  int  false  "每页数量"       default(50)
// @Success      200  {object}  response.Response{data=object{tracks=[]model.Track,total=int}}  "获取成功"
// @Failure      500  {object}  response.Response  "服务器错误"
// @Router       /music/tracks [get]
func (h *MusicHandler) ListTracks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	tracks, err := h.trackRepo.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "获取曲目列表失败: "+err.Error())
		return
	}
	total, err := h.trackRepo.Count(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "统计曲目总数失败: "+err.Error())
		return
	}

	response.Success(c, gin.H{
		"tracks":   tracks,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	}, "获取曲目列表成功")
}

// GetTrackDetail 获取单条曲目及其扩展元数据
// @Summary      获取曲目详情
// @Tags         曲库浏览
// @Produce      json
// @Param        id  path  string  true  "曲目公共ID"
// @Success      200  {object}  response.Response{data=object{track=model.Track,metadata=model.TrackMetadata}}  "获取成功"
// @Failure      404  {object}  response.Response  "曲目不存在"
// @Router       /music/tracks/{id} [get]
func (h *MusicHandler) GetTrackDetail(c *gin.Context) {
	track, ok := h.findTrack(c)
	if !ok {
		return
	}

	var meta *model.TrackMetadata
	m, err := h.metaRepo.FindByTrackID(c.Request.Context(), track.ID)
	if err == nil {
		meta = m
	} else if !errors.Is(err, constant.ErrNotFound) {
		response.Fail(c, http.StatusInternalServerError, "获取扩展元数据失败: "+err.Error())
		return
	}

	response.Success(c, gin.H{
		"track":    track,
		"metadata": meta,
	}, "获取曲目详情成功")
}

// GetTrackURL 签发曲目的播放地址并累加播放计数
// @Summary      获取播放地址
// @Description  返回带过期时间的预签名下载地址，同时将播放计数加一
// @Tags         曲库浏览
// @Produce      json
// @Param        id  path  string  true  "曲目公共ID"
// @Success      200  {object}  response.Response{data=object{url=string}}  "获取成功"
// @Failure      404  {object}  response.Response  "曲目不存在"
// @Failure      500  {object}  response.Response  "服务器错误"
// @Router       /music/tracks/{id}/url [get]
func (h *MusicHandler) GetTrackURL(c *gin.Context) {
	track, ok := h.findTrack(c)
	if !ok {
		return
	}

	key, err := h.store.KeyFromAccessURL(track.Identity)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "解析曲目存储位置失败: "+err.Error())
		return
	}

	url, err := h.store.AccessURL(c.Request.Context(), key, true)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "签发播放地址失败: "+err.Error())
		return
	}

	// 播放计数是尽力而为的统计，失败不阻断播放
	if err := h.trackRepo.IncrementPlayCount(c.Request.Context(), track.ID); err != nil {
		log.Printf("【警告】累加播放计数失败 (track_id=%d): %v", track.ID, err)
	}

	response.Success(c, gin.H{"url": url}, "获取播放地址成功")
}

// findTrack 按路径里的公共 ID 加载曲目，失败时直接写响应
func (h *MusicHandler) findTrack(c *gin.Context) (*model.Track, bool) {
	track, err := h.trackRepo.FindByPublicID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "曲目不存在")
		} else {
			response.Fail(c, http.StatusInternalServerError, "查询曲目失败: "+err.Error())
		}
		return nil, false
	}
	return track, true
}
