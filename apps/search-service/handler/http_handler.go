package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"melodiary/apps/search-service/model"
	"melodiary/apps/search-service/service"
	"melodiary/pkg/cache"
	"melodiary/pkg/httpx"
	"melodiary/pkg/logger"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc    *service.Service
	logger logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc *service.Service, logger logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger,
	}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(engine *gin.Engine) {
	api := engine.Group("/api/v1/search")
	{
		// 搜索
		api.POST("/query", h.Search)
		api.POST("/hot", h.HotKeywords)

		// 索引写入
		api.POST("/index/album", h.IndexAlbum)
		api.POST("/index/artist", h.IndexArtist)
		api.POST("/index/user", h.IndexUser)

		// 缓存管理
		api.POST("/cache/stats", h.CacheStats)
		api.POST("/cache/clear", h.ClearCache)
	}
}

// SearchResponse 搜索响应
type SearchResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Result  *model.SearchResult `json:"result,omitempty"`
}

// HotKeywordsResponse 热词响应
type HotKeywordsResponse struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Keywords []*model.HotKeyword `json:"keywords"`
}

// IndexResponse 索引写入响应
type IndexResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CacheStatsResponse 缓存统计响应
type CacheStatsResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Stats   cache.Stats `json:"stats"`
}

// Search 执行搜索
func (h *HTTPHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.SearchRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid search request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &SearchResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	result, err := h.svc.Search(ctx, &req)
	res := &SearchResponse{
		Success: err == nil,
		Message: messageOr(err, "搜索成功"),
		Result:  result,
	}
	if err != nil {
		h.logger.Error(ctx, "Search failed",
			logger.F("mode", req.Mode),
			logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// HotKeywords 获取热门搜索词
func (h *HTTPHandler) HotKeywords(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.HotKeywordsRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid hot keywords request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &HotKeywordsResponse{Success: false, Message: "Invalid request format", Keywords: []*model.HotKeyword{}}, err)
		return
	}

	keywords, err := h.svc.HotKeywords(ctx, req.Mode, req.Limit)
	res := &HotKeywordsResponse{
		Success:  err == nil,
		Message:  messageOr(err, "查询成功"),
		Keywords: keywords,
	}
	if err != nil {
		h.logger.Error(ctx, "Hot keywords failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// IndexAlbum 索引专辑文档
func (h *HTTPHandler) IndexAlbum(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.IndexAlbumRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid index album request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &IndexResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.IndexAlbum(ctx, req.Album)
	if err != nil {
		h.logger.Error(ctx, "Index album failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, &IndexResponse{Success: err == nil, Message: messageOr(err, "索引成功")}, err, statusOf(err))
}

// IndexArtist 索引艺人文档
func (h *HTTPHandler) IndexArtist(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.IndexArtistRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid index artist request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &IndexResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.IndexArtist(ctx, req.Artist)
	if err != nil {
		h.logger.Error(ctx, "Index artist failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, &IndexResponse{Success: err == nil, Message: messageOr(err, "索引成功")}, err, statusOf(err))
}

// IndexUser 索引用户文档
func (h *HTTPHandler) IndexUser(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.IndexUserRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid index user request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &IndexResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.IndexUser(ctx, req.User)
	if err != nil {
		h.logger.Error(ctx, "Index user failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, &IndexResponse{Success: err == nil, Message: messageOr(err, "索引成功")}, err, statusOf(err))
}

// CacheStats 缓存统计
func (h *HTTPHandler) CacheStats(c *gin.Context) {
	httpx.WriteObject(c, &CacheStatsResponse{
		Success: true,
		Message: "查询成功",
		Stats:   h.svc.CacheStats(),
	}, nil)
}

// ClearCache 清空缓存
func (h *HTTPHandler) ClearCache(c *gin.Context) {
	h.svc.ClearCache(c.Request.Context())
	httpx.WriteObject(c, &IndexResponse{Success: true, Message: "缓存已清空"}, nil)
}

// messageOr 错误消息或默认成功消息
func messageOr(err error, ok string) string {
	if err != nil {
		return err.Error()
	}
	return ok
}

// statusOf 存储层不可用返回503，其余错误按客户端错误返回400
func statusOf(err error) int {
	if errors.Is(err, model.ErrStoreUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}
