package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"melodiary/apps/feed-service/model"
	"melodiary/apps/feed-service/service"
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
	api := engine.Group("/api/v1/feed")
	{
		// 动态写入
		api.POST("/listen", h.RecordListen)
		api.POST("/rating", h.RecordRating)
		api.POST("/diary", h.RecordDiary)

		// 动态读取
		api.POST("/personal", h.PersonalFeed)
		api.POST("/global", h.GlobalFeed)
	}
}

// ActivityResponse 动态写入响应
type ActivityResponse struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message"`
	Activity *model.ActivityRecord `json:"activity,omitempty"`
}

// FeedResponse 动态流响应
type FeedResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Items   []*model.FeedItem `json:"items"`
}

// RecordListen 记录收听
func (h *HTTPHandler) RecordListen(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.RecordListenRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid listen request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActivityResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	listenedAt := parseTime(req.ListenedAt)
	activity, err := h.svc.RecordListen(ctx, c.GetInt64("userID"), req.AlbumID, listenedAt)
	res := &ActivityResponse{
		Success:  err == nil,
		Message:  messageOr(err, "收听记录成功"),
		Activity: activity,
	}
	if err != nil {
		h.logger.Error(ctx, "Record listen failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// RecordRating 记录评分
func (h *HTTPHandler) RecordRating(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.RecordRatingRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid rating request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActivityResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	activity, err := h.svc.RecordRating(ctx, c.GetInt64("userID"), req.AlbumID, req.Rating, req.Review)
	res := &ActivityResponse{
		Success:  err == nil,
		Message:  messageOr(err, "评分记录成功"),
		Activity: activity,
	}
	if err != nil {
		h.logger.Error(ctx, "Record rating failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// RecordDiary 记录日记
func (h *HTTPHandler) RecordDiary(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.RecordDiaryRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid diary request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActivityResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	entryDate := parseTime(req.EntryDate)
	activity, err := h.svc.RecordDiary(ctx, c.GetInt64("userID"), req.AlbumID, req.Note, entryDate)
	res := &ActivityResponse{
		Success:  err == nil,
		Message:  messageOr(err, "日记记录成功"),
		Activity: activity,
	}
	if err != nil {
		h.logger.Error(ctx, "Record diary failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// PersonalFeed 个人关注流
func (h *HTTPHandler) PersonalFeed(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.FeedRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid personal feed request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &FeedResponse{Success: false, Message: "Invalid request format", Items: []*model.FeedItem{}}, err)
		return
	}

	items := h.svc.PersonalFeed(ctx, c.GetInt64("userID"), req.Limit)
	httpx.WriteObject(c, &FeedResponse{
		Success: true,
		Message: "查询成功",
		Items:   items,
	}, nil)
}

// GlobalFeed 全站发现流
func (h *HTTPHandler) GlobalFeed(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.FeedRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid global feed request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &FeedResponse{Success: false, Message: "Invalid request format", Items: []*model.FeedItem{}}, err)
		return
	}

	items := h.svc.GlobalFeed(ctx, req.Limit)
	httpx.WriteObject(c, &FeedResponse{
		Success: true,
		Message: "查询成功",
		Items:   items,
	}, nil)
}

// parseTime 解析RFC3339时间，解析失败返回零值由服务层取当前时间
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
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
