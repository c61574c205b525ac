package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"melodiary/apps/social-service/model"
	"melodiary/apps/social-service/service"
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
	api := engine.Group("/api/v1/social")
	{
		// 关系查询
		api.POST("/relation", h.GetRelation)

		// 关注操作
		api.POST("/follow", h.Follow)
		api.POST("/unfollow", h.Unfollow)

		// 请求操作
		api.POST("/request", h.CreateRequest)
		api.POST("/accept", h.AcceptRequest)
		api.POST("/reject", h.RejectRequest)
		api.POST("/cancel", h.CancelRequest)

		// 列表
		api.POST("/following", h.ListFollowing)
		api.POST("/followers", h.ListFollowers)
		api.POST("/requests/incoming", h.ListIncomingRequests)
		api.POST("/requests/outgoing", h.ListOutgoingRequests)
	}
}

// RelationResponse 关系查询响应
type RelationResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Relation string `json:"relation,omitempty"`
}

// ActionResponse 通用操作响应
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RequestResponse 请求操作响应
type RequestResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Request *model.FollowRequest `json:"request,omitempty"`
}

// EdgeListResponse 关注边列表响应
type EdgeListResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Edges   []*model.FollowEdge `json:"edges"`
}

// RequestListResponse 请求列表响应
type RequestListResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Requests []*model.FollowRequest `json:"requests"`
}

// GetRelation 查询关系分类
func (h *HTTPHandler) GetRelation(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.GetRelationRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid relation request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &RelationResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	relation, err := h.svc.GetRelation(ctx, c.GetInt64("userID"), req.TargetID)
	res := &RelationResponse{
		Success:  err == nil,
		Message:  messageOr(err, "查询成功"),
		Relation: relation,
	}
	if err != nil {
		h.logger.Error(ctx, "Get relation failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// Follow 关注公开账号
func (h *HTTPHandler) Follow(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.FollowRequestBody
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid follow request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActionResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.Follow(ctx, c.GetInt64("userID"), req.TargetID)
	res := &ActionResponse{
		Success: err == nil,
		Message: messageOr(err, "关注成功"),
	}
	if err != nil {
		h.logger.Error(ctx, "Follow failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// Unfollow 取消关注
func (h *HTTPHandler) Unfollow(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.UnfollowRequestBody
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid unfollow request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActionResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.Unfollow(ctx, c.GetInt64("userID"), req.TargetID)
	res := &ActionResponse{
		Success: err == nil,
		Message: messageOr(err, "取消关注成功"),
	}
	if err != nil {
		h.logger.Error(ctx, "Unfollow failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// CreateRequest 发送关注请求
func (h *HTTPHandler) CreateRequest(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.CreateRequestBody
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid create request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &RequestResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	followReq, err := h.svc.Request(ctx, c.GetInt64("userID"), req.TargetID)
	res := &RequestResponse{
		Success: err == nil,
		Message: messageOr(err, "关注请求已发送"),
		Request: followReq,
	}
	if err != nil {
		h.logger.Error(ctx, "Create follow request failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// AcceptRequest 接受关注请求
func (h *HTTPHandler) AcceptRequest(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.ResolveRequestBody
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid accept request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &RequestResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	followReq, err := h.svc.Accept(ctx, c.GetInt64("userID"), req.RequestID)
	res := &RequestResponse{
		Success: err == nil,
		Message: messageOr(err, "已接受关注请求"),
		Request: followReq,
	}
	if err != nil {
		h.logger.Error(ctx, "Accept follow request failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// RejectRequest 拒绝关注请求
func (h *HTTPHandler) RejectRequest(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.ResolveRequestBody
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid reject request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActionResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.Reject(ctx, c.GetInt64("userID"), req.RequestID)
	res := &ActionResponse{
		Success: err == nil,
		Message: messageOr(err, "已拒绝关注请求"),
	}
	if err != nil {
		h.logger.Error(ctx, "Reject follow request failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// CancelRequest 取消关注请求
func (h *HTTPHandler) CancelRequest(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.ResolveRequestBody
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid cancel request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActionResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.Cancel(ctx, c.GetInt64("userID"), req.RequestID)
	res := &ActionResponse{
		Success: err == nil,
		Message: messageOr(err, "已取消关注请求"),
	}
	if err != nil {
		h.logger.Error(ctx, "Cancel follow request failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// ListFollowing 关注列表
func (h *HTTPHandler) ListFollowing(c *gin.Context) {
	ctx := c.Request.Context()
	edges, err := h.svc.ListFollowing(ctx, c.GetInt64("userID"))
	res := &EdgeListResponse{
		Success: err == nil,
		Message: messageOr(err, "查询成功"),
		Edges:   edges,
	}
	if err != nil {
		h.logger.Error(ctx, "List following failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// ListFollowers 粉丝列表
func (h *HTTPHandler) ListFollowers(c *gin.Context) {
	ctx := c.Request.Context()
	edges, err := h.svc.ListFollowers(ctx, c.GetInt64("userID"))
	res := &EdgeListResponse{
		Success: err == nil,
		Message: messageOr(err, "查询成功"),
		Edges:   edges,
	}
	if err != nil {
		h.logger.Error(ctx, "List followers failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// ListIncomingRequests 收到的请求列表
func (h *HTTPHandler) ListIncomingRequests(c *gin.Context) {
	ctx := c.Request.Context()
	reqs, err := h.svc.ListIncomingRequests(ctx, c.GetInt64("userID"))
	res := &RequestListResponse{
		Success:  err == nil,
		Message:  messageOr(err, "查询成功"),
		Requests: reqs,
	}
	if err != nil {
		h.logger.Error(ctx, "List incoming requests failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// ListOutgoingRequests 发出的请求列表
func (h *HTTPHandler) ListOutgoingRequests(c *gin.Context) {
	ctx := c.Request.Context()
	reqs, err := h.svc.ListOutgoingRequests(ctx, c.GetInt64("userID"))
	res := &RequestListResponse{
		Success:  err == nil,
		Message:  messageOr(err, "查询成功"),
		Requests: reqs,
	}
	if err != nil {
		h.logger.Error(ctx, "List outgoing requests failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
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
