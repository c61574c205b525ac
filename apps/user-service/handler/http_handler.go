package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"melodiary/apps/user-service/model"
	"melodiary/apps/user-service/service"
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
	// 免认证接口
	auth := engine.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	api := engine.Group("/api/v1/user")
	{
		api.POST("/profile", h.GetProfile)
		api.POST("/update", h.UpdateProfile)
		api.POST("/privacy", h.SetPrivacy)
		api.POST("/lookup", h.Lookup)
	}
}

// UserResponse 用户响应
type UserResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    *model.UserProfile `json:"user,omitempty"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Token   string             `json:"token,omitempty"`
	User    *model.UserProfile `json:"user,omitempty"`
}

// ActionResponse 通用操作响应
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register 注册
func (h *HTTPHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid register request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &UserResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	user, err := h.svc.Register(ctx, &req)
	res := &UserResponse{
		Success: err == nil,
		Message: messageOr(err, "注册成功"),
		User:    user,
	}
	if err != nil {
		h.logger.Error(ctx, "Register failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// Login 登录
func (h *HTTPHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid login request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &LoginResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	token, user, err := h.svc.Login(ctx, req.Username, req.Password)
	res := &LoginResponse{
		Success: err == nil,
		Message: messageOr(err, "登录成功"),
		Token:   token,
		User:    user,
	}
	if err != nil {
		h.logger.Error(ctx, "Login failed",
			logger.F("username", req.Username),
			logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// GetProfile 获取当前用户资料
func (h *HTTPHandler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.svc.GetProfile(ctx, c.GetInt64("userID"))
	res := &UserResponse{
		Success: err == nil,
		Message: messageOr(err, "查询成功"),
		User:    user,
	}
	if err != nil {
		h.logger.Error(ctx, "Get profile failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// UpdateProfile 更新资料
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid update request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &UserResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	user, err := h.svc.UpdateProfile(ctx, c.GetInt64("userID"), &req)
	res := &UserResponse{
		Success: err == nil,
		Message: messageOr(err, "更新成功"),
		User:    user,
	}
	if err != nil {
		h.logger.Error(ctx, "Update profile failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// SetPrivacy 切换隐私开关
func (h *HTTPHandler) SetPrivacy(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.SetPrivacyRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid privacy request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &ActionResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	err := h.svc.SetPrivacy(ctx, c.GetInt64("userID"), req.IsPrivate)
	res := &ActionResponse{
		Success: err == nil,
		Message: messageOr(err, "隐私设置已更新"),
	}
	if err != nil {
		h.logger.Error(ctx, "Set privacy failed", logger.F("error", err.Error()))
	}
	httpx.WriteObject(c, res, err, statusOf(err))
}

// Lookup 按用户名查找
func (h *HTTPHandler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.LookupRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid lookup request", logger.F("error", err.Error()))
		httpx.WriteObject(c, &UserResponse{Success: false, Message: "Invalid request format"}, err)
		return
	}

	user, err := h.svc.GetByUsername(ctx, req.Username)
	res := &UserResponse{
		Success: err == nil,
		Message: messageOr(err, "查询成功"),
		User:    user,
	}
	if err != nil {
		h.logger.Error(ctx, "Lookup failed", logger.F("error", err.Error()))
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
