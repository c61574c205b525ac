package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"melodiary/apps/user-service/dao"
	"melodiary/apps/user-service/model"
	"melodiary/pkg/auth"
	"melodiary/pkg/kafka"
	"melodiary/pkg/logger"
	"melodiary/pkg/snowflake"
	"melodiary/pkg/telemetry"
)

// Service 用户服务
type Service struct {
	dao       dao.UserDAO
	kafka     *kafka.Producer
	jwtSecret string
	logger    logger.Logger
}

// NewService 创建用户服务实例
func NewService(userDAO dao.UserDAO, kafkaProducer *kafka.Producer, jwtSecret string, log logger.Logger) *Service {
	return &Service{
		dao:       userDAO,
		kafka:     kafkaProducer,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// Register 注册新用户
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.UserProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "user.service.Register")
	defer span.End()

	username := strings.TrimSpace(req.Username)
	if len(username) < model.MinUsernameLen || len(username) > model.MaxUsernameLen {
		return nil, fmt.Errorf("%w: 用户名长度必须在%d到%d之间",
			model.ErrValidation, model.MinUsernameLen, model.MaxUsernameLen)
	}
	if len(req.Password) < model.MinPasswordLen {
		return nil, fmt.Errorf("%w: 密码长度不能少于%d位", model.ErrValidation, model.MinPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &model.UserProfile{
		ID:           snowflake.GenerateID(),
		Username:     username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
	}
	if user.DisplayName == "" {
		user.DisplayName = username
	}

	if err := s.dao.CreateUser(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create user")
		return nil, err
	}

	s.publishEvent(model.EventUserRegistered, user)

	s.logger.Info(ctx, "User registered",
		logger.F("userID", user.ID),
		logger.F("username", user.Username))
	return user, nil
}

// Login 登录，返回JWT
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.UserProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "user.service.Login")
	defer span.End()

	user, err := s.dao.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if err == model.ErrNotFound {
			return "", nil, model.ErrInvalidPassword
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.ErrInvalidPassword
	}

	token, err := auth.GenerateJWT(user.ID, user.Username, s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %v", err)
	}

	s.logger.Info(ctx, "User logged in",
		logger.F("userID", user.ID),
		logger.F("username", user.Username))
	return token, user, nil
}

// GetProfile 获取用户资料
func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "user.service.GetProfile")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	return s.dao.GetUser(ctx, userID)
}

// GetByUsername 按用户名查找用户，忽略大小写
func (s *Service) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "user.service.GetByUsername")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: 用户名不能为空", model.ErrValidation)
	}
	return s.dao.GetUserByUsername(ctx, username)
}

// UpdateProfile 更新资料
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.UserProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "user.service.UpdateProfile")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", userID))

	if userID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}

	updates := make(map[string]interface{})
	if v := strings.TrimSpace(req.DisplayName); v != "" {
		updates["display_name"] = v
	}
	if v := strings.TrimSpace(req.AvatarURL); v != "" {
		updates["avatar_url"] = v
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if len(updates) == 0 {
		return s.dao.GetUser(ctx, userID)
	}

	if err := s.dao.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, err
	}

	updated, err := s.dao.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(model.EventProfileUpdated, updated)

	s.logger.Info(ctx, "Profile updated", logger.F("userID", userID))
	return updated, nil
}

// SetPrivacy 切换隐私开关
//
// 只改标记本身：已有关注边保留，可见性由读路径按当前值实时判定。
func (s *Service) SetPrivacy(ctx context.Context, userID int64, isPrivate bool) error {
	ctx, span := telemetry.StartSpan(ctx, "user.service.SetPrivacy")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.Bool("user.is_private", isPrivate),
	)

	if userID <= 0 {
		return fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	if err := s.dao.SetPrivacy(ctx, userID, isPrivate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set privacy")
		return err
	}

	if user, err := s.dao.GetUser(ctx, userID); err == nil {
		s.publishEvent(model.EventPrivacyChanged, user)
	}

	s.logger.Info(ctx, "Privacy flag updated",
		logger.F("userID", userID),
		logger.F("isPrivate", isPrivate))
	return nil
}

// publishEvent 异步发布用户事件，供搜索索引等下游消费
func (s *Service) publishEvent(eventType string, user *model.UserProfile) {
	if s.kafka == nil {
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":      eventType,
			"user":      user,
			"timestamp": time.Now().Unix(),
		}
		if err := s.kafka.PublishJSON(model.UserEventsTopic, eventType, event); err != nil {
			s.logger.Error(context.Background(), "Failed to publish user event",
				logger.F("eventType", eventType),
				logger.F("error", err.Error()))
		}
	}()
}
