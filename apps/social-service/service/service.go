package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"melodiary/apps/social-service/dao"
	"melodiary/apps/social-service/model"
	"melodiary/pkg/kafka"
	"melodiary/pkg/logger"
	"melodiary/pkg/snowflake"
	"melodiary/pkg/telemetry"
)

// Service 社交关系服务
type Service struct {
	dao    dao.SocialDAO
	kafka  *kafka.Producer
	logger logger.Logger
}

// NewService 创建社交关系服务实例
func NewService(socialDAO dao.SocialDAO, kafka *kafka.Producer, log logger.Logger) *Service {
	return &Service{
		dao:    socialDAO,
		kafka:  kafka,
		logger: log,
	}
}

// GetRelation 判断actor对target的关系分类
//
// 判定顺序：自己 > 已关注 > 请求待处理 > 私密账号需请求 > 可直接关注。
func (s *Service) GetRelation(ctx context.Context, actorID, targetID int64) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.GetRelation")
	defer span.End()

	if actorID <= 0 || targetID <= 0 {
		return "", fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	if actorID == targetID {
		return model.RelationSelf, nil
	}

	following, err := s.dao.HasFollow(ctx, actorID, targetID)
	if err != nil {
		return "", err
	}
	if following {
		return model.RelationFollowing, nil
	}

	pending, err := s.dao.GetPendingRequest(ctx, actorID, targetID)
	if err != nil {
		return "", err
	}
	if pending != nil {
		return model.RelationRequested, nil
	}

	profile, err := s.dao.GetProfile(ctx, targetID)
	if err != nil {
		return "", err
	}
	if profile.IsPrivate {
		return model.RelationRequestable, nil
	}
	return model.RelationFollowable, nil
}

// Follow 直接关注公开账号
//
// 唯一索引冲突由DAO层映射为ErrAlreadyFollowing，是并发关注时的权威裁决。
func (s *Service) Follow(ctx context.Context, actorID, targetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.Follow")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("follow.actor_id", actorID),
		attribute.Int64("follow.target_id", targetID),
	)

	if err := s.validatePair(actorID, targetID); err != nil {
		return err
	}

	profile, err := s.dao.GetProfile(ctx, targetID)
	if err != nil {
		return err
	}
	if profile.IsPrivate {
		return fmt.Errorf("%w: 私密账号需要发送关注请求", model.ErrValidation)
	}

	pending, err := s.dao.GetPendingRequest(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if pending != nil {
		return model.ErrRequestPending
	}

	edge := &model.FollowEdge{
		FollowerID:  actorID,
		FollowingID: targetID,
	}
	if err := s.dao.CreateFollow(ctx, edge); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create follow edge")
		return err
	}

	s.publishEvent(ctx, model.EventFollowCreated, map[string]interface{}{
		"follower_id":  actorID,
		"following_id": targetID,
	})

	s.logger.Info(ctx, "Follow created",
		logger.F("followerID", actorID),
		logger.F("followingID", targetID))
	return nil
}

// Request 向私密账号发送关注请求
//
// 已存在pending请求时幂等返回原请求；终态记录删除后重建，请求方没有
// 权限原地流转他人名下的请求状态。
func (s *Service) Request(ctx context.Context, actorID, targetID int64) (*model.FollowRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.Request")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("follow.actor_id", actorID),
		attribute.Int64("follow.target_id", targetID),
	)

	if err := s.validatePair(actorID, targetID); err != nil {
		return nil, err
	}

	profile, err := s.dao.GetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !profile.IsPrivate {
		return nil, fmt.Errorf("%w: 公开账号可以直接关注", model.ErrValidation)
	}

	following, err := s.dao.HasFollow(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, model.ErrAlreadyFollowing
	}

	pending, err := s.dao.GetPendingRequest(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return pending, nil
	}

	if err := s.dao.DeleteTerminalRequests(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	req := &model.FollowRequest{
		ID:          snowflake.GenerateID(),
		RequesterID: actorID,
		RequestedID: targetID,
		Status:      model.RequestStatusPending,
	}
	if err := s.dao.CreateRequest(ctx, req); err != nil {
		// 并发请求抢先创建了pending记录，幂等返回已有请求
		if err == model.ErrRequestPending {
			if existing, getErr := s.dao.GetPendingRequest(ctx, actorID, targetID); getErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.publishEvent(ctx, model.EventRequestCreated, map[string]interface{}{
		"request_id":   req.ID,
		"requester_id": actorID,
		"requested_id": targetID,
	})

	s.logger.Info(ctx, "Follow request created",
		logger.F("requestID", req.ID),
		logger.F("requesterID", actorID),
		logger.F("requestedID", targetID))
	return req, nil
}

// Accept 接受关注请求
//
// 状态流转和建边在一个事务中完成；双重接受竞争时后到者收到ErrNotFound。
func (s *Service) Accept(ctx context.Context, actorID, requestID int64) (*model.FollowRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.Accept")
	defer span.End()
	span.SetAttributes(attribute.Int64("follow.request_id", requestID))

	if actorID <= 0 || requestID <= 0 {
		return nil, fmt.Errorf("%w: 参数无效", model.ErrValidation)
	}

	req, err := s.dao.AcceptRequest(ctx, requestID, actorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to accept follow request")
		return nil, err
	}

	s.publishEvent(ctx, model.EventRequestAccepted, map[string]interface{}{
		"request_id":   req.ID,
		"requester_id": req.RequesterID,
		"requested_id": req.RequestedID,
	})

	s.logger.Info(ctx, "Follow request accepted",
		logger.F("requestID", req.ID),
		logger.F("requesterID", req.RequesterID),
		logger.F("requestedID", req.RequestedID))
	return req, nil
}

// Reject 拒绝关注请求
//
// 已拒绝的请求重复拒绝是幂等no-op；已接受的请求返回ErrNotFound。
func (s *Service) Reject(ctx context.Context, actorID, requestID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.Reject")
	defer span.End()
	span.SetAttributes(attribute.Int64("follow.request_id", requestID))

	if actorID <= 0 || requestID <= 0 {
		return fmt.Errorf("%w: 参数无效", model.ErrValidation)
	}

	req, err := s.dao.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequestedID != actorID {
		return model.ErrNotFound
	}
	if req.Status == model.RequestStatusRejected {
		return nil
	}
	if req.Status == model.RequestStatusAccepted {
		return model.ErrNotFound
	}

	if err := s.dao.RejectRequest(ctx, requestID, actorID); err != nil {
		return err
	}

	s.publishEvent(ctx, model.EventRequestRejected, map[string]interface{}{
		"request_id":   req.ID,
		"requester_id": req.RequesterID,
		"requested_id": req.RequestedID,
	})

	s.logger.Info(ctx, "Follow request rejected",
		logger.F("requestID", requestID),
		logger.F("requestedID", actorID))
	return nil
}

// Cancel 取消自己发出的pending请求
func (s *Service) Cancel(ctx context.Context, actorID, requestID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.Cancel")
	defer span.End()
	span.SetAttributes(attribute.Int64("follow.request_id", requestID))

	if actorID <= 0 || requestID <= 0 {
		return fmt.Errorf("%w: 参数无效", model.ErrValidation)
	}

	deleted, err := s.dao.DeletePendingRequest(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotFound
	}

	s.publishEvent(ctx, model.EventRequestCancelled, map[string]interface{}{
		"request_id":   requestID,
		"requester_id": actorID,
	})

	s.logger.Info(ctx, "Follow request cancelled",
		logger.F("requestID", requestID),
		logger.F("requesterID", actorID))
	return nil
}

// Unfollow 取消关注
//
// 依次尝试：撤回pending请求 > 删除关注边 > 无关系时静默no-op。
// 幂等设计，重复调用不报错。
func (s *Service) Unfollow(ctx context.Context, actorID, targetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.Unfollow")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("follow.actor_id", actorID),
		attribute.Int64("follow.target_id", targetID),
	)

	if err := s.validatePair(actorID, targetID); err != nil {
		return err
	}

	pending, err := s.dao.GetPendingRequest(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if pending != nil {
		deleted, err := s.dao.DeletePendingRequest(ctx, pending.ID, actorID)
		if err != nil {
			return err
		}
		if deleted {
			s.publishEvent(ctx, model.EventRequestCancelled, map[string]interface{}{
				"request_id":   pending.ID,
				"requester_id": actorID,
			})
		}
		return nil
	}

	deleted, err := s.dao.DeleteFollow(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if deleted {
		s.publishEvent(ctx, model.EventFollowDeleted, map[string]interface{}{
			"follower_id":  actorID,
			"following_id": targetID,
		})
		s.logger.Info(ctx, "Follow deleted",
			logger.F("followerID", actorID),
			logger.F("followingID", targetID))
	}
	return nil
}

// ListFollowing 获取关注列表
func (s *Service) ListFollowing(ctx context.Context, userID int64) ([]*model.FollowEdge, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.ListFollowing")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	return s.dao.ListFollowing(ctx, userID)
}

// ListFollowers 获取粉丝列表
func (s *Service) ListFollowers(ctx context.Context, userID int64) ([]*model.FollowEdge, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.ListFollowers")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	return s.dao.ListFollowers(ctx, userID)
}

// ListIncomingRequests 获取收到的pending请求
func (s *Service) ListIncomingRequests(ctx context.Context, userID int64) ([]*model.FollowRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.ListIncomingRequests")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	return s.dao.ListIncomingRequests(ctx, userID)
}

// ListOutgoingRequests 获取发出的pending请求
func (s *Service) ListOutgoingRequests(ctx context.Context, userID int64) ([]*model.FollowRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.ListOutgoingRequests")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	return s.dao.ListOutgoingRequests(ctx, userID)
}

// validatePair 校验操作者和目标用户
func (s *Service) validatePair(actorID, targetID int64) error {
	if actorID <= 0 || targetID <= 0 {
		return fmt.Errorf("%w: 用户ID无效", model.ErrValidation)
	}
	if actorID == targetID {
		return model.ErrInvalidTarget
	}
	return nil
}

// publishEvent 发布社交事件
func (s *Service) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.kafka == nil {
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":      eventType,
			"data":      data,
			"timestamp": time.Now().Unix(),
		}
		if err := s.kafka.PublishJSON(model.SocialEventsTopic, eventType, event); err != nil {
			s.logger.Error(context.Background(), "Failed to publish event",
				logger.F("eventType", eventType),
				logger.F("error", err.Error()))
		}
	}()
}
