package handler

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"melodiary/apps/search-service/model"
	"melodiary/apps/search-service/service"
	"melodiary/pkg/logger"
)

// UserEventHandler 消费用户事件并刷新用户索引
//
// 注册、资料更新、隐私切换都携带完整的用户快照，直接覆盖写入索引。
type UserEventHandler struct {
	svc    *service.Service
	logger logger.Logger
}

// NewUserEventHandler 创建用户事件处理器
func NewUserEventHandler(svc *service.Service, log logger.Logger) *UserEventHandler {
	return &UserEventHandler{
		svc:    svc,
		logger: log,
	}
}

// userEvent 用户事件载荷
type userEvent struct {
	Type string         `json:"type"`
	User *model.UserDoc `json:"user"`
}

// HandleMessage 处理单条事件消息
func (h *UserEventHandler) HandleMessage(msg *sarama.ConsumerMessage) error {
	ctx := context.Background()

	var event userEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 坏消息直接跳过，避免卡住分区
		h.logger.Warn(ctx, "Failed to decode user event",
			logger.F("topic", msg.Topic),
			logger.F("offset", msg.Offset),
			logger.F("error", err.Error()))
		return nil
	}
	if event.User == nil || event.User.ID <= 0 {
		return nil
	}

	if err := h.svc.IndexUser(ctx, event.User); err != nil {
		h.logger.Error(ctx, "Failed to index user from event",
			logger.F("userID", event.User.ID),
			logger.F("eventType", event.Type),
			logger.F("error", err.Error()))
		return err
	}

	h.logger.Debug(ctx, "User index refreshed from event",
		logger.F("userID", event.User.ID),
		logger.F("eventType", event.Type))
	return nil
}
