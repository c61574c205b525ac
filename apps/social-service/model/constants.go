package model

import "errors"

// 请求状态
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// 关系分类
const (
	RelationSelf        = "self"        // 自己
	RelationFollowing   = "following"   // 已关注
	RelationRequested   = "requested"   // 请求待处理
	RelationFollowable  = "followable"  // 可直接关注
	RelationRequestable = "requestable" // 私密账号，需发送请求
)

// 事件类型
const (
	EventFollowCreated    = "follow.created"
	EventFollowDeleted    = "follow.deleted"
	EventRequestCreated   = "request.created"
	EventRequestAccepted  = "request.accepted"
	EventRequestRejected  = "request.rejected"
	EventRequestCancelled = "request.cancelled"
)

// Kafka主题
const (
	SocialEventsTopic = "social-events"
)

// 错误分类，调用方通过errors.Is判断
var (
	ErrInvalidTarget    = errors.New("不能对自己执行该操作")
	ErrAlreadyFollowing = errors.New("已经关注该用户")
	ErrRequestPending   = errors.New("关注请求待处理中")
	ErrNotFound         = errors.New("记录不存在或已被处理")
	ErrStoreUnavailable = errors.New("存储服务不可用")
	ErrValidation       = errors.New("参数验证失败")
)

// HTTP请求结构体

type GetRelationRequest struct {
	TargetID int64 `json:"target_id"`
}

type FollowRequestBody struct {
	TargetID int64 `json:"target_id"`
}

type UnfollowRequestBody struct {
	TargetID int64 `json:"target_id"`
}

type CreateRequestBody struct {
	TargetID int64 `json:"target_id"`
}

type ResolveRequestBody struct {
	RequestID int64 `json:"request_id"`
}
