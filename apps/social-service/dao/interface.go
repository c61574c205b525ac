package dao

import (
	"context"

	"melodiary/apps/social-service/model"
)

// SocialDAO 社交关系数据访问接口
type SocialDAO interface {
	// 关注边
	CreateFollow(ctx context.Context, edge *model.FollowEdge) error
	DeleteFollow(ctx context.Context, followerID, followingID int64) (bool, error)
	HasFollow(ctx context.Context, followerID, followingID int64) (bool, error)
	ListFollowing(ctx context.Context, userID int64) ([]*model.FollowEdge, error)
	ListFollowers(ctx context.Context, userID int64) ([]*model.FollowEdge, error)

	// 关注请求
	CreateRequest(ctx context.Context, req *model.FollowRequest) error
	GetRequest(ctx context.Context, requestID int64) (*model.FollowRequest, error)
	GetPendingRequest(ctx context.Context, requesterID, requestedID int64) (*model.FollowRequest, error)
	DeleteTerminalRequests(ctx context.Context, requesterID, requestedID int64) error
	AcceptRequest(ctx context.Context, requestID, requestedID int64) (*model.FollowRequest, error)
	RejectRequest(ctx context.Context, requestID, requestedID int64) error
	DeletePendingRequest(ctx context.Context, requestID, requesterID int64) (bool, error)
	ListIncomingRequests(ctx context.Context, requestedID int64) ([]*model.FollowRequest, error)
	ListOutgoingRequests(ctx context.Context, requesterID int64) ([]*model.FollowRequest, error)

	// 用户资料投影
	GetProfile(ctx context.Context, userID int64) (*model.UserProfile, error)

	// 迁移辅助
	EnsureIndexes(ctx context.Context) error
}
