package model

import (
	"time"
)

// FollowEdge 关注关系模型
//
// 有向边，(follower_id, following_id)全局唯一，不允许自关注。
// 只有创建和删除两种操作，不存在更新。
type FollowEdge struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FollowerID  int64     `json:"follower_id" gorm:"not null;uniqueIndex:idx_follower_following;check:chk_no_self_follow,follower_id <> following_id"`
	FollowingID int64     `json:"following_id" gorm:"not null;uniqueIndex:idx_follower_following;index:idx_following"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (FollowEdge) TableName() string {
	return "user_follows"
}

// FollowRequest 关注请求模型
//
// 私密账号的关注必须先经过请求。同一(requester_id, requested_id)最多
// 存在一条pending记录，由部分唯一索引保证（见dao.EnsureIndexes）。
type FollowRequest struct {
	ID          int64     `json:"id" gorm:"primaryKey"` // 雪花ID
	RequesterID int64     `json:"requester_id" gorm:"not null;index:idx_requester"`
	RequestedID int64     `json:"requested_id" gorm:"not null;index:idx_requested"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName .
func (FollowRequest) TableName() string {
	return "follow_requests"
}

// UserProfile 用户资料投影，本服务只读
type UserProfile struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Username  string `json:"username"`
	IsPrivate bool   `json:"is_private"`
}

// TableName .
func (UserProfile) TableName() string {
	return "user_profiles"
}

// IsPending 请求是否待处理
func (r *FollowRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsTerminal 请求是否已到达终态
func (r *FollowRequest) IsTerminal() bool {
	return r.Status == RequestStatusAccepted || r.Status == RequestStatusRejected
}
