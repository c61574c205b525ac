package dao

import (
	"context"

	"melodiary/apps/user-service/model"
)

// UserDAO 用户数据访问接口
type UserDAO interface {
	CreateUser(ctx context.Context, user *model.UserProfile) error
	GetUser(ctx context.Context, userID int64) (*model.UserProfile, error)
	GetUserByUsername(ctx context.Context, username string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, updates map[string]interface{}) error
	SetPrivacy(ctx context.Context, userID int64, isPrivate bool) error
}
