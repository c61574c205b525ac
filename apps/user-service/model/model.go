package model

import (
	"errors"
	"time"
)

// UserProfile 用户资料模型
//
// is_private随时可改，关注图和动态流都按当前值实时判定可见性。
type UserProfile struct {
	ID           int64     `json:"id" gorm:"primaryKey"` // 雪花ID
	Username     string    `json:"username" gorm:"type:varchar(50);not null;uniqueIndex"`
	DisplayName  string    `json:"display_name" gorm:"type:varchar(100)"`
	Email        string    `json:"email" gorm:"type:varchar(200)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100);not null"`
	AvatarURL    string    `json:"avatar_url" gorm:"type:varchar(500)"`
	Bio          string    `json:"bio" gorm:"type:text"`
	IsPrivate    bool      `json:"is_private" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName .
func (UserProfile) TableName() string {
	return "user_profiles"
}

// 错误分类
var (
	ErrUsernameTaken    = errors.New("用户名已被占用")
	ErrNotFound         = errors.New("用户不存在")
	ErrInvalidPassword  = errors.New("用户名或密码错误")
	ErrValidation       = errors.New("参数验证失败")
	ErrStoreUnavailable = errors.New("存储服务不可用")
)

// 用户名长度限制
const (
	MinUsernameLen = 3
	MaxUsernameLen = 50
	MinPasswordLen = 6
)

// 事件类型，供搜索索引等下游消费
const (
	EventUserRegistered = "user_registered"
	EventProfileUpdated = "profile_updated"
	EventPrivacyChanged = "privacy_changed"
)

// UserEventsTopic 用户事件主题
const UserEventsTopic = "user-events"

// HTTP请求结构体

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
}

type SetPrivacyRequest struct {
	IsPrivate bool `json:"is_private"`
}

type LookupRequest struct {
	Username string `json:"username"`
}
