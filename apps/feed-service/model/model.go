package model

import (
	"time"
)

// ActivityRecord 动态记录模型
//
// 追加写入，本服务不更新不删除；生命周期归产生它的功能所有。
// 行上不冗余隐私快照，可见性永远按作者当前的is_private计算。
type ActivityRecord struct {
	ID           int64     `json:"id" gorm:"primaryKey"` // 雪花ID
	UserID       int64     `json:"user_id" gorm:"not null;index:idx_user_time"`
	ActivityType string    `json:"activity_type" gorm:"type:varchar(20);not null"`
	AlbumID      int64     `json:"album_id" gorm:"not null"`
	ReferenceID  int64     `json:"reference_id"` // 指向类型明细行，0表示无明细
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_user_time,sort:desc;index:idx_time,sort:desc"`
}

// TableName .
func (ActivityRecord) TableName() string {
	return "user_activities"
}

// AlbumRating 专辑评分明细
type AlbumRating struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	AlbumID   int64     `json:"album_id" gorm:"not null;index"`
	Rating    int32     `json:"rating" gorm:"not null"`
	Review    string    `json:"review" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (AlbumRating) TableName() string {
	return "album_ratings"
}

// AlbumListen 专辑收听明细
type AlbumListen struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	AlbumID    int64     `json:"album_id" gorm:"not null;index"`
	ListenedAt time.Time `json:"listened_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (AlbumListen) TableName() string {
	return "album_listens"
}

// DiaryEntry 听歌日记明细
type DiaryEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	AlbumID   int64     `json:"album_id" gorm:"not null;index"`
	Note      string    `json:"note" gorm:"type:text"`
	EntryDate time.Time `json:"entry_date" gorm:"type:date;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (DiaryEntry) TableName() string {
	return "diary_entries"
}

// UserProfile 用户资料投影，本服务只读
type UserProfile struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsPrivate   bool   `json:"is_private"`
}

// TableName .
func (UserProfile) TableName() string {
	return "user_profiles"
}

// ActorProfile 动态作者投影，对外不暴露隐私标记
type ActorProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// FeedItem 组装后的动态条目
//
// 明细字段按activity_type最多填充一个；明细查询失败时条目照常返回，
// 只是缺少明细。
type FeedItem struct {
	Activity *ActivityRecord `json:"activity"`
	Actor    *ActorProfile   `json:"actor,omitempty"`
	Rating   *AlbumRating    `json:"rating,omitempty"`
	Listen   *AlbumListen    `json:"listen,omitempty"`
	Diary    *DiaryEntry     `json:"diary,omitempty"`
}
