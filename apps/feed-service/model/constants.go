package model

import "errors"

// 动态类型
const (
	ActivityTypeListen = "listen"
	ActivityTypeRating = "rating"
	ActivityTypeDiary  = "diary"
)

// 分页配置
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100

	// 隐私过滤后可能不足limit条，读取时超量抓取的倍数
	OverFetchFactor = 2
)

// 评分范围
const (
	MinRating = 1
	MaxRating = 5
)

// 事件类型
const (
	EventActivityCreated = "activity.created"
)

// Kafka主题
const (
	ActivityEventsTopic = "activity-events"
)

// 错误分类
var (
	ErrValidation       = errors.New("参数验证失败")
	ErrNotFound         = errors.New("记录不存在")
	ErrStoreUnavailable = errors.New("存储服务不可用")
)

// IsValidActivityType 检查动态类型是否有效
func IsValidActivityType(activityType string) bool {
	switch activityType {
	case ActivityTypeListen, ActivityTypeRating, ActivityTypeDiary:
		return true
	}
	return false
}

// HTTP请求结构体

type RecordListenRequest struct {
	AlbumID    int64  `json:"album_id"`
	ListenedAt string `json:"listened_at"` // RFC3339，为空取当前时间
}

type RecordRatingRequest struct {
	AlbumID int64  `json:"album_id"`
	Rating  int32  `json:"rating"`
	Review  string `json:"review"`
}

type RecordDiaryRequest struct {
	AlbumID   int64  `json:"album_id"`
	Note      string `json:"note"`
	EntryDate string `json:"entry_date"` // RFC3339，为空取当前时间
}

type FeedRequest struct {
	Limit int32 `json:"limit"`
}
