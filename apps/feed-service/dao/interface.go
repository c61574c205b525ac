package dao

import (
	"context"

	"melodiary/apps/feed-service/model"
)

// FeedDAO 动态数据访问接口
type FeedDAO interface {
	// 动态写入，明细行和动态行在同一事务中落库
	CreateListen(ctx context.Context, listen *model.AlbumListen, activity *model.ActivityRecord) error
	CreateRating(ctx context.Context, rating *model.AlbumRating, activity *model.ActivityRecord) error
	CreateDiary(ctx context.Context, diary *model.DiaryEntry, activity *model.ActivityRecord) error

	// 动态读取
	ListActivitiesByUsers(ctx context.Context, userIDs []int64, limit int) ([]*model.ActivityRecord, error)
	ListRecentActivities(ctx context.Context, limit int) ([]*model.ActivityRecord, error)

	// 关注图与资料投影
	ListFollowingIDs(ctx context.Context, userID int64) ([]int64, error)
	GetProfiles(ctx context.Context, userIDs []int64) (map[int64]*model.UserProfile, error)

	// 明细
	GetRating(ctx context.Context, referenceID int64) (*model.AlbumRating, error)
	GetListen(ctx context.Context, referenceID int64) (*model.AlbumListen, error)
	GetDiary(ctx context.Context, referenceID int64) (*model.DiaryEntry, error)
}
