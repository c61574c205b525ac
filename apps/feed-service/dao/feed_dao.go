package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"melodiary/apps/feed-service/model"
	"melodiary/pkg/database"
)

// feedDAO 动态数据访问对象
type feedDAO struct {
	db *database.PostgreSQL
}

// NewFeedDAO 创建动态DAO实例
func NewFeedDAO(db *database.PostgreSQL) FeedDAO {
	return &feedDAO{db: db}
}

// followEdge 只用于读user_follows表
type followEdge struct {
	FollowerID  int64
	FollowingID int64
}

func (followEdge) TableName() string {
	return "user_follows"
}

// CreateListen 创建收听明细和动态记录
func (d *feedDAO) CreateListen(ctx context.Context, listen *model.AlbumListen, activity *model.ActivityRecord) error {
	db := d.db.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listen).Error; err != nil {
			return err
		}
		activity.ReferenceID = listen.ID
		return tx.Create(activity).Error
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create listen activity: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// CreateRating 创建评分明细和动态记录
func (d *feedDAO) CreateRating(ctx context.Context, rating *model.AlbumRating, activity *model.ActivityRecord) error {
	db := d.db.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return err
		}
		activity.ReferenceID = rating.ID
		return tx.Create(activity).Error
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create rating activity: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// CreateDiary 创建日记明细和动态记录
func (d *feedDAO) CreateDiary(ctx context.Context, diary *model.DiaryEntry, activity *model.ActivityRecord) error {
	db := d.db.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(diary).Error; err != nil {
			return err
		}
		activity.ReferenceID = diary.ID
		return tx.Create(activity).Error
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create diary activity: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// ListActivitiesByUsers 按作者集合取最新动态
func (d *feedDAO) ListActivitiesByUsers(ctx context.Context, userIDs []int64, limit int) ([]*model.ActivityRecord, error) {
	var records []*model.ActivityRecord
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("user_id IN ?", userIDs).
		Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list activities by users: %v", model.ErrStoreUnavailable, err)
	}
	return records, nil
}

// ListRecentActivities 取全站最新动态
func (d *feedDAO) ListRecentActivities(ctx context.Context, limit int) ([]*model.ActivityRecord, error) {
	var records []*model.ActivityRecord
	db := d.db.GetDB()
	if err := db.WithContext(ctx).
		Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list recent activities: %v", model.ErrStoreUnavailable, err)
	}
	return records, nil
}

// ListFollowingIDs 读取关注图中的关注对象ID集合
func (d *feedDAO) ListFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Model(&followEdge{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list following ids: %v", model.ErrStoreUnavailable, err)
	}
	return ids, nil
}

// GetProfiles 批量读取用户资料投影
func (d *feedDAO) GetProfiles(ctx context.Context, userIDs []int64) (map[int64]*model.UserProfile, error) {
	var profiles []*model.UserProfile
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to get profiles: %v", model.ErrStoreUnavailable, err)
	}
	result := make(map[int64]*model.UserProfile, len(profiles))
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}

// GetRating 获取评分明细
func (d *feedDAO) GetRating(ctx context.Context, referenceID int64) (*model.AlbumRating, error) {
	var rating model.AlbumRating
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", referenceID).First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get rating: %v", model.ErrStoreUnavailable, err)
	}
	return &rating, nil
}

// GetListen 获取收听明细
func (d *feedDAO) GetListen(ctx context.Context, referenceID int64) (*model.AlbumListen, error) {
	var listen model.AlbumListen
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", referenceID).First(&listen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get listen: %v", model.ErrStoreUnavailable, err)
	}
	return &listen, nil
}

// GetDiary 获取日记明细
func (d *feedDAO) GetDiary(ctx context.Context, referenceID int64) (*model.DiaryEntry, error) {
	var diary model.DiaryEntry
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", referenceID).First(&diary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get diary: %v", model.ErrStoreUnavailable, err)
	}
	return &diary, nil
}
