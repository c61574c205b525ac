package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"melodiary/apps/user-service/model"
	"melodiary/pkg/database"
)

// userDAO 用户数据访问对象
type userDAO struct {
	db *database.PostgreSQL
}

// NewUserDAO 创建用户DAO实例
func NewUserDAO(db *database.PostgreSQL) UserDAO {
	return &userDAO{db: db}
}

// CreateUser 创建用户，用户名唯一索引冲突映射为ErrUsernameTaken
func (d *userDAO) CreateUser(ctx context.Context, user *model.UserProfile) error {
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("%w: failed to create user: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// GetUser 按ID获取用户
func (d *userDAO) GetUser(ctx context.Context, userID int64) (*model.UserProfile, error) {
	var user model.UserProfile
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get user: %v", model.ErrStoreUnavailable, err)
	}
	return &user, nil
}

// GetUserByUsername 按用户名获取用户，忽略大小写
func (d *userDAO) GetUserByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	var user model.UserProfile
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get user by username: %v", model.ErrStoreUnavailable, err)
	}
	return &user, nil
}

// UpdateProfile 更新资料字段
func (d *userDAO) UpdateProfile(ctx context.Context, userID int64, updates map[string]interface{}) error {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Model(&model.UserProfile{}).
		Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("%w: failed to update profile: %v", model.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SetPrivacy 切换隐私标记
func (d *userDAO) SetPrivacy(ctx context.Context, userID int64, isPrivate bool) error {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Model(&model.UserProfile{}).
		Where("id = ?", userID).Update("is_private", isPrivate)
	if result.Error != nil {
		return fmt.Errorf("%w: failed to set privacy: %v", model.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
