package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"melodiary/apps/social-service/model"
	"melodiary/pkg/database"
)

// socialDAO 社交关系数据访问对象
type socialDAO struct {
	db *database.PostgreSQL
}

// NewSocialDAO 创建社交关系DAO实例
func NewSocialDAO(db *database.PostgreSQL) SocialDAO {
	return &socialDAO{db: db}
}

// EnsureIndexes 创建AutoMigrate无法表达的部分唯一索引
//
// 同一(requester_id, requested_id)只允许一条pending请求，终态记录不受限制。
func (d *socialDAO) EnsureIndexes(ctx context.Context) error {
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pending_request
		 ON follow_requests (requester_id, requested_id)
		 WHERE status = 'pending'`).Error; err != nil {
		return fmt.Errorf("%w: failed to create pending request index: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// CreateFollow 创建关注边
//
// 唯一索引冲突是并发关注竞争的权威信号，映射为ErrAlreadyFollowing。
func (d *socialDAO) CreateFollow(ctx context.Context, edge *model.FollowEdge) error {
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Create(edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrAlreadyFollowing
		}
		return fmt.Errorf("%w: failed to create follow: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteFollow 删除关注边，返回是否实际删除了记录
func (d *socialDAO) DeleteFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.FollowEdge{})
	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to delete follow: %v", model.ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// HasFollow 检查关注边是否存在
func (d *socialDAO) HasFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	var count int64
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: failed to check follow: %v", model.ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// ListFollowing 获取关注列表
func (d *socialDAO) ListFollowing(ctx context.Context, userID int64) ([]*model.FollowEdge, error) {
	var edges []*model.FollowEdge
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("follower_id = ?", userID).
		Order("created_at DESC").Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list following: %v", model.ErrStoreUnavailable, err)
	}
	return edges, nil
}

// ListFollowers 获取粉丝列表
func (d *socialDAO) ListFollowers(ctx context.Context, userID int64) ([]*model.FollowEdge, error) {
	var edges []*model.FollowEdge
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("following_id = ?", userID).
		Order("created_at DESC").Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list followers: %v", model.ErrStoreUnavailable, err)
	}
	return edges, nil
}

// CreateRequest 创建关注请求
//
// pending部分唯一索引冲突说明并发请求已抢先创建，映射为ErrRequestPending。
func (d *socialDAO) CreateRequest(ctx context.Context, req *model.FollowRequest) error {
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Create(req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrRequestPending
		}
		return fmt.Errorf("%w: failed to create follow request: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// GetRequest 获取关注请求
func (d *socialDAO) GetRequest(ctx context.Context, requestID int64) (*model.FollowRequest, error) {
	var req model.FollowRequest
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get follow request: %v", model.ErrStoreUnavailable, err)
	}
	return &req, nil
}

// GetPendingRequest 获取指定用户对之间的pending请求，不存在时返回(nil, nil)
func (d *socialDAO) GetPendingRequest(ctx context.Context, requesterID, requestedID int64) (*model.FollowRequest, error) {
	var req model.FollowRequest
	db := d.db.GetDB()
	err := db.WithContext(ctx).
		Where("requester_id = ? AND requested_id = ? AND status = ?",
			requesterID, requestedID, model.RequestStatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to get pending request: %v", model.ErrStoreUnavailable, err)
	}
	return &req, nil
}

// DeleteTerminalRequests 删除终态请求记录，为重新发起请求让路
func (d *socialDAO) DeleteTerminalRequests(ctx context.Context, requesterID, requestedID int64) error {
	db := d.db.GetDB()
	if err := db.WithContext(ctx).
		Where("requester_id = ? AND requested_id = ? AND status IN ?",
			requesterID, requestedID,
			[]string{model.RequestStatusAccepted, model.RequestStatusRejected}).
		Delete(&model.FollowRequest{}).Error; err != nil {
		return fmt.Errorf("%w: failed to delete terminal requests: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// AcceptRequest 接受关注请求
//
// 单事务完成状态流转和建边：条件UPDATE只命中pending记录，RowsAffected为0
// 说明请求不存在或已被处理（双重接受竞争时第二个调用者走到这里）。
func (d *socialDAO) AcceptRequest(ctx context.Context, requestID, requestedID int64) (*model.FollowRequest, error) {
	var req model.FollowRequest
	db := d.db.GetDB()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.FollowRequest{}).
			Where("id = ? AND requested_id = ? AND status = ?",
				requestID, requestedID, model.RequestStatusPending).
			Update("status", model.RequestStatusAccepted)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to accept request: %v", model.ErrStoreUnavailable, result.Error)
		}
		if result.RowsAffected == 0 {
			return model.ErrNotFound
		}

		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			return fmt.Errorf("%w: failed to load accepted request: %v", model.ErrStoreUnavailable, err)
		}

		edge := &model.FollowEdge{
			FollowerID:  req.RequesterID,
			FollowingID: req.RequestedID,
		}
		if err := tx.Create(edge).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return model.ErrAlreadyFollowing
			}
			return fmt.Errorf("%w: failed to create follow edge: %v", model.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// RejectRequest 拒绝关注请求，只命中pending记录
func (d *socialDAO) RejectRequest(ctx context.Context, requestID, requestedID int64) error {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Model(&model.FollowRequest{}).
		Where("id = ? AND requested_id = ? AND status = ?",
			requestID, requestedID, model.RequestStatusPending).
		Update("status", model.RequestStatusRejected)
	if result.Error != nil {
		return fmt.Errorf("%w: failed to reject request: %v", model.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeletePendingRequest 删除pending请求（取消），只有请求方可以操作
func (d *socialDAO) DeletePendingRequest(ctx context.Context, requestID, requesterID int64) (bool, error) {
	db := d.db.GetDB()
	result := db.WithContext(ctx).
		Where("id = ? AND requester_id = ? AND status = ?",
			requestID, requesterID, model.RequestStatusPending).
		Delete(&model.FollowRequest{})
	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to delete pending request: %v", model.ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListIncomingRequests 获取收到的pending请求列表
func (d *socialDAO) ListIncomingRequests(ctx context.Context, requestedID int64) ([]*model.FollowRequest, error) {
	var reqs []*model.FollowRequest
	db := d.db.GetDB()
	if err := db.WithContext(ctx).
		Where("requested_id = ? AND status = ?", requestedID, model.RequestStatusPending).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list incoming requests: %v", model.ErrStoreUnavailable, err)
	}
	return reqs, nil
}

// ListOutgoingRequests 获取发出的pending请求列表
func (d *socialDAO) ListOutgoingRequests(ctx context.Context, requesterID int64) ([]*model.FollowRequest, error) {
	var reqs []*model.FollowRequest
	db := d.db.GetDB()
	if err := db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", requesterID, model.RequestStatusPending).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list outgoing requests: %v", model.ErrStoreUnavailable, err)
	}
	return reqs, nil
}

// GetProfile 获取用户资料投影
func (d *socialDAO) GetProfile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	var profile model.UserProfile
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get user profile: %v", model.ErrStoreUnavailable, err)
	}
	return &profile, nil
}
