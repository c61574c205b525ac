package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"melodiary/apps/feed-service/dao"
	"melodiary/apps/feed-service/model"
	"melodiary/pkg/kafka"
	"melodiary/pkg/logger"
	"melodiary/pkg/snowflake"
	"melodiary/pkg/telemetry"
)

// Service 动态服务
type Service struct {
	dao    dao.FeedDAO
	kafka  *kafka.Producer
	logger logger.Logger
}

// NewService 创建动态服务实例
func NewService(feedDAO dao.FeedDAO, kafka *kafka.Producer, log logger.Logger) *Service {
	return &Service{
		dao:    feedDAO,
		kafka:  kafka,
		logger: log,
	}
}

// RecordListen 记录一次收听
func (s *Service) RecordListen(ctx context.Context, userID, albumID int64, listenedAt time.Time) (*model.ActivityRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.RecordListen")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("activity.user_id", userID),
		attribute.Int64("activity.album_id", albumID),
	)

	if userID <= 0 || albumID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID或专辑ID无效", model.ErrValidation)
	}
	if listenedAt.IsZero() {
		listenedAt = time.Now()
	}

	listen := &model.AlbumListen{
		ID:         snowflake.GenerateID(),
		UserID:     userID,
		AlbumID:    albumID,
		ListenedAt: listenedAt,
	}
	activity := &model.ActivityRecord{
		ID:           snowflake.GenerateID(),
		UserID:       userID,
		ActivityType: model.ActivityTypeListen,
		AlbumID:      albumID,
	}
	if err := s.dao.CreateListen(ctx, listen, activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create listen")
		return nil, err
	}

	s.publishActivityEvent(ctx, activity)
	s.logger.Info(ctx, "Listen activity recorded",
		logger.F("activityID", activity.ID),
		logger.F("userID", userID),
		logger.F("albumID", albumID))
	return activity, nil
}

// RecordRating 记录一次评分
func (s *Service) RecordRating(ctx context.Context, userID, albumID int64, rating int32, review string) (*model.ActivityRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.RecordRating")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("activity.user_id", userID),
		attribute.Int64("activity.album_id", albumID),
	)

	if userID <= 0 || albumID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID或专辑ID无效", model.ErrValidation)
	}
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, fmt.Errorf("%w: 评分必须在%d到%d之间", model.ErrValidation, model.MinRating, model.MaxRating)
	}

	ratingRow := &model.AlbumRating{
		ID:      snowflake.GenerateID(),
		UserID:  userID,
		AlbumID: albumID,
		Rating:  rating,
		Review:  strings.TrimSpace(review),
	}
	activity := &model.ActivityRecord{
		ID:           snowflake.GenerateID(),
		UserID:       userID,
		ActivityType: model.ActivityTypeRating,
		AlbumID:      albumID,
	}
	if err := s.dao.CreateRating(ctx, ratingRow, activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create rating")
		return nil, err
	}

	s.publishActivityEvent(ctx, activity)
	s.logger.Info(ctx, "Rating activity recorded",
		logger.F("activityID", activity.ID),
		logger.F("userID", userID),
		logger.F("albumID", albumID),
		logger.F("rating", rating))
	return activity, nil
}

// RecordDiary 记录一篇听歌日记
func (s *Service) RecordDiary(ctx context.Context, userID, albumID int64, note string, entryDate time.Time) (*model.ActivityRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.RecordDiary")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("activity.user_id", userID),
		attribute.Int64("activity.album_id", albumID),
	)

	if userID <= 0 || albumID <= 0 {
		return nil, fmt.Errorf("%w: 用户ID或专辑ID无效", model.ErrValidation)
	}
	if strings.TrimSpace(note) == "" {
		return nil, fmt.Errorf("%w: 日记内容不能为空", model.ErrValidation)
	}
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	diary := &model.DiaryEntry{
		ID:        snowflake.GenerateID(),
		UserID:    userID,
		AlbumID:   albumID,
		Note:      strings.TrimSpace(note),
		EntryDate: entryDate,
	}
	activity := &model.ActivityRecord{
		ID:           snowflake.GenerateID(),
		UserID:       userID,
		ActivityType: model.ActivityTypeDiary,
		AlbumID:      albumID,
	}
	if err := s.dao.CreateDiary(ctx, diary, activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create diary")
		return nil, err
	}

	s.publishActivityEvent(ctx, activity)
	s.logger.Info(ctx, "Diary activity recorded",
		logger.F("activityID", activity.ID),
		logger.F("userID", userID),
		logger.F("albumID", albumID))
	return activity, nil
}

// PersonalFeed 个人关注流
//
// 超量抓取2倍limit，按作者当前is_private过滤后截断到limit。
// 存储层读失败降级为空列表，只记日志不向调用方抛错。
func (s *Service) PersonalFeed(ctx context.Context, userID int64, limit int32) []*model.FeedItem {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.PersonalFeed")
	defer span.End()

	span.SetAttributes(attribute.Int64("feed.user_id", userID))

	limit = clampLimit(limit)

	followingIDs, err := s.dao.ListFollowingIDs(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "Personal feed degraded to empty",
			logger.F("userID", userID),
			logger.F("error", err.Error()))
		return []*model.FeedItem{}
	}
	if len(followingIDs) == 0 {
		return []*model.FeedItem{}
	}

	records, err := s.dao.ListActivitiesByUsers(ctx, followingIDs, int(limit)*model.OverFetchFactor)
	if err != nil {
		s.logger.Error(ctx, "Personal feed degraded to empty",
			logger.F("userID", userID),
			logger.F("error", err.Error()))
		return []*model.FeedItem{}
	}

	return s.assemble(ctx, records, limit)
}

// GlobalFeed 全站发现流，候选池不受关注图限制
func (s *Service) GlobalFeed(ctx context.Context, limit int32) []*model.FeedItem {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.GlobalFeed")
	defer span.End()

	limit = clampLimit(limit)

	records, err := s.dao.ListRecentActivities(ctx, int(limit)*model.OverFetchFactor)
	if err != nil {
		s.logger.Error(ctx, "Global feed degraded to empty",
			logger.F("error", err.Error()))
		return []*model.FeedItem{}
	}

	return s.assemble(ctx, records, limit)
}

// assemble 过滤私密作者、截断、补充明细
//
// 隐私按资料表里当前的is_private判定，不信任任何写入时的快照；
// 账号转私密后动态立刻从流里消失，关注边和动态记录都不动。
func (s *Service) assemble(ctx context.Context, records []*model.ActivityRecord, limit int32) []*model.FeedItem {
	if len(records) == 0 {
		return []*model.FeedItem{}
	}

	actorIDs := make([]int64, 0, len(records))
	seen := make(map[int64]bool)
	for _, r := range records {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			actorIDs = append(actorIDs, r.UserID)
		}
	}

	profiles, err := s.dao.GetProfiles(ctx, actorIDs)
	if err != nil {
		s.logger.Error(ctx, "Feed degraded to empty",
			logger.F("error", err.Error()))
		return []*model.FeedItem{}
	}

	filtered := make([]*model.ActivityRecord, 0, len(records))
	for _, r := range records {
		profile, ok := profiles[r.UserID]
		if !ok || profile.IsPrivate {
			continue
		}
		// 无法识别的动态类型在读边界拦下，不进入结果
		if !model.IsValidActivityType(r.ActivityType) {
			s.logger.Warn(ctx, "Skipping activity with unknown type",
				logger.F("activityID", r.ID),
				logger.F("activityType", r.ActivityType))
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) >= int(limit) {
			break
		}
	}

	return s.enrich(ctx, filtered, profiles)
}

// enrich 为每条动态补充作者投影和类型明细
//
// 单条明细查询失败不影响整批，该条目缺明细返回。
func (s *Service) enrich(ctx context.Context, records []*model.ActivityRecord, profiles map[int64]*model.UserProfile) []*model.FeedItem {
	items := make([]*model.FeedItem, 0, len(records))
	for _, r := range records {
		item := &model.FeedItem{Activity: r}

		if profile, ok := profiles[r.UserID]; ok {
			item.Actor = &model.ActorProfile{
				ID:          profile.ID,
				Username:    profile.Username,
				DisplayName: profile.DisplayName,
				AvatarURL:   profile.AvatarURL,
			}
		}

		if r.ReferenceID > 0 {
			s.attachDetail(ctx, item, r)
		}
		items = append(items, item)
	}
	return items
}

// attachDetail 按动态类型取明细
func (s *Service) attachDetail(ctx context.Context, item *model.FeedItem, r *model.ActivityRecord) {
	var err error
	switch r.ActivityType {
	case model.ActivityTypeRating:
		item.Rating, err = s.dao.GetRating(ctx, r.ReferenceID)
	case model.ActivityTypeListen:
		item.Listen, err = s.dao.GetListen(ctx, r.ReferenceID)
	case model.ActivityTypeDiary:
		item.Diary, err = s.dao.GetDiary(ctx, r.ReferenceID)
	}
	if err != nil {
		s.logger.Warn(ctx, "Detail enrichment failed",
			logger.F("activityID", r.ID),
			logger.F("referenceID", r.ReferenceID),
			logger.F("error", err.Error()))
	}
}

// clampLimit 归一化limit
func clampLimit(limit int32) int32 {
	if limit <= 0 {
		return model.DefaultFeedLimit
	}
	if limit > model.MaxFeedLimit {
		return model.MaxFeedLimit
	}
	return limit
}

// publishActivityEvent 发布动态创建事件
func (s *Service) publishActivityEvent(ctx context.Context, activity *model.ActivityRecord) {
	if s.kafka == nil {
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":          model.EventActivityCreated,
			"activity_id":   activity.ID,
			"user_id":       activity.UserID,
			"activity_type": activity.ActivityType,
			"album_id":      activity.AlbumID,
			"timestamp":     time.Now().Unix(),
		}
		if err := s.kafka.PublishJSON(model.ActivityEventsTopic, model.EventActivityCreated, event); err != nil {
			s.logger.Error(context.Background(), "Failed to publish activity event",
				logger.F("activityID", activity.ID),
				logger.F("error", err.Error()))
		}
	}()
}
