package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"melodiary/apps/search-service/dao"
	"melodiary/apps/search-service/model"
	"melodiary/pkg/cache"
	"melodiary/pkg/logger"
	"melodiary/pkg/redis"
	"melodiary/pkg/telemetry"
)

// Service 搜索服务
//
// 进程内缓存挡在ES前面，只对首页查询生效；缓存永远不报错，
// 失效和未命中对调用方不可区分。
type Service struct {
	dao    dao.SearchDAO
	cache  *cache.SearchCache
	redis  *redis.RedisClient
	logger logger.Logger
}

// NewService 创建搜索服务实例
func NewService(searchDAO dao.SearchDAO, searchCache *cache.SearchCache, redis *redis.RedisClient, log logger.Logger) *Service {
	if searchCache == nil {
		searchCache = cache.NewSearchCache(cache.DefaultTTL, cache.DefaultMaxSize)
	}
	return &Service{
		dao:    searchDAO,
		cache:  searchCache,
		redis:  redis,
		logger: log,
	}
}

// Search 执行搜索
//
// 首页查询先查进程内缓存；命中直接返回并标记FromCache。
func (s *Service) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "search.service.Search")
	defer span.End()

	span.SetAttributes(attribute.String("search.mode", req.Mode))

	mode := strings.TrimSpace(req.Mode)
	if !model.IsValidMode(mode) {
		return nil, fmt.Errorf("%w: 无效的搜索模式: %s", model.ErrValidation, req.Mode)
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: 查询内容不能为空", model.ErrValidation)
	}

	page := req.Page
	if page <= 0 {
		page = model.DefaultPage
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}

	cacheable := page == model.DefaultPage && pageSize == model.DefaultPageSize
	if cacheable {
		if cached, ok := s.cache.Get(mode, query).(*model.SearchResult); ok && cached != nil {
			span.SetAttributes(attribute.Bool("search.cache_hit", true))
			hit := *cached
			hit.FromCache = true
			s.recordHotKeyword(ctx, mode, query)
			return &hit, nil
		}
	}

	result, err := s.executeSearch(ctx, mode, query, (page-1)*pageSize, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search backend failed")
		return nil, err
	}

	if cacheable {
		s.cache.Set(mode, query, result)
	}
	s.recordHotKeyword(ctx, mode, query)

	return result, nil
}

// executeSearch 按模式分发到对应索引
func (s *Service) executeSearch(ctx context.Context, mode, query string, from, size int32) (*model.SearchResult, error) {
	result := &model.SearchResult{
		Mode:  mode,
		Query: query,
	}

	var err error
	switch mode {
	case model.ModeAlbums:
		result.Albums, result.Total, err = s.dao.SearchAlbums(ctx, query, from, size)
	case model.ModeArtists:
		result.Artists, result.Total, err = s.dao.SearchArtists(ctx, query, from, size)
	case model.ModeUsers:
		result.Users, result.Total, err = s.dao.SearchUsers(ctx, query, from, size)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HotKeywords 获取热门搜索词
func (s *Service) HotKeywords(ctx context.Context, mode string, limit int32) ([]*model.HotKeyword, error) {
	ctx, span := telemetry.StartSpan(ctx, "search.service.HotKeywords")
	defer span.End()

	if !model.IsValidMode(mode) {
		return nil, fmt.Errorf("%w: 无效的搜索模式: %s", model.ErrValidation, mode)
	}
	if limit <= 0 {
		limit = model.DefaultHotLimit
	}
	if limit > model.MaxHotLimit {
		limit = model.MaxHotLimit
	}
	if s.redis == nil {
		return []*model.HotKeyword{}, nil
	}

	members, err := s.redis.ZRevRangeWithScores(ctx, model.HotKeywordPrefix+mode, 0, int64(limit-1))
	if err != nil {
		// 热词是附加功能，失败降级为空列表
		s.logger.Warn(ctx, "Failed to load hot keywords",
			logger.F("mode", mode),
			logger.F("error", err.Error()))
		return []*model.HotKeyword{}, nil
	}

	keywords := make([]*model.HotKeyword, 0, len(members))
	for _, m := range members {
		keyword, ok := m.Member.(string)
		if !ok {
			continue
		}
		keywords = append(keywords, &model.HotKeyword{
			Keyword: keyword,
			Score:   m.Score,
		})
	}
	return keywords, nil
}

// IndexAlbum 索引专辑文档
func (s *Service) IndexAlbum(ctx context.Context, album *model.AlbumDoc) error {
	ctx, span := telemetry.StartSpan(ctx, "search.service.IndexAlbum")
	defer span.End()

	if album == nil || album.ID <= 0 {
		return fmt.Errorf("%w: 专辑文档无效", model.ErrValidation)
	}
	return s.dao.IndexAlbum(ctx, album)
}

// IndexArtist 索引艺人文档
func (s *Service) IndexArtist(ctx context.Context, artist *model.ArtistDoc) error {
	ctx, span := telemetry.StartSpan(ctx, "search.service.IndexArtist")
	defer span.End()

	if artist == nil || artist.ID <= 0 {
		return fmt.Errorf("%w: 艺人文档无效", model.ErrValidation)
	}
	return s.dao.IndexArtist(ctx, artist)
}

// IndexUser 索引用户文档
func (s *Service) IndexUser(ctx context.Context, user *model.UserDoc) error {
	ctx, span := telemetry.StartSpan(ctx, "search.service.IndexUser")
	defer span.End()

	if user == nil || user.ID <= 0 {
		return fmt.Errorf("%w: 用户文档无效", model.ErrValidation)
	}
	return s.dao.IndexUser(ctx, user)
}

// CacheStats 缓存统计
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache 清空缓存
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear()
	s.logger.Info(ctx, "Search cache cleared")
}

// recordHotKeyword 累加热词计数，失败只记日志
func (s *Service) recordHotKeyword(ctx context.Context, mode, query string) {
	if s.redis == nil {
		return
	}
	keyword := strings.ToLower(strings.TrimSpace(query))
	if err := s.redis.ZIncrBy(ctx, model.HotKeywordPrefix+mode, 1, keyword); err != nil {
		s.logger.Warn(ctx, "Failed to record hot keyword",
			logger.F("mode", mode),
			logger.F("keyword", keyword),
			logger.F("error", err.Error()))
	}
}
