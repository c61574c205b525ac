package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodiary/apps/search-service/model"
	"melodiary/pkg/cache"
	"melodiary/pkg/logger"
)

// fakeSearchDAO 内存版DAO，记录各类搜索的调用次数
type fakeSearchDAO struct {
	albums  []*model.AlbumDoc
	artists []*model.ArtistDoc
	users   []*model.UserDoc

	albumCalls  int
	artistCalls int
	userCalls   int

	failSearch bool
}

func (f *fakeSearchDAO) SearchAlbums(ctx context.Context, query string, from, size int32) ([]*model.AlbumDoc, int64, error) {
	f.albumCalls++
	if f.failSearch {
		return nil, 0, fmt.Errorf("%w: search backend down", model.ErrStoreUnavailable)
	}
	return f.albums, int64(len(f.albums)), nil
}

func (f *fakeSearchDAO) SearchArtists(ctx context.Context, query string, from, size int32) ([]*model.ArtistDoc, int64, error) {
	f.artistCalls++
	if f.failSearch {
		return nil, 0, fmt.Errorf("%w: search backend down", model.ErrStoreUnavailable)
	}
	return f.artists, int64(len(f.artists)), nil
}

func (f *fakeSearchDAO) SearchUsers(ctx context.Context, query string, from, size int32) ([]*model.UserDoc, int64, error) {
	f.userCalls++
	if f.failSearch {
		return nil, 0, fmt.Errorf("%w: search backend down", model.ErrStoreUnavailable)
	}
	return f.users, int64(len(f.users)), nil
}

func (f *fakeSearchDAO) IndexAlbum(ctx context.Context, album *model.AlbumDoc) error { return nil }

func (f *fakeSearchDAO) IndexArtist(ctx context.Context, artist *model.ArtistDoc) error { return nil }

func (f *fakeSearchDAO) IndexUser(ctx context.Context, user *model.UserDoc) error { return nil }

func (f *fakeSearchDAO) EnsureIndexes(ctx context.Context) error { return nil }

func newTestService(fake *fakeSearchDAO) *Service {
	return NewService(fake, cache.NewSearchCache(cache.DefaultTTL, cache.DefaultMaxSize), nil, logger.GetLogger())
}

func TestSearchValidation(t *testing.T) {
	svc := newTestService(&fakeSearchDAO{})
	ctx := context.Background()

	_, err := svc.Search(ctx, &model.SearchRequest{Mode: "playlists", Query: "jazz"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "   "})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSearchCacheHit(t *testing.T) {
	fake := &fakeSearchDAO{
		albums: []*model.AlbumDoc{{ID: 1, Title: "Kind of Blue", Artist: "Miles Davis"}},
	}
	svc := newTestService(fake)
	ctx := context.Background()

	first, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "kind of blue"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, int64(1), first.Total)
	assert.Equal(t, 1, fake.albumCalls)

	second, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "kind of blue"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, int64(1), second.Total)
	// 命中缓存不会再查后端
	assert.Equal(t, 1, fake.albumCalls)
}

func TestSearchCacheNormalization(t *testing.T) {
	fake := &fakeSearchDAO{
		albums: []*model.AlbumDoc{{ID: 1, Title: "OK Computer"}},
	}
	svc := newTestService(fake)
	ctx := context.Background()

	_, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "OK Computer"})
	require.NoError(t, err)

	// 大小写和首尾空白不同的查询共享同一条缓存
	hit, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "  ok computer  "})
	require.NoError(t, err)
	assert.True(t, hit.FromCache)
	assert.Equal(t, 1, fake.albumCalls)
}

func TestSearchCacheModePartition(t *testing.T) {
	fake := &fakeSearchDAO{
		albums:  []*model.AlbumDoc{{ID: 1, Title: "Blackstar"}},
		artists: []*model.ArtistDoc{{ID: 2, Name: "David Bowie"}},
	}
	svc := newTestService(fake)
	ctx := context.Background()

	_, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "bowie"})
	require.NoError(t, err)

	// 相同查询文本在不同模式下不共享缓存
	artists, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeArtists, Query: "bowie"})
	require.NoError(t, err)
	assert.False(t, artists.FromCache)
	assert.Equal(t, 1, fake.albumCalls)
	assert.Equal(t, 1, fake.artistCalls)
	assert.Len(t, artists.Artists, 1)
}

func TestSearchSecondPageBypassesCache(t *testing.T) {
	fake := &fakeSearchDAO{
		users: []*model.UserDoc{{ID: 1, Username: "alice"}},
	}
	svc := newTestService(fake)
	ctx := context.Background()

	_, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeUsers, Query: "alice", Page: 2})
	require.NoError(t, err)

	_, err = svc.Search(ctx, &model.SearchRequest{Mode: model.ModeUsers, Query: "alice", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.userCalls)
}

func TestSearchCacheExpiry(t *testing.T) {
	fake := &fakeSearchDAO{
		albums: []*model.AlbumDoc{{ID: 1, Title: "In Rainbows"}},
	}
	shortCache := cache.NewSearchCache(time.Millisecond, cache.DefaultMaxSize)
	svc := NewService(fake, shortCache, nil, logger.GetLogger())
	ctx := context.Background()

	_, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "in rainbows"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	stale, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "in rainbows"})
	require.NoError(t, err)
	assert.False(t, stale.FromCache)
	assert.Equal(t, 2, fake.albumCalls)
}

func TestSearchBackendError(t *testing.T) {
	fake := &fakeSearchDAO{failSearch: true}
	svc := newTestService(fake)

	_, err := svc.Search(context.Background(), &model.SearchRequest{Mode: model.ModeAlbums, Query: "anything"})
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	// 失败结果不会被缓存
	fake.failSearch = false
	fake.albums = []*model.AlbumDoc{{ID: 1, Title: "Anything"}}
	result, err := svc.Search(context.Background(), &model.SearchRequest{Mode: model.ModeAlbums, Query: "anything"})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, int64(1), result.Total)
}

func TestClearCache(t *testing.T) {
	fake := &fakeSearchDAO{
		albums: []*model.AlbumDoc{{ID: 1, Title: "Vespertine"}},
	}
	svc := newTestService(fake)
	ctx := context.Background()

	_, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "vespertine"})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.CacheStats().Size)

	svc.ClearCache(ctx)
	assert.Equal(t, 0, svc.CacheStats().Size)

	refreshed, err := svc.Search(ctx, &model.SearchRequest{Mode: model.ModeAlbums, Query: "vespertine"})
	require.NoError(t, err)
	assert.False(t, refreshed.FromCache)
	assert.Equal(t, 2, fake.albumCalls)
}

func TestHotKeywordsWithoutRedis(t *testing.T) {
	svc := newTestService(&fakeSearchDAO{})

	keywords, err := svc.HotKeywords(context.Background(), model.ModeAlbums, 10)
	require.NoError(t, err)
	assert.Empty(t, keywords)

	_, err = svc.HotKeywords(context.Background(), "bogus", 10)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestIndexValidation(t *testing.T) {
	svc := newTestService(&fakeSearchDAO{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.IndexAlbum(ctx, nil), model.ErrValidation)
	assert.ErrorIs(t, svc.IndexArtist(ctx, &model.ArtistDoc{ID: 0}), model.ErrValidation)
	require.NoError(t, svc.IndexUser(ctx, &model.UserDoc{ID: 7, Username: "alice"}))
}
