package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodiary/apps/feed-service/model"
	"melodiary/pkg/logger"
	"melodiary/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeFeedDAO 内存版DAO
type fakeFeedDAO struct {
	activities []*model.ActivityRecord
	ratings    map[int64]*model.AlbumRating
	listens    map[int64]*model.AlbumListen
	diaries    map[int64]*model.DiaryEntry
	following  map[int64][]int64
	profiles   map[int64]*model.UserProfile

	// 注入故障
	failActivities bool
	failFollowing  bool
	failProfiles   bool
	failDetails    bool
}

func newFakeFeedDAO() *fakeFeedDAO {
	return &fakeFeedDAO{
		ratings:   make(map[int64]*model.AlbumRating),
		listens:   make(map[int64]*model.AlbumListen),
		diaries:   make(map[int64]*model.DiaryEntry),
		following: make(map[int64][]int64),
		profiles:  make(map[int64]*model.UserProfile),
	}
}

func (f *fakeFeedDAO) addProfile(id int64, username string, isPrivate bool) {
	f.profiles[id] = &model.UserProfile{ID: id, Username: username, IsPrivate: isPrivate}
}

func (f *fakeFeedDAO) CreateListen(ctx context.Context, listen *model.AlbumListen, activity *model.ActivityRecord) error {
	f.listens[listen.ID] = listen
	activity.ReferenceID = listen.ID
	activity.CreatedAt = time.Now()
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeFeedDAO) CreateRating(ctx context.Context, rating *model.AlbumRating, activity *model.ActivityRecord) error {
	f.ratings[rating.ID] = rating
	activity.ReferenceID = rating.ID
	activity.CreatedAt = time.Now()
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeFeedDAO) CreateDiary(ctx context.Context, diary *model.DiaryEntry, activity *model.ActivityRecord) error {
	f.diaries[diary.ID] = diary
	activity.ReferenceID = diary.ID
	activity.CreatedAt = time.Now()
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeFeedDAO) sortedDesc() []*model.ActivityRecord {
	out := make([]*model.ActivityRecord, len(f.activities))
	copy(out, f.activities)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeFeedDAO) ListActivitiesByUsers(ctx context.Context, userIDs []int64, limit int) ([]*model.ActivityRecord, error) {
	if f.failActivities {
		return nil, fmt.Errorf("store unavailable")
	}
	allowed := make(map[int64]bool)
	for _, id := range userIDs {
		allowed[id] = true
	}
	var out []*model.ActivityRecord
	for _, r := range f.sortedDesc() {
		if allowed[r.UserID] {
			out = append(out, r)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeFeedDAO) ListRecentActivities(ctx context.Context, limit int) ([]*model.ActivityRecord, error) {
	if f.failActivities {
		return nil, fmt.Errorf("store unavailable")
	}
	out := f.sortedDesc()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFeedDAO) ListFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	if f.failFollowing {
		return nil, fmt.Errorf("store unavailable")
	}
	return f.following[userID], nil
}

func (f *fakeFeedDAO) GetProfiles(ctx context.Context, userIDs []int64) (map[int64]*model.UserProfile, error) {
	if f.failProfiles {
		return nil, fmt.Errorf("store unavailable")
	}
	out := make(map[int64]*model.UserProfile)
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeFeedDAO) GetRating(ctx context.Context, referenceID int64) (*model.AlbumRating, error) {
	if f.failDetails {
		return nil, fmt.Errorf("store unavailable")
	}
	r, ok := f.ratings[referenceID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return r, nil
}

func (f *fakeFeedDAO) GetListen(ctx context.Context, referenceID int64) (*model.AlbumListen, error) {
	if f.failDetails {
		return nil, fmt.Errorf("store unavailable")
	}
	l, ok := f.listens[referenceID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return l, nil
}

func (f *fakeFeedDAO) GetDiary(ctx context.Context, referenceID int64) (*model.DiaryEntry, error) {
	if f.failDetails {
		return nil, fmt.Errorf("store unavailable")
	}
	d, ok := f.diaries[referenceID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return d, nil
}

func newTestService() (*Service, *fakeFeedDAO) {
	fake := newFakeFeedDAO()
	svc := NewService(fake, nil, logger.GetLogger())
	return svc, fake
}

func TestRecordRatingValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordRating(ctx, 1, 100, 0, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.RecordRating(ctx, 1, 100, 6, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	activity, err := svc.RecordRating(ctx, 1, 100, 5, "神专")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityTypeRating, activity.ActivityType)
	assert.NotZero(t, activity.ReferenceID)
}

func TestPersonalFeedFollowsGraph(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)
	fake.addProfile(3, "carol", false)
	fake.following[1] = []int64{2}

	_, err := svc.RecordListen(ctx, 2, 100, time.Now())
	require.NoError(t, err)
	_, err = svc.RecordListen(ctx, 3, 200, time.Now())
	require.NoError(t, err)

	items := svc.PersonalFeed(ctx, 1, 10)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Activity.UserID)
	require.NotNil(t, items[0].Actor)
	assert.Equal(t, "bob", items[0].Actor.Username)
	assert.NotNil(t, items[0].Listen)
}

func TestPrivacyDynamism(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)
	fake.following[1] = []int64{2}

	_, err := svc.RecordDiary(ctx, 2, 100, "雨天循环这张", time.Now())
	require.NoError(t, err)

	items := svc.PersonalFeed(ctx, 1, 10)
	require.Len(t, items, 1)

	// 作者转私密后，同一查询立刻不可见；关注边和动态记录都未删除
	fake.profiles[2].IsPrivate = true
	items = svc.PersonalFeed(ctx, 1, 10)
	assert.Empty(t, items)
	assert.Len(t, fake.following[1], 1)
	assert.Len(t, fake.activities, 1)

	// 再转回公开，动态重新出现
	fake.profiles[2].IsPrivate = false
	items = svc.PersonalFeed(ctx, 1, 10)
	assert.Len(t, items, 1)
}

func TestGlobalFeedFiltersPrivateActors(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	_, err := svc.RecordListen(ctx, 1, 100, time.Now())
	require.NoError(t, err)
	_, err = svc.RecordListen(ctx, 2, 200, time.Now())
	require.NoError(t, err)

	items := svc.GlobalFeed(ctx, 10)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].Activity.UserID)
}

func TestFeedTrimsToLimitAfterFilter(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)

	for i := 0; i < 10; i++ {
		_, err := svc.RecordListen(ctx, 1, int64(100+i), time.Now().Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, err)
	}

	items := svc.GlobalFeed(ctx, 3)
	assert.Len(t, items, 3)
}

func TestFeedDegradesToEmptyOnStoreError(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.following[1] = []int64{2}
	fake.failActivities = true

	// 读失败不抛错，降级为空列表
	items := svc.PersonalFeed(ctx, 1, 10)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items = svc.GlobalFeed(ctx, 10)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFeedDegradesOnFollowGraphError(t *testing.T) {
	svc, fake := newTestService()
	fake.failFollowing = true

	items := svc.PersonalFeed(context.Background(), 1, 10)
	assert.Empty(t, items)
}

func TestEnrichmentFailureIsPerRecord(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)

	_, err := svc.RecordRating(ctx, 1, 100, 4, "不错")
	require.NoError(t, err)

	// 明细查询失败不让整批失败，条目缺明细返回
	fake.failDetails = true
	items := svc.GlobalFeed(ctx, 10)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Rating)
	require.NotNil(t, items[0].Actor)
}

func TestFeedSkipsUnknownActivityType(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)

	fake.activities = append(fake.activities, &model.ActivityRecord{
		ID:           1,
		UserID:       1,
		ActivityType: "bogus",
		AlbumID:      100,
		CreatedAt:    time.Now(),
	})

	items := svc.GlobalFeed(ctx, 10)
	assert.Empty(t, items)
}

func TestFeedOrderNewestFirst(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)

	base := time.Now()
	for i := 0; i < 3; i++ {
		fake.activities = append(fake.activities, &model.ActivityRecord{
			ID:           int64(i + 1),
			UserID:       1,
			ActivityType: model.ActivityTypeListen,
			AlbumID:      int64(100 + i),
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
	}

	items := svc.GlobalFeed(ctx, 10)
	require.Len(t, items, 3)
	assert.Equal(t, int64(3), items[0].Activity.ID)
	assert.Equal(t, int64(1), items[2].Activity.ID)
}
