package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodiary/apps/social-service/model"
	"melodiary/pkg/logger"
	"melodiary/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeSocialDAO 内存版DAO，模拟存储层唯一约束行为
type fakeSocialDAO struct {
	edges    map[[2]int64]*model.FollowEdge
	requests map[int64]*model.FollowRequest
	profiles map[int64]*model.UserProfile
}

func newFakeSocialDAO() *fakeSocialDAO {
	return &fakeSocialDAO{
		edges:    make(map[[2]int64]*model.FollowEdge),
		requests: make(map[int64]*model.FollowRequest),
		profiles: make(map[int64]*model.UserProfile),
	}
}

func (f *fakeSocialDAO) addProfile(id int64, username string, isPrivate bool) {
	f.profiles[id] = &model.UserProfile{ID: id, Username: username, IsPrivate: isPrivate}
}

func (f *fakeSocialDAO) CreateFollow(ctx context.Context, edge *model.FollowEdge) error {
	key := [2]int64{edge.FollowerID, edge.FollowingID}
	if _, exists := f.edges[key]; exists {
		return model.ErrAlreadyFollowing
	}
	f.edges[key] = edge
	return nil
}

func (f *fakeSocialDAO) DeleteFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	key := [2]int64{followerID, followingID}
	if _, exists := f.edges[key]; !exists {
		return false, nil
	}
	delete(f.edges, key)
	return true, nil
}

func (f *fakeSocialDAO) HasFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	_, exists := f.edges[[2]int64{followerID, followingID}]
	return exists, nil
}

func (f *fakeSocialDAO) ListFollowing(ctx context.Context, userID int64) ([]*model.FollowEdge, error) {
	var out []*model.FollowEdge
	for _, e := range f.edges {
		if e.FollowerID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSocialDAO) ListFollowers(ctx context.Context, userID int64) ([]*model.FollowEdge, error) {
	var out []*model.FollowEdge
	for _, e := range f.edges {
		if e.FollowingID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSocialDAO) CreateRequest(ctx context.Context, req *model.FollowRequest) error {
	for _, r := range f.requests {
		if r.RequesterID == req.RequesterID && r.RequestedID == req.RequestedID && r.IsPending() {
			return model.ErrRequestPending
		}
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeSocialDAO) GetRequest(ctx context.Context, requestID int64) (*model.FollowRequest, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return req, nil
}

func (f *fakeSocialDAO) GetPendingRequest(ctx context.Context, requesterID, requestedID int64) (*model.FollowRequest, error) {
	for _, r := range f.requests {
		if r.RequesterID == requesterID && r.RequestedID == requestedID && r.IsPending() {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeSocialDAO) DeleteTerminalRequests(ctx context.Context, requesterID, requestedID int64) error {
	for id, r := range f.requests {
		if r.RequesterID == requesterID && r.RequestedID == requestedID && r.IsTerminal() {
			delete(f.requests, id)
		}
	}
	return nil
}

func (f *fakeSocialDAO) AcceptRequest(ctx context.Context, requestID, requestedID int64) (*model.FollowRequest, error) {
	req, ok := f.requests[requestID]
	if !ok || req.RequestedID != requestedID || !req.IsPending() {
		return nil, model.ErrNotFound
	}
	req.Status = model.RequestStatusAccepted
	key := [2]int64{req.RequesterID, req.RequestedID}
	if _, exists := f.edges[key]; exists {
		req.Status = model.RequestStatusPending // 模拟事务回滚
		return nil, model.ErrAlreadyFollowing
	}
	f.edges[key] = &model.FollowEdge{FollowerID: req.RequesterID, FollowingID: req.RequestedID}
	return req, nil
}

func (f *fakeSocialDAO) RejectRequest(ctx context.Context, requestID, requestedID int64) error {
	req, ok := f.requests[requestID]
	if !ok || req.RequestedID != requestedID || !req.IsPending() {
		return model.ErrNotFound
	}
	req.Status = model.RequestStatusRejected
	return nil
}

func (f *fakeSocialDAO) DeletePendingRequest(ctx context.Context, requestID, requesterID int64) (bool, error) {
	req, ok := f.requests[requestID]
	if !ok || req.RequesterID != requesterID || !req.IsPending() {
		return false, nil
	}
	delete(f.requests, requestID)
	return true, nil
}

func (f *fakeSocialDAO) ListIncomingRequests(ctx context.Context, requestedID int64) ([]*model.FollowRequest, error) {
	var out []*model.FollowRequest
	for _, r := range f.requests {
		if r.RequestedID == requestedID && r.IsPending() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSocialDAO) ListOutgoingRequests(ctx context.Context, requesterID int64) ([]*model.FollowRequest, error) {
	var out []*model.FollowRequest
	for _, r := range f.requests {
		if r.RequesterID == requesterID && r.IsPending() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSocialDAO) GetProfile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeSocialDAO) EnsureIndexes(ctx context.Context) error {
	return nil
}

func newTestService() (*Service, *fakeSocialDAO) {
	fake := newFakeSocialDAO()
	svc := NewService(fake, nil, logger.GetLogger())
	return svc, fake
}

func TestFollowPublicAccount(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)

	require.NoError(t, svc.Follow(ctx, 1, 2))

	relation, err := svc.GetRelation(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.RelationFollowing, relation)

	// 重复关注报AlreadyFollowing
	err = svc.Follow(ctx, 1, 2)
	assert.ErrorIs(t, err, model.ErrAlreadyFollowing)
}

func TestFollowSelf(t *testing.T) {
	svc, fake := newTestService()
	fake.addProfile(1, "alice", false)

	err := svc.Follow(context.Background(), 1, 1)
	assert.ErrorIs(t, err, model.ErrInvalidTarget)
}

func TestFollowPrivateAccountRejected(t *testing.T) {
	svc, fake := newTestService()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	err := svc.Follow(context.Background(), 1, 2)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGetRelationClassification(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)
	fake.addProfile(3, "carol", true)

	relation, err := svc.GetRelation(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RelationSelf, relation)

	relation, err = svc.GetRelation(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.RelationFollowable, relation)

	relation, err = svc.GetRelation(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, model.RelationRequestable, relation)

	_, err = svc.Request(ctx, 1, 3)
	require.NoError(t, err)
	relation, err = svc.GetRelation(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, model.RelationRequested, relation)
}

func TestRequestAcceptFlow(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, model.RequestStatusPending, req.Status)

	// 重复请求幂等返回同一条
	again, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)

	accepted, err := svc.Accept(ctx, 2, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAccepted, accepted.Status)

	// 恰好一条边，没有遗留pending请求
	has, err := fake.HasFollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, has)
	pending, err := fake.GetPendingRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, pending)

	// 双重接受：第二次收到NotFound
	_, err = svc.Accept(ctx, 2, req.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRequestOnPublicAccountRejected(t *testing.T) {
	svc, fake := newTestService()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)

	_, err := svc.Request(context.Background(), 1, 2)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRequestAfterRejectionReplacesRow(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	first, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, 2, first.ID))

	// 拒绝后可以重新发起请求，旧终态记录被替换
	second, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.RequestStatusPending, second.Status)
}

func TestRejectIdempotency(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, 2, req.ID))
	// 重复拒绝是幂等no-op
	require.NoError(t, svc.Reject(ctx, 2, req.ID))
}

func TestRejectAcceptedRequest(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, 2, req.ID)
	require.NoError(t, err)

	err = svc.Reject(ctx, 2, req.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancelRequest(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, 1, req.ID))

	// 再取消已不存在
	err = svc.Cancel(ctx, 1, req.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancelOnlyByRequester(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)

	err = svc.Cancel(ctx, 2, req.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUnfollowIdempotency(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)

	require.NoError(t, svc.Follow(ctx, 1, 2))
	require.NoError(t, svc.Unfollow(ctx, 1, 2))
	// 连续两次取消关注，第二次不报错
	require.NoError(t, svc.Unfollow(ctx, 1, 2))

	relation, err := svc.GetRelation(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.RelationFollowable, relation)
}

func TestUnfollowWithdrawsPendingRequest(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Unfollow(ctx, 1, 2))

	_, err = fake.GetRequest(ctx, req.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEdgeAndPendingMutuallyExclusive(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, 2, req.ID)
	require.NoError(t, err)

	// 已有边，不能再发请求
	_, err = svc.Request(ctx, 1, 2)
	assert.ErrorIs(t, err, model.ErrAlreadyFollowing)
}

func TestListRequests(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)
	fake.addProfile(3, "carol", true)

	_, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Request(ctx, 1, 3)
	require.NoError(t, err)

	outgoing, err := svc.ListOutgoingRequests(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, outgoing, 2)

	incoming, err := svc.ListIncomingRequests(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
}
