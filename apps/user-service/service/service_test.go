package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melodiary/apps/user-service/model"
	"melodiary/pkg/auth"
	"melodiary/pkg/logger"
	"melodiary/pkg/snowflake"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeUserDAO 内存版DAO
type fakeUserDAO struct {
	users map[int64]*model.UserProfile
}

func newFakeUserDAO() *fakeUserDAO {
	return &fakeUserDAO{users: make(map[int64]*model.UserProfile)}
}

func (f *fakeUserDAO) CreateUser(ctx context.Context, user *model.UserProfile) error {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return model.ErrUsernameTaken
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserDAO) GetUser(ctx context.Context, userID int64) (*model.UserProfile, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserDAO) GetUserByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeUserDAO) UpdateProfile(ctx context.Context, userID int64, updates map[string]interface{}) error {
	u, ok := f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	if v, ok := updates["display_name"]; ok {
		u.DisplayName = v.(string)
	}
	if v, ok := updates["avatar_url"]; ok {
		u.AvatarURL = v.(string)
	}
	if v, ok := updates["bio"]; ok {
		u.Bio = v.(string)
	}
	return nil
}

func (f *fakeUserDAO) SetPrivacy(ctx context.Context, userID int64, isPrivate bool) error {
	u, ok := f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.IsPrivate = isPrivate
	return nil
}

func newTestService() (*Service, *fakeUserDAO) {
	fake := newFakeUserDAO()
	svc := NewService(fake, nil, testSecret, logger.GetLogger())
	return svc, fake
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "alice",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice", user.DisplayName)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{Username: "Alice", Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{Username: "ab", Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "short"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidPassword)

	// 用户不存在和密码错误不可区分
	_, _, err = svc.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, model.ErrInvalidPassword)
}

func TestLookupCaseInsensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{Username: "Alice", Password: "secret123"})
	require.NoError(t, err)

	found, err := svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestSetPrivacy(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.False(t, user.IsPrivate)

	require.NoError(t, svc.SetPrivacy(ctx, user.ID, true))
	assert.True(t, fake.users[user.ID].IsPrivate)

	require.NoError(t, svc.SetPrivacy(ctx, user.ID, false))
	assert.False(t, fake.users[user.ID].IsPrivate)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, &model.UpdateProfileRequest{
		DisplayName: "Alice W",
		Bio:         "黑胶爱好者",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice W", updated.DisplayName)
	assert.Equal(t, "黑胶爱好者", updated.Bio)
}
