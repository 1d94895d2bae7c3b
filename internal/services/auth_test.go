package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/service"
	"operations-system/pkg/utils"
)

type fakeUserRepo struct {
	items map[uint64]*entities.User
}

func (r *fakeUserRepo) GetUsers(ctx context.Context) ([]entities.User, error) {
	var list []entities.User
	for _, u := range r.items {
		list = append(list, *u)
	}
	return list, nil
}

func (r *fakeUserRepo) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	for _, u := range r.items {
		if u.Login == login {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user entities.User) (uint64, error) {
	user.ID = uint64(len(r.items) + 1)
	r.items[user.ID] = &user
	return user.ID, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, user entities.User) error {
	if _, ok := r.items[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.items[user.ID] = &user
	return nil
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, id uint64) error {
	delete(r.items, id)
	return nil
}

func newTestAuthService(t *testing.T) (AuthServiceInterface, *fakeCacheRepo) {
	t.Helper()
	hash, err := utils.HashPassword("admin123")
	require.NoError(t, err)

	users := &fakeUserRepo{items: map[uint64]*entities.User{
		1: {ID: 1, Login: "admin", PasswordHash: hash, Name: "Адміністратор", Role: "admin"},
	}}
	cache := newFakeCacheRepo()
	jwtSvc := service.NewJWTService("test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
	return NewAuthService(users, cache, jwtSvc, zap.NewNop()), cache
}

func TestLogin(t *testing.T) {
	svc, cache := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "admin", pair.User.Login)

	// Refresh-токен сохранён для последующего отзыва.
	stored, err := cache.Get(ctx, "auth:refresh:1")
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, stored)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginDTO{Login: "no-such-user", Password: "admin123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginLockout(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: fmt.Sprintf("wrong-%d", i)})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	// После пятой неудачи даже верный пароль получает 429.
	_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	require.Error(t, err)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 429, httpErr.Code)
}

func TestLoginResetsAttemptsOnSuccess(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "wrong"})
	}
	_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	require.NoError(t, err)

	// Счётчик сброшен, новые неудачи начинают отсчёт заново.
	_, err = svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	assert.NoError(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	require.NoError(t, err)

	// Метки iat/exp имеют секундную точность, иначе новый токен совпадёт со старым.
	time.Sleep(1100 * time.Millisecond)

	renewed, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)

	// Старый refresh-токен после ротации отклоняется.
	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, dto.LoginDTO{Login: "admin", Password: "admin123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, 1))

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}
