package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/service"
	"operations-system/pkg/utils"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error)
	Logout(ctx context.Context, userID uint64) error
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func mapUser(u *entities.User) dto.UserDTO {
	return dto.UserDTO{
		ID:     u.ID,
		Login:  u.Login,
		Name:   u.Name,
		Role:   u.Role,
		Region: u.Region,
	}
}

func refreshKey(userID uint64) string {
	return fmt.Sprintf("auth:refresh:%d", userID)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindByLogin(ctx, payload.Login)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	lockoutKey := fmt.Sprintf("auth:lockout:%d", user.ID)
	attemptsKey := fmt.Sprintf("auth:attempts:%d", user.ID)
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		return nil, apperrors.NewHttpError(429, "забагато невдалих спроб, спробуйте пізніше", nil, nil)
	}

	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		attempts, _ := s.cacheRepo.Incr(ctx, attemptsKey)
		if attempts == 1 {
			_ = s.cacheRepo.Expire(ctx, attemptsKey, lockoutDuration)
		}
		if attempts >= maxLoginAttempts {
			_ = s.cacheRepo.Set(ctx, lockoutKey, "locked", lockoutDuration)
			_ = s.cacheRepo.Del(ctx, attemptsKey)
		}
		s.logger.Warn("неудачная попытка входа", zap.String("login", payload.Login))
		return nil, apperrors.ErrInvalidCredentials
	}
	_ = s.cacheRepo.Del(ctx, attemptsKey, lockoutKey)

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.Login, user.Name, user.Role)
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Error(err))
		return nil, err
	}

	// Активный refresh-токен хранится в Redis, logout его отзывает.
	if err := s.cacheRepo.Set(ctx, refreshKey(user.ID), refresh, s.jwtService.GetRefreshTokenTTL()); err != nil {
		s.logger.Error("не удалось сохранить refresh-токен", zap.Error(err))
		return nil, err
	}

	s.logger.Info("вход выполнен", zap.String("login", user.Login), zap.Uint64("userId", user.ID))
	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         mapUser(user),
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	stored, err := s.cacheRepo.Get(ctx, refreshKey(claims.UserID))
	if err != nil || stored != payload.RefreshToken {
		return nil, apperrors.ErrTokenNotFound
	}

	user, err := s.userRepo.FindUser(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.Login, user.Name, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.cacheRepo.Set(ctx, refreshKey(user.ID), refresh, s.jwtService.GetRefreshTokenTTL()); err != nil {
		return nil, err
	}

	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         mapUser(user),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	if err := s.cacheRepo.Del(ctx, refreshKey(userID)); err != nil {
		s.logger.Warn("не удалось отозвать refresh-токен",
			zap.String("userId", strconv.FormatUint(userID, 10)), zap.Error(err))
		return err
	}
	return nil
}
