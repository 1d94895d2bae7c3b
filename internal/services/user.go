package services

import (
	"context"

	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context) ([]dto.UserDTO, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, logger *zap.Logger) UserServiceInterface {
	return &UserService{userRepo: userRepo, logger: logger}
}

func (s *UserService) GetUsers(ctx context.Context) ([]dto.UserDTO, error) {
	users, err := s.userRepo.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		result = append(result, mapUser(&users[i]))
	}
	return result, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	view := mapUser(user)
	return &view, nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	if _, err := s.userRepo.FindByLogin(ctx, payload.Login); err == nil {
		return nil, apperrors.NewInvalidInputError("логін «%s» вже зайнятий", payload.Login)
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		s.logger.Error("ошибка хеширования пароля", zap.Error(err))
		return nil, err
	}

	user := entities.User{
		Login:        payload.Login,
		PasswordHash: hash,
		Name:         payload.Name,
		Role:         payload.Role,
		Region:       payload.Region,
	}
	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.logger.Info("пользователь создан", zap.Uint64("id", id), zap.String("login", payload.Login))
	view := mapUser(&user)
	return &view, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name != "" {
		user.Name = payload.Name
	}
	if payload.Role != "" {
		user.Role = payload.Role
	}
	if payload.Region != "" {
		user.Region = payload.Region
	}
	if payload.Password != "" {
		hash, err := utils.HashPassword(payload.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		return nil, err
	}
	view := mapUser(user)
	return &view, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("пользователь удалён", zap.Uint64("id", id))
	return nil
}
