package services

import (
	"context"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/filestorage"
	"operations-system/pkg/utils"
)

type TestingServiceInterface interface {
	RequestTesting(ctx context.Context, id uint64, payload dto.RequestTestingDTO) (*dto.EquipmentDTO, error)
	CancelTesting(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	TakeInWork(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	CompleteTesting(ctx context.Context, id uint64, payload dto.CompleteTestingDTO) (*dto.EquipmentDTO, error)
	UploadFile(ctx context.Context, id uint64, file io.Reader, filename string) (*dto.EquipmentDTO, error)
	ListTestingRequests(ctx context.Context) ([]dto.EquipmentDTO, error)
}

type TestingService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	txManager     repositories.TxManagerInterface
	storage       filestorage.FileStorageInterface
	logger        *zap.Logger
}

func NewTestingService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	txManager repositories.TxManagerInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) TestingServiceInterface {
	return &TestingService{
		equipmentRepo: equipmentRepo,
		txManager:     txManager,
		storage:       storage,
		logger:        logger,
	}
}

// transition применяет переход машины состояний к записи в транзакции.
// apply вызывается после проверки допустимости перехода.
func (s *TestingService) transition(
	ctx context.Context,
	id uint64,
	to entities.TestingStatus,
	action string,
	apply func(eq *entities.Equipment),
) (*dto.EquipmentDTO, error) {
	var updated *entities.Equipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !eq.TestingStatus.CanTransition(to) {
			return &apperrors.InvalidTransitionError{
				From:   eq.TestingStatus.Label(),
				Action: action,
			}
		}
		eq.TestingStatus = to
		if apply != nil {
			apply(eq)
		}
		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *eq); err != nil {
			return err
		}
		updated = eq
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := mapEquipment(updated)
	return &view, nil
}

func (s *TestingService) RequestTesting(ctx context.Context, id uint64, payload dto.RequestTestingDTO) (*dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)
	now := time.Now()

	view, err := s.transition(ctx, id, entities.TestingRequested, "запит тестування", func(eq *entities.Equipment) {
		// Повторный запрос начинает новый цикл, прежний протокол затирается.
		eq.Testing = &entities.TestingInfo{
			Procedure:   payload.Procedure,
			Notes:       payload.Notes,
			RequestedAt: &now,
			RequestedBy: userName,
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("запрошено тестирование", zap.Uint64("id", id), zap.String("by", userName))
	return view, nil
}

func (s *TestingService) CancelTesting(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	view, err := s.transition(ctx, id, entities.TestingNone, "скасування тестування", func(eq *entities.Equipment) {
		eq.Testing = nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("запрос тестирования отменён", zap.Uint64("id", id))
	return view, nil
}

func (s *TestingService) TakeInWork(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)
	now := time.Now()

	view, err := s.transition(ctx, id, entities.TestingInProgress, "взяття в роботу", func(eq *entities.Equipment) {
		if eq.Testing == nil {
			eq.Testing = &entities.TestingInfo{}
		}
		eq.Testing.TakenAt = &now
		eq.Testing.TakenBy = userName
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("тестирование взято в работу", zap.Uint64("id", id), zap.String("by", userName))
	return view, nil
}

func (s *TestingService) CompleteTesting(ctx context.Context, id uint64, payload dto.CompleteTestingDTO) (*dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)
	now := time.Now()

	to := entities.TestingStatus(payload.Status)
	if to != entities.TestingCompleted && to != entities.TestingFailed {
		return nil, apperrors.NewInvalidInputError("статус завершення має бути completed або failed")
	}

	view, err := s.transition(ctx, id, to, "завершення тестування", func(eq *entities.Equipment) {
		if eq.Testing == nil {
			eq.Testing = &entities.TestingInfo{}
		}
		eq.Testing.Procedure = payload.Procedure
		eq.Testing.Result = payload.Result
		eq.Testing.Materials = payload.Materials
		eq.Testing.Conclusion = payload.Conclusion
		eq.Testing.Engineers = payload.Engineers
		if payload.Notes != "" {
			eq.Testing.Notes = payload.Notes
		}
		eq.Testing.CompletedAt = &now
		eq.Testing.CompletedBy = userName
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("тестирование завершено",
		zap.Uint64("id", id), zap.String("status", payload.Status), zap.String("by", userName))
	return view, nil
}

// UploadFile прикладывает файл (протокол, фото) к текущему циклу тестирования.
func (s *TestingService) UploadFile(ctx context.Context, id uint64, file io.Reader, filename string) (*dto.EquipmentDTO, error) {
	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if eq.TestingStatus == entities.TestingNone || eq.Testing == nil {
		return nil, apperrors.NewInvalidInputError("тестування для запису %d не розпочато", id)
	}

	url, err := s.storage.Save(file, filename, "testing")
	if err != nil {
		s.logger.Error("ошибка сохранения файла тестирования", zap.Error(err))
		return nil, err
	}

	eq.Testing.Files = append(eq.Testing.Files, entities.AttachedFile{
		URL:  url,
		Name: filename,
	})
	if err := s.equipmentRepo.UpdateEquipment(ctx, nil, *eq); err != nil {
		return nil, err
	}
	view := mapEquipment(eq)
	return &view, nil
}

func (s *TestingService) ListTestingRequests(ctx context.Context) ([]dto.EquipmentDTO, error) {
	list, err := s.equipmentRepo.ListByTestingStatuses(ctx, []entities.TestingStatus{
		entities.TestingRequested, entities.TestingInProgress,
	})
	if err != nil {
		return nil, err
	}
	result := make([]dto.EquipmentDTO, 0, len(list))
	for i := range list {
		result = append(result, mapEquipment(&list[i]))
	}
	return result, nil
}
