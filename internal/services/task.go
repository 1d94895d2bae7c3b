package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
	"operations-system/pkg/utils"
)

type TaskServiceInterface interface {
	GetTasks(ctx context.Context, filter types.Filter) ([]dto.TaskDTO, uint64, error)
	FindTask(ctx context.Context, id uint64) (*dto.TaskDTO, error)
	CreateTask(ctx context.Context, payload dto.CreateTaskDTO) (*dto.TaskDTO, error)
	UpdateTask(ctx context.Context, id uint64, payload dto.UpdateTaskDTO) (*dto.TaskDTO, error)
	DeleteTask(ctx context.Context, id uint64, payload dto.DeleteTaskDTO) error
	GetStatistics(ctx context.Context) (*dto.TaskStatisticsDTO, error)
}

type TaskService struct {
	taskRepo repositories.TaskRepositoryInterface
	logger   *zap.Logger
}

func NewTaskService(taskRepo repositories.TaskRepositoryInterface, logger *zap.Logger) TaskServiceInterface {
	return &TaskService{taskRepo: taskRepo, logger: logger}
}

func (s *TaskService) GetTasks(ctx context.Context, filter types.Filter) ([]dto.TaskDTO, uint64, error) {
	list, total, err := s.taskRepo.GetTasks(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.TaskDTO, 0, len(list))
	for i := range list {
		result = append(result, mapTask(&list[i]))
	}
	return result, total, nil
}

func (s *TaskService) FindTask(ctx context.Context, id uint64) (*dto.TaskDTO, error) {
	task, err := s.taskRepo.FindTask(ctx, id)
	if err != nil {
		return nil, err
	}
	view := mapTask(task)
	return &view, nil
}

func (s *TaskService) CreateTask(ctx context.Context, payload dto.CreateTaskDTO) (*dto.TaskDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	task := entities.Task{
		RequestNumber: payload.RequestNumber,
		ClientName:    payload.ClientName,
		ClientEdrpou:  payload.ClientEdrpou,
		ClientPhone:   payload.ClientPhone,
		Address:       payload.Address,
		Region:        payload.Region,
		EquipmentType: payload.EquipmentType,
		SerialNumber:  payload.SerialNumber,
		Description:   payload.Description,
		Status:        entities.TaskNew,
		Approval:      entities.ApprovalPending,
		Engineer:      payload.Engineer,
		ServiceTotal:  payload.ServiceTotal,
		WorksTotal:    payload.WorksTotal,
		PaymentType:   payload.PaymentType,
		CreatedBy:     userName,
	}
	if task.RequestNumber == "" {
		task.RequestNumber = fmt.Sprintf("СЗ-%s", time.Now().Format("20060102-150405"))
	}
	if payload.VisitDate != "" {
		visit, err := time.Parse("2006-01-02", payload.VisitDate)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("дата виїзду має формат YYYY-MM-DD")
		}
		task.VisitDate = &visit
	}

	id, err := s.taskRepo.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error("ошибка при создании заявки", zap.Error(err))
		return nil, err
	}
	task.ID = id

	s.logger.Info("заявка создана",
		zap.Uint64("id", id), zap.String("number", task.RequestNumber), zap.String("by", userName))
	view := mapTask(&task)
	return &view, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id uint64, payload dto.UpdateTaskDTO) (*dto.TaskDTO, error) {
	task, err := s.taskRepo.FindTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.ClientName.Valid {
		task.ClientName = payload.ClientName.String
	}
	if payload.ClientPhone.Valid {
		task.ClientPhone = payload.ClientPhone.String
	}
	if payload.Address.Valid {
		task.Address = payload.Address.String
	}
	if payload.Region.Valid {
		task.Region = payload.Region.String
	}
	if payload.EquipmentType.Valid {
		task.EquipmentType = payload.EquipmentType.String
	}
	if payload.SerialNumber.Valid {
		task.SerialNumber = payload.SerialNumber.String
	}
	if payload.Description.Valid {
		task.Description = payload.Description.String
	}
	if payload.Engineer.Valid {
		task.Engineer = payload.Engineer.String
	}
	if payload.ServiceTotal.Valid {
		task.ServiceTotal = payload.ServiceTotal.Float64
	}
	if payload.WorksTotal.Valid {
		task.WorksTotal = payload.WorksTotal.Float64
	}
	if payload.PaymentType.Valid {
		task.PaymentType = payload.PaymentType.String
	}
	if payload.VisitDate.Valid {
		if payload.VisitDate.String == "" {
			task.VisitDate = nil
		} else {
			visit, err := time.Parse("2006-01-02", payload.VisitDate.String)
			if err != nil {
				return nil, apperrors.NewInvalidInputError("дата виїзду має формат YYYY-MM-DD")
			}
			task.VisitDate = &visit
		}
	}
	if payload.Status.Valid {
		status := entities.TaskStatus(payload.Status.String)
		if !status.Valid() {
			return nil, apperrors.NewInvalidInputError("невідомий статус «%s»", payload.Status.String)
		}
		if status == entities.TaskDone && task.Status != entities.TaskDone {
			now := time.Now()
			task.CompletedAt = &now
		}
		task.Status = status
	}
	if payload.Approval.Valid {
		approval := entities.ApprovalStatus(payload.Approval.String)
		if !approval.Valid() {
			return nil, apperrors.NewInvalidInputError("невідоме рішення «%s»", payload.Approval.String)
		}
		task.Approval = approval
	}

	if err := s.taskRepo.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	view := mapTask(task)
	return &view, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uint64, payload dto.DeleteTaskDTO) error {
	if payload.Reason == "" {
		return apperrors.ErrReasonRequired
	}
	userName := utils.GetUserNameFromCtx(ctx)

	if _, err := s.taskRepo.FindTask(ctx, id); err != nil {
		return err
	}
	if err := s.taskRepo.SoftDeleteTask(ctx, id, fmt.Sprintf("%s (%s)", payload.Reason, userName)); err != nil {
		return err
	}

	s.logger.Info("заявка удалена",
		zap.Uint64("id", id), zap.String("reason", payload.Reason), zap.String("by", userName))
	return nil
}

func (s *TaskService) GetStatistics(ctx context.Context) (*dto.TaskStatisticsDTO, error) {
	return s.taskRepo.GetStatistics(ctx)
}
