package services

import (
	"context"

	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

type WarehouseServiceInterface interface {
	GetWarehouses(ctx context.Context, filter types.Filter) ([]dto.WarehouseDTO, uint64, error)
	FindWarehouse(ctx context.Context, id uint64) (*dto.WarehouseDTO, error)
	CreateWarehouse(ctx context.Context, payload dto.CreateWarehouseDTO) (*dto.WarehouseDTO, error)
	UpdateWarehouse(ctx context.Context, id uint64, payload dto.UpdateWarehouseDTO) (*dto.WarehouseDTO, error)
	DeleteWarehouse(ctx context.Context, id uint64) error
}

type WarehouseService struct {
	warehouseRepo repositories.WarehouseRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	logger        *zap.Logger
}

func NewWarehouseService(
	warehouseRepo repositories.WarehouseRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	logger *zap.Logger,
) WarehouseServiceInterface {
	return &WarehouseService{
		warehouseRepo: warehouseRepo,
		equipmentRepo: equipmentRepo,
		logger:        logger,
	}
}

func mapWarehouse(w *entities.Warehouse) dto.WarehouseDTO {
	return dto.WarehouseDTO{
		ID:       w.ID,
		Name:     w.Name,
		Region:   w.Region,
		Address:  w.Address,
		IsActive: w.IsActive,
	}
}

func (s *WarehouseService) GetWarehouses(ctx context.Context, filter types.Filter) ([]dto.WarehouseDTO, uint64, error) {
	list, total, err := s.warehouseRepo.GetWarehouses(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.WarehouseDTO, 0, len(list))
	for i := range list {
		result = append(result, mapWarehouse(&list[i]))
	}
	return result, total, nil
}

func (s *WarehouseService) FindWarehouse(ctx context.Context, id uint64) (*dto.WarehouseDTO, error) {
	w, err := s.warehouseRepo.FindWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	view := mapWarehouse(w)
	return &view, nil
}

func (s *WarehouseService) CreateWarehouse(ctx context.Context, payload dto.CreateWarehouseDTO) (*dto.WarehouseDTO, error) {
	warehouse := entities.Warehouse{
		Name:     payload.Name,
		Region:   payload.Region,
		Address:  payload.Address,
		IsActive: true,
	}
	id, err := s.warehouseRepo.CreateWarehouse(ctx, warehouse)
	if err != nil {
		s.logger.Error("ошибка при создании склада", zap.Error(err))
		return nil, err
	}
	warehouse.ID = id

	s.logger.Info("склад создан", zap.Uint64("id", id), zap.String("name", payload.Name))
	view := mapWarehouse(&warehouse)
	return &view, nil
}

func (s *WarehouseService) UpdateWarehouse(ctx context.Context, id uint64, payload dto.UpdateWarehouseDTO) (*dto.WarehouseDTO, error) {
	warehouse, err := s.warehouseRepo.FindWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name != "" {
		warehouse.Name = payload.Name
	}
	if payload.Region != "" {
		warehouse.Region = payload.Region
	}
	if payload.Address != "" {
		warehouse.Address = payload.Address
	}
	if payload.IsActive != nil {
		warehouse.IsActive = *payload.IsActive
	}

	if err := s.warehouseRepo.UpdateWarehouse(ctx, id, *warehouse); err != nil {
		return nil, err
	}
	view := mapWarehouse(warehouse)
	return &view, nil
}

// DeleteWarehouse удаляет только пустой склад.
func (s *WarehouseService) DeleteWarehouse(ctx context.Context, id uint64) error {
	if _, err := s.warehouseRepo.FindWarehouse(ctx, id); err != nil {
		return err
	}

	count, err := s.equipmentRepo.CountByWarehouse(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrWarehouseNotEmpty
	}

	if err := s.warehouseRepo.DeleteWarehouse(ctx, id); err != nil {
		return err
	}
	s.logger.Info("склад удалён", zap.Uint64("id", id))
	return nil
}
