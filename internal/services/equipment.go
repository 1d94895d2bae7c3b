package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/filestorage"
	"operations-system/pkg/types"
	"operations-system/pkg/utils"
)

const (
	statisticsCacheKey = "equipment:statistics"
	statisticsCacheTTL = 5 * time.Minute
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) ([]dto.EquipmentDTO, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error)
	DeleteEquipment(ctx context.Context, id uint64, payload dto.DeleteEquipmentDTO) error
	MoveEquipment(ctx context.Context, id uint64, payload dto.MoveEquipmentDTO) (*dto.EquipmentDTO, error)
	BulkMove(ctx context.Context, payload dto.BulkMoveDTO) ([]dto.EquipmentDTO, error)
	BatchMove(ctx context.Context, payload dto.BatchMoveDTO) ([]dto.EquipmentDTO, error)
	ShipEquipment(ctx context.Context, id uint64, payload dto.ShipEquipmentDTO) (*dto.EquipmentDTO, error)
	WriteOffEquipment(ctx context.Context, id uint64, payload dto.WriteOffEquipmentDTO) (*dto.EquipmentDTO, error)
	UpdateStatus(ctx context.Context, id uint64, payload dto.UpdateStatusDTO) (*dto.EquipmentDTO, error)
	ApproveReceipt(ctx context.Context, payload dto.ApproveReceiptDTO) (int, error)
	ScanEquipment(ctx context.Context, payload dto.ScanEquipmentDTO) (*dto.EquipmentDTO, error)
	GetStatistics(ctx context.Context) (*dto.StatisticsDTO, error)
	InTransitCount(ctx context.Context) (uint64, error)
	ReservationHistory(ctx context.Context, id uint64) ([]entities.Reservation, error)
	UploadPhoto(ctx context.Context, id uint64, file io.Reader, filename string) (*dto.EquipmentDTO, error)
}

type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	warehouseRepo repositories.WarehouseRepositoryInterface
	reservationRepo repositories.ReservationRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	txManager     repositories.TxManagerInterface
	storage       filestorage.FileStorageInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	warehouseRepo repositories.WarehouseRepositoryInterface,
	reservationRepo repositories.ReservationRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	txManager repositories.TxManagerInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo:   equipmentRepo,
		warehouseRepo:   warehouseRepo,
		reservationRepo: reservationRepo,
		cacheRepo:       cacheRepo,
		txManager:       txManager,
		storage:         storage,
		logger:          logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	list, total, err := s.equipmentRepo.GetEquipments(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка при получении списка обладнання", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EquipmentDTO, 0, len(list))
	for i := range list {
		result = append(result, mapEquipment(&list[i]))
	}
	return result, total, nil
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	view := mapEquipment(eq)
	return &view, nil
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) ([]dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	warehouse, err := s.warehouseRepo.FindWarehouse(ctx, payload.WarehouseID)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("склад %d не знайдено", payload.WarehouseID)
	}

	if payload.SerialNumber.Valid && payload.SerialNumber.String != "" {
		if existing, err := s.equipmentRepo.FindBySerial(ctx, payload.SerialNumber.String); err == nil {
			return nil, apperrors.NewHttpErrorWithDetails(
				http.StatusConflict, apperrors.ErrDuplicateSerial.Error(), apperrors.ErrDuplicateSerial,
				map[string]interface{}{"existing": mapEquipment(existing)},
			)
		}
	}

	quantity := payload.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	base := entities.Equipment{
		Type:               payload.Type,
		Manufacturer:       payload.Manufacturer,
		Quantity:           1,
		CurrentWarehouseID: payload.WarehouseID,
		Status:             entities.StatusInStock,
		UnitPrice:          payload.UnitPrice,
		TestingStatus:      entities.TestingNone,
		Nameplate:          payload.Nameplate,
		AddedBy:            userName,
	}
	if payload.SerialNumber.Valid && payload.SerialNumber.String != "" {
		base.SerialNumber = &payload.SerialNumber.String
	}
	if payload.CategoryID.Valid {
		base.CategoryID = &payload.CategoryID.Uint64
	}

	var created []dto.EquipmentDTO
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if payload.IsBatch && quantity > 1 {
			// Партия: N штучных записей с общим batchId.
			batchID := uuid.NewString()
			for i := 0; i < quantity; i++ {
				item := base
				item.IsBatch = true
				item.BatchID = &batchID
				item.SerialNumber = nil
				id, err := s.equipmentRepo.CreateEquipment(ctx, tx, item)
				if err != nil {
					return err
				}
				item.ID = id
				item.CurrentWarehouseName = warehouse.Name
				created = append(created, mapEquipment(&item))
			}
			return nil
		}

		item := base
		if base.SerialNumber == nil && quantity > 1 {
			// Количественный лот: одна запись с количеством.
			item.Quantity = quantity
		}
		id, err := s.equipmentRepo.CreateEquipment(ctx, tx, item)
		if err != nil {
			return err
		}
		item.ID = id
		item.CurrentWarehouseName = warehouse.Name
		created = append(created, mapEquipment(&item))
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка при создании обладнання", zap.Error(err))
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("обладнання создано",
		zap.String("type", payload.Type), zap.Int("count", len(created)), zap.String("by", userName))
	return created, nil
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Type.Valid {
		eq.Type = payload.Type.String
	}
	if payload.Manufacturer.Valid {
		eq.Manufacturer = payload.Manufacturer.String
	}
	if payload.SerialNumber.Valid {
		if payload.SerialNumber.String == "" {
			eq.SerialNumber = nil
		} else {
			if existing, err := s.equipmentRepo.FindBySerial(ctx, payload.SerialNumber.String); err == nil && existing.ID != id {
				return nil, apperrors.NewHttpErrorWithDetails(
					http.StatusConflict, apperrors.ErrDuplicateSerial.Error(), apperrors.ErrDuplicateSerial,
					map[string]interface{}{"existing": mapEquipment(existing)},
				)
			}
			eq.SerialNumber = &payload.SerialNumber.String
		}
	}
	if payload.CategoryID.Valid {
		eq.CategoryID = &payload.CategoryID.Uint64
	}
	if payload.UnitPrice.Valid {
		eq.UnitPrice = payload.UnitPrice.Float64
	}
	if payload.Nameplate != nil {
		eq.Nameplate = payload.Nameplate
	}

	if err := s.equipmentRepo.UpdateEquipment(ctx, nil, *eq); err != nil {
		return nil, err
	}
	view := mapEquipment(eq)
	return &view, nil
}

func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64, payload dto.DeleteEquipmentDTO) error {
	if payload.Reason == "" {
		return apperrors.ErrReasonRequired
	}
	userName := utils.GetUserNameFromCtx(ctx)

	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return err
	}
	if eq.Status == entities.StatusReserved {
		return apperrors.ErrEquipmentReserved
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.equipmentRepo.SoftDeleteEquipment(ctx, tx, id, payload.Reason, userName)
	})
	if err != nil {
		return err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("обладнання удалено",
		zap.Uint64("id", id), zap.String("reason", payload.Reason), zap.String("by", userName))
	return nil
}

// checkMovable проверяет, что запись можно трогать складской операцией.
func checkMovable(eq *entities.Equipment) error {
	switch eq.Status {
	case entities.StatusReserved:
		return apperrors.ErrEquipmentReserved
	case entities.StatusInStock:
		return nil
	}
	return apperrors.ErrEquipmentNotInStock
}

// splitOff отщепляет qty единиц от количественного лота: источник
// уменьшается, копия с новым id получает qty и ссылку на источник.
// Общий путь для складских операций и проводки документов.
func splitOff(ctx context.Context, repo repositories.EquipmentRepositoryInterface, tx pgx.Tx, src *entities.Equipment, qty int) (*entities.Equipment, error) {
	if qty > src.Quantity {
		return nil, apperrors.NewCapacityError(qty, src.Quantity)
	}

	part := *src
	part.ID = 0
	part.Quantity = qty
	part.MovementHistory = append([]entities.MovementEntry(nil), src.MovementHistory...)
	part.ShipmentHistory = append([]entities.ShipmentEntry(nil), src.ShipmentHistory...)

	src.Quantity -= qty
	if err := repo.UpdateEquipment(ctx, tx, *src); err != nil {
		return nil, err
	}

	newID, err := repo.CreateEquipment(ctx, tx, part)
	if err != nil {
		return nil, err
	}
	part.ID = newID
	return &part, nil
}

func (s *EquipmentService) MoveEquipment(ctx context.Context, id uint64, payload dto.MoveEquipmentDTO) (*dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	toWarehouse, err := s.warehouseRepo.FindWarehouse(ctx, payload.ToWarehouse)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("склад %d не знайдено", payload.ToWarehouse)
	}

	var moved *entities.Equipment
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkMovable(eq); err != nil {
			return err
		}
		if eq.CurrentWarehouseID == payload.ToWarehouse {
			return apperrors.ErrSameWarehouse
		}

		qty := payload.Quantity
		if qty == 0 || qty >= eq.Quantity {
			if qty > eq.Quantity {
				return apperrors.NewCapacityError(qty, eq.Quantity)
			}
			qty = eq.Quantity
		}

		entry := entities.MovementEntry{
			Date:              time.Now(),
			FromWarehouseID:   eq.CurrentWarehouseID,
			FromWarehouseName: eq.CurrentWarehouseName,
			ToWarehouseID:     toWarehouse.ID,
			ToWarehouseName:   toWarehouse.Name,
			Quantity:          qty,
			MovedBy:           userName,
			Reason:            payload.Reason,
		}

		if qty == eq.Quantity {
			eq.CurrentWarehouseID = toWarehouse.ID
			eq.CurrentWarehouseName = toWarehouse.Name
			eq.MovementHistory = append(eq.MovementHistory, entry)
			if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *eq); err != nil {
				return err
			}
			moved = eq
			return nil
		}

		// Частичное перемещение лота: отщепляем и двигаем копию.
		entry.SourceRecordID = eq.ID
		part, err := splitOff(ctx, s.equipmentRepo, tx, eq, qty)
		if err != nil {
			return err
		}
		part.CurrentWarehouseID = toWarehouse.ID
		part.CurrentWarehouseName = toWarehouse.Name
		part.MovementHistory = append(part.MovementHistory, entry)
		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *part); err != nil {
			return err
		}
		moved = part
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("обладнання перемещено",
		zap.Uint64("id", id), zap.Uint64("to", payload.ToWarehouse), zap.String("by", userName))
	view := mapEquipment(moved)
	return &view, nil
}

// BulkMove двигает несколько записей одной транзакцией, всё или ничего.
func (s *EquipmentService) BulkMove(ctx context.Context, payload dto.BulkMoveDTO) ([]dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	toWarehouse, err := s.warehouseRepo.FindWarehouse(ctx, payload.ToWarehouse)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("склад %d не знайдено", payload.ToWarehouse)
	}

	var result []dto.EquipmentDTO
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, item := range payload.Items {
			eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
			if err != nil {
				return fmt.Errorf("запис %d: %w", item.EquipmentID, err)
			}
			if err := checkMovable(eq); err != nil {
				return fmt.Errorf("запис %d: %w", item.EquipmentID, err)
			}
			if eq.CurrentWarehouseID == toWarehouse.ID {
				return fmt.Errorf("запис %d: %w", item.EquipmentID, apperrors.ErrSameWarehouse)
			}

			qty := item.Quantity
			if qty == 0 || qty >= eq.Quantity {
				if qty > eq.Quantity {
					return apperrors.NewCapacityError(qty, eq.Quantity)
				}
				qty = eq.Quantity
			}

			entry := entities.MovementEntry{
				Date:              time.Now(),
				FromWarehouseID:   eq.CurrentWarehouseID,
				FromWarehouseName: eq.CurrentWarehouseName,
				ToWarehouseID:     toWarehouse.ID,
				ToWarehouseName:   toWarehouse.Name,
				Quantity:          qty,
				MovedBy:           userName,
				Reason:            payload.Reason,
			}

			target := eq
			if qty < eq.Quantity {
				entry.SourceRecordID = eq.ID
				part, err := splitOff(ctx, s.equipmentRepo, tx, eq, qty)
				if err != nil {
					return err
				}
				target = part
			}
			target.CurrentWarehouseID = toWarehouse.ID
			target.CurrentWarehouseName = toWarehouse.Name
			target.MovementHistory = append(target.MovementHistory, entry)
			if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *target); err != nil {
				return err
			}
			result = append(result, mapEquipment(target))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("групповое перемещение выполнено",
		zap.Int("count", len(result)), zap.Uint64("to", payload.ToWarehouse), zap.String("by", userName))
	return result, nil
}

// BatchMove двигает N единиц партии, конкретные единицы выбирает сервер.
func (s *EquipmentService) BatchMove(ctx context.Context, payload dto.BatchMoveDTO) ([]dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	toWarehouse, err := s.warehouseRepo.FindWarehouse(ctx, payload.ToWarehouse)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("склад %d не знайдено", payload.ToWarehouse)
	}

	var result []dto.EquipmentDTO
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		units, err := s.equipmentRepo.ListByBatch(ctx, tx, payload.BatchID)
		if err != nil {
			return err
		}

		available := make([]*entities.Equipment, 0, len(units))
		for i := range units {
			eq := &units[i]
			if eq.Status == entities.StatusInStock && eq.CurrentWarehouseID != toWarehouse.ID {
				available = append(available, eq)
			}
		}
		if payload.Quantity > len(available) {
			return apperrors.NewCapacityError(payload.Quantity, len(available))
		}

		for _, eq := range available[:payload.Quantity] {
			entry := entities.MovementEntry{
				Date:              time.Now(),
				FromWarehouseID:   eq.CurrentWarehouseID,
				FromWarehouseName: eq.CurrentWarehouseName,
				ToWarehouseID:     toWarehouse.ID,
				ToWarehouseName:   toWarehouse.Name,
				Quantity:          1,
				MovedBy:           userName,
				Reason:            payload.Reason,
			}
			eq.CurrentWarehouseID = toWarehouse.ID
			eq.CurrentWarehouseName = toWarehouse.Name
			eq.MovementHistory = append(eq.MovementHistory, entry)
			if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *eq); err != nil {
				return err
			}
			result = append(result, mapEquipment(eq))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("перемещение партии выполнено",
		zap.String("batchId", payload.BatchID), zap.Int("count", len(result)), zap.String("by", userName))
	return result, nil
}

func (s *EquipmentService) ShipEquipment(ctx context.Context, id uint64, payload dto.ShipEquipmentDTO) (*dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	var shipped *entities.Equipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkMovable(eq); err != nil {
			return err
		}

		qty := payload.Quantity
		if qty == 0 || qty >= eq.Quantity {
			if qty > eq.Quantity {
				return apperrors.NewCapacityError(qty, eq.Quantity)
			}
			qty = eq.Quantity
		}

		entry := entities.ShipmentEntry{
			Date:          time.Now(),
			ShippedTo:     payload.ShippedTo,
			OrderNumber:   payload.OrderNumber,
			InvoiceNumber: payload.InvoiceNumber,
			ClientEdrpou:  payload.ClientEdrpou,
			Quantity:      qty,
			ShippedBy:     userName,
		}

		target := eq
		if qty < eq.Quantity {
			part, err := splitOff(ctx, s.equipmentRepo, tx, eq, qty)
			if err != nil {
				return err
			}
			target = part
		}
		target.Status = entities.StatusShipped
		target.ShipmentHistory = append(target.ShipmentHistory, entry)
		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *target); err != nil {
			return err
		}
		shipped = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("обладнання отгружено",
		zap.Uint64("id", id), zap.String("to", payload.ShippedTo), zap.String("by", userName))
	view := mapEquipment(shipped)
	return &view, nil
}

func (s *EquipmentService) WriteOffEquipment(ctx context.Context, id uint64, payload dto.WriteOffEquipmentDTO) (*dto.EquipmentDTO, error) {
	if payload.Reason == "" {
		return nil, apperrors.ErrReasonRequired
	}
	userName := utils.GetUserNameFromCtx(ctx)

	var written *entities.Equipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkMovable(eq); err != nil {
			return err
		}

		qty := payload.Quantity
		if qty == 0 || qty >= eq.Quantity {
			if qty > eq.Quantity {
				return apperrors.NewCapacityError(qty, eq.Quantity)
			}
			qty = eq.Quantity
		}

		target := eq
		if qty < eq.Quantity {
			part, err := splitOff(ctx, s.equipmentRepo, tx, eq, qty)
			if err != nil {
				return err
			}
			target = part
		}
		target.Status = entities.StatusWrittenOff
		target.WriteOff = &entities.WriteOffInfo{
			Reason: payload.Reason,
			Notes:  payload.Notes,
			By:     userName,
			At:     time.Now(),
		}
		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *target); err != nil {
			return err
		}
		written = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("обладнання списано",
		zap.Uint64("id", id), zap.String("reason", payload.Reason), zap.String("by", userName))
	view := mapEquipment(written)
	return &view, nil
}

func (s *EquipmentService) UpdateStatus(ctx context.Context, id uint64, payload dto.UpdateStatusDTO) (*dto.EquipmentDTO, error) {
	status := entities.Status(payload.Status)
	if !status.Valid() {
		return nil, apperrors.NewInvalidInputError("невідомий статус «%s»", payload.Status)
	}

	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if eq.Status == entities.StatusReserved && status != entities.StatusInStock {
		return nil, apperrors.ErrEquipmentReserved
	}

	eq.Status = status
	if err := s.equipmentRepo.UpdateEquipment(ctx, nil, *eq); err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	view := mapEquipment(eq)
	return &view, nil
}

// ApproveReceipt переводит записи из «В дорозі» в «На складі».
func (s *EquipmentService) ApproveReceipt(ctx context.Context, payload dto.ApproveReceiptDTO) (int, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	var approved int
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		units, err := s.equipmentRepo.ListByIDs(ctx, tx, payload.EquipmentIDs)
		if err != nil {
			return err
		}
		if len(units) != len(payload.EquipmentIDs) {
			return apperrors.ErrNotFound
		}
		for i := range units {
			eq := &units[i]
			if eq.Status != entities.StatusInTransit {
				return apperrors.NewInvalidInputError("запис %d не в статусі «В дорозі»", eq.ID)
			}
			eq.Status = entities.StatusInStock
			if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *eq); err != nil {
				return err
			}
			approved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("приход подтверждён", zap.Int("count", approved), zap.String("by", userName))
	return approved, nil
}

// ScanEquipment создаёт запись из проверенных оператором данных шильдика.
// Дубликат серийника возвращается конфликтом вместе с существующей записью.
func (s *EquipmentService) ScanEquipment(ctx context.Context, payload dto.ScanEquipmentDTO) (*dto.EquipmentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	if existing, err := s.equipmentRepo.FindBySerial(ctx, payload.SerialNumber); err == nil {
		return nil, apperrors.NewHttpErrorWithDetails(
			http.StatusConflict, apperrors.ErrDuplicateSerial.Error(), apperrors.ErrDuplicateSerial,
			map[string]interface{}{"existing": mapEquipment(existing)},
		)
	}

	warehouse, err := s.warehouseRepo.FindWarehouse(ctx, payload.WarehouseID)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("склад %d не знайдено", payload.WarehouseID)
	}

	eq := entities.Equipment{
		Type:               payload.Type,
		Manufacturer:       payload.Manufacturer,
		SerialNumber:       &payload.SerialNumber,
		Quantity:           1,
		CurrentWarehouseID: warehouse.ID,
		CurrentWarehouseName: warehouse.Name,
		Status:             entities.StatusInStock,
		TestingStatus:      entities.TestingNone,
		Nameplate:          payload.Nameplate,
		AddedBy:            userName,
	}
	if payload.PhotoURL != "" {
		eq.AttachedFiles = append(eq.AttachedFiles, entities.AttachedFile{
			URL:  payload.PhotoURL,
			Name: "nameplate_photo",
		})
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.equipmentRepo.CreateEquipment(ctx, tx, eq)
		if err != nil {
			return err
		}
		eq.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info("запись создана со сканера",
		zap.String("serial", payload.SerialNumber), zap.String("by", userName))
	view := mapEquipment(&eq)
	return &view, nil
}

func (s *EquipmentService) GetStatistics(ctx context.Context) (*dto.StatisticsDTO, error) {
	if cached, err := s.cacheRepo.Get(ctx, statisticsCacheKey); err == nil && cached != "" {
		var stats dto.StatisticsDTO
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.equipmentRepo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := s.cacheRepo.Set(ctx, statisticsCacheKey, string(raw), statisticsCacheTTL); err != nil {
			s.logger.Warn("не удалось закешировать статистику", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *EquipmentService) invalidateStatistics(ctx context.Context) {
	if err := s.cacheRepo.Del(ctx, statisticsCacheKey); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("не удалось сбросить кеш статистики", zap.Error(err))
	}
}

func (s *EquipmentService) InTransitCount(ctx context.Context) (uint64, error) {
	return s.equipmentRepo.CountByStatus(ctx, entities.StatusInTransit)
}

func (s *EquipmentService) ReservationHistory(ctx context.Context, id uint64) ([]entities.Reservation, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, id); err != nil {
		return nil, err
	}
	return s.reservationRepo.ListByEquipment(ctx, id)
}

func (s *EquipmentService) UploadPhoto(ctx context.Context, id uint64, file io.Reader, filename string) (*dto.EquipmentDTO, error) {
	eq, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.Save(file, filename, "equipment")
	if err != nil {
		s.logger.Error("ошибка сохранения файла", zap.Error(err))
		return nil, err
	}

	eq.AttachedFiles = append(eq.AttachedFiles, entities.AttachedFile{
		URL:  url,
		Name: filename,
	})
	if err := s.equipmentRepo.UpdateEquipment(ctx, nil, *eq); err != nil {
		return nil, err
	}
	view := mapEquipment(eq)
	return &view, nil
}
