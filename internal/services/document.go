package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
	"operations-system/pkg/utils"
)

const docDateLayout = "2006-01-02"

type DocumentServiceInterface interface {
	GetDocuments(ctx context.Context, docType entities.DocType, filter types.Filter) ([]dto.DocumentDTO, uint64, error)
	FindDocument(ctx context.Context, id uint64) (*dto.DocumentDTO, error)
	CreateDocument(ctx context.Context, docType entities.DocType, payload dto.CreateDocumentDTO) (*dto.DocumentDTO, error)
	CompleteInventory(ctx context.Context, id uint64, items []entities.DocumentItem) (*dto.DocumentDTO, error)
}

type DocumentService struct {
	documentRepo  repositories.DocumentRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	warehouseRepo repositories.WarehouseRepositoryInterface
	txManager     repositories.TxManagerInterface
	logger        *zap.Logger
}

func NewDocumentService(
	documentRepo repositories.DocumentRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	warehouseRepo repositories.WarehouseRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) DocumentServiceInterface {
	return &DocumentService{
		documentRepo:  documentRepo,
		equipmentRepo: equipmentRepo,
		warehouseRepo: warehouseRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

func (s *DocumentService) mapDocument(ctx context.Context, d *entities.Document) dto.DocumentDTO {
	view := dto.DocumentDTO{
		ID:          d.ID,
		DocType:     d.DocType,
		Number:      d.Number,
		DocDate:     d.DocDate.Format(docDateLayout),
		Status:      d.Status,
		Items:       d.Items,
		Notes:       d.Notes,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   formatTime(d.CreatedAt),
		CompletedAt: formatTime(d.CompletedAt),
	}
	if d.FromWarehouseID != nil {
		view.FromWarehouse = *d.FromWarehouseID
		if w, err := s.warehouseRepo.FindWarehouse(ctx, *d.FromWarehouseID); err == nil {
			view.FromWarehouseName = w.Name
		}
	}
	if d.ToWarehouseID != nil {
		view.ToWarehouse = *d.ToWarehouseID
		if w, err := s.warehouseRepo.FindWarehouse(ctx, *d.ToWarehouseID); err == nil {
			view.ToWarehouseName = w.Name
		}
	}
	return view
}

func (s *DocumentService) GetDocuments(ctx context.Context, docType entities.DocType, filter types.Filter) ([]dto.DocumentDTO, uint64, error) {
	list, total, err := s.documentRepo.GetDocuments(ctx, docType, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.DocumentDTO, 0, len(list))
	for i := range list {
		result = append(result, s.mapDocument(ctx, &list[i]))
	}
	return result, total, nil
}

func (s *DocumentService) FindDocument(ctx context.Context, id uint64) (*dto.DocumentDTO, error) {
	doc, err := s.documentRepo.FindDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.mapDocument(ctx, doc)
	return &view, nil
}

func (s *DocumentService) CreateDocument(ctx context.Context, docType entities.DocType, payload dto.CreateDocumentDTO) (*dto.DocumentDTO, error) {
	if !docType.Valid() {
		return nil, apperrors.NewInvalidInputError("невідомий тип документа «%s»", docType)
	}
	userName := utils.GetUserNameFromCtx(ctx)

	docDate := time.Now()
	if payload.DocDate != "" {
		parsed, err := time.Parse(docDateLayout, payload.DocDate)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("дата документа має формат YYYY-MM-DD")
		}
		docDate = parsed
	}

	doc := entities.Document{
		DocType:   docType,
		Number:    payload.Number,
		DocDate:   docDate,
		Status:    entities.DocPosted,
		Items:     payload.Items,
		Notes:     payload.Notes,
		CreatedBy: userName,
	}
	if payload.FromWarehouse != 0 {
		doc.FromWarehouseID = &payload.FromWarehouse
	}
	if payload.ToWarehouse != 0 {
		doc.ToWarehouseID = &payload.ToWarehouse
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if doc.Number == "" {
			number, err := s.documentRepo.NextNumber(ctx, tx, docType)
			if err != nil {
				return err
			}
			doc.Number = number
		}

		switch docType {
		case entities.DocReceipt:
			if err := s.postReceipt(ctx, tx, &doc, userName); err != nil {
				return err
			}
		case entities.DocMovement:
			if err := s.postMovement(ctx, tx, &doc, userName); err != nil {
				return err
			}
		case entities.DocShipment:
			if err := s.postShipment(ctx, tx, &doc, userName); err != nil {
				return err
			}
		case entities.DocInventory:
			// Инвентаризация создаётся черновиком и закрывается отдельно.
			doc.Status = entities.DocDraft
			if err := s.fillExpectedQuantities(ctx, tx, &doc); err != nil {
				return err
			}
		}

		id, err := s.documentRepo.CreateDocument(ctx, tx, doc)
		if err != nil {
			return err
		}
		doc.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("документ создан",
		zap.String("type", string(docType)), zap.String("number", doc.Number), zap.String("by", userName))
	view := s.mapDocument(ctx, &doc)
	return &view, nil
}

// postReceipt создаёт по строкам документа записи в статусе «В дорозі».
func (s *DocumentService) postReceipt(ctx context.Context, tx pgx.Tx, doc *entities.Document, userName string) error {
	if doc.ToWarehouseID == nil {
		return apperrors.NewInvalidInputError("для прихідної накладної потрібен склад призначення")
	}
	if _, err := s.warehouseRepo.FindWarehouse(ctx, *doc.ToWarehouseID); err != nil {
		return apperrors.NewInvalidInputError("склад %d не знайдено", *doc.ToWarehouseID)
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		eq := entities.Equipment{
			Type:               item.Type,
			Manufacturer:       item.Manufacturer,
			Quantity:           qty,
			CurrentWarehouseID: *doc.ToWarehouseID,
			Status:             entities.StatusInTransit,
			UnitPrice:          item.UnitPrice,
			TestingStatus:      entities.TestingNone,
			AddedBy:            userName,
		}
		if item.SerialNumber != "" {
			eq.SerialNumber = &item.SerialNumber
			eq.Quantity = 1
		}

		id, err := s.equipmentRepo.CreateEquipment(ctx, tx, eq)
		if err != nil {
			return err
		}
		item.EquipmentID = id
		item.TotalPrice = float64(qty) * item.UnitPrice
	}
	return nil
}

// postMovement двигает перечисленные записи, всё или ничего.
func (s *DocumentService) postMovement(ctx context.Context, tx pgx.Tx, doc *entities.Document, userName string) error {
	if doc.ToWarehouseID == nil {
		return apperrors.NewInvalidInputError("для накладної переміщення потрібен склад призначення")
	}
	toWarehouse, err := s.warehouseRepo.FindWarehouse(ctx, *doc.ToWarehouseID)
	if err != nil {
		return apperrors.NewInvalidInputError("склад %d не знайдено", *doc.ToWarehouseID)
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
		if err != nil {
			return err
		}
		if err := checkMovable(eq); err != nil {
			return err
		}
		if eq.CurrentWarehouseID == toWarehouse.ID {
			return apperrors.ErrSameWarehouse
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
			Reason:            doc.Notes,
		}

		// Частичная строка идёт через отщепление лота, как и ручное перемещение.
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
		// Строка документа указывает на фактически перемещённую запись.
		item.EquipmentID = target.ID
		item.Quantity = qty
		item.Type = target.Type
		if target.SerialNumber != nil {
			item.SerialNumber = *target.SerialNumber
		}
	}
	return nil
}

// postShipment отгружает перечисленные записи.
func (s *DocumentService) postShipment(ctx context.Context, tx pgx.Tx, doc *entities.Document, userName string) error {
	for i := range doc.Items {
		item := &doc.Items[i]
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
		if err != nil {
			return err
		}
		if err := checkMovable(eq); err != nil {
			return err
		}

		qty := item.Quantity
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
		target.Status = entities.StatusShipped
		target.ShipmentHistory = append(target.ShipmentHistory, entities.ShipmentEntry{
			Date:          time.Now(),
			ShippedTo:     doc.Notes,
			InvoiceNumber: doc.Number,
			Quantity:      qty,
			ShippedBy:     userName,
		})
		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, *target); err != nil {
			return err
		}
		item.EquipmentID = target.ID
		item.Type = target.Type
		item.Quantity = qty
		if target.SerialNumber != nil {
			item.SerialNumber = *target.SerialNumber
		}
	}
	return nil
}

// fillExpectedQuantities проставляет учётные количества в строки инвентаризации.
func (s *DocumentService) fillExpectedQuantities(ctx context.Context, tx pgx.Tx, doc *entities.Document) error {
	for i := range doc.Items {
		item := &doc.Items[i]
		if item.EquipmentID == 0 {
			continue
		}
		eq, err := s.equipmentRepo.FindEquipmentTx(ctx, tx, item.EquipmentID)
		if err != nil {
			return err
		}
		item.ExpectedQuantity = eq.Quantity
		item.Type = eq.Type
		if eq.SerialNumber != nil {
			item.SerialNumber = *eq.SerialNumber
		}
	}
	return nil
}

// CompleteInventory закрывает черновик инвентаризации фактическими данными.
func (s *DocumentService) CompleteInventory(ctx context.Context, id uint64, items []entities.DocumentItem) (*dto.DocumentDTO, error) {
	userName := utils.GetUserNameFromCtx(ctx)

	var completed *entities.Document
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		doc, err := s.documentRepo.FindDocument(ctx, id)
		if err != nil {
			return err
		}
		if doc.DocType != entities.DocInventory {
			return apperrors.NewInvalidInputError("документ %d не є інвентаризацією", id)
		}
		if doc.Status != entities.DocDraft {
			return apperrors.NewInvalidInputError("інвентаризація %d вже закрита", id)
		}

		actuals := make(map[uint64]int, len(items))
		for _, item := range items {
			actuals[item.EquipmentID] = item.ActualQuantity
		}
		for i := range doc.Items {
			item := &doc.Items[i]
			if actual, ok := actuals[item.EquipmentID]; ok {
				item.ActualQuantity = actual
			} else {
				item.ActualQuantity = item.ExpectedQuantity
			}
		}

		now := time.Now()
		doc.Status = entities.DocCompleted
		doc.CompletedAt = &now
		if err := s.documentRepo.UpdateDocument(ctx, tx, *doc); err != nil {
			return err
		}
		completed = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("инвентаризация закрыта", zap.Uint64("id", id), zap.String("by", userName))
	view := s.mapDocument(ctx, completed)
	return &view, nil
}
