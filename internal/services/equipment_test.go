package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
)

func newTestEquipmentService(eqRepo *fakeEquipmentRepo) (*EquipmentService, *fakeCacheRepo) {
	cache := newFakeCacheRepo()
	warehouses := newFakeWarehouseRepo(
		entities.Warehouse{ID: 1, Name: "Основний склад", IsActive: true},
		entities.Warehouse{ID: 2, Name: "Склад сервісу", IsActive: true},
	)
	svc := NewEquipmentService(
		eqRepo, warehouses, newFakeReservationRepo(), cache,
		&fakeTxManager{repo: eqRepo}, &fakeFileStorage{}, zap.NewNop(),
	).(*EquipmentService)
	return svc, cache
}

func TestCreateEquipmentBatch(t *testing.T) {
	repo := newFakeEquipmentRepo()
	svc, _ := newTestEquipmentService(repo)

	created, err := svc.CreateEquipment(context.Background(), dto.CreateEquipmentDTO{
		Type:        "DE-275RSS",
		Quantity:    3,
		IsBatch:     true,
		WarehouseID: 1,
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	// Все единицы партии делят один batchId и не имеют серийника.
	batchID := created[0].BatchID.String
	assert.NotEmpty(t, batchID)
	for _, item := range created {
		assert.Equal(t, batchID, item.BatchID.String)
		assert.False(t, item.SerialNumber.Valid)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, "batch", item.StockKind)
	}
}

func TestCreateEquipmentQuantityLot(t *testing.T) {
	repo := newFakeEquipmentRepo()
	svc, _ := newTestEquipmentService(repo)

	created, err := svc.CreateEquipment(context.Background(), dto.CreateEquipmentDTO{
		Type:        "Фільтр масляний",
		Quantity:    10,
		WarehouseID: 1,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 10, created[0].Quantity)
	assert.Equal(t, "quantity_lot", created[0].StockKind)
}

func TestCreateEquipmentDuplicateSerial(t *testing.T) {
	repo := newFakeEquipmentRepo()
	serial := "2304150087"
	repo.put(entities.Equipment{Type: "DE-110RSS", SerialNumber: &serial, Quantity: 1, Status: entities.StatusInStock})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.CreateEquipment(context.Background(), dto.CreateEquipmentDTO{
		Type:         "DE-110RSS",
		SerialNumber: null.StringFrom(serial),
		WarehouseID:  1,
	})
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 409, httpErr.Code)
	// В деталях конфликта лежит существующая запись.
	details, ok := httpErr.Details.(map[string]interface{})
	require.True(t, ok)
	existing, ok := details["existing"].(dto.EquipmentDTO)
	require.True(t, ok)
	assert.Equal(t, serial, existing.SerialNumber.String)
}

func TestMoveEquipmentFull(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
	})
	svc, _ := newTestEquipmentService(repo)

	moved, err := svc.MoveEquipment(context.Background(), eq.ID, dto.MoveEquipmentDTO{ToWarehouse: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), moved.CurrentWarehouse)
	require.Len(t, moved.MovementHistory, 1)
	assert.Zero(t, moved.MovementHistory[0].SourceRecordID)
}

func TestMoveEquipmentPartialSplitsLot(t *testing.T) {
	repo := newFakeEquipmentRepo()
	lot := repo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 5, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
	})
	svc, _ := newTestEquipmentService(repo)

	moved, err := svc.MoveEquipment(context.Background(), lot.ID, dto.MoveEquipmentDTO{
		ToWarehouse: 2,
		Quantity:    3,
	})
	require.NoError(t, err)

	// Перемещённая часть - новая запись со ссылкой на источник.
	assert.NotEqual(t, lot.ID, moved.ID)
	assert.Equal(t, 3, moved.Quantity)
	assert.Equal(t, uint64(2), moved.CurrentWarehouse)
	require.Len(t, moved.MovementHistory, 1)
	assert.Equal(t, lot.ID, moved.MovementHistory[0].SourceRecordID)

	// Источник остался на месте с уменьшенным количеством.
	src, err := repo.FindEquipment(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Quantity)
	assert.Equal(t, uint64(1), src.CurrentWarehouseID)
}

func TestMoveEquipmentOverCapacity(t *testing.T) {
	repo := newFakeEquipmentRepo()
	lot := repo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 5, Status: entities.StatusInStock,
		CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.MoveEquipment(context.Background(), lot.ID, dto.MoveEquipmentDTO{
		ToWarehouse: 2,
		Quantity:    8,
	})
	require.Error(t, err)

	var capErr *apperrors.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 8, capErr.Requested)
	assert.Equal(t, 5, capErr.Available)

	// Запись не изменилась.
	src, err := repo.FindEquipment(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, src.Quantity)
	assert.Equal(t, uint64(1), src.CurrentWarehouseID)
}

func TestMoveEquipmentReservedBlocked(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.MoveEquipment(context.Background(), eq.ID, dto.MoveEquipmentDTO{ToWarehouse: 2})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentReserved)
}

func TestMoveEquipmentSameWarehouse(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 2,
	})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.MoveEquipment(context.Background(), eq.ID, dto.MoveEquipmentDTO{ToWarehouse: 2})
	assert.ErrorIs(t, err, apperrors.ErrSameWarehouse)
}

func TestBatchMoveSelectsAvailableUnits(t *testing.T) {
	repo := newFakeEquipmentRepo()
	batchID := "b6f3c0de"
	for i := 0; i < 4; i++ {
		repo.put(entities.Equipment{
			Type: "DE-110RSS", Quantity: 1, BatchID: &batchID,
			Status: entities.StatusInStock, CurrentWarehouseID: 1,
		})
	}
	// Одна единица уже на целевом складе, одна зарезервирована.
	repo.put(entities.Equipment{
		Type: "DE-110RSS", Quantity: 1, BatchID: &batchID,
		Status: entities.StatusInStock, CurrentWarehouseID: 2,
	})
	repo.put(entities.Equipment{
		Type: "DE-110RSS", Quantity: 1, BatchID: &batchID,
		Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	moved, err := svc.BatchMove(context.Background(), dto.BatchMoveDTO{
		BatchID:     batchID,
		Quantity:    3,
		ToWarehouse: 2,
	})
	require.NoError(t, err)
	assert.Len(t, moved, 3)
	for _, item := range moved {
		assert.Equal(t, uint64(2), item.CurrentWarehouse)
	}

	// Запрос больше доступного отклоняется с точными числами.
	_, err = svc.BatchMove(context.Background(), dto.BatchMoveDTO{
		BatchID:     batchID,
		Quantity:    5,
		ToWarehouse: 2,
	})
	var capErr *apperrors.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 5, capErr.Requested)
	assert.Equal(t, 1, capErr.Available)
}

func TestBulkMoveAllOrNothing(t *testing.T) {
	repo := newFakeEquipmentRepo()
	ok1 := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	reserved := repo.put(entities.Equipment{
		Type: "DE-110RSS", Quantity: 1, Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.BulkMove(context.Background(), dto.BulkMoveDTO{
		ToWarehouse: 2,
		Items: []dto.BulkMoveItem{
			{EquipmentID: ok1.ID},
			{EquipmentID: reserved.ID},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEquipmentReserved)

	// Первая запись успела переместиться внутри транзакции, но откат её вернул.
	first, err := repo.FindEquipment(context.Background(), ok1.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.CurrentWarehouseID)
	assert.Empty(t, first.MovementHistory)
}

func TestShipEquipmentPartial(t *testing.T) {
	repo := newFakeEquipmentRepo()
	lot := repo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 10, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	shipped, err := svc.ShipEquipment(context.Background(), lot.ID, dto.ShipEquipmentDTO{
		ShippedTo: "ТОВ «Енергобуд»",
		Quantity:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusShipped, shipped.Status)
	assert.Equal(t, 4, shipped.Quantity)
	require.Len(t, shipped.ShipmentHistory, 1)
	assert.Equal(t, "ТОВ «Енергобуд»", shipped.ShipmentHistory[0].ShippedTo)

	src, err := repo.FindEquipment(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, src.Quantity)
	assert.Equal(t, entities.StatusInStock, src.Status)
}

func TestWriteOffRequiresReason(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.WriteOffEquipment(context.Background(), eq.ID, dto.WriteOffEquipmentDTO{})
	assert.ErrorIs(t, err, apperrors.ErrReasonRequired)

	written, err := svc.WriteOffEquipment(context.Background(), eq.ID, dto.WriteOffEquipmentDTO{Reason: "пошкоджено при транспортуванні"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusWrittenOff, written.Status)
	require.NotNil(t, written.WriteOff)
	assert.Equal(t, "пошкоджено при транспортуванні", written.WriteOff.Reason)
}

func TestDeleteEquipment(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	reserved := repo.put(entities.Equipment{
		Type: "DE-110RSS", Quantity: 1, Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	// Без причины удаление запрещено.
	err := svc.DeleteEquipment(context.Background(), eq.ID, dto.DeleteEquipmentDTO{})
	assert.ErrorIs(t, err, apperrors.ErrReasonRequired)

	// Зарезервированную запись удалять нельзя.
	err = svc.DeleteEquipment(context.Background(), reserved.ID, dto.DeleteEquipmentDTO{Reason: "помилковий запис"})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentReserved)

	err = svc.DeleteEquipment(context.Background(), eq.ID, dto.DeleteEquipmentDTO{Reason: "помилковий запис"})
	require.NoError(t, err)
	_, err = svc.FindEquipment(context.Background(), eq.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApproveReceipt(t *testing.T) {
	repo := newFakeEquipmentRepo()
	a := repo.put(entities.Equipment{Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInTransit, CurrentWarehouseID: 1})
	b := repo.put(entities.Equipment{Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInTransit, CurrentWarehouseID: 1})
	svc, _ := newTestEquipmentService(repo)

	approved, err := svc.ApproveReceipt(context.Background(), dto.ApproveReceiptDTO{
		EquipmentIDs: []uint64{a.ID, b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, approved)

	got, err := repo.FindEquipment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInStock, got.Status)

	// Несуществующий id валит всю операцию.
	_, err = svc.ApproveReceipt(context.Background(), dto.ApproveReceiptDTO{
		EquipmentIDs: []uint64{a.ID, 999},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatusReservedGuard(t *testing.T) {
	repo := newFakeEquipmentRepo()
	eq := repo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.UpdateStatus(context.Background(), eq.ID, dto.UpdateStatusDTO{Status: "shipped"})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentReserved)

	// Возврат из резерва в «На складі» разрешён.
	updated, err := svc.UpdateStatus(context.Background(), eq.ID, dto.UpdateStatusDTO{Status: "in_stock"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInStock, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), eq.ID, dto.UpdateStatusDTO{Status: "левый статус"})
	assert.Error(t, err)
}

func TestStatisticsCaching(t *testing.T) {
	repo := newFakeEquipmentRepo()
	repo.put(entities.Equipment{Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1})
	svc, cache := newTestEquipmentService(repo)

	stats, err := svc.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Total)
	assert.Contains(t, cache.values, statisticsCacheKey)

	// Мутация сбрасывает кеш.
	created, err := svc.CreateEquipment(context.Background(), dto.CreateEquipmentDTO{Type: "DE-110RSS", WarehouseID: 1})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.NotContains(t, cache.values, statisticsCacheKey)

	stats, err = svc.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Total)
}

func TestScanEquipmentDuplicate(t *testing.T) {
	repo := newFakeEquipmentRepo()
	serial := "2304150087"
	repo.put(entities.Equipment{Type: "DE-110RSS", SerialNumber: &serial, Quantity: 1, Status: entities.StatusInStock})
	svc, _ := newTestEquipmentService(repo)

	_, err := svc.ScanEquipment(context.Background(), dto.ScanEquipmentDTO{
		Type:         "DE-110RSS",
		SerialNumber: serial,
		WarehouseID:  1,
	})
	var httpErr *apperrors.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 409, httpErr.Code)

	created, err := svc.ScanEquipment(context.Background(), dto.ScanEquipmentDTO{
		Type:         "DE-275RSS",
		SerialNumber: "2304150099",
		WarehouseID:  1,
		PhotoURL:     "/uploads/equipment/photo.jpg",
	})
	require.NoError(t, err)
	require.Len(t, created.AttachedFiles, 1)
	assert.Equal(t, "nameplate_photo", created.AttachedFiles[0].Name)
}
