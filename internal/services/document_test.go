package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

type fakeDocumentRepo struct {
	items   map[uint64]*entities.Document
	nextID  uint64
	counter map[entities.DocType]int
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		items:   map[uint64]*entities.Document{},
		nextID:  1,
		counter: map[entities.DocType]int{},
	}
}

func (r *fakeDocumentRepo) GetDocuments(ctx context.Context, docType entities.DocType, filter types.Filter) ([]entities.Document, uint64, error) {
	var list []entities.Document
	for _, d := range r.items {
		if d.DocType == docType {
			list = append(list, *d)
		}
	}
	return list, uint64(len(list)), nil
}

func (r *fakeDocumentRepo) FindDocument(ctx context.Context, id uint64) (*entities.Document, error) {
	d, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *d
	c.Items = append([]entities.DocumentItem(nil), d.Items...)
	return &c, nil
}

func (r *fakeDocumentRepo) CreateDocument(ctx context.Context, tx pgx.Tx, doc entities.Document) (uint64, error) {
	doc.ID = r.nextID
	r.nextID++
	r.items[doc.ID] = &doc
	return doc.ID, nil
}

func (r *fakeDocumentRepo) UpdateDocument(ctx context.Context, tx pgx.Tx, doc entities.Document) error {
	if _, ok := r.items[doc.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.items[doc.ID] = &doc
	return nil
}

func (r *fakeDocumentRepo) NextNumber(ctx context.Context, tx pgx.Tx, docType entities.DocType) (string, error) {
	prefixes := map[entities.DocType]string{
		entities.DocReceipt:   "ПН",
		entities.DocMovement:  "ПМ",
		entities.DocShipment:  "ВН",
		entities.DocInventory: "ІНВ",
	}
	r.counter[docType]++
	return fmt.Sprintf("%s-%06d", prefixes[docType], r.counter[docType]), nil
}

func newTestDocumentService(eqRepo *fakeEquipmentRepo) (DocumentServiceInterface, *fakeDocumentRepo) {
	docRepo := newFakeDocumentRepo()
	warehouses := newFakeWarehouseRepo(
		entities.Warehouse{ID: 1, Name: "Основний склад", IsActive: true},
		entities.Warehouse{ID: 2, Name: "Склад сервісу", IsActive: true},
	)
	svc := NewDocumentService(docRepo, eqRepo, warehouses, &fakeTxManager{repo: eqRepo}, zap.NewNop())
	return svc, docRepo
}

func TestCreateReceiptDocument(t *testing.T) {
	eqRepo := newFakeEquipmentRepo()
	svc, _ := newTestDocumentService(eqRepo)

	doc, err := svc.CreateDocument(context.Background(), entities.DocReceipt, dto.CreateDocumentDTO{
		ToWarehouse: 1,
		Items: []entities.DocumentItem{
			{Type: "DE-275RSS", SerialNumber: "2304150087", UnitPrice: 1250000},
			{Type: "Фільтр масляний", Quantity: 20, UnitPrice: 450},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ПН-000001", doc.Number)
	assert.Equal(t, entities.DocPosted, doc.Status)

	// По строкам созданы записи «В дорозі», строки получили ссылки и суммы.
	require.NotZero(t, doc.Items[0].EquipmentID)
	require.NotZero(t, doc.Items[1].EquipmentID)
	assert.Equal(t, float64(20*450), doc.Items[1].TotalPrice)

	gen, err := eqRepo.FindEquipment(context.Background(), doc.Items[0].EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInTransit, gen.Status)
	assert.Equal(t, 1, gen.Quantity)
	require.NotNil(t, gen.SerialNumber)

	lot, err := eqRepo.FindEquipment(context.Background(), doc.Items[1].EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, 20, lot.Quantity)
}

func TestCreateReceiptRequiresWarehouse(t *testing.T) {
	svc, _ := newTestDocumentService(newFakeEquipmentRepo())

	_, err := svc.CreateDocument(context.Background(), entities.DocReceipt, dto.CreateDocumentDTO{
		Items: []entities.DocumentItem{{Type: "DE-275RSS", Quantity: 1}},
	})
	assert.Error(t, err)
}

func TestCreateMovementDocument(t *testing.T) {
	eqRepo := newFakeEquipmentRepo()
	eq := eqRepo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
	})
	svc, _ := newTestDocumentService(eqRepo)

	doc, err := svc.CreateDocument(context.Background(), entities.DocMovement, dto.CreateDocumentDTO{
		FromWarehouse: 1,
		ToWarehouse:   2,
		Items:         []entities.DocumentItem{{EquipmentID: eq.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ПМ-000001", doc.Number)

	moved, err := eqRepo.FindEquipment(context.Background(), eq.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), moved.CurrentWarehouseID)
	require.Len(t, moved.MovementHistory, 1)

	// Зарезервированная запись валит весь документ.
	reserved := eqRepo.put(entities.Equipment{
		Type: "DE-110RSS", Quantity: 1, Status: entities.StatusReserved, CurrentWarehouseID: 1,
	})
	_, err = svc.CreateDocument(context.Background(), entities.DocMovement, dto.CreateDocumentDTO{
		ToWarehouse: 2,
		Items:       []entities.DocumentItem{{EquipmentID: reserved.ID}},
	})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentReserved)
}

func TestMovementDocumentPartialSplitsLot(t *testing.T) {
	eqRepo := newFakeEquipmentRepo()
	lot := eqRepo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 5, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
	})
	svc, _ := newTestDocumentService(eqRepo)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, entities.DocMovement, dto.CreateDocumentDTO{
		FromWarehouse: 1,
		ToWarehouse:   2,
		Items:         []entities.DocumentItem{{EquipmentID: lot.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Источник уменьшен и остался на месте.
	src, err := eqRepo.FindEquipment(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Quantity)
	assert.Equal(t, uint64(1), src.CurrentWarehouseID)

	// Строка документа указывает на отщеплённую запись на складе назначения.
	movedID := doc.Items[0].EquipmentID
	require.NotEqual(t, lot.ID, movedID)
	assert.Equal(t, 2, doc.Items[0].Quantity)

	moved, err := eqRepo.FindEquipment(ctx, movedID)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Quantity)
	assert.Equal(t, uint64(2), moved.CurrentWarehouseID)
	require.Len(t, moved.MovementHistory, 1)
	assert.Equal(t, 2, moved.MovementHistory[0].Quantity)
	assert.Equal(t, lot.ID, moved.MovementHistory[0].SourceRecordID)

	// Сверх остатка - ошибка с обоими числами, документ не проводится.
	_, err = svc.CreateDocument(ctx, entities.DocMovement, dto.CreateDocumentDTO{
		ToWarehouse: 2,
		Items:       []entities.DocumentItem{{EquipmentID: lot.ID, Quantity: 9}},
	})
	var capErr *apperrors.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 9, capErr.Requested)
	assert.Equal(t, 3, capErr.Available)
}

func TestShipmentDocumentPartialSplitsLot(t *testing.T) {
	eqRepo := newFakeEquipmentRepo()
	lot := eqRepo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 5, Status: entities.StatusInStock,
		CurrentWarehouseID: 1, CurrentWarehouseName: "Основний склад",
	})
	svc, _ := newTestDocumentService(eqRepo)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, entities.DocShipment, dto.CreateDocumentDTO{
		FromWarehouse: 1,
		Notes:         "ТОВ «Енергобуд»",
		Items:         []entities.DocumentItem{{EquipmentID: lot.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Остаток лота по-прежнему на складе.
	src, err := eqRepo.FindEquipment(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Quantity)
	assert.Equal(t, entities.StatusInStock, src.Status)

	shippedID := doc.Items[0].EquipmentID
	require.NotEqual(t, lot.ID, shippedID)
	shipped, err := eqRepo.FindEquipment(ctx, shippedID)
	require.NoError(t, err)
	assert.Equal(t, 2, shipped.Quantity)
	assert.Equal(t, entities.StatusShipped, shipped.Status)
	require.Len(t, shipped.ShipmentHistory, 1)
	assert.Equal(t, 2, shipped.ShipmentHistory[0].Quantity)
	assert.Equal(t, doc.Number, shipped.ShipmentHistory[0].InvoiceNumber)
}

func TestCreateShipmentDocument(t *testing.T) {
	eqRepo := newFakeEquipmentRepo()
	eq := eqRepo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestDocumentService(eqRepo)

	doc, err := svc.CreateDocument(context.Background(), entities.DocShipment, dto.CreateDocumentDTO{
		FromWarehouse: 1,
		Notes:         "ТОВ «Енергобуд»",
		Items:         []entities.DocumentItem{{EquipmentID: eq.ID}},
	})
	require.NoError(t, err)

	shipped, err := eqRepo.FindEquipment(context.Background(), eq.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusShipped, shipped.Status)
	require.Len(t, shipped.ShipmentHistory, 1)
	// Номер видаткової накладної попадает в журнал отгрузок.
	assert.Equal(t, doc.Number, shipped.ShipmentHistory[0].InvoiceNumber)
}

func TestInventoryLifecycle(t *testing.T) {
	eqRepo := newFakeEquipmentRepo()
	a := eqRepo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 10, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	b := eqRepo.put(entities.Equipment{
		Type: "DE-275RSS", Quantity: 1, Status: entities.StatusInStock, CurrentWarehouseID: 1,
	})
	svc, _ := newTestDocumentService(eqRepo)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, entities.DocInventory, dto.CreateDocumentDTO{
		FromWarehouse: 1,
		Items: []entities.DocumentItem{
			{EquipmentID: a.ID},
			{EquipmentID: b.ID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.DocDraft, doc.Status)
	assert.Equal(t, "ІНВ-000001", doc.Number)
	// Учётные количества проставлены при создании черновика.
	assert.Equal(t, 10, doc.Items[0].ExpectedQuantity)
	assert.Equal(t, 1, doc.Items[1].ExpectedQuantity)

	completed, err := svc.CompleteInventory(ctx, doc.ID, []entities.DocumentItem{
		{EquipmentID: a.ID, ActualQuantity: 8},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.DocCompleted, completed.Status)
	assert.NotEmpty(t, completed.CompletedAt)
	assert.Equal(t, 8, completed.Items[0].ActualQuantity)
	// Непереданные позиции считаются совпавшими с учётом.
	assert.Equal(t, 1, completed.Items[1].ActualQuantity)

	// Повторное закрытие запрещено.
	_, err = svc.CompleteInventory(ctx, doc.ID, nil)
	assert.Error(t, err)
}
