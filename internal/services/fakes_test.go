package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

// Ин-мемори заглушки репозиториев для юнит-тестов сервисного слоя.
// Возвращают копии записей, как это делает скан из БД.

// fakeTxManager с привязанным repo эмулирует откат: при ошибке fn
// состояние репозитория возвращается к снимку на входе в транзакцию.
type fakeTxManager struct {
	repo *fakeEquipmentRepo
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var snap map[uint64]*entities.Equipment
	if m.repo != nil {
		snap = m.repo.snapshot()
	}
	err := fn(nil)
	if err != nil && m.repo != nil {
		m.repo.items = snap
	}
	return err
}

type fakeEquipmentRepo struct {
	items  map[uint64]*entities.Equipment
	nextID uint64
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{items: map[uint64]*entities.Equipment{}, nextID: 1}
}

func (r *fakeEquipmentRepo) put(eq entities.Equipment) *entities.Equipment {
	if eq.ID == 0 {
		eq.ID = r.nextID
		r.nextID++
	} else if eq.ID >= r.nextID {
		r.nextID = eq.ID + 1
	}
	stored := eq
	r.items[stored.ID] = &stored
	return &stored
}

func (r *fakeEquipmentRepo) snapshot() map[uint64]*entities.Equipment {
	snap := make(map[uint64]*entities.Equipment, len(r.items))
	for id, eq := range r.items {
		snap[id] = copyEquipment(eq)
	}
	return snap
}

func copyEquipment(eq *entities.Equipment) *entities.Equipment {
	c := *eq
	c.MovementHistory = append([]entities.MovementEntry(nil), eq.MovementHistory...)
	c.ShipmentHistory = append([]entities.ShipmentEntry(nil), eq.ShipmentHistory...)
	return &c
}

func (r *fakeEquipmentRepo) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	var list []entities.Equipment
	for _, eq := range r.items {
		if !eq.IsDeleted {
			list = append(list, *copyEquipment(eq))
		}
	}
	return list, uint64(len(list)), nil
}

func (r *fakeEquipmentRepo) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	eq, ok := r.items[id]
	if !ok || eq.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	return copyEquipment(eq), nil
}

func (r *fakeEquipmentRepo) FindEquipmentTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.FindEquipment(ctx, id)
}

func (r *fakeEquipmentRepo) FindBySerial(ctx context.Context, serial string) (*entities.Equipment, error) {
	for _, eq := range r.items {
		if !eq.IsDeleted && eq.SerialNumber != nil && *eq.SerialNumber == serial {
			return copyEquipment(eq), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeEquipmentRepo) ListByBatch(ctx context.Context, tx pgx.Tx, batchID string) ([]entities.Equipment, error) {
	var list []entities.Equipment
	for _, eq := range r.items {
		if !eq.IsDeleted && eq.BatchID != nil && *eq.BatchID == batchID {
			list = append(list, *copyEquipment(eq))
		}
	}
	return list, nil
}

func (r *fakeEquipmentRepo) ListByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Equipment, error) {
	var list []entities.Equipment
	for _, id := range ids {
		if eq, ok := r.items[id]; ok && !eq.IsDeleted {
			list = append(list, *copyEquipment(eq))
		}
	}
	return list, nil
}

func (r *fakeEquipmentRepo) ListByTestingStatuses(ctx context.Context, statuses []entities.TestingStatus) ([]entities.Equipment, error) {
	var list []entities.Equipment
	for _, eq := range r.items {
		for _, st := range statuses {
			if eq.TestingStatus == st && !eq.IsDeleted {
				list = append(list, *copyEquipment(eq))
			}
		}
	}
	return list, nil
}

func (r *fakeEquipmentRepo) CreateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error) {
	return r.put(eq).ID, nil
}

func (r *fakeEquipmentRepo) UpdateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) error {
	if _, ok := r.items[eq.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.put(eq)
	return nil
}

func (r *fakeEquipmentRepo) SoftDeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64, reason string, deletedBy string) error {
	eq, ok := r.items[id]
	if !ok || eq.IsDeleted {
		return apperrors.ErrNotFound
	}
	full := fmt.Sprintf("%s (%s)", reason, deletedBy)
	eq.IsDeleted = true
	eq.DeleteReason = &full
	eq.Status = entities.StatusDeleted
	return nil
}

func (r *fakeEquipmentRepo) CountByStatus(ctx context.Context, status entities.Status) (uint64, error) {
	var n uint64
	for _, eq := range r.items {
		if !eq.IsDeleted && eq.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeEquipmentRepo) CountByCategory(ctx context.Context, categoryID uint64) (uint64, error) {
	var n uint64
	for _, eq := range r.items {
		if !eq.IsDeleted && eq.CategoryID != nil && *eq.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *fakeEquipmentRepo) CountByWarehouse(ctx context.Context, warehouseID uint64) (uint64, error) {
	var n uint64
	for _, eq := range r.items {
		if !eq.IsDeleted && eq.CurrentWarehouseID == warehouseID {
			n++
		}
	}
	return n, nil
}

func (r *fakeEquipmentRepo) GetStatistics(ctx context.Context) (*dto.StatisticsDTO, error) {
	stats := &dto.StatisticsDTO{ByStatus: map[string]uint64{}}
	for _, eq := range r.items {
		if eq.IsDeleted {
			continue
		}
		stats.Total++
		stats.ByStatus[string(eq.Status)]++
	}
	return stats, nil
}

func (r *fakeEquipmentRepo) CostReport(ctx context.Context, warehouseID *uint64) ([]dto.CostReportRowDTO, error) {
	return nil, nil
}

func (r *fakeEquipmentRepo) MigrateLegacyCategories(ctx context.Context, tx pgx.Tx, serviceID, electroID, internalID, equipmentID uint64) (*dto.MigrateEquipmentResultDTO, error) {
	res := &dto.MigrateEquipmentResultDTO{}
	for _, eq := range r.items {
		if eq.IsDeleted || eq.CategoryID != nil {
			continue
		}
		switch {
		case eq.IsServicePart:
			id := serviceID
			eq.CategoryID = &id
			res.ServiceParts++
		case eq.IsElectroPart:
			id := electroID
			eq.CategoryID = &id
			res.ElectroParts++
		case eq.IsInternalUse:
			id := internalID
			eq.CategoryID = &id
			res.InternalUse++
		default:
			id := equipmentID
			eq.CategoryID = &id
			res.Equipment++
		}
	}
	res.Total = res.ServiceParts + res.ElectroParts + res.InternalUse + res.Equipment
	return res, nil
}

type fakeWarehouseRepo struct {
	items map[uint64]*entities.Warehouse
}

func newFakeWarehouseRepo(warehouses ...entities.Warehouse) *fakeWarehouseRepo {
	r := &fakeWarehouseRepo{items: map[uint64]*entities.Warehouse{}}
	for i := range warehouses {
		w := warehouses[i]
		r.items[w.ID] = &w
	}
	return r
}

func (r *fakeWarehouseRepo) GetWarehouses(ctx context.Context, filter types.Filter) ([]entities.Warehouse, uint64, error) {
	var list []entities.Warehouse
	for _, w := range r.items {
		list = append(list, *w)
	}
	return list, uint64(len(list)), nil
}

func (r *fakeWarehouseRepo) FindWarehouse(ctx context.Context, id uint64) (*entities.Warehouse, error) {
	w, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (r *fakeWarehouseRepo) CreateWarehouse(ctx context.Context, warehouse entities.Warehouse) (uint64, error) {
	id := uint64(len(r.items) + 1)
	warehouse.ID = id
	r.items[id] = &warehouse
	return id, nil
}

func (r *fakeWarehouseRepo) UpdateWarehouse(ctx context.Context, id uint64, warehouse entities.Warehouse) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	warehouse.ID = id
	r.items[id] = &warehouse
	return nil
}

func (r *fakeWarehouseRepo) DeleteWarehouse(ctx context.Context, id uint64) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeReservationRepo struct {
	items  map[uint64]*entities.Reservation
	nextID uint64
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{items: map[uint64]*entities.Reservation{}, nextID: 1}
}

func (r *fakeReservationRepo) GetReservations(ctx context.Context, filter types.Filter) ([]entities.Reservation, uint64, error) {
	var list []entities.Reservation
	for _, res := range r.items {
		list = append(list, *res)
	}
	return list, uint64(len(list)), nil
}

func (r *fakeReservationRepo) FindReservation(ctx context.Context, id uint64) (*entities.Reservation, error) {
	res, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *res
	c.Items = append([]entities.ReservationItem(nil), res.Items...)
	return &c, nil
}

func (r *fakeReservationRepo) FindReservationTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Reservation, error) {
	return r.FindReservation(ctx, id)
}

func (r *fakeReservationRepo) CreateReservation(ctx context.Context, tx pgx.Tx, res entities.Reservation) (uint64, error) {
	res.ID = r.nextID
	r.nextID++
	r.items[res.ID] = &res
	return res.ID, nil
}

func (r *fakeReservationRepo) UpdateReservation(ctx context.Context, tx pgx.Tx, res entities.Reservation) error {
	if _, ok := r.items[res.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.items[res.ID] = &res
	return nil
}

func (r *fakeReservationRepo) ListByEquipment(ctx context.Context, equipmentID uint64) ([]entities.Reservation, error) {
	var list []entities.Reservation
	for _, res := range r.items {
		for _, item := range res.Items {
			if item.EquipmentID == equipmentID {
				list = append(list, *res)
				break
			}
		}
	}
	return list, nil
}

type fakeCacheRepo struct {
	values map[string]string
	dels   int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: map[string]string{}}
}

func (r *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	r.values[key] = fmt.Sprint(value)
	return nil
}

func (r *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (r *fakeCacheRepo) Del(ctx context.Context, key ...string) error {
	for _, k := range key {
		delete(r.values, k)
	}
	r.dels++
	return nil
}

func (r *fakeCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(r.values[key], 10, 64)
	n++
	r.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (r *fakeCacheRepo) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

type fakeFileStorage struct {
	saved []string
}

func (s *fakeFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	path := "/uploads/" + prefix + "/" + originalFileName
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *fakeFileStorage) Delete(filePath string) error { return nil }

type fakeCategoryRepo struct {
	items  map[uint64]*entities.Category
	nextID uint64
}

func newFakeCategoryRepo(categories ...entities.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{items: map[uint64]*entities.Category{}, nextID: 1}
	for i := range categories {
		c := categories[i]
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.items[c.ID] = &c
	}
	return r
}

func (r *fakeCategoryRepo) GetCategories(ctx context.Context) ([]entities.Category, error) {
	var list []entities.Category
	for _, c := range r.items {
		cc := *c
		cc.Children = nil
		list = append(list, cc)
	}
	return list, nil
}

func (r *fakeCategoryRepo) FindCategory(ctx context.Context, id uint64) (*entities.Category, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *fakeCategoryRepo) FindRootByKind(ctx context.Context, kind entities.ItemKind) (*entities.Category, error) {
	for _, c := range r.items {
		if c.ParentID == nil && c.ItemKind == kind {
			cc := *c
			return &cc, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeCategoryRepo) FindByNameUnderParent(ctx context.Context, tx pgx.Tx, parentID uint64, name string) (*entities.Category, error) {
	for _, c := range r.items {
		if c.ParentID != nil && *c.ParentID == parentID && c.Name == name {
			cc := *c
			return &cc, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeCategoryRepo) CountChildren(ctx context.Context, id uint64) (uint64, error) {
	var n uint64
	for _, c := range r.items {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *fakeCategoryRepo) CreateCategory(ctx context.Context, tx pgx.Tx, category entities.Category) (uint64, error) {
	category.ID = r.nextID
	r.nextID++
	r.items[category.ID] = &category
	return category.ID, nil
}

func (r *fakeCategoryRepo) UpdateCategory(ctx context.Context, id uint64, category entities.Category) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	category.ID = id
	r.items[id] = &category
	return nil
}

func (r *fakeCategoryRepo) DeleteCategory(ctx context.Context, id uint64) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
