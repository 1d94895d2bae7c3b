package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"operations-system/internal/entities"
	"operations-system/internal/infrastructure/bd"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

const warehouseTable = "warehouses"

var warehouseMap = map[string]string{
	"id":         "w.id",
	"name":       "w.name",
	"region":     "w.region",
	"is_active":  "w.is_active",
	"created_at": "w.created_at",
	"updated_at": "w.updated_at",
}

type WarehouseRepositoryInterface interface {
	GetWarehouses(ctx context.Context, filter types.Filter) ([]entities.Warehouse, uint64, error)
	FindWarehouse(ctx context.Context, id uint64) (*entities.Warehouse, error)
	CreateWarehouse(ctx context.Context, warehouse entities.Warehouse) (uint64, error)
	UpdateWarehouse(ctx context.Context, id uint64, warehouse entities.Warehouse) error
	DeleteWarehouse(ctx context.Context, id uint64) error
}

type WarehouseRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewWarehouseRepository(storage *pgxpool.Pool, logger *zap.Logger) WarehouseRepositoryInterface {
	return &WarehouseRepository{storage: storage, logger: logger}
}

func scanWarehouse(row pgx.Row) (*entities.Warehouse, error) {
	var w entities.Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Region, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования warehouse: %w", err)
	}
	return &w, nil
}

func (r *WarehouseRepository) GetWarehouses(ctx context.Context, filter types.Filter) ([]entities.Warehouse, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"w.name": pat},
				sq.ILike{"w.region": pat},
			})
		}
		return b
	}

	countBuilder := psql.Select("COUNT(w.id)").From(warehouseTable + " AS w")
	countBuilder = applySearch(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, warehouseMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Warehouse{}, 0, nil
	}

	baseBuilder := psql.Select(
		"w.id", "w.name", "w.region", "w.address", "w.is_active",
		"w.created_at", "w.updated_at",
	).From(warehouseTable + " AS w")
	baseBuilder = applySearch(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("w.name")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, warehouseMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	warehouses := make([]entities.Warehouse, 0, filter.Limit)
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, 0, err
		}
		warehouses = append(warehouses, *w)
	}
	return warehouses, total, nil
}

func (r *WarehouseRepository) FindWarehouse(ctx context.Context, id uint64) (*entities.Warehouse, error) {
	query := `
		SELECT w.id, w.name, w.region, w.address, w.is_active, w.created_at, w.updated_at
		FROM warehouses w
		WHERE w.id = $1
	`
	return scanWarehouse(r.storage.QueryRow(ctx, query, id))
}

func (r *WarehouseRepository) CreateWarehouse(ctx context.Context, warehouse entities.Warehouse) (uint64, error) {
	query := `
		INSERT INTO warehouses (name, region, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		warehouse.Name, warehouse.Region, warehouse.Address, warehouse.IsActive,
	).Scan(&newID)
	return newID, err
}

func (r *WarehouseRepository) UpdateWarehouse(ctx context.Context, id uint64, warehouse entities.Warehouse) error {
	query := `
		UPDATE warehouses
		SET name = $1, region = $2, address = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.storage.Exec(ctx, query,
		warehouse.Name, warehouse.Region, warehouse.Address, warehouse.IsActive, id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *WarehouseRepository) DeleteWarehouse(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
