package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
)

type CategoryRepositoryInterface interface {
	GetCategories(ctx context.Context) ([]entities.Category, error)
	FindCategory(ctx context.Context, id uint64) (*entities.Category, error)
	FindRootByKind(ctx context.Context, kind entities.ItemKind) (*entities.Category, error)
	FindByNameUnderParent(ctx context.Context, tx pgx.Tx, parentID uint64, name string) (*entities.Category, error)
	CountChildren(ctx context.Context, id uint64) (uint64, error)
	CreateCategory(ctx context.Context, tx pgx.Tx, category entities.Category) (uint64, error)
	UpdateCategory(ctx context.Context, id uint64, category entities.Category) error
	DeleteCategory(ctx context.Context, id uint64) error
}

type CategoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCategoryRepository(storage *pgxpool.Pool, logger *zap.Logger) CategoryRepositoryInterface {
	return &CategoryRepository{storage: storage, logger: logger}
}

func (r *CategoryRepository) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanCategory(row pgx.Row) (*entities.Category, error) {
	var c entities.Category
	var parentID sql.NullInt64

	err := row.Scan(&c.ID, &c.Name, &parentID, &c.ItemKind, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования category: %w", err)
	}
	if parentID.Valid {
		id := uint64(parentID.Int64)
		c.ParentID = &id
	}
	return &c, nil
}

const categoryColumns = `c.id, c.name, c.parent_id, c.item_kind, c.sort_order, c.created_at, c.updated_at`

// GetCategories возвращает плоский список, дерево собирает сервис.
func (r *CategoryRepository) GetCategories(ctx context.Context) ([]entities.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories c
		ORDER BY c.sort_order, c.name
	`
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []entities.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, nil
}

func (r *CategoryRepository) FindCategory(ctx context.Context, id uint64) (*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = $1`
	return scanCategory(r.storage.QueryRow(ctx, query, id))
}

func (r *CategoryRepository) FindRootByKind(ctx context.Context, kind entities.ItemKind) (*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.parent_id IS NULL AND c.item_kind = $1`
	return scanCategory(r.storage.QueryRow(ctx, query, kind))
}

func (r *CategoryRepository) FindByNameUnderParent(ctx context.Context, tx pgx.Tx, parentID uint64, name string) (*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.parent_id = $1 AND LOWER(c.name) = LOWER($2)`
	return scanCategory(r.q(tx).QueryRow(ctx, query, parentID, name))
}

func (r *CategoryRepository) CountChildren(ctx context.Context, id uint64) (uint64, error) {
	var total uint64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(id) FROM categories WHERE parent_id = $1`, id).Scan(&total)
	return total, err
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, tx pgx.Tx, category entities.Category) (uint64, error) {
	query := `
		INSERT INTO categories (name, parent_id, item_kind, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err := r.q(tx).QueryRow(ctx, query,
		category.Name, category.ParentID, category.ItemKind, category.SortOrder,
	).Scan(&newID)
	return newID, err
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, id uint64, category entities.Category) error {
	query := `
		UPDATE categories
		SET name = $1, sort_order = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.storage.Exec(ctx, query, category.Name, category.SortOrder, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
