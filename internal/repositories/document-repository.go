package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
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

const documentTable = "documents"

var documentMap = map[string]string{
	"id":         "d.id",
	"doc_type":   "d.doc_type",
	"number":     "d.number",
	"status":     "d.status",
	"doc_date":   "d.doc_date",
	"created_at": "d.created_at",
	"updated_at": "d.updated_at",
}

type DocumentRepositoryInterface interface {
	GetDocuments(ctx context.Context, docType entities.DocType, filter types.Filter) ([]entities.Document, uint64, error)
	FindDocument(ctx context.Context, id uint64) (*entities.Document, error)
	CreateDocument(ctx context.Context, tx pgx.Tx, doc entities.Document) (uint64, error)
	UpdateDocument(ctx context.Context, tx pgx.Tx, doc entities.Document) error
	NextNumber(ctx context.Context, tx pgx.Tx, docType entities.DocType) (string, error)
}

type DocumentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDocumentRepository(storage *pgxpool.Pool, logger *zap.Logger) DocumentRepositoryInterface {
	return &DocumentRepository{storage: storage, logger: logger}
}

func (r *DocumentRepository) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

const documentColumns = `d.id, d.doc_type, d.number, d.doc_date, d.from_warehouse_id, d.to_warehouse_id,
	d.status, d.items, d.notes, d.created_by, d.completed_at, d.created_at, d.updated_at`

func scanDocument(row pgx.Row) (*entities.Document, error) {
	var d entities.Document
	var fromWh, toWh sql.NullInt64
	var completedAt sql.NullTime
	var items []byte

	err := row.Scan(
		&d.ID, &d.DocType, &d.Number, &d.DocDate, &fromWh, &toWh,
		&d.Status, &items, &d.Notes, &d.CreatedBy, &completedAt,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования document: %w", err)
	}

	if fromWh.Valid {
		id := uint64(fromWh.Int64)
		d.FromWarehouseID = &id
	}
	if toWh.Valid {
		id := uint64(toWh.Int64)
		d.ToWarehouseID = &id
	}
	if completedAt.Valid {
		d.CompletedAt = &completedAt.Time
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &d.Items); err != nil {
			return nil, fmt.Errorf("ошибка разбора items документа: %w", err)
		}
	}
	return &d, nil
}

func (r *DocumentRepository) GetDocuments(ctx context.Context, docType entities.DocType, filter types.Filter) ([]entities.Document, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applyCommon := func(b sq.SelectBuilder) sq.SelectBuilder {
		b = b.Where(sq.Eq{"d.doc_type": docType})
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			b = b.Where(sq.ILike{"d.number": pat})
		}
		return b
	}

	countBuilder := psql.Select("COUNT(d.id)").From(documentTable + " AS d")
	countBuilder = applyCommon(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, documentMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Document{}, 0, nil
	}

	baseBuilder := psql.Select(documentColumns).From(documentTable + " AS d")
	baseBuilder = applyCommon(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("d.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, documentMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	documents := make([]entities.Document, 0, filter.Limit)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		documents = append(documents, *d)
	}
	return documents, total, nil
}

func (r *DocumentRepository) FindDocument(ctx context.Context, id uint64) (*entities.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1`
	return scanDocument(r.storage.QueryRow(ctx, query, id))
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, tx pgx.Tx, doc entities.Document) (uint64, error) {
	items, err := json.Marshal(doc.Items)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации items документа: %w", err)
	}
	query := `
		INSERT INTO documents (doc_type, number, doc_date, from_warehouse_id, to_warehouse_id, status, items, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err = r.q(tx).QueryRow(ctx, query,
		doc.DocType, doc.Number, doc.DocDate, doc.FromWarehouseID, doc.ToWarehouseID,
		doc.Status, items, doc.Notes, doc.CreatedBy,
	).Scan(&newID)
	return newID, err
}

func (r *DocumentRepository) UpdateDocument(ctx context.Context, tx pgx.Tx, doc entities.Document) error {
	items, err := json.Marshal(doc.Items)
	if err != nil {
		return fmt.Errorf("ошибка сериализации items документа: %w", err)
	}
	query := `
		UPDATE documents
		SET doc_date = $1, from_warehouse_id = $2, to_warehouse_id = $3,
		    status = $4, items = $5, notes = $6, completed_at = $7, updated_at = NOW()
		WHERE id = $8
	`
	result, err := r.q(tx).Exec(ctx, query,
		doc.DocDate, doc.FromWarehouseID, doc.ToWarehouseID,
		doc.Status, items, doc.Notes, doc.CompletedAt, doc.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var docNumberPrefix = map[entities.DocType]string{
	entities.DocReceipt:   "ПН",
	entities.DocMovement:  "ПМ",
	entities.DocShipment:  "ВН",
	entities.DocInventory: "ІНВ",
}

// NextNumber выдаёт следующий номер документа вида ПН-000123.
func (r *DocumentRepository) NextNumber(ctx context.Context, tx pgx.Tx, docType entities.DocType) (string, error) {
	var seq uint64
	err := r.q(tx).QueryRow(ctx,
		`SELECT COUNT(id) + 1 FROM documents WHERE doc_type = $1`, docType,
	).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", docNumberPrefix[docType], seq), nil
}
