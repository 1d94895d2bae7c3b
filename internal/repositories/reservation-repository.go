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

const reservationTable = "reservations"

var reservationMap = map[string]string{
	"id":            "r.id",
	"client_name":   "r.client_name",
	"client_edrpou": "r.client_edrpou",
	"status":        "r.status",
	"deadline":      "r.deadline",
	"created_at":    "r.created_at",
	"updated_at":    "r.updated_at",
}

type ReservationRepositoryInterface interface {
	GetReservations(ctx context.Context, filter types.Filter) ([]entities.Reservation, uint64, error)
	FindReservation(ctx context.Context, id uint64) (*entities.Reservation, error)
	FindReservationTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Reservation, error)
	CreateReservation(ctx context.Context, tx pgx.Tx, res entities.Reservation) (uint64, error)
	UpdateReservation(ctx context.Context, tx pgx.Tx, res entities.Reservation) error
	ListByEquipment(ctx context.Context, equipmentID uint64) ([]entities.Reservation, error)
}

type ReservationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewReservationRepository(storage *pgxpool.Pool, logger *zap.Logger) ReservationRepositoryInterface {
	return &ReservationRepository{storage: storage, logger: logger}
}

func (r *ReservationRepository) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

const reservationColumns = `r.id, r.client_name, r.client_edrpou, r.order_ref, r.deadline,
	r.notes, r.status, r.items, r.created_by, r.cancelled_at, r.created_at, r.updated_at`

func scanReservation(row pgx.Row) (*entities.Reservation, error) {
	var res entities.Reservation
	var cancelledAt sql.NullTime
	var items []byte

	err := row.Scan(
		&res.ID, &res.ClientName, &res.ClientEdrpou, &res.OrderRef, &res.Deadline,
		&res.Notes, &res.Status, &items, &res.CreatedBy, &cancelledAt,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования reservation: %w", err)
	}

	if cancelledAt.Valid {
		res.CancelledAt = &cancelledAt.Time
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &res.Items); err != nil {
			return nil, fmt.Errorf("ошибка разбора items резерва: %w", err)
		}
	}
	return &res, nil
}

func (r *ReservationRepository) GetReservations(ctx context.Context, filter types.Filter) ([]entities.Reservation, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"r.client_name": pat},
				sq.ILike{"r.client_edrpou": pat},
				sq.ILike{"r.order_ref": pat},
			})
		}
		return b
	}

	countBuilder := psql.Select("COUNT(r.id)").From(reservationTable + " AS r")
	countBuilder = applySearch(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, reservationMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Reservation{}, 0, nil
	}

	baseBuilder := psql.Select(reservationColumns).From(reservationTable + " AS r")
	baseBuilder = applySearch(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("r.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, reservationMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reservations := make([]entities.Reservation, 0, filter.Limit)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, total, nil
}

func (r *ReservationRepository) findOne(ctx context.Context, q querier, id uint64) (*entities.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1`
	return scanReservation(q.QueryRow(ctx, query, id))
}

func (r *ReservationRepository) FindReservation(ctx context.Context, id uint64) (*entities.Reservation, error) {
	return r.findOne(ctx, r.storage, id)
}

func (r *ReservationRepository) FindReservationTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Reservation, error) {
	return r.findOne(ctx, r.q(tx), id)
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, tx pgx.Tx, res entities.Reservation) (uint64, error) {
	items, err := json.Marshal(res.Items)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации items резерва: %w", err)
	}
	query := `
		INSERT INTO reservations (client_name, client_edrpou, order_ref, deadline, notes, status, items, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err = r.q(tx).QueryRow(ctx, query,
		res.ClientName, res.ClientEdrpou, res.OrderRef, res.Deadline,
		res.Notes, res.Status, items, res.CreatedBy,
	).Scan(&newID)
	return newID, err
}

func (r *ReservationRepository) UpdateReservation(ctx context.Context, tx pgx.Tx, res entities.Reservation) error {
	items, err := json.Marshal(res.Items)
	if err != nil {
		return fmt.Errorf("ошибка сериализации items резерва: %w", err)
	}
	query := `
		UPDATE reservations
		SET client_name = $1, client_edrpou = $2, order_ref = $3, deadline = $4,
		    notes = $5, status = $6, items = $7, cancelled_at = $8, updated_at = NOW()
		WHERE id = $9
	`
	result, err := r.q(tx).Exec(ctx, query,
		res.ClientName, res.ClientEdrpou, res.OrderRef, res.Deadline,
		res.Notes, res.Status, items, res.CancelledAt, res.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListByEquipment достаёт резервы, в items которых встречается запись.
func (r *ReservationRepository) ListByEquipment(ctx context.Context, equipmentID uint64) ([]entities.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations r
		WHERE r.items @> $1
		ORDER BY r.id DESC
	`
	probe, err := json.Marshal([]map[string]uint64{{"equipment_id": equipmentID}})
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, probe)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := []entities.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, nil
}
