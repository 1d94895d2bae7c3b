package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/infrastructure/bd"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

const taskTable = "tasks"

var taskMap = map[string]string{
	"id":             "t.id",
	"request_number": "t.request_number",
	"client_name":    "t.client_name",
	"client_edrpou":  "t.client_edrpou",
	"region":         "t.region",
	"status":         "t.status",
	"approval":       "t.approval",
	"engineer":       "t.engineer",
	"payment_type":   "t.payment_type",
	"visit_date":     "t.visit_date",
	"is_deleted":     "t.is_deleted",
	"created_at":     "t.created_at",
	"updated_at":     "t.updated_at",
}

type TaskRepositoryInterface interface {
	GetTasks(ctx context.Context, filter types.Filter) ([]entities.Task, uint64, error)
	FindTask(ctx context.Context, id uint64) (*entities.Task, error)
	CreateTask(ctx context.Context, task entities.Task) (uint64, error)
	UpdateTask(ctx context.Context, task entities.Task) error
	SoftDeleteTask(ctx context.Context, id uint64, reason string) error
	GetStatistics(ctx context.Context) (*dto.TaskStatisticsDTO, error)
	FinancialReport(ctx context.Context, from, to string) ([]dto.FinancialReportRowDTO, error)
}

type TaskRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTaskRepository(storage *pgxpool.Pool, logger *zap.Logger) TaskRepositoryInterface {
	return &TaskRepository{storage: storage, logger: logger}
}

const taskColumns = `t.id, t.request_number, t.client_name, t.client_edrpou, t.client_phone,
	t.address, t.region, t.equipment_type, t.serial_number, t.description,
	t.status, t.approval, t.engineer, t.service_total, t.works_total, t.payment_type,
	t.visit_date, t.completed_at, t.delete_reason, t.is_deleted, t.created_by,
	t.created_at, t.updated_at`

func scanTask(row pgx.Row) (*entities.Task, error) {
	var t entities.Task
	var visitDate, completedAt sql.NullTime
	var deleteReason sql.NullString

	err := row.Scan(
		&t.ID, &t.RequestNumber, &t.ClientName, &t.ClientEdrpou, &t.ClientPhone,
		&t.Address, &t.Region, &t.EquipmentType, &t.SerialNumber, &t.Description,
		&t.Status, &t.Approval, &t.Engineer, &t.ServiceTotal, &t.WorksTotal, &t.PaymentType,
		&visitDate, &completedAt, &deleteReason, &t.IsDeleted, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования task: %w", err)
	}

	if visitDate.Valid {
		t.VisitDate = &visitDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if deleteReason.Valid {
		t.DeleteReason = &deleteReason.String
	}
	return &t, nil
}

func (r *TaskRepository) GetTasks(ctx context.Context, filter types.Filter) ([]entities.Task, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applyCommon := func(b sq.SelectBuilder) sq.SelectBuilder {
		if _, ok := filter.Filter["is_deleted"]; !ok {
			b = b.Where(sq.Eq{"t.is_deleted": false})
		}
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			b = b.Where(sq.Or{
				sq.ILike{"t.request_number": pat},
				sq.ILike{"t.client_name": pat},
				sq.ILike{"t.client_edrpou": pat},
				sq.ILike{"t.serial_number": pat},
				sq.ILike{"t.engineer": pat},
			})
		}
		return b
	}

	countBuilder := psql.Select("COUNT(t.id)").From(taskTable + " AS t")
	countBuilder = applyCommon(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, taskMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Task{}, 0, nil
	}

	baseBuilder := psql.Select(taskColumns).From(taskTable + " AS t")
	baseBuilder = applyCommon(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("t.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, taskMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]entities.Task, 0, filter.Limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, total, nil
}

func (r *TaskRepository) FindTask(ctx context.Context, id uint64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	return scanTask(r.storage.QueryRow(ctx, query, id))
}

func (r *TaskRepository) CreateTask(ctx context.Context, task entities.Task) (uint64, error) {
	query := `
		INSERT INTO tasks (
			request_number, client_name, client_edrpou, client_phone, address, region,
			equipment_type, serial_number, description, status, approval, engineer,
			service_total, works_total, payment_type, visit_date, created_by,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		task.RequestNumber, task.ClientName, task.ClientEdrpou, task.ClientPhone, task.Address, task.Region,
		task.EquipmentType, task.SerialNumber, task.Description, task.Status, task.Approval, task.Engineer,
		task.ServiceTotal, task.WorksTotal, task.PaymentType, task.VisitDate, task.CreatedBy,
	).Scan(&newID)
	return newID, err
}

func (r *TaskRepository) UpdateTask(ctx context.Context, task entities.Task) error {
	query := `
		UPDATE tasks
		SET client_name = $1, client_edrpou = $2, client_phone = $3, address = $4, region = $5,
		    equipment_type = $6, serial_number = $7, description = $8,
		    status = $9, approval = $10, engineer = $11,
		    service_total = $12, works_total = $13, payment_type = $14,
		    visit_date = $15, completed_at = $16, updated_at = NOW()
		WHERE id = $17 AND is_deleted = FALSE
	`
	result, err := r.storage.Exec(ctx, query,
		task.ClientName, task.ClientEdrpou, task.ClientPhone, task.Address, task.Region,
		task.EquipmentType, task.SerialNumber, task.Description,
		task.Status, task.Approval, task.Engineer,
		task.ServiceTotal, task.WorksTotal, task.PaymentType,
		task.VisitDate, task.CompletedAt, task.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) SoftDeleteTask(ctx context.Context, id uint64, reason string) error {
	query := `
		UPDATE tasks
		SET is_deleted = TRUE, delete_reason = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE
	`
	result, err := r.storage.Exec(ctx, query, reason, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) GetStatistics(ctx context.Context) (*dto.TaskStatisticsDTO, error) {
	stats := &dto.TaskStatisticsDTO{
		ByStatus:   make(map[string]uint64),
		ByRegion:   make(map[string]uint64),
		ByApproval: make(map[string]uint64),
	}

	rows, err := r.storage.Query(ctx, `
		SELECT status, region, approval, COUNT(id)
		FROM tasks
		WHERE is_deleted = FALSE
		GROUP BY status, region, approval
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, region, approval string
		var count uint64
		if err := rows.Scan(&status, &region, &approval, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] += count
		if region != "" {
			stats.ByRegion[region] += count
		}
		stats.ByApproval[approval] += count
		stats.Total += count
	}
	return stats, nil
}

// FinancialReport агрегирует суммы по регионам и месяцам. Границы - даты YYYY-MM-DD.
func (r *TaskRepository) FinancialReport(ctx context.Context, from, to string) ([]dto.FinancialReportRowDTO, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(
		"t.region",
		"TO_CHAR(t.created_at, 'YYYY-MM')",
		"COUNT(t.id)",
		"COALESCE(SUM(t.service_total), 0)",
		"COALESCE(SUM(t.works_total), 0)",
	).
		From(taskTable + " AS t").
		Where(sq.Eq{"t.is_deleted": false}).
		GroupBy("t.region", "TO_CHAR(t.created_at, 'YYYY-MM')").
		OrderBy("t.region", "2")

	if from != "" {
		builder = builder.Where(sq.GtOrEq{"t.created_at": from})
	}
	if to != "" {
		builder = builder.Where(sq.LtOrEq{"t.created_at": to + " 23:59:59"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := []dto.FinancialReportRowDTO{}
	for rows.Next() {
		var row dto.FinancialReportRowDTO
		if err := rows.Scan(&row.Region, &row.Month, &row.TaskCount, &row.ServiceTotal, &row.WorksTotal); err != nil {
			return nil, err
		}
		row.Total = row.ServiceTotal + row.WorksTotal
		report = append(report, row)
	}
	return report, nil
}
