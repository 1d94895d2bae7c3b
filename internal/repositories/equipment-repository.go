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

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/infrastructure/bd"
	apperrors "operations-system/pkg/errors"
	"operations-system/pkg/types"
)

const equipmentTable = "equipment"

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var equipmentMap = map[string]string{
	"id":             "e.id",
	"type":           "e.type",
	"manufacturer":   "e.manufacturer",
	"serial_number":  "e.serial_number",
	"status":         "e.status",
	"warehouse_id":   "e.current_warehouse_id",
	"warehouse":      "e.current_warehouse_id",
	"category_id":    "e.category_id",
	"batch_id":       "e.batch_id",
	"is_batch":       "e.is_batch",
	"testing_status": "e.testing_status",
	"is_deleted":     "e.is_deleted",
	"unit_price":     "e.unit_price",
	"quantity":       "e.quantity",
	"created_at":     "e.created_at",
	"updated_at":     "e.updated_at",
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	FindEquipmentTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	FindBySerial(ctx context.Context, serial string) (*entities.Equipment, error)
	ListByBatch(ctx context.Context, tx pgx.Tx, batchID string) ([]entities.Equipment, error)
	ListByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Equipment, error)
	ListByTestingStatuses(ctx context.Context, statuses []entities.TestingStatus) ([]entities.Equipment, error)
	CreateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error)
	UpdateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) error
	SoftDeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64, reason string, deletedBy string) error
	CountByStatus(ctx context.Context, status entities.Status) (uint64, error)
	CountByCategory(ctx context.Context, categoryID uint64) (uint64, error)
	CountByWarehouse(ctx context.Context, warehouseID uint64) (uint64, error)
	GetStatistics(ctx context.Context) (*dto.StatisticsDTO, error)
	CostReport(ctx context.Context, warehouseID *uint64) ([]dto.CostReportRowDTO, error)
	MigrateLegacyCategories(ctx context.Context, tx pgx.Tx, serviceID, electroID, internalID, equipmentID uint64) (*dto.MigrateEquipmentResultDTO, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

// q выбирает источник запросов: транзакция или пул.
func (r *EquipmentRepository) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

var equipmentColumns = []string{
	"e.id", "e.type", "e.manufacturer", "e.serial_number", "e.quantity",
	"e.current_warehouse_id", "COALESCE(w.name, '')",
	"e.status", "e.is_batch", "e.batch_id", "e.category_id", "e.unit_price",
	"e.testing_status", "e.testing", "e.reservation", "e.write_off", "e.nameplate",
	"e.movement_history", "e.shipment_history", "e.attached_files",
	"e.is_service_part", "e.is_electro_part", "e.is_internal_use",
	"e.delete_reason", "e.is_deleted", "e.added_by",
	"e.created_at", "e.updated_at",
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	// Для nullable полей
	var serial, batchID, deleteReason sql.NullString
	var categoryID sql.NullInt64
	// JSONB блоки
	var testing, reservation, writeOff, nameplate []byte
	var movements, shipments, files []byte

	err := row.Scan(
		&e.ID, &e.Type, &e.Manufacturer, &serial, &e.Quantity,
		&e.CurrentWarehouseID, &e.CurrentWarehouseName,
		&e.Status, &e.IsBatch, &batchID, &categoryID, &e.UnitPrice,
		&e.TestingStatus, &testing, &reservation, &writeOff, &nameplate,
		&movements, &shipments, &files,
		&e.IsServicePart, &e.IsElectroPart, &e.IsInternalUse,
		&deleteReason, &e.IsDeleted, &e.AddedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования equipment: %w", err)
	}

	if serial.Valid {
		e.SerialNumber = &serial.String
	}
	if batchID.Valid {
		e.BatchID = &batchID.String
	}
	if deleteReason.Valid {
		e.DeleteReason = &deleteReason.String
	}
	if categoryID.Valid {
		id := uint64(categoryID.Int64)
		e.CategoryID = &id
	}

	if err := unmarshalBlock(testing, &e.Testing); err != nil {
		return nil, err
	}
	if err := unmarshalBlock(reservation, &e.Reservation); err != nil {
		return nil, err
	}
	if err := unmarshalBlock(writeOff, &e.WriteOff); err != nil {
		return nil, err
	}
	if err := unmarshalBlock(nameplate, &e.Nameplate); err != nil {
		return nil, err
	}
	if len(movements) > 0 {
		if err := json.Unmarshal(movements, &e.MovementHistory); err != nil {
			return nil, fmt.Errorf("ошибка разбора movement_history: %w", err)
		}
	}
	if len(shipments) > 0 {
		if err := json.Unmarshal(shipments, &e.ShipmentHistory); err != nil {
			return nil, fmt.Errorf("ошибка разбора shipment_history: %w", err)
		}
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &e.AttachedFiles); err != nil {
			return nil, fmt.Errorf("ошибка разбора attached_files: %w", err)
		}
	}

	return &e, nil
}

// unmarshalBlock разбирает nullable jsonb колонку в указатель на структуру.
func unmarshalBlock[T any](raw []byte, dst **T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("ошибка разбора jsonb блока: %w", err)
	}
	*dst = &v
	return nil
}

// marshalBlock сериализует указатель в jsonb аргумент, nil остаётся NULL.
func marshalBlock[T any](v *T) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации jsonb блока: %w", err)
	}
	return raw, nil
}

func marshalHistory(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации истории: %w", err)
	}
	return raw, nil
}

// -----------------------------------------------------------
// GET (Список)
// -----------------------------------------------------------

func (r *EquipmentRepository) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applyCommon := func(b sq.SelectBuilder) sq.SelectBuilder {
		// Удалённые записи скрыты, пока их не запросили явно.
		if _, ok := filter.Filter["is_deleted"]; !ok {
			b = b.Where(sq.Eq{"e.is_deleted": false})
		}
		b = bd.ApplySearch(b, filter.Search, []string{
			"e.type", "e.manufacturer", "e.serial_number", "e.batch_id",
		})
		return b
	}

	// 1. COUNT
	countBuilder := psql.Select("COUNT(e.id)").From(equipmentTable + " AS e")
	countBuilder = applyCommon(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, equipmentMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Equipment{}, 0, nil
	}

	// 2. SELECT
	baseBuilder := psql.Select(equipmentColumns...).
		From(equipmentTable + " AS e").
		LeftJoin("warehouses w ON e.current_warehouse_id = w.id")
	baseBuilder = applyCommon(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("e.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, equipmentMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.Equipment, 0, filter.Limit)
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *eq)
	}

	return list, total, nil
}

// -----------------------------------------------------------
// FIND
// -----------------------------------------------------------

func (r *EquipmentRepository) findOne(ctx context.Context, q querier, where sq.Sqlizer) (*entities.Equipment, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(equipmentColumns...).
		From(equipmentTable + " AS e").
		LeftJoin("warehouses w ON e.current_warehouse_id = w.id").
		Where(where).
		Limit(1)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(q.QueryRow(ctx, query, args...))
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"e.id": id})
}

func (r *EquipmentRepository) FindEquipmentTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, r.q(tx), sq.Eq{"e.id": id})
}

func (r *EquipmentRepository) FindBySerial(ctx context.Context, serial string) (*entities.Equipment, error) {
	return r.findOne(ctx, r.storage, sq.And{
		sq.Eq{"e.serial_number": serial},
		sq.Eq{"e.is_deleted": false},
	})
}

func (r *EquipmentRepository) listWhere(ctx context.Context, q querier, where sq.Sqlizer) ([]entities.Equipment, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(equipmentColumns...).
		From(equipmentTable + " AS e").
		LeftJoin("warehouses w ON e.current_warehouse_id = w.id").
		Where(where).
		OrderBy("e.id")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []entities.Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *eq)
	}
	return list, nil
}

func (r *EquipmentRepository) ListByBatch(ctx context.Context, tx pgx.Tx, batchID string) ([]entities.Equipment, error) {
	return r.listWhere(ctx, r.q(tx), sq.And{
		sq.Eq{"e.batch_id": batchID},
		sq.Eq{"e.is_deleted": false},
	})
}

func (r *EquipmentRepository) ListByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Equipment, error) {
	if len(ids) == 0 {
		return []entities.Equipment{}, nil
	}
	return r.listWhere(ctx, r.q(tx), sq.Eq{"e.id": ids})
}

func (r *EquipmentRepository) ListByTestingStatuses(ctx context.Context, statuses []entities.TestingStatus) ([]entities.Equipment, error) {
	return r.listWhere(ctx, r.storage, sq.And{
		sq.Eq{"e.testing_status": statuses},
		sq.Eq{"e.is_deleted": false},
	})
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error) {
	testing, err := marshalBlock(eq.Testing)
	if err != nil {
		return 0, err
	}
	reservation, err := marshalBlock(eq.Reservation)
	if err != nil {
		return 0, err
	}
	writeOff, err := marshalBlock(eq.WriteOff)
	if err != nil {
		return 0, err
	}
	nameplate, err := marshalBlock(eq.Nameplate)
	if err != nil {
		return 0, err
	}
	movements, err := marshalHistory(eq.MovementHistory)
	if err != nil {
		return 0, err
	}
	shipments, err := marshalHistory(eq.ShipmentHistory)
	if err != nil {
		return 0, err
	}
	files, err := marshalHistory(eq.AttachedFiles)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO equipment (
			type, manufacturer, serial_number, quantity, current_warehouse_id,
			status, is_batch, batch_id, category_id, unit_price,
			testing_status, testing, reservation, write_off, nameplate,
			movement_history, shipment_history, attached_files,
			is_service_part, is_electro_part, is_internal_use,
			added_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err = r.q(tx).QueryRow(ctx, query,
		eq.Type, eq.Manufacturer, eq.SerialNumber, eq.Quantity, eq.CurrentWarehouseID,
		eq.Status, eq.IsBatch, eq.BatchID, eq.CategoryID, eq.UnitPrice,
		eq.TestingStatus, testing, reservation, writeOff, nameplate,
		movements, shipments, files,
		eq.IsServicePart, eq.IsElectroPart, eq.IsInternalUse,
		eq.AddedBy,
	).Scan(&newID)

	return newID, err
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) error {
	testing, err := marshalBlock(eq.Testing)
	if err != nil {
		return err
	}
	reservation, err := marshalBlock(eq.Reservation)
	if err != nil {
		return err
	}
	writeOff, err := marshalBlock(eq.WriteOff)
	if err != nil {
		return err
	}
	nameplate, err := marshalBlock(eq.Nameplate)
	if err != nil {
		return err
	}
	movements, err := marshalHistory(eq.MovementHistory)
	if err != nil {
		return err
	}
	shipments, err := marshalHistory(eq.ShipmentHistory)
	if err != nil {
		return err
	}
	files, err := marshalHistory(eq.AttachedFiles)
	if err != nil {
		return err
	}

	query := `
		UPDATE equipment
		SET type = $1, manufacturer = $2, serial_number = $3, quantity = $4,
		    current_warehouse_id = $5, status = $6, is_batch = $7, batch_id = $8,
		    category_id = $9, unit_price = $10,
		    testing_status = $11, testing = $12, reservation = $13,
		    write_off = $14, nameplate = $15,
		    movement_history = $16, shipment_history = $17, attached_files = $18,
		    updated_at = NOW()
		WHERE id = $19 AND is_deleted = FALSE
	`
	result, err := r.q(tx).Exec(ctx, query,
		eq.Type, eq.Manufacturer, eq.SerialNumber, eq.Quantity,
		eq.CurrentWarehouseID, eq.Status, eq.IsBatch, eq.BatchID,
		eq.CategoryID, eq.UnitPrice,
		eq.TestingStatus, testing, reservation,
		writeOff, nameplate,
		movements, shipments, files,
		eq.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) SoftDeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64, reason string, deletedBy string) error {
	query := `
		UPDATE equipment
		SET is_deleted = TRUE, delete_reason = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND is_deleted = FALSE
	`
	result, err := r.q(tx).Exec(ctx, query, fmt.Sprintf("%s (%s)", reason, deletedBy), entities.StatusDeleted, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------
// АГРЕГАТЫ
// -----------------------------------------------------------

func (r *EquipmentRepository) CountByStatus(ctx context.Context, status entities.Status) (uint64, error) {
	var total uint64
	query := `SELECT COUNT(id) FROM equipment WHERE status = $1 AND is_deleted = FALSE`
	err := r.storage.QueryRow(ctx, query, status).Scan(&total)
	return total, err
}

func (r *EquipmentRepository) CountByCategory(ctx context.Context, categoryID uint64) (uint64, error) {
	var total uint64
	query := `SELECT COUNT(id) FROM equipment WHERE category_id = $1 AND is_deleted = FALSE`
	err := r.storage.QueryRow(ctx, query, categoryID).Scan(&total)
	return total, err
}

func (r *EquipmentRepository) CountByWarehouse(ctx context.Context, warehouseID uint64) (uint64, error) {
	var total uint64
	query := `SELECT COUNT(id) FROM equipment WHERE current_warehouse_id = $1 AND is_deleted = FALSE`
	err := r.storage.QueryRow(ctx, query, warehouseID).Scan(&total)
	return total, err
}

func (r *EquipmentRepository) GetStatistics(ctx context.Context) (*dto.StatisticsDTO, error) {
	stats := &dto.StatisticsDTO{
		ByStatus:    make(map[string]uint64),
		ByWarehouse: []dto.WarehouseStat{},
	}

	rows, err := r.storage.Query(ctx, `
		SELECT status, COUNT(id)
		FROM equipment
		WHERE is_deleted = FALSE
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count uint64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}

	whRows, err := r.storage.Query(ctx, `
		SELECT w.id, w.name,
		       COUNT(e.id) FILTER (WHERE e.status = $1),
		       COUNT(e.id) FILTER (WHERE e.status = $2),
		       COALESCE(SUM(e.quantity) FILTER (WHERE e.status IN ($1, $2)), 0)
		FROM warehouses w
		LEFT JOIN equipment e ON e.current_warehouse_id = w.id AND e.is_deleted = FALSE
		GROUP BY w.id, w.name
		ORDER BY w.name
	`, entities.StatusInStock, entities.StatusReserved)
	if err != nil {
		return nil, err
	}
	defer whRows.Close()

	for whRows.Next() {
		var ws dto.WarehouseStat
		if err := whRows.Scan(&ws.WarehouseID, &ws.WarehouseName, &ws.InStock, &ws.Reserved, &ws.Units); err != nil {
			return nil, err
		}
		stats.ByWarehouse = append(stats.ByWarehouse, ws)
	}

	return stats, nil
}

func (r *EquipmentRepository) CostReport(ctx context.Context, warehouseID *uint64) ([]dto.CostReportRowDTO, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(
		"e.type", "COALESCE(w.name, '')",
		"SUM(e.quantity)", "AVG(e.unit_price)", "SUM(e.quantity * e.unit_price)",
	).
		From(equipmentTable+" AS e").
		LeftJoin("warehouses w ON e.current_warehouse_id = w.id").
		Where(sq.Eq{"e.is_deleted": false}).
		Where(sq.Eq{"e.status": []entities.Status{entities.StatusInStock, entities.StatusReserved}}).
		GroupBy("e.type", "w.name").
		OrderBy("w.name", "e.type")

	if warehouseID != nil {
		builder = builder.Where(sq.Eq{"e.current_warehouse_id": *warehouseID})
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

	report := []dto.CostReportRowDTO{}
	for rows.Next() {
		var row dto.CostReportRowDTO
		if err := rows.Scan(&row.Type, &row.WarehouseName, &row.Quantity, &row.UnitCost, &row.TotalCost); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, nil
}

// MigrateLegacyCategories раскладывает записи без категории по корневым
// корзинам по легаси-флагам. Порядок важен: сервисные детали первыми.
func (r *EquipmentRepository) MigrateLegacyCategories(ctx context.Context, tx pgx.Tx, serviceID, electroID, internalID, equipmentID uint64) (*dto.MigrateEquipmentResultDTO, error) {
	assign := func(categoryID uint64, cond string) (int, error) {
		query := fmt.Sprintf(`
			UPDATE equipment
			SET category_id = $1, updated_at = NOW()
			WHERE category_id IS NULL AND is_deleted = FALSE AND %s
		`, cond)
		result, err := r.q(tx).Exec(ctx, query, categoryID)
		if err != nil {
			return 0, err
		}
		return int(result.RowsAffected()), nil
	}

	res := &dto.MigrateEquipmentResultDTO{}
	var err error
	if res.ServiceParts, err = assign(serviceID, "is_service_part = TRUE"); err != nil {
		return nil, err
	}
	if res.ElectroParts, err = assign(electroID, "is_electro_part = TRUE"); err != nil {
		return nil, err
	}
	if res.InternalUse, err = assign(internalID, "is_internal_use = TRUE"); err != nil {
		return nil, err
	}
	if res.Equipment, err = assign(equipmentID, "TRUE"); err != nil {
		return nil, err
	}
	res.Total = res.ServiceParts + res.ElectroParts + res.InternalUse + res.Equipment
	return res, nil
}
