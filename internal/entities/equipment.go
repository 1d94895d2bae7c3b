package entities

import (
	"time"

	"operations-system/pkg/types"
)

// Status - статус единицы обладнання. Закрытый набор, вместо строк из старой системы.
type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusReserved   Status = "reserved"
	StatusInTransit  Status = "in_transit"
	StatusShipped    Status = "shipped"
	StatusWrittenOff Status = "written_off"
	StatusDeleted    Status = "deleted"
)

// Label - украинская подпись статуса, как её показывает и экспортирует фронт.
func (s Status) Label() string {
	switch s {
	case StatusInStock:
		return "На складі"
	case StatusReserved:
		return "Зарезервовано"
	case StatusInTransit:
		return "В дорозі"
	case StatusShipped:
		return "Відвантажено"
	case StatusWrittenOff:
		return "Списано"
	case StatusDeleted:
		return "Видалено"
	}
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusInStock, StatusReserved, StatusInTransit, StatusShipped, StatusWrittenOff, StatusDeleted:
		return true
	}
	return false
}

// StockKind - теговый вариант учёта: штучный, партия, количественный лот.
// Раньше это были разбросанные проверки serialNumber/batchId/quantity.
type StockKind int

const (
	KindSingle StockKind = iota
	KindBatch
	KindQuantityLot
)

func (k StockKind) String() string {
	switch k {
	case KindBatch:
		return "batch"
	case KindQuantityLot:
		return "quantity_lot"
	}
	return "single"
}

// MovementEntry - запись журнала перемещений.
type MovementEntry struct {
	Date              time.Time `json:"date"`
	FromWarehouseID   uint64    `json:"from_warehouse_id"`
	FromWarehouseName string    `json:"from_warehouse_name"`
	ToWarehouseID     uint64    `json:"to_warehouse_id"`
	ToWarehouseName   string    `json:"to_warehouse_name"`
	Quantity          int       `json:"quantity"`
	MovedBy           string    `json:"moved_by"`
	Reason            string    `json:"reason,omitempty"`
	// SourceRecordID заполняется у отщеплённой записи при частичном перемещении.
	SourceRecordID uint64 `json:"source_record_id,omitempty"`
}

// ShipmentEntry - запись журнала отгрузок.
type ShipmentEntry struct {
	Date          time.Time `json:"date"`
	ShippedTo     string    `json:"shipped_to"`
	OrderNumber   string    `json:"order_number,omitempty"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	ClientEdrpou  string    `json:"client_edrpou,omitempty"`
	Quantity      int       `json:"quantity"`
	ShippedBy     string    `json:"shipped_by"`
}

// AttachedFile - файл, привязанный к записи (фото, документы).
type AttachedFile struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Mimetype string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// TestingInfo - метаданные процесса тестирования.
type TestingInfo struct {
	Procedure   string         `json:"procedure,omitempty"`
	Result      string         `json:"result,omitempty"`
	Materials   []string       `json:"materials,omitempty"`
	Conclusion  string         `json:"conclusion,omitempty"`
	Engineers   []string       `json:"engineers,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Files       []AttachedFile `json:"files,omitempty"`
	RequestedAt *time.Time     `json:"requested_at,omitempty"`
	RequestedBy string         `json:"requested_by,omitempty"`
	TakenAt     *time.Time     `json:"taken_at,omitempty"`
	TakenBy     string         `json:"taken_by,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CompletedBy string         `json:"completed_by,omitempty"`
}

// ReservationInfo - блок резерва на самой записи обладнання.
type ReservationInfo struct {
	ReservationID uint64     `json:"reservation_id,omitempty"`
	ClientName    string     `json:"client_name"`
	ClientEdrpou  string     `json:"client_edrpou,omitempty"`
	HeldBy        string     `json:"held_by,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
}

// WriteOffInfo - причина и обстоятельства списания.
type WriteOffInfo struct {
	Reason string    `json:"reason"`
	Notes  string    `json:"notes,omitempty"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
}

// Nameplate - паспортные данные с шильдика (генераторы DAREX ENERGY).
type Nameplate struct {
	StandbyPower    string  `json:"standby_power,omitempty"`
	PrimePower      string  `json:"prime_power,omitempty"`
	Phase           int     `json:"phase,omitempty"`
	Voltage         string  `json:"voltage,omitempty"`
	Amperage        int     `json:"amperage,omitempty"`
	CosPhi          float64 `json:"cos_phi,omitempty"`
	RPM             int     `json:"rpm,omitempty"`
	Frequency       int     `json:"frequency,omitempty"`
	Dimensions      string  `json:"dimensions,omitempty"`
	Weight          int     `json:"weight,omitempty"`
	ManufactureDate string  `json:"manufacture_date,omitempty"`
}

type Equipment struct {
	ID                   uint64
	Type                 string
	Manufacturer         string
	SerialNumber         *string
	Quantity             int
	CurrentWarehouseID   uint64
	CurrentWarehouseName string
	Status               Status
	IsBatch              bool
	BatchID              *string
	CategoryID           *uint64
	UnitPrice            float64

	TestingStatus TestingStatus
	Testing       *TestingInfo
	Reservation   *ReservationInfo
	WriteOff      *WriteOffInfo
	Nameplate     *Nameplate

	MovementHistory []MovementEntry
	ShipmentHistory []ShipmentEntry
	AttachedFiles   []AttachedFile

	// Легаси-флаги старой базы, нужны только миграции категорий.
	IsServicePart bool
	IsElectroPart bool
	IsInternalUse bool

	DeleteReason *string
	IsDeleted    bool
	AddedBy      string

	types.BaseEntity
}

// Kind разбирает запись на вариант учёта. Единственное место с этой логикой.
func (e *Equipment) Kind() StockKind {
	if e.BatchID != nil && *e.BatchID != "" {
		return KindBatch
	}
	hasSerial := e.SerialNumber != nil && *e.SerialNumber != ""
	if !hasSerial && e.Quantity > 1 {
		return KindQuantityLot
	}
	return KindSingle
}
