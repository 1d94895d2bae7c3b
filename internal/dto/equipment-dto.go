package dto

import (
	"github.com/aarondl/null/v8"

	"operations-system/internal/entities"
)

type CreateEquipmentDTO struct {
	Type         string      `json:"type" validate:"required,max=100"`
	Manufacturer string      `json:"manufacturer" validate:"omitempty,max=100"`
	SerialNumber null.String `json:"serialNumber" validate:"omitempty"`
	Quantity     int         `json:"quantity" validate:"omitempty,min=1"`
	WarehouseID  uint64      `json:"warehouseId" validate:"required"`
	CategoryID   null.Uint64 `json:"categoryId"`
	UnitPrice    float64     `json:"unitPrice" validate:"omitempty,min=0"`
	// IsBatch=true с Quantity=N создаёт N штучных записей с общим batchId.
	IsBatch   bool                `json:"isBatch"`
	Nameplate *entities.Nameplate `json:"nameplate"`
}

type UpdateEquipmentDTO struct {
	Type         null.String `json:"type"`
	Manufacturer null.String `json:"manufacturer"`
	SerialNumber null.String `json:"serialNumber"`
	CategoryID   null.Uint64 `json:"categoryId"`
	UnitPrice    null.Float64 `json:"unitPrice"`
	Nameplate    *entities.Nameplate `json:"nameplate"`
}

type MoveEquipmentDTO struct {
	ToWarehouse     uint64 `json:"toWarehouse" validate:"required"`
	ToWarehouseName string `json:"toWarehouseName"`
	Reason          string `json:"reason" validate:"omitempty,max=500"`
	// Quantity=0 означает «переместить всё».
	Quantity int `json:"quantity" validate:"omitempty,min=1"`
}

type ShipEquipmentDTO struct {
	ShippedTo     string `json:"shippedTo" validate:"required,max=200"`
	OrderNumber   string `json:"orderNumber" validate:"omitempty,max=100"`
	InvoiceNumber string `json:"invoiceNumber" validate:"omitempty,max=100"`
	ClientEdrpou  string `json:"clientEdrpou" validate:"omitempty,max=20"`
	Quantity      int    `json:"quantity" validate:"omitempty,min=1"`
}

type WriteOffEquipmentDTO struct {
	Reason   string `json:"reason" validate:"required,max=500"`
	Notes    string `json:"notes" validate:"omitempty,max=1000"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1"`
}

type DeleteEquipmentDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required"`
}

// BulkMoveDTO - серверное множественное перемещение одной транзакцией.
type BulkMoveDTO struct {
	ToWarehouse     uint64         `json:"toWarehouse" validate:"required"`
	ToWarehouseName string         `json:"toWarehouseName"`
	Reason          string         `json:"reason" validate:"omitempty,max=500"`
	Items           []BulkMoveItem `json:"items" validate:"required,min=1,dive"`
}

type BulkMoveItem struct {
	EquipmentID uint64 `json:"equipmentId" validate:"required"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1"`
}

// QuantityMoveDTO - перемещение части количественного лота.
type QuantityMoveDTO struct {
	EquipmentID     uint64 `json:"equipmentId" validate:"required"`
	ToWarehouse     uint64 `json:"toWarehouse" validate:"required"`
	ToWarehouseName string `json:"toWarehouseName"`
	Reason          string `json:"reason" validate:"omitempty,max=500"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
}

// BatchMoveDTO - перемещение N единиц партии, единицы выбирает сервер.
type BatchMoveDTO struct {
	BatchID         string `json:"batchId" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
	ToWarehouse     uint64 `json:"toWarehouse" validate:"required"`
	ToWarehouseName string `json:"toWarehouseName"`
	Reason          string `json:"reason" validate:"omitempty,max=500"`
}

type ApproveReceiptDTO struct {
	EquipmentIDs []uint64 `json:"equipmentIds" validate:"required,min=1"`
}

// ScanEquipmentDTO - создание записи из проверенных оператором данных OCR.
type ScanEquipmentDTO struct {
	Type         string              `json:"type" validate:"required,max=100"`
	Manufacturer string              `json:"manufacturer" validate:"omitempty,max=100"`
	SerialNumber string              `json:"serialNumber" validate:"required,max=100"`
	WarehouseID  uint64              `json:"warehouseId" validate:"required"`
	Nameplate    *entities.Nameplate `json:"nameplate"`
	PhotoURL     string              `json:"photoUrl"`
	OCRText      string              `json:"ocrText"`
}

type OCRRequestDTO struct {
	Text string `json:"text" validate:"required"`
}

// ParsedNameplateDTO - черновик данных с шильдика для проверки оператором.
type ParsedNameplateDTO struct {
	Manufacturer string             `json:"manufacturer"`
	Type         string             `json:"type"`
	SerialNumber string             `json:"serialNumber"`
	Nameplate    entities.Nameplate `json:"nameplate"`
}

// EquipmentDTO - представление для фронта.
type EquipmentDTO struct {
	ID                   uint64                     `json:"id"`
	Type                 string                     `json:"type"`
	Manufacturer         string                     `json:"manufacturer,omitempty"`
	SerialNumber         null.String                `json:"serialNumber"`
	Quantity             int                        `json:"quantity"`
	CurrentWarehouse     uint64                     `json:"currentWarehouse"`
	CurrentWarehouseName string                     `json:"currentWarehouseName"`
	Status               entities.Status            `json:"status"`
	StatusLabel          string                     `json:"statusLabel"`
	StockKind            string                     `json:"stockKind"`
	IsBatch              bool                       `json:"isBatch"`
	BatchID              null.String                `json:"batchId"`
	CategoryID           null.Uint64                `json:"categoryId"`
	UnitPrice            float64                    `json:"unitPrice,omitempty"`
	TestingStatus        entities.TestingStatus     `json:"testingStatus"`
	Testing              *entities.TestingInfo      `json:"testing,omitempty"`
	Reservation          *entities.ReservationInfo  `json:"reservation,omitempty"`
	WriteOff             *entities.WriteOffInfo     `json:"writeOff,omitempty"`
	Nameplate            *entities.Nameplate        `json:"nameplate,omitempty"`
	MovementHistory      []entities.MovementEntry   `json:"movementHistory,omitempty"`
	ShipmentHistory      []entities.ShipmentEntry   `json:"shipmentHistory,omitempty"`
	AttachedFiles        []entities.AttachedFile    `json:"attachedFiles,omitempty"`
	AddedBy              string                     `json:"addedBy,omitempty"`
	CreatedAt            string                     `json:"addedAt,omitempty"`
	UpdatedAt            string                     `json:"updatedAt,omitempty"`
}

// StatisticsDTO - сводка по складам и статусам.
type StatisticsDTO struct {
	Total       uint64            `json:"total"`
	ByStatus    map[string]uint64 `json:"byStatus"`
	ByWarehouse []WarehouseStat   `json:"byWarehouse"`
}

type WarehouseStat struct {
	WarehouseID   uint64 `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	InStock       uint64 `json:"inStock"`
	Reserved      uint64 `json:"reserved"`
	Units         uint64 `json:"units"`
}

// CostReportRowDTO - строка стоимостного отчёта.
type CostReportRowDTO struct {
	Type          string  `json:"type"`
	WarehouseName string  `json:"warehouseName"`
	Quantity      int     `json:"quantity"`
	UnitCost      float64 `json:"unitCost"`
	TotalCost     float64 `json:"totalCost"`
}
