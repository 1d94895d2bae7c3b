package entities

import (
	"time"

	"operations-system/pkg/types"
)

type DocType string

const (
	DocReceipt   DocType = "receipt"
	DocMovement  DocType = "movement"
	DocShipment  DocType = "shipment"
	DocInventory DocType = "inventory"
)

func (d DocType) Valid() bool {
	switch d {
	case DocReceipt, DocMovement, DocShipment, DocInventory:
		return true
	}
	return false
}

type DocStatus string

const (
	DocDraft     DocStatus = "draft"
	DocPosted    DocStatus = "posted"
	DocCompleted DocStatus = "completed"
)

// DocumentItem - строка документа. Документ - бумажный след,
// авторитетное состояние остаётся на записях обладнання.
type DocumentItem struct {
	EquipmentID  uint64  `json:"equipment_id,omitempty"`
	Type         string  `json:"type,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	SerialNumber string  `json:"serial_number,omitempty"`
	BatchID      string  `json:"batch_id,omitempty"`
	IsBatch      bool    `json:"is_batch,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price,omitempty"`
	TotalPrice   float64 `json:"total_price,omitempty"`
	// Для инвентаризации: фактическое против учётного.
	ExpectedQuantity int `json:"expected_quantity,omitempty"`
	ActualQuantity   int `json:"actual_quantity,omitempty"`
}

type Document struct {
	ID              uint64
	DocType         DocType
	Number          string
	DocDate         time.Time
	FromWarehouseID *uint64
	ToWarehouseID   *uint64
	Status          DocStatus
	Items           []DocumentItem
	Notes           string
	CreatedBy       string
	CompletedAt     *time.Time

	types.BaseEntity
}
