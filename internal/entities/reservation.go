package entities

import (
	"time"

	"operations-system/pkg/types"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// ReservationItem - одна позиция резерва.
type ReservationItem struct {
	EquipmentID uint64 `json:"equipment_id"`
	Quantity    int    `json:"quantity"`
}

type Reservation struct {
	ID           uint64
	ClientName   string
	ClientEdrpou string
	OrderRef     string
	Deadline     time.Time
	Notes        string
	Status       ReservationStatus
	Items        []ReservationItem
	CreatedBy    string
	CancelledAt  *time.Time

	types.BaseEntity
}
