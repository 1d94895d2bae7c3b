package dto

import "operations-system/internal/entities"

type CreateReservationDTO struct {
	ClientName   string                 `json:"clientName" validate:"required,max=200"`
	ClientEdrpou string                 `json:"clientEdrpou" validate:"omitempty,max=20"`
	OrderRef     string                 `json:"orderRef" validate:"omitempty,max=100"`
	Deadline     string                 `json:"deadline" validate:"required"` // YYYY-MM-DD
	Notes        string                 `json:"notes" validate:"omitempty,max=2000"`
	Items        []ReservationItemDTO   `json:"items" validate:"required,min=1,dive"`
}

type ReservationItemDTO struct {
	EquipmentID uint64 `json:"equipmentId" validate:"required"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1"`
}

type ReservationDTO struct {
	ID           uint64                     `json:"id"`
	ClientName   string                     `json:"clientName"`
	ClientEdrpou string                     `json:"clientEdrpou,omitempty"`
	OrderRef     string                     `json:"orderRef,omitempty"`
	Deadline     string                     `json:"deadline"`
	Notes        string                     `json:"notes,omitempty"`
	Status       entities.ReservationStatus `json:"status"`
	Items        []entities.ReservationItem `json:"items"`
	CreatedBy    string                     `json:"createdBy,omitempty"`
	CreatedAt    string                     `json:"createdAt,omitempty"`
	CancelledAt  string                     `json:"cancelledAt,omitempty"`
}
