package dto

import "operations-system/internal/entities"

type CreateDocumentDTO struct {
	Number        string                  `json:"number" validate:"omitempty,max=50"`
	DocDate       string                  `json:"docDate" validate:"omitempty"` // YYYY-MM-DD, по умолчанию сегодня
	FromWarehouse uint64                  `json:"fromWarehouse"`
	ToWarehouse   uint64                  `json:"toWarehouse"`
	Notes         string                  `json:"notes" validate:"omitempty,max=2000"`
	Items         []entities.DocumentItem `json:"items" validate:"required,min=1,dive"`
}

type DocumentDTO struct {
	ID                uint64                  `json:"id"`
	DocType           entities.DocType        `json:"docType"`
	Number            string                  `json:"number"`
	DocDate           string                  `json:"docDate"`
	FromWarehouse     uint64                  `json:"fromWarehouse,omitempty"`
	FromWarehouseName string                  `json:"fromWarehouseName,omitempty"`
	ToWarehouse       uint64                  `json:"toWarehouse,omitempty"`
	ToWarehouseName   string                  `json:"toWarehouseName,omitempty"`
	Status            entities.DocStatus      `json:"status"`
	Items             []entities.DocumentItem `json:"items"`
	Notes             string                  `json:"notes,omitempty"`
	CreatedBy         string                  `json:"createdBy,omitempty"`
	CreatedAt         string                  `json:"createdAt,omitempty"`
	CompletedAt       string                  `json:"completedAt,omitempty"`
}
