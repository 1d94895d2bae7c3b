package services

import (
	"time"

	"github.com/aarondl/null/v8"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
)

const viewTimeLayout = "2006-01-02 15:04:05"

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(viewTimeLayout)
}

func mapEquipment(e *entities.Equipment) dto.EquipmentDTO {
	view := dto.EquipmentDTO{
		ID:                   e.ID,
		Type:                 e.Type,
		Manufacturer:         e.Manufacturer,
		SerialNumber:         null.StringFromPtr(e.SerialNumber),
		Quantity:             e.Quantity,
		CurrentWarehouse:     e.CurrentWarehouseID,
		CurrentWarehouseName: e.CurrentWarehouseName,
		Status:               e.Status,
		StatusLabel:          e.Status.Label(),
		StockKind:            e.Kind().String(),
		IsBatch:              e.IsBatch,
		BatchID:              null.StringFromPtr(e.BatchID),
		CategoryID:           null.Uint64FromPtr(e.CategoryID),
		UnitPrice:            e.UnitPrice,
		TestingStatus:        e.TestingStatus,
		Testing:              e.Testing,
		Reservation:          e.Reservation,
		WriteOff:             e.WriteOff,
		Nameplate:            e.Nameplate,
		MovementHistory:      e.MovementHistory,
		ShipmentHistory:      e.ShipmentHistory,
		AttachedFiles:        e.AttachedFiles,
		AddedBy:              e.AddedBy,
		CreatedAt:            formatTime(e.CreatedAt),
		UpdatedAt:            formatTime(e.UpdatedAt),
	}
	return view
}

func mapTask(t *entities.Task) dto.TaskDTO {
	return dto.TaskDTO{
		ID:            t.ID,
		RequestNumber: t.RequestNumber,
		ClientName:    t.ClientName,
		ClientEdrpou:  t.ClientEdrpou,
		ClientPhone:   t.ClientPhone,
		Address:       t.Address,
		Region:        t.Region,
		EquipmentType: t.EquipmentType,
		SerialNumber:  t.SerialNumber,
		Description:   t.Description,
		Status:        string(t.Status),
		StatusLabel:   t.Status.Label(),
		Approval:      string(t.Approval),
		ApprovalLabel: t.Approval.Label(),
		Engineer:      t.Engineer,
		ServiceTotal:  t.ServiceTotal,
		WorksTotal:    t.WorksTotal,
		PaymentType:   t.PaymentType,
		VisitDate:     formatTime(t.VisitDate),
		CompletedAt:   formatTime(t.CompletedAt),
		CreatedAt:     formatTime(t.CreatedAt),
	}
}
