package dto

import "github.com/aarondl/null/v8"

type CreateTaskDTO struct {
	RequestNumber string  `json:"requestNumber" validate:"omitempty,max=50"`
	ClientName    string  `json:"clientName" validate:"required,max=200"`
	ClientEdrpou  string  `json:"clientEdrpou" validate:"omitempty,max=20"`
	ClientPhone   string  `json:"clientPhone" validate:"omitempty,max=30"`
	Address       string  `json:"address" validate:"omitempty,max=300"`
	Region        string  `json:"region" validate:"omitempty,max=100"`
	EquipmentType string  `json:"equipmentType" validate:"omitempty,max=100"`
	SerialNumber  string  `json:"serialNumber" validate:"omitempty,max=100"`
	Description   string  `json:"description" validate:"omitempty,max=5000"`
	Engineer      string  `json:"engineer" validate:"omitempty,max=200"`
	ServiceTotal  float64 `json:"serviceTotal" validate:"omitempty,min=0"`
	WorksTotal    float64 `json:"worksTotal" validate:"omitempty,min=0"`
	PaymentType   string  `json:"paymentType" validate:"omitempty,max=50"`
	VisitDate     string  `json:"visitDate" validate:"omitempty"`
}

type UpdateTaskDTO struct {
	ClientName    null.String  `json:"clientName"`
	ClientPhone   null.String  `json:"clientPhone"`
	Address       null.String  `json:"address"`
	Region        null.String  `json:"region"`
	EquipmentType null.String  `json:"equipmentType"`
	SerialNumber  null.String  `json:"serialNumber"`
	Description   null.String  `json:"description"`
	Engineer      null.String  `json:"engineer"`
	Status        null.String  `json:"status"`
	Approval      null.String  `json:"approval"`
	ServiceTotal  null.Float64 `json:"serviceTotal"`
	WorksTotal    null.Float64 `json:"worksTotal"`
	PaymentType   null.String  `json:"paymentType"`
	VisitDate     null.String  `json:"visitDate"`
}

type DeleteTaskDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type TaskDTO struct {
	ID            uint64  `json:"id"`
	RequestNumber string  `json:"requestNumber"`
	ClientName    string  `json:"clientName"`
	ClientEdrpou  string  `json:"clientEdrpou,omitempty"`
	ClientPhone   string  `json:"clientPhone,omitempty"`
	Address       string  `json:"address,omitempty"`
	Region        string  `json:"region,omitempty"`
	EquipmentType string  `json:"equipmentType,omitempty"`
	SerialNumber  string  `json:"serialNumber,omitempty"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status"`
	StatusLabel   string  `json:"statusLabel"`
	Approval      string  `json:"approval"`
	ApprovalLabel string  `json:"approvalLabel"`
	Engineer      string  `json:"engineer,omitempty"`
	ServiceTotal  float64 `json:"serviceTotal"`
	WorksTotal    float64 `json:"worksTotal"`
	PaymentType   string  `json:"paymentType,omitempty"`
	VisitDate     string  `json:"visitDate,omitempty"`
	CompletedAt   string  `json:"completedAt,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
}

// TaskStatisticsDTO - сводка по заявкам для панели.
type TaskStatisticsDTO struct {
	Total      uint64            `json:"total"`
	ByStatus   map[string]uint64 `json:"byStatus"`
	ByRegion   map[string]uint64 `json:"byRegion"`
	ByApproval map[string]uint64 `json:"byApproval"`
}

// FinancialReportRowDTO - строка финансового отчёта по заявкам.
type FinancialReportRowDTO struct {
	Region       string  `json:"region"`
	Month        string  `json:"month"`
	TaskCount    uint64  `json:"taskCount"`
	ServiceTotal float64 `json:"serviceTotal"`
	WorksTotal   float64 `json:"worksTotal"`
	Total        float64 `json:"total"`
}
