package entities

import (
	"time"

	"operations-system/pkg/types"
)

// TaskStatus - статус сервисной заявки.
type TaskStatus string

const (
	TaskNew        TaskStatus = "new"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNew, TaskInProgress, TaskDone, TaskBlocked:
		return true
	}
	return false
}

func (s TaskStatus) Label() string {
	switch s {
	case TaskNew:
		return "Нова"
	case TaskInProgress:
		return "В роботі"
	case TaskDone:
		return "Виконано"
	case TaskBlocked:
		return "Заблоковано"
	}
	return string(s)
}

// ApprovalStatus - решение бухгалтера по заявке. В старой системе это были
// свободные строки «Підтверджено»/«Відмова», здесь - закрытый тип.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDeclined ApprovalStatus = "declined"
)

func (a ApprovalStatus) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalDeclined:
		return true
	}
	return false
}

func (a ApprovalStatus) Label() string {
	switch a {
	case ApprovalPending:
		return "На розгляді"
	case ApprovalApproved:
		return "Підтверджено"
	case ApprovalDeclined:
		return "Відмова"
	}
	return string(a)
}

type Task struct {
	ID            uint64
	RequestNumber string
	ClientName    string
	ClientEdrpou  string
	ClientPhone   string
	Address       string
	Region        string
	EquipmentType string
	SerialNumber  string
	Description   string
	Status        TaskStatus
	Approval      ApprovalStatus
	Engineer      string
	ServiceTotal  float64
	WorksTotal    float64
	PaymentType   string
	VisitDate     *time.Time
	CompletedAt   *time.Time
	DeleteReason  *string
	IsDeleted     bool
	CreatedBy     string

	types.BaseEntity
}
