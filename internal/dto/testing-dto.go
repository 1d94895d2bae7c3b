package dto

// CompleteTestingDTO - завершение тестирования.
// Status принимает только completed или failed.
type CompleteTestingDTO struct {
	Status     string   `json:"status" validate:"required,oneof=completed failed"`
	Procedure  string   `json:"procedure" validate:"omitempty,max=1000"`
	Result     string   `json:"result" validate:"omitempty,max=1000"`
	Materials  []string `json:"materials"`
	Conclusion string   `json:"conclusion" validate:"omitempty,max=2000"`
	Engineers  []string `json:"engineers"`
	Notes      string   `json:"notes" validate:"omitempty,max=2000"`
}

type RequestTestingDTO struct {
	Procedure string `json:"procedure" validate:"omitempty,max=1000"`
	Notes     string `json:"notes" validate:"omitempty,max=2000"`
}
