package dto

type CreateWarehouseDTO struct {
	Name    string `json:"name" validate:"required,max=200"`
	Region  string `json:"region" validate:"omitempty,max=100"`
	Address string `json:"address" validate:"omitempty,max=300"`
}

type UpdateWarehouseDTO struct {
	Name     string `json:"name" validate:"omitempty,max=200"`
	Region   string `json:"region" validate:"omitempty,max=100"`
	Address  string `json:"address" validate:"omitempty,max=300"`
	IsActive *bool  `json:"isActive"`
}

type WarehouseDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Region   string `json:"region,omitempty"`
	Address  string `json:"address,omitempty"`
	IsActive bool   `json:"isActive"`
}
