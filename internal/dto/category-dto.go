package dto

import "github.com/aarondl/null/v8"

type CreateCategoryDTO struct {
	Name      string      `json:"name" validate:"required,max=100"`
	ParentID  null.Uint64 `json:"parentId" validate:"required"`
	ItemKind  string      `json:"itemKind" validate:"omitempty,oneof=equipment parts"`
	SortOrder int         `json:"sortOrder"`
}

type UpdateCategoryDTO struct {
	Name      null.String `json:"name"`
	SortOrder null.Int    `json:"sortOrder"`
}

type CategoryNodeDTO struct {
	ID        uint64            `json:"id"`
	Name      string            `json:"name"`
	ParentID  null.Uint64       `json:"parentId"`
	ItemKind  string            `json:"itemKind"`
	SortOrder int               `json:"sortOrder"`
	Children  []CategoryNodeDTO `json:"children"`
}

// MigrateEquipmentResultDTO - итоги раскладки нераспределённого обладнання
// по корневым корзинам.
type MigrateEquipmentResultDTO struct {
	ServiceParts int `json:"serviceParts"`
	ElectroParts int `json:"electroParts"`
	InternalUse  int `json:"internalUse"`
	Equipment    int `json:"equipment"`
	Total        int `json:"total"`
}
