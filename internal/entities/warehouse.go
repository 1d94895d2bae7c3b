package entities

import "operations-system/pkg/types"

type Warehouse struct {
	ID       uint64
	Name     string
	Region   string
	Address  string
	IsActive bool

	types.BaseEntity
}
