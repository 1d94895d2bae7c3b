package entities

import "operations-system/pkg/types"

type User struct {
	ID           uint64
	Login        string
	PasswordHash string
	Name         string
	Role         string
	Region       string

	types.BaseEntity
}
