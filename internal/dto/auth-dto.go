package dto

type LoginDTO struct {
	Login    string `json:"login" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenPairDTO struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	User         UserDTO `json:"user"`
}

type CreateUserDTO struct {
	Login    string `json:"login" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,max=50"`
	Region   string `json:"region" validate:"omitempty,max=100"`
}

type UpdateUserDTO struct {
	Name     string `json:"name" validate:"omitempty,max=200"`
	Role     string `json:"role" validate:"omitempty,max=50"`
	Region   string `json:"region" validate:"omitempty,max=100"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type UserDTO struct {
	ID     uint64 `json:"id"`
	Login  string `json:"login"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Region string `json:"region,omitempty"`
}
