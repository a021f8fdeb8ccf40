package dto

import "tillpos/internal/model"

type LoginRequest struct {
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	User        model.User `json:"user"`
}

type CreateUserRequest struct {
	Name      string   `json:"name"      validate:"required"`
	Password  string   `json:"password"  validate:"required,min=6"`
	Role      string   `json:"role"      validate:"required,oneof=Admin Cashier"`
	BranchIDs []string `json:"branchIds" validate:"required,min=1"`
}

type CreateBranchRequest struct {
	Name string `json:"name" validate:"required"`
}

type StartShiftRequest struct {
	BranchID string `json:"branchId" validate:"required"`
}
