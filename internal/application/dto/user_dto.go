package dto

import "time"

// CreateUserRequest entrada para que un admin cree un usuario (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin tenderer tenderProcurementGroup secretary"`
}

// RegisterRequest registro público; el rol siempre es tenderer.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateSettingsRequest cambios del propio usuario; campos vacíos no se modifican.
type UpdateSettingsRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangeRoleRequest cambio de rol por un admin.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse listado paginado.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LoginRequest entrada para login con email y password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginCodeRequest solicita un código SMS.
type LoginCodeRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// LoginWithCodeRequest canjea el código SMS por un token.
type LoginWithCodeRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
