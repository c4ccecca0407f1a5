package entity

import "time"

// Roles válidos para User. La lista es cerrada.
const (
	RoleAdmin                  = "admin"
	RoleTenderer               = "tenderer"
	RoleTenderProcurementGroup = "tenderProcurementGroup"
	RoleSecretary              = "secretary"
)

// ValidRole informa si role pertenece a la enumeración de roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTenderer, RoleTenderProcurementGroup, RoleSecretary:
		return true
	default:
		return false
	}
}

// User representa una cuenta del sistema.
// La bandeja de entrada y las ofertas del usuario se derivan de mails.recipient_id y bids.bidder_id.
type User struct {
	ID           string
	Username     string
	Email        string // único
	Phone        string // único
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName nombre visible en bandeja y conversaciones.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
