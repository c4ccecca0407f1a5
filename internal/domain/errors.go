package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// La capa HTTP traduce cada uno a un código de estado en un único punto.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrPhoneAlreadyExists = errors.New("el teléfono ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrUpstream           = errors.New("fallo en servicio externo")
)
