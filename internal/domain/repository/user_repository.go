package repository

import (
	"context"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los Get devuelven (nil, nil) si no existe el registro.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// List pagina usuarios; role vacío no filtra. Devuelve también el total.
	List(ctx context.Context, role string, limit, offset int) ([]*entity.User, int, error)
	Delete(ctx context.Context, id string) error
}
