package repository

import (
	"context"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// TenderFilter criterios de listado. VisibleTo vacío lista todas; si no, solo las dirigidas a ese usuario.
type TenderFilter struct {
	VisibleTo string
	Status    entity.TenderStatus
	Limit     int
	Offset    int
}

// TenderRepository puerto de persistencia del agregado Tender.
// Targeted users, grupo de compras y aprobaciones se cargan junto con la licitación.
type TenderRepository interface {
	Create(ctx context.Context, t *entity.Tender) error
	GetByID(ctx context.Context, id string) (*entity.Tender, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); solo tiene efecto dentro de una transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Tender, error)
	// Update reemplaza campos y conjuntos; incrementa Version.
	Update(ctx context.Context, t *entity.Tender) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f TenderFilter) ([]*entity.Tender, int, error)

	// AddApproval inserta con semántica de conjunto. added es false si ya existía.
	AddApproval(ctx context.Context, tenderID, userID string) (added bool, err error)
	UpdateStatus(ctx context.Context, id string, status entity.TenderStatus, at time.Time) error
	SetWinningBid(ctx context.Context, id, bidID string, at time.Time) error
	// CloseExpired pasa a Closed las licitaciones Open con closing_date < now y devuelve sus IDs.
	CloseExpired(ctx context.Context, now time.Time) ([]string, error)

	CreateVersion(ctx context.Context, v *entity.TenderVersion) error
	ListVersions(ctx context.Context, tenderID string) ([]*entity.TenderVersion, error)
}
