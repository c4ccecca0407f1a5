package repository

import (
	"context"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// BidRepository puerto de persistencia de ofertas y sus evaluaciones.
type BidRepository interface {
	// Create devuelve domain.ErrDuplicate si el licitante ya ofertó en la licitación.
	Create(ctx context.Context, b *entity.Bid) error
	GetByID(ctx context.Context, id string) (*entity.Bid, error)
	ListByTender(ctx context.Context, tenderID string) ([]*entity.Bid, error)
	ListByBidder(ctx context.Context, bidderID string) ([]*entity.Bid, error)
	AddEvaluation(ctx context.Context, e *entity.Evaluation) error
	// SetAwardStatuses marca winnerID como won y el resto de ofertas de la licitación como lost
	// en una sola sentencia. Devuelve la cantidad de filas afectadas.
	SetAwardStatuses(ctx context.Context, tenderID, winnerID string) (int64, error)
}
