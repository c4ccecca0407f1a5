package tender

import (
	"context"

	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Aprobación, cambio de estado y adjudicación leen la licitación con bloqueo de fila y escriben en la misma tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		tenders repository.TenderRepository,
		bids repository.BidRepository,
		mails repository.MailRepository,
	) error) error
}
