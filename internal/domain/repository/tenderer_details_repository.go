package repository

import (
	"context"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// TendererDetailsRepository puerto de los datos empresariales del licitante.
type TendererDetailsRepository interface {
	// Upsert guarda los datos editables por el licitante; no toca verified ni comments.
	Upsert(ctx context.Context, d *entity.TendererDetails) error
	GetByUserID(ctx context.Context, userID string) (*entity.TendererDetails, error)
	SetVerified(ctx context.Context, userID string, verified bool, at time.Time) error
	AddComment(ctx context.Context, userID string, c entity.TendererComment) error
}
