package repository

import (
	"context"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// MailFilter opciones de lectura de la bandeja.
type MailFilter struct {
	UnreadOnly  bool
	NewestFirst bool
}

// MailRepository puerto de la bandeja de notificaciones.
type MailRepository interface {
	Create(ctx context.Context, m *entity.Mail) error
	// CreateMany inserta en lote (fan-out a varios destinatarios).
	CreateMany(ctx context.Context, mails []*entity.Mail) error
	ListByRecipient(ctx context.Context, recipientID string, f MailFilter) ([]*entity.Mail, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Mail, error)
	SetRead(ctx context.Context, ids []string, read bool) (int64, error)
	Delete(ctx context.Context, ids []string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}
