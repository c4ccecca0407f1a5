// Package mail construye y entrega las notificaciones de la bandeja y expone su lectura.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// Draft correo por enviar. El tipo del correo es el Kind de Related.
type Draft struct {
	SenderID    string
	RecipientID string
	Subject     string
	Content     string
	Related     entity.RelatedRef
}

// Notifier entrega borradores a la bandeja usando el repositorio que recibe,
// de modo que el llamador decide si va dentro de su transacción.
type Notifier struct {
	log zerolog.Logger
	now func() time.Time
}

// NewNotifier construye el notificador.
func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{log: log, now: time.Now}
}

// Notify crea un correo por borrador con destinatario. Devuelve cuántos se entregaron.
func (n *Notifier) Notify(ctx context.Context, repo repository.MailRepository, drafts ...Draft) (int, error) {
	now := n.now()
	mails := make([]*entity.Mail, 0, len(drafts))
	for _, d := range drafts {
		if d.RecipientID == "" {
			continue
		}
		if !entity.ValidMailType(d.Related.Kind) {
			return 0, fmt.Errorf("tipo de correo %q: %w", d.Related.Kind, domain.ErrInvalidInput)
		}
		mails = append(mails, &entity.Mail{
			ID:          uuid.New().String(),
			SenderID:    d.SenderID,
			RecipientID: d.RecipientID,
			Type:        d.Related.Kind,
			Subject:     d.Subject,
			Content:     d.Content,
			Related:     d.Related,
			CreatedAt:   now,
		})
	}
	if len(mails) == 0 {
		return 0, nil
	}
	var err error
	if len(mails) == 1 {
		err = repo.Create(ctx, mails[0])
	} else {
		err = repo.CreateMany(ctx, mails)
	}
	if err != nil {
		return 0, fmt.Errorf("entregar %d correos: %w: %w", len(mails), domain.ErrUpstream, err)
	}
	n.log.Debug().Int("count", len(mails)).Str("type", string(mails[0].Type)).Msg("correos entregados")
	return len(mails), nil
}
