package messaging

import (
	"context"

	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con los repositorios de mensajería.
type TxRunner interface {
	RunMessaging(ctx context.Context, fn func(
		conversations repository.ConversationRepository,
		messages repository.MessageRepository,
		mails repository.MailRepository,
	) error) error
}
