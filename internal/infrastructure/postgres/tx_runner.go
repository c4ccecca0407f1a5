package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/licitaciones-api/internal/application/messaging"
	"github.com/jhoicas/licitaciones-api/internal/application/tender"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var _ tender.TxRunner = (*TxRunner)(nil)
var _ messaging.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	tenders repository.TenderRepository,
	bids repository.BidRepository,
	mails repository.MailRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewTenderRepository(tx), NewBidRepository(tx), NewMailRepository(tx))
	})
}

// RunMessaging transacción con repos de conversaciones, mensajes y bandeja (PostMessage).
func (r *TxRunner) RunMessaging(ctx context.Context, fn func(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	mails repository.MailRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewConversationRepository(tx), NewMessageRepository(tx), NewMailRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
