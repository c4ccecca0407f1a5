package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var _ repository.MailRepository = (*MailRepo)(nil)

const (
	mailColumns = `id, sender_id, recipient_id, type, subject, content, related_id, read, created_at`
	mailInsert  = `INSERT INTO mails (` + mailColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// MailRepo bandeja de notificaciones sobre PostgreSQL.
type MailRepo struct {
	q Querier
}

// NewMailRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMailRepository(q Querier) *MailRepo {
	return &MailRepo{q: q}
}

// Create persiste un correo.
func (r *MailRepo) Create(ctx context.Context, m *entity.Mail) error {
	if _, err := r.q.Exec(ctx, mailInsert, mailArgs(m)...); err != nil {
		return fmt.Errorf("insert mail: %w", err)
	}
	return nil
}

// CreateMany inserta todos los correos en un solo round trip.
func (r *MailRepo) CreateMany(ctx context.Context, mails []*entity.Mail) error {
	if len(mails) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, m := range mails {
		b.Queue(mailInsert, mailArgs(m)...)
	}
	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for range mails {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert mails: %w", err)
		}
	}
	return nil
}

// ListByRecipient bandeja de un usuario.
func (r *MailRepo) ListByRecipient(ctx context.Context, recipientID string, f repository.MailFilter) ([]*entity.Mail, error) {
	order := "ASC"
	if f.NewestFirst {
		order = "DESC"
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+mailColumns+` FROM mails
		WHERE recipient_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at `+order+`, id`, recipientID, f.UnreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list mails: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanMail)
	if err != nil {
		return nil, fmt.Errorf("scan mail: %w", err)
	}
	return list, nil
}

// GetByIDs correos existentes entre ids; los que no existen se omiten.
func (r *MailRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Mail, error) {
	rows, err := r.q.Query(ctx, `SELECT `+mailColumns+` FROM mails WHERE id = ANY($1::text[])`, nonNil(ids))
	if err != nil {
		return nil, fmt.Errorf("get mails: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanMail)
	if err != nil {
		return nil, fmt.Errorf("scan mail: %w", err)
	}
	return list, nil
}

// SetRead marca leídos o no leídos.
func (r *MailRepo) SetRead(ctx context.Context, ids []string, read bool) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE mails SET read = $2 WHERE id = ANY($1::text[])`, nonNil(ids), read)
	if err != nil {
		return 0, fmt.Errorf("set mails read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete borra los correos indicados.
func (r *MailRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM mails WHERE id = ANY($1::text[])`, nonNil(ids))
	if err != nil {
		return 0, fmt.Errorf("delete mails: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnread no leídos del destinatario.
func (r *MailRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM mails WHERE recipient_id = $1 AND NOT read`, recipientID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread mails: %w", err)
	}
	return n, nil
}

func mailArgs(m *entity.Mail) []any {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return []any{m.ID, m.SenderID, m.RecipientID, m.Related.Kind, m.Subject, m.Content, m.Related.ID, m.Read, m.CreatedAt}
}

func scanMail(row pgx.CollectableRow) (*entity.Mail, error) {
	var m entity.Mail
	if err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Related.Kind, &m.Subject, &m.Content,
		&m.Related.ID, &m.Read, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = m.Related.Kind
	return &m, nil
}
