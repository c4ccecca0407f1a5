package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var _ repository.ConversationRepository = (*ConversationRepo)(nil)
var _ repository.MessageRepository = (*MessageRepo)(nil)

const conversationColumns = `id, tender_id, tenderer_id, created_at, last_updated`

// ConversationRepo hilos por (licitación, licitante) sobre PostgreSQL.
type ConversationRepo struct {
	q Querier
}

// NewConversationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConversationRepository(q Querier) *ConversationRepo {
	return &ConversationRepo{q: q}
}

// FindOrCreate se apoya en UNIQUE(tender_id, tenderer_id): dos envíos concurrentes terminan en el mismo hilo.
// xmax = 0 solo en la fila recién insertada.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, tenderID, tendererID string, at time.Time) (*entity.Conversation, bool, error) {
	var c entity.Conversation
	var created bool
	err := r.q.QueryRow(ctx, `
		INSERT INTO conversations (id, tender_id, tenderer_id, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (tender_id, tenderer_id) DO UPDATE SET last_updated = EXCLUDED.last_updated
		RETURNING `+conversationColumns+`, (xmax = 0)`,
		uuid.New().String(), tenderID, tendererID, at,
	).Scan(&c.ID, &c.TenderID, &c.TendererID, &c.CreatedAt, &c.LastUpdated, &created)
	if err != nil {
		return nil, false, fmt.Errorf("find or create conversation: %w", err)
	}
	return &c, created, nil
}

// GetByID obtiene un hilo; (nil, nil) si no existe.
func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	return r.findOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
}

// Find hilo del par sin crearlo.
func (r *ConversationRepo) Find(ctx context.Context, tenderID, tendererID string) (*entity.Conversation, error) {
	return r.findOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE tender_id = $1 AND tenderer_id = $2`,
		tenderID, tendererID)
}

// ListByTender hilos de una licitación, el más reciente primero.
func (r *ConversationRepo) ListByTender(ctx context.Context, tenderID string) ([]*entity.Conversation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE tender_id = $1 ORDER BY last_updated DESC, id`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanConversation)
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return list, nil
}

func (r *ConversationRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Conversation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanConversation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func scanConversation(row pgx.CollectableRow) (*entity.Conversation, error) {
	var c entity.Conversation
	if err := row.Scan(&c.ID, &c.TenderID, &c.TendererID, &c.CreatedAt, &c.LastUpdated); err != nil {
		return nil, err
	}
	return &c, nil
}

const messageColumns = `id, conversation_id, sender_id, content, files, created_at`

// MessageRepo mensajes inmutables.
type MessageRepo struct {
	q Querier
}

// NewMessageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMessageRepository(q Querier) *MessageRepo {
	return &MessageRepo{q: q}
}

// Create persiste el mensaje.
func (r *MessageRepo) Create(ctx context.Context, m *entity.Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, nonNil(m.Files), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetByID obtiene un mensaje; (nil, nil) si no existe.
func (r *MessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	rows, err := r.q.Query(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMessage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListByConversation en orden de creación.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1 ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return list, nil
}

func scanMessage(row pgx.CollectableRow) (*entity.Message, error) {
	var m entity.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Files, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
