package repository

import (
	"context"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// ConversationRepository puerto de hilos por (licitación, licitante).
type ConversationRepository interface {
	// FindOrCreate devuelve el hilo único del par; lo crea si no existe y actualiza last_updated.
	FindOrCreate(ctx context.Context, tenderID, tendererID string, at time.Time) (conv *entity.Conversation, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Find(ctx context.Context, tenderID, tendererID string) (*entity.Conversation, error)
	ListByTender(ctx context.Context, tenderID string) ([]*entity.Conversation, error)
}

// MessageRepository puerto de mensajes (inmutables).
type MessageRepository interface {
	Create(ctx context.Context, m *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	// ListByConversation en orden de creación.
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)
}
