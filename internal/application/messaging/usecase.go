// Package messaging enruta mensajes a hilos por (licitación, licitante).
//
// Un licitante escribe siempre en su propio hilo. Un rol con messageOnAllTenders debe indicar
// a qué licitante se dirige; el hilo se busca dentro de la licitación, nunca entre licitaciones.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/files"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// UseCase conversaciones y mensajes.
type UseCase struct {
	tenders       repository.TenderRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	tx            TxRunner
	storage       ports.FileStorage
	perms         *permission.Table
	notifier      *mail.Notifier
	log           zerolog.Logger
	now           func() time.Time
}

// NewUseCase construye el caso de uso de mensajería.
func NewUseCase(
	tenders repository.TenderRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	tx TxRunner,
	storage ports.FileStorage,
	perms *permission.Table,
	notifier *mail.Notifier,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		tenders:       tenders,
		conversations: conversations,
		messages:      messages,
		tx:            tx,
		storage:       storage,
		perms:         perms,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// PostMessage agrega un mensaje al hilo que corresponde según el rol del remitente, creándolo si no existe,
// y avisa a la otra parte con un correo de tipo message.
func (uc *UseCase) PostMessage(ctx context.Context, actor dto.Actor, tenderID string, in dto.PostMessageRequest, uploads []dto.Upload) (*dto.PostMessageResponse, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("contenido vacío: %w", domain.ErrInvalidInput)
	}
	t, err := uc.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	tendererID, err := uc.resolveTenderer(ctx, actor, t, in.TendererID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	stored, err := files.Store(ctx, uc.storage, uploads, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	var (
		conv    *entity.Conversation
		created bool
		msg     = &entity.Message{
			ID:        uuid.New().String(),
			SenderID:  actor.UserID,
			Content:   content,
			Files:     stored,
			CreatedAt: now,
		}
	)
	recipient := tendererID
	if actor.UserID == tendererID {
		recipient = t.CreatedBy
	}
	err = uc.tx.RunMessaging(ctx, func(conversations repository.ConversationRepository, messages repository.MessageRepository, mails repository.MailRepository) error {
		var err error
		conv, created, err = conversations.FindOrCreate(ctx, tenderID, tendererID, now)
		if err != nil {
			return fmt.Errorf("resolver conversación: %w: %w", domain.ErrUpstream, err)
		}
		msg.ConversationID = conv.ID
		if err := messages.Create(ctx, msg); err != nil {
			return fmt.Errorf("guardar mensaje: %w: %w", domain.ErrUpstream, err)
		}
		if recipient == actor.UserID {
			return nil
		}
		_, err = uc.notifier.Notify(ctx, mails, mail.Draft{
			SenderID:    actor.UserID,
			RecipientID: recipient,
			Subject:     "Nuevo mensaje: " + t.Title,
			Content:     preview(content),
			Related:     entity.MessageRef(msg.ID),
		})
		return err
	})
	if err != nil {
		files.Discard(ctx, uc.storage, stored)
		return nil, err
	}
	if created {
		uc.log.Info().Str("tender_id", tenderID).Str("tenderer", tendererID).Str("conversation_id", conv.ID).
			Msg("conversación creada")
	}
	return &dto.PostMessageResponse{
		Conversation: *dto.ToConversationResponse(conv),
		Message:      *dto.ToMessageResponse(msg),
	}, nil
}

// ListConversations hilos de la licitación: todos para roles privilegiados, el propio para un licitante.
func (uc *UseCase) ListConversations(ctx context.Context, actor dto.Actor, tenderID string) ([]dto.ConversationResponse, error) {
	t, err := uc.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	var list []*entity.Conversation
	if uc.privileged(actor) {
		list, err = uc.conversations.ListByTender(ctx, tenderID)
	} else {
		if !t.IsTargeted(actor.UserID) {
			return nil, fmt.Errorf("licitación %s: %w", tenderID, domain.ErrForbidden)
		}
		var own *entity.Conversation
		if own, err = uc.conversations.Find(ctx, tenderID, actor.UserID); own != nil {
			list = append(list, own)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("listar conversaciones: %w: %w", domain.ErrUpstream, err)
	}
	out := make([]dto.ConversationResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *dto.ToConversationResponse(c))
	}
	return out, nil
}

// Messages mensajes de un hilo en orden; un licitante solo lee el suyo.
func (uc *UseCase) Messages(ctx context.Context, actor dto.Actor, conversationID string) ([]dto.MessageResponse, error) {
	conv, err := uc.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("leer conversación: %w: %w", domain.ErrUpstream, err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversación %s: %w", conversationID, domain.ErrNotFound)
	}
	if !uc.privileged(actor) && conv.TendererID != actor.UserID {
		return nil, fmt.Errorf("conversación %s: %w", conversationID, domain.ErrForbidden)
	}
	list, err := uc.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listar mensajes: %w: %w", domain.ErrUpstream, err)
	}
	out := make([]dto.MessageResponse, 0, len(list))
	for _, m := range list {
		out = append(out, *dto.ToMessageResponse(m))
	}
	return out, nil
}

func (uc *UseCase) privileged(actor dto.Actor) bool {
	return uc.perms.HasPermission(actor.Role, permission.MessageOnAllTenders)
}

// resolveTenderer decide el licitante dueño del hilo destino.
func (uc *UseCase) resolveTenderer(ctx context.Context, actor dto.Actor, t *entity.Tender, explicit string) (string, error) {
	if !uc.privileged(actor) {
		if !t.IsTargeted(actor.UserID) {
			return "", fmt.Errorf("licitación %s no dirigida al usuario: %w", t.ID, domain.ErrForbidden)
		}
		return actor.UserID, nil
	}
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return "", fmt.Errorf("tenderer_id requerido para este rol: %w", domain.ErrInvalidInput)
	}
	if t.IsTargeted(explicit) {
		return explicit, nil
	}
	existing, err := uc.conversations.Find(ctx, t.ID, explicit)
	if err != nil {
		return "", fmt.Errorf("buscar conversación: %w: %w", domain.ErrUpstream, err)
	}
	if existing == nil {
		return "", fmt.Errorf("el licitante %s no participa en la licitación: %w", explicit, domain.ErrInvalidInput)
	}
	return explicit, nil
}

func (uc *UseCase) loadTender(ctx context.Context, id string) (*entity.Tender, error) {
	t, err := uc.tenders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer licitación: %w: %w", domain.ErrUpstream, err)
	}
	if t == nil {
		return nil, fmt.Errorf("licitación %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func preview(s string) string {
	const limit = 140
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
