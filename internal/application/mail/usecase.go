package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

const (
	senderCacheSize = 1024
	// senderCacheTTL cota de desactualización si un cambio de nombre no pasa por ForgetSender.
	senderCacheTTL = 5 * time.Minute
)

// UseCase lectura y mantenimiento de la bandeja. Autoriza por propiedad del correo, no por rol.
type UseCase struct {
	mails         repository.MailRepository
	users         repository.UserRepository
	tenders       repository.TenderRepository
	bids          repository.BidRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	senderNames   *expirable.LRU[string, string]
}

// NewUseCase construye el caso de uso de bandeja.
func NewUseCase(
	mails repository.MailRepository,
	users repository.UserRepository,
	tenders repository.TenderRepository,
	bids repository.BidRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
) *UseCase {
	return &UseCase{
		mails:         mails,
		users:         users,
		tenders:       tenders,
		bids:          bids,
		conversations: conversations,
		messages:      messages,
		senderNames:   expirable.NewLRU[string, string](senderCacheSize, nil, senderCacheTTL),
	}
}

// Inbox correos del actor, con nombre de remitente e ítem relacionado resueltos.
func (uc *UseCase) Inbox(ctx context.Context, actor dto.Actor, in dto.InboxRequest) ([]dto.MailResponse, error) {
	list, err := uc.mails.ListByRecipient(ctx, actor.UserID, repository.MailFilter{
		UnreadOnly:  in.UnreadOnly,
		NewestFirst: in.NewestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("listar bandeja: %w: %w", domain.ErrUpstream, err)
	}
	out := make([]dto.MailResponse, 0, len(list))
	for _, m := range list {
		name, err := uc.senderName(ctx, m.SenderID)
		if err != nil {
			return nil, err
		}
		related, err := uc.resolveRelated(ctx, m.Related)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.MailResponse{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderName: name,
			Type:       string(m.Type),
			Subject:    m.Subject,
			Content:    m.Content,
			Related:    related,
			Read:       m.Read,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}

// UnreadCount cantidad de correos sin leer del actor.
func (uc *UseCase) UnreadCount(ctx context.Context, actor dto.Actor) (int, error) {
	n, err := uc.mails.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("contar no leídos: %w: %w", domain.ErrUpstream, err)
	}
	return n, nil
}

// SetRead marca los correos; todos deben pertenecer al actor o no se modifica ninguno.
func (uc *UseCase) SetRead(ctx context.Context, actor dto.Actor, ids []string, read bool) (int64, error) {
	if err := uc.checkOwnership(ctx, actor, ids); err != nil {
		return 0, err
	}
	n, err := uc.mails.SetRead(ctx, ids, read)
	if err != nil {
		return 0, fmt.Errorf("marcar correos: %w: %w", domain.ErrUpstream, err)
	}
	return n, nil
}

// Delete borra los correos; todos deben pertenecer al actor o no se borra ninguno.
func (uc *UseCase) Delete(ctx context.Context, actor dto.Actor, ids []string) (int64, error) {
	if err := uc.checkOwnership(ctx, actor, ids); err != nil {
		return 0, err
	}
	n, err := uc.mails.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("borrar correos: %w: %w", domain.ErrUpstream, err)
	}
	return n, nil
}

func (uc *UseCase) checkOwnership(ctx context.Context, actor dto.Actor, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("lista de correos vacía: %w", domain.ErrInvalidInput)
	}
	found, err := uc.mails.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("leer correos: %w: %w", domain.ErrUpstream, err)
	}
	byID := make(map[string]*entity.Mail, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return fmt.Errorf("correo %s: %w", id, domain.ErrNotFound)
		}
		if m.RecipientID != actor.UserID {
			return fmt.Errorf("correo %s no pertenece al usuario: %w", id, domain.ErrForbidden)
		}
	}
	return nil
}

// ForgetSender descarta el nombre cacheado de userID; lo llama quien cambia o borra el usuario.
func (uc *UseCase) ForgetSender(userID string) {
	uc.senderNames.Remove(userID)
}

func (uc *UseCase) senderName(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	if name, ok := uc.senderNames.Get(userID); ok {
		return name, nil
	}
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolver remitente: %w: %w", domain.ErrUpstream, err)
	}
	name := ""
	if u != nil {
		name = u.DisplayName()
	}
	uc.senderNames.Add(userID, name)
	return name, nil
}

// resolveRelated lee la entidad a la que apunta la referencia según su tipo.
// Una referencia colgante (entidad borrada) devuelve solo Kind e ID.
func (uc *UseCase) resolveRelated(ctx context.Context, ref entity.RelatedRef) (dto.RelatedResponse, error) {
	out := dto.RelatedResponse{Kind: string(ref.Kind), ID: ref.ID}
	if ref.ID == "" {
		return out, nil
	}
	var err error
	switch ref.Kind {
	case entity.MailTender:
		var t *entity.Tender
		if t, err = uc.tenders.GetByID(ctx, ref.ID); err == nil && t != nil {
			out.Title = t.Title
			out.TenderID = t.ID
		}
	case entity.MailBid:
		var b *entity.Bid
		if b, err = uc.bids.GetByID(ctx, ref.ID); err == nil && b != nil {
			out.Title = b.Amount.StringFixed(2)
			out.TenderID = b.TenderID
		}
	case entity.MailMessage:
		var m *entity.Message
		if m, err = uc.messages.GetByID(ctx, ref.ID); err == nil && m != nil {
			out.Title = m.Content
			var c *entity.Conversation
			if c, err = uc.conversations.GetByID(ctx, m.ConversationID); err == nil && c != nil {
				out.TenderID = c.TenderID
			}
		}
	case entity.MailNotification:
		var name string
		if name, err = uc.senderName(ctx, ref.ID); err == nil {
			out.Title = name
		}
	}
	if err != nil {
		return out, fmt.Errorf("resolver %s %s: %w: %w", ref.Kind, ref.ID, domain.ErrUpstream, err)
	}
	return out, nil
}
