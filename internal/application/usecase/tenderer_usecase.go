package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/files"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// TendererUploads archivos opcionales de los datos de licitante.
type TendererUploads struct {
	BusinessLicense      *dto.Upload
	LegalRepBusinessCard *dto.Upload
}

// TendererUseCase datos empresariales del licitante, su verificación y comentarios.
type TendererUseCase struct {
	details  repository.TendererDetailsRepository
	users    repository.UserRepository
	mails    repository.MailRepository
	storage  ports.FileStorage
	perms    *permission.Table
	notifier *mail.Notifier
}

// NewTendererUseCase construye el caso de uso.
func NewTendererUseCase(
	details repository.TendererDetailsRepository,
	users repository.UserRepository,
	mails repository.MailRepository,
	storage ports.FileStorage,
	perms *permission.Table,
	notifier *mail.Notifier,
) *TendererUseCase {
	return &TendererUseCase{details: details, users: users, mails: mails, storage: storage, perms: perms, notifier: notifier}
}

// Save crea o actualiza los datos del propio licitante. Un archivo nuevo reemplaza y borra el anterior.
func (uc *TendererUseCase) Save(ctx context.Context, actor dto.Actor, in dto.SaveTendererDetailsRequest, up TendererUploads) (*dto.TendererDetailsResponse, error) {
	if actor.Role != entity.RoleTenderer {
		return nil, fmt.Errorf("solo un licitante carga sus datos: %w", domain.ErrForbidden)
	}
	prev, err := uc.details.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("leer datos: %w: %w", domain.ErrUpstream, err)
	}
	now := time.Now()
	d := &entity.TendererDetails{UserID: actor.UserID, CreatedAt: now}
	if prev != nil {
		*d = *prev
	}
	d.BusinessType = strings.TrimSpace(in.BusinessType)
	d.LegalRepresentative = strings.TrimSpace(in.LegalRepresentative)
	d.EstablishedOn = in.EstablishedOn
	d.Country = in.Country
	d.OfficeAddress = in.OfficeAddress
	d.UnifiedSocialCreditCode = strings.TrimSpace(in.UnifiedSocialCreditCode)
	d.UpdatedAt = now

	license, err := files.StoreOne(ctx, uc.storage, up.BusinessLicense, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	card, err := files.StoreOne(ctx, uc.storage, up.LegalRepBusinessCard, actor.UserID, now)
	if err != nil {
		discardOne(ctx, uc.storage, license)
		return nil, err
	}
	var replaced []entity.FileDescriptor
	if license != nil {
		if d.BusinessLicense != nil {
			replaced = append(replaced, *d.BusinessLicense)
		}
		d.BusinessLicense = license
	}
	if card != nil {
		if d.LegalRepBusinessCard != nil {
			replaced = append(replaced, *d.LegalRepBusinessCard)
		}
		d.LegalRepBusinessCard = card
	}
	if err := uc.details.Upsert(ctx, d); err != nil {
		discardOne(ctx, uc.storage, license)
		discardOne(ctx, uc.storage, card)
		return nil, fmt.Errorf("guardar datos: %w: %w", domain.ErrUpstream, err)
	}
	files.Discard(ctx, uc.storage, replaced)
	return dto.ToTendererDetailsResponse(d), nil
}

// Get datos de un licitante: el propio, o cualquiera con viewTendererDetails.
func (uc *TendererUseCase) Get(ctx context.Context, actor dto.Actor, userID string) (*dto.TendererDetailsResponse, error) {
	if userID != actor.UserID && !uc.perms.HasPermission(actor.Role, permission.ViewTendererDetails) {
		return nil, domain.ErrForbidden
	}
	d, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.ToTendererDetailsResponse(d), nil
}

// Verify marca o desmarca la verificación y avisa al licitante.
func (uc *TendererUseCase) Verify(ctx context.Context, actor dto.Actor, userID string, verified bool) (*dto.TendererDetailsResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.VerifyTenderer); err != nil {
		return nil, err
	}
	d, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := uc.details.SetVerified(ctx, userID, verified, now); err != nil {
		return nil, fmt.Errorf("verificar: %w: %w", domain.ErrUpstream, err)
	}
	d.Verified = verified
	d.UpdatedAt = now
	subject := "Datos de licitante verificados"
	if !verified {
		subject = "Verificación de datos revocada"
	}
	if _, err := uc.notifier.Notify(ctx, uc.mails, mail.Draft{
		SenderID:    actor.UserID,
		RecipientID: userID,
		Subject:     subject,
		Related:     entity.NotificationRef(userID),
	}); err != nil {
		return nil, err
	}
	return dto.ToTendererDetailsResponse(d), nil
}

// AddComment agrega un comentario (solo se agregan) y avisa al licitante.
func (uc *TendererUseCase) AddComment(ctx context.Context, actor dto.Actor, userID string, in dto.CommentRequest) (*dto.TendererDetailsResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.CommentTenderer); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("comentario vacío: %w", domain.ErrInvalidInput)
	}
	d, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := entity.TendererComment{CommenterID: actor.UserID, Text: text, CreatedAt: time.Now()}
	if err := uc.details.AddComment(ctx, userID, c); err != nil {
		return nil, fmt.Errorf("guardar comentario: %w: %w", domain.ErrUpstream, err)
	}
	d.Comments = append(d.Comments, c)
	if _, err := uc.notifier.Notify(ctx, uc.mails, mail.Draft{
		SenderID:    actor.UserID,
		RecipientID: userID,
		Subject:     "Nuevo comentario sobre sus datos",
		Content:     text,
		Related:     entity.NotificationRef(userID),
	}); err != nil {
		return nil, err
	}
	return dto.ToTendererDetailsResponse(d), nil
}

func (uc *TendererUseCase) load(ctx context.Context, userID string) (*entity.TendererDetails, error) {
	d, err := uc.details.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("leer datos: %w: %w", domain.ErrUpstream, err)
	}
	if d == nil {
		return nil, fmt.Errorf("datos de licitante %s: %w", userID, domain.ErrNotFound)
	}
	return d, nil
}

func discardOne(ctx context.Context, fs ports.FileStorage, f *entity.FileDescriptor) {
	if f != nil {
		files.Discard(ctx, fs, []entity.FileDescriptor{*f})
	}
}
