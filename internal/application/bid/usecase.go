// Package bid casos de uso de ofertas y evaluaciones.
package bid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/files"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

const (
	minScore = 1
	maxScore = 100
)

// UseCase envío de ofertas y evaluación.
type UseCase struct {
	bids    repository.BidRepository
	tenders repository.TenderRepository
	details repository.TendererDetailsRepository
	storage ports.FileStorage
	perms   *permission.Table
	log     zerolog.Logger
	now     func() time.Time
}

// NewUseCase construye el caso de uso de ofertas.
func NewUseCase(
	bids repository.BidRepository,
	tenders repository.TenderRepository,
	details repository.TendererDetailsRepository,
	storage ports.FileStorage,
	perms *permission.Table,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{bids: bids, tenders: tenders, details: details, storage: storage, perms: perms, log: log, now: time.Now}
}

// Submit crea la oferta del actor. Exige licitación Open y no vencida, invitación, datos de licitante
// completos y que no exista otra oferta suya en la misma licitación.
func (uc *UseCase) Submit(ctx context.Context, actor dto.Actor, tenderID string, in dto.SubmitBidRequest, uploads []dto.Upload) (*dto.BidResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.SubmitBid); err != nil {
		return nil, err
	}
	t, err := uc.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if !t.IsTargeted(actor.UserID) {
		return nil, fmt.Errorf("licitación %s no dirigida al usuario: %w", tenderID, domain.ErrForbidden)
	}
	now := uc.now()
	if !uc.perms.HasPermissionForStatus(permission.SubmitBid, t.Status) || now.After(t.ClosingDate) {
		return nil, fmt.Errorf("la licitación no admite ofertas (estado %s): %w", t.Status, domain.ErrForbidden)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("el monto debe ser positivo: %w", domain.ErrInvalidInput)
	}
	d, err := uc.details.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("leer datos de licitante: %w: %w", domain.ErrUpstream, err)
	}
	if !d.Complete() {
		return nil, fmt.Errorf("complete los datos de licitante antes de ofertar: %w", domain.ErrForbidden)
	}

	stored, err := files.Store(ctx, uc.storage, uploads, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	b := &entity.Bid{
		ID:          uuid.New().String(),
		TenderID:    tenderID,
		BidderID:    actor.UserID,
		Amount:      in.Amount,
		Content:     in.Content,
		Files:       stored,
		Status:      entity.BidPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := uc.bids.Create(ctx, b); err != nil {
		files.Discard(ctx, uc.storage, stored)
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("ya existe una oferta del usuario en la licitación: %w", err)
		}
		return nil, fmt.Errorf("crear oferta: %w: %w", domain.ErrUpstream, err)
	}
	uc.log.Info().Str("bid_id", b.ID).Str("tender_id", tenderID).Str("bidder", actor.UserID).Msg("oferta enviada")
	return dto.ToBidResponse(b), nil
}

// AddEvaluation agrega una evaluación (solo se agregan). Las ofertas solo se evalúan cuando ya son visibles.
func (uc *UseCase) AddEvaluation(ctx context.Context, actor dto.Actor, bidID string, in dto.AddEvaluationRequest, uploads []dto.Upload) (*dto.BidResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.EvaluateBid); err != nil {
		return nil, err
	}
	if in.Score < minScore || in.Score > maxScore {
		return nil, fmt.Errorf("puntaje %d fuera de [%d, %d]: %w", in.Score, minScore, maxScore, domain.ErrInvalidInput)
	}
	b, err := uc.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	t, err := uc.loadTender(ctx, b.TenderID)
	if err != nil {
		return nil, err
	}
	if !uc.perms.HasPermissionForStatus(permission.ViewBids, t.Status) {
		return nil, fmt.Errorf("ofertas no visibles en estado %s: %w", t.Status, domain.ErrForbidden)
	}
	now := uc.now()
	stored, err := files.Store(ctx, uc.storage, uploads, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	e := entity.Evaluation{
		ID:          uuid.New().String(),
		BidID:       bidID,
		EvaluatorID: actor.UserID,
		Score:       in.Score,
		Feedback:    in.Feedback,
		Files:       stored,
		EvaluatedAt: now,
	}
	if err := uc.bids.AddEvaluation(ctx, &e); err != nil {
		files.Discard(ctx, uc.storage, stored)
		return nil, fmt.Errorf("guardar evaluación: %w: %w", domain.ErrUpstream, err)
	}
	b.Evaluations = append(b.Evaluations, e)
	return dto.ToBidResponse(b), nil
}

// Get la oferta es visible para su autor, o para roles viewBids cuando la licitación lo permite.
func (uc *UseCase) Get(ctx context.Context, actor dto.Actor, bidID string) (*dto.BidResponse, error) {
	b, err := uc.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if b.BidderID == actor.UserID {
		return dto.ToBidResponse(b), nil
	}
	if !uc.perms.HasPermission(actor.Role, permission.ViewBids) {
		return nil, fmt.Errorf("oferta %s: %w", bidID, domain.ErrForbidden)
	}
	t, err := uc.loadTender(ctx, b.TenderID)
	if err != nil {
		return nil, err
	}
	if !uc.perms.HasPermissionForStatus(permission.ViewBids, t.Status) {
		return nil, fmt.Errorf("ofertas no visibles en estado %s: %w", t.Status, domain.ErrForbidden)
	}
	return dto.ToBidResponse(b), nil
}

// ListMine ofertas del actor en orden de envío.
func (uc *UseCase) ListMine(ctx context.Context, actor dto.Actor) ([]dto.BidResponse, error) {
	list, err := uc.bids.ListByBidder(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("listar ofertas: %w: %w", domain.ErrUpstream, err)
	}
	out := make([]dto.BidResponse, 0, len(list))
	for _, b := range list {
		out = append(out, *dto.ToBidResponse(b))
	}
	return out, nil
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

func (uc *UseCase) loadBid(ctx context.Context, id string) (*entity.Bid, error) {
	b, err := uc.bids.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer oferta: %w: %w", domain.ErrUpstream, err)
	}
	if b == nil {
		return nil, fmt.Errorf("oferta %s: %w", id, domain.ErrNotFound)
	}
	return b, nil
}
