package tender

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/lifecycle"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// Approve registra la aprobación del actor. La verificación de quórum y el cambio a
// ClosedAndCanSeeBids ocurren en la misma transacción, con la fila de la licitación bloqueada.
func (uc *UseCase) Approve(ctx context.Context, actor dto.Actor, id string) (*dto.ApprovalResponse, error) {
	ctx, span := tracer.Start(ctx, "Tender.UseCase.Approve")
	defer span.End()
	span.SetAttributes(attribute.String("tender.id", id), attribute.String("user.id", actor.UserID))

	if err := uc.perms.Require(actor.Role, permission.ApproveTender); err != nil {
		return nil, err
	}
	now := uc.now()
	var (
		t   *entity.Tender
		res lifecycle.ApprovalResult
	)
	err := uc.tx.Run(ctx, func(tenders repository.TenderRepository, _ repository.BidRepository, mails repository.MailRepository) error {
		var err error
		t, err = lockTender(ctx, tenders, id)
		if err != nil {
			return err
		}
		if res, err = lifecycle.Approve(t, actor.UserID, now); err != nil {
			return err
		}
		if res.Added {
			if _, err := tenders.AddApproval(ctx, id, actor.UserID); err != nil {
				return fmt.Errorf("registrar aprobación: %w: %w", domain.ErrUpstream, err)
			}
		}
		if !res.Transitioned {
			return nil
		}
		if err := tenders.UpdateStatus(ctx, id, t.Status, now); err != nil {
			return fmt.Errorf("actualizar estado: %w: %w", domain.ErrUpstream, err)
		}
		_, err = uc.notifier.Notify(ctx, mails, mail.Draft{
			SenderID:    actor.UserID,
			RecipientID: t.CreatedBy,
			Subject:     "Ofertas disponibles: " + t.Title,
			Content:     "El grupo de compras aprobó la licitación; las ofertas ya pueden revisarse.",
			Related:     entity.TenderRef(t.ID),
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res.Added {
		tenderApprovalsTotal.Inc()
	}
	if res.Transitioned {
		recordTransition(entity.TenderClosed, entity.TenderClosedAndCanSeeBids)
		uc.log.Info().Str("tender_id", id).Int("approvals", len(t.Approvals)).Msg("quórum alcanzado")
	}
	return &dto.ApprovalResponse{Tender: *dto.ToTenderResponse(t), Transitioned: res.Transitioned}, nil
}

// ChangeStatus cambio manual de estado. Solo se admite ClosedAndCanSeeBids → NegotiationCandidatesSelected;
// los licitantes con oferta reciben un correo.
func (uc *UseCase) ChangeStatus(ctx context.Context, actor dto.Actor, id string, status string) (*dto.TenderResponse, error) {
	ctx, span := tracer.Start(ctx, "Tender.UseCase.ChangeStatus")
	defer span.End()
	span.SetAttributes(attribute.String("tender.id", id), attribute.String("tender.status", status))

	if err := uc.perms.Require(actor.Role, permission.ChangeTenderStatus); err != nil {
		return nil, err
	}
	if entity.TenderStatus(status) != entity.TenderNegotiationCandidatesSelected {
		return nil, fmt.Errorf("estado %q no admite cambio manual: %w", status, domain.ErrInvalidInput)
	}
	now := uc.now()
	var t *entity.Tender
	err := uc.tx.Run(ctx, func(tenders repository.TenderRepository, bids repository.BidRepository, mails repository.MailRepository) error {
		var err error
		if t, err = lockTender(ctx, tenders, id); err != nil {
			return err
		}
		if !uc.perms.HasPermissionForStatus(permission.ChangeTenderStatus, t.Status) {
			return fmt.Errorf("cambiar estado desde %s: %w", t.Status, domain.ErrConflict)
		}
		if err := lifecycle.SelectNegotiationCandidates(t, now); err != nil {
			return err
		}
		if err := tenders.UpdateStatus(ctx, id, t.Status, now); err != nil {
			return fmt.Errorf("actualizar estado: %w: %w", domain.ErrUpstream, err)
		}
		list, err := bids.ListByTender(ctx, id)
		if err != nil {
			return fmt.Errorf("listar ofertas: %w: %w", domain.ErrUpstream, err)
		}
		drafts := make([]mail.Draft, 0, len(list))
		for _, b := range list {
			drafts = append(drafts, mail.Draft{
				SenderID:    actor.UserID,
				RecipientID: b.BidderID,
				Subject:     "Selección de candidatos: " + t.Title,
				Content:     "La licitación pasó a la etapa de negociación con candidatos seleccionados.",
				Related:     entity.TenderRef(t.ID),
			})
		}
		_, err = uc.notifier.Notify(ctx, mails, drafts...)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	recordTransition(entity.TenderClosedAndCanSeeBids, entity.TenderNegotiationCandidatesSelected)
	return dto.ToTenderResponse(t), nil
}

// SelectWinningBid adjudica la licitación desde cualquier estado. En una transacción: la oferta elegida
// queda won, el resto lost (una sola sentencia), se fija winningBid y estado Awarded, y se notifica
// a ganador y perdedores. Repetirla con la misma oferta re-deriva el mismo estado sin reenviar correos.
func (uc *UseCase) SelectWinningBid(ctx context.Context, actor dto.Actor, tenderID, bidID string) (*dto.TenderResponse, error) {
	ctx, span := tracer.Start(ctx, "Tender.UseCase.SelectWinningBid")
	defer span.End()
	span.SetAttributes(attribute.String("tender.id", tenderID), attribute.String("bid.id", bidID))

	if err := uc.perms.Require(actor.Role, permission.SelectWinningBid); err != nil {
		return nil, err
	}
	now := uc.now()
	var (
		t       *entity.Tender
		from    entity.TenderStatus
		changed bool
		total   int
	)
	err := uc.tx.Run(ctx, func(tenders repository.TenderRepository, bids repository.BidRepository, mails repository.MailRepository) error {
		var err error
		if t, err = lockTender(ctx, tenders, tenderID); err != nil {
			return err
		}
		from = t.Status
		list, err := bids.ListByTender(ctx, tenderID)
		if err != nil {
			return fmt.Errorf("listar ofertas: %w: %w", domain.ErrUpstream, err)
		}
		ids := make([]string, 0, len(list))
		for _, b := range list {
			ids = append(ids, b.ID)
		}
		outcome, err := lifecycle.AwardStatuses(ids, bidID)
		if err != nil {
			return err
		}
		total = len(ids)

		affected, err := bids.SetAwardStatuses(ctx, tenderID, bidID)
		if err != nil {
			return fmt.Errorf("actualizar ofertas: %w: %w", domain.ErrUpstream, err)
		}
		if int(affected) != total {
			uc.log.Warn().Str("tender_id", tenderID).Int64("affected", affected).Int("expected", total).
				Msg("adjudicación: filas actualizadas distintas a las esperadas")
		}
		changed = lifecycle.Award(t, bidID, now)
		if !changed {
			return nil
		}
		if err := tenders.SetWinningBid(ctx, tenderID, bidID, now); err != nil {
			return fmt.Errorf("fijar oferta ganadora: %w: %w", domain.ErrUpstream, err)
		}
		drafts := make([]mail.Draft, 0, len(list))
		for _, b := range list {
			d := mail.Draft{SenderID: actor.UserID, RecipientID: b.BidderID, Related: entity.BidRef(b.ID)}
			if outcome[b.ID] == entity.BidWon {
				d.Subject = "Oferta ganadora: " + t.Title
				d.Content = fmt.Sprintf("Su oferta por %s fue seleccionada como ganadora.", b.Amount.StringFixed(2))
			} else {
				d.Subject = "Resultado de licitación: " + t.Title
				d.Content = "Su oferta no fue seleccionada."
			}
			drafts = append(drafts, d)
		}
		_, err = uc.notifier.Notify(ctx, mails, drafts...)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if changed {
		recordTransition(from, entity.TenderAwarded)
	}
	uc.log.Info().Str("tender_id", tenderID).Str("bid_id", bidID).Int("bids", total).Bool("changed", changed).
		Msg("licitación adjudicada")
	return dto.ToTenderResponse(t), nil
}

// ListBids ofertas de la licitación. Solo en ClosedAndCanSeeBids o Awarded, para cualquier rol.
func (uc *UseCase) ListBids(ctx context.Context, actor dto.Actor, tenderID string) ([]dto.BidResponse, error) {
	list, err := uc.VisibleBids(ctx, actor, tenderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BidResponse, 0, len(list))
	for _, b := range list {
		out = append(out, *dto.ToBidResponse(b))
	}
	return out, nil
}

// VisibleBids igual que ListBids pero devuelve entidades; lo usa el reporte.
func (uc *UseCase) VisibleBids(ctx context.Context, actor dto.Actor, tenderID string) ([]*entity.Bid, error) {
	if err := uc.perms.Require(actor.Role, permission.ViewBids); err != nil {
		return nil, err
	}
	t, err := uc.load(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if !uc.perms.HasPermissionForStatus(permission.ViewBids, t.Status) {
		return nil, fmt.Errorf("ofertas no visibles en estado %s: %w", t.Status, domain.ErrForbidden)
	}
	list, err := uc.bids.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("listar ofertas: %w: %w", domain.ErrUpstream, err)
	}
	return list, nil
}

// Load licitación visible para el actor, como entidad.
func (uc *UseCase) Load(ctx context.Context, actor dto.Actor, id string) (*entity.Tender, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !uc.canView(actor, t) {
		return nil, fmt.Errorf("licitación %s: %w", id, domain.ErrForbidden)
	}
	return t, nil
}

// CloseExpired pasa a Closed las licitaciones Open vencidas y avisa al grupo de compras que debe aprobar.
// Es idempotente: una segunda ejecución no encuentra nada que cerrar.
func (uc *UseCase) CloseExpired(ctx context.Context, now time.Time) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Tender.UseCase.CloseExpired")
	defer span.End()

	ids, err := uc.tenders.CloseExpired(ctx, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("cerrar vencidas: %w: %w", domain.ErrUpstream, err)
	}
	span.SetAttributes(attribute.Int("tender.closed", len(ids)))
	for _, id := range ids {
		recordTransition(entity.TenderOpen, entity.TenderClosed)
		if err := uc.notifyGroup(ctx, id); err != nil {
			uc.log.Warn().Err(err).Str("tender_id", id).Msg("no se pudo avisar al grupo de compras")
		}
	}
	return ids, nil
}

func (uc *UseCase) notifyGroup(ctx context.Context, id string) error {
	return uc.tx.Run(ctx, func(tenders repository.TenderRepository, _ repository.BidRepository, mails repository.MailRepository) error {
		t, err := tenders.GetByID(ctx, id)
		if err != nil || t == nil {
			return err
		}
		drafts := make([]mail.Draft, 0, len(t.ProcurementGroup))
		for _, member := range t.ProcurementGroup {
			drafts = append(drafts, mail.Draft{
				SenderID:    t.CreatedBy,
				RecipientID: member,
				Subject:     "Aprobación pendiente: " + t.Title,
				Content:     "La licitación cerró y requiere su aprobación para revisar ofertas.",
				Related:     entity.TenderRef(t.ID),
			})
		}
		_, err = uc.notifier.Notify(ctx, mails, drafts...)
		return err
	})
}

func lockTender(ctx context.Context, tenders repository.TenderRepository, id string) (*entity.Tender, error) {
	t, err := tenders.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer licitación: %w: %w", domain.ErrUpstream, err)
	}
	if t == nil {
		return nil, fmt.Errorf("licitación %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}
