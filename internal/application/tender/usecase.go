// Package tender casos de uso de la licitación: publicación, edición con historial,
// aprobación por quórum, cambio de estado, adjudicación y cierre por vencimiento.
package tender

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/files"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/lifecycle"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var tracer = otel.Tracer("tender")

// UseCase casos de uso del agregado Tender.
type UseCase struct {
	tenders  repository.TenderRepository
	bids     repository.BidRepository
	users    repository.UserRepository
	tx       TxRunner
	storage  ports.FileStorage
	perms    *permission.Table
	notifier *mail.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. tenders y bids operan fuera de transacción (lecturas).
func NewUseCase(
	tenders repository.TenderRepository,
	bids repository.BidRepository,
	users repository.UserRepository,
	tx TxRunner,
	storage ports.FileStorage,
	perms *permission.Table,
	notifier *mail.Notifier,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		tenders:  tenders,
		bids:     bids,
		users:    users,
		tx:       tx,
		storage:  storage,
		perms:    perms,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Create publica una licitación en estado Open e invita por correo a los usuarios dirigidos.
func (uc *UseCase) Create(ctx context.Context, actor dto.Actor, in dto.CreateTenderRequest, uploads []dto.Upload) (*dto.TenderResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.CreateTender); err != nil {
		return nil, err
	}
	now := uc.now()
	if in.IssueDate.IsZero() {
		in.IssueDate = now
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("título requerido: %w", domain.ErrInvalidInput)
	}
	if in.ClosingDate.IsZero() || !in.ClosingDate.After(in.IssueDate) {
		return nil, fmt.Errorf("la fecha de cierre debe ser posterior a la de emisión: %w", domain.ErrInvalidInput)
	}
	targeted := uniq(in.TargetedUsers)
	group := uniq(in.ProcurementGroup)
	if err := uc.checkUsers(ctx, targeted, ""); err != nil {
		return nil, err
	}
	if err := uc.checkUsers(ctx, group, permission.ApproveTender); err != nil {
		return nil, err
	}

	stored, err := files.Store(ctx, uc.storage, uploads, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	t := &entity.Tender{
		ID:                uuid.New().String(),
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		IssueDate:         in.IssueDate,
		ClosingDate:       in.ClosingDate,
		Contact:           entity.Contact{Name: in.Contact.Name, Email: in.Contact.Email, Phone: in.Contact.Phone},
		OtherRequirements: in.OtherRequirements,
		Files:             stored,
		Status:            entity.TenderOpen,
		TargetedUsers:     targeted,
		ProcurementGroup:  group,
		CreatedBy:         actor.UserID,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = uc.tx.Run(ctx, func(tenders repository.TenderRepository, _ repository.BidRepository, mails repository.MailRepository) error {
		if err := tenders.Create(ctx, t); err != nil {
			return fmt.Errorf("crear licitación: %w: %w", domain.ErrUpstream, err)
		}
		drafts := make([]mail.Draft, 0, len(targeted))
		for _, u := range targeted {
			drafts = append(drafts, mail.Draft{
				SenderID:    actor.UserID,
				RecipientID: u,
				Subject:     "Nueva licitación: " + t.Title,
				Content:     fmt.Sprintf("Fue invitado a la licitación %q. Cierre: %s.", t.Title, t.ClosingDate.Format(time.DateTime)),
				Related:     entity.TenderRef(t.ID),
			})
		}
		_, err := uc.notifier.Notify(ctx, mails, drafts...)
		return err
	})
	if err != nil {
		files.Discard(ctx, uc.storage, stored)
		return nil, err
	}
	uc.log.Info().Str("tender_id", t.ID).Str("by", actor.UserID).Int("targeted", len(targeted)).Msg("licitación creada")
	return dto.ToTenderResponse(t), nil
}

// Get devuelve la licitación si el actor puede verla.
func (uc *UseCase) Get(ctx context.Context, actor dto.Actor, id string) (*dto.TenderResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !uc.canView(actor, t) {
		return nil, fmt.Errorf("licitación %s: %w", id, domain.ErrForbidden)
	}
	return dto.ToTenderResponse(t), nil
}

// List licitaciones visibles para el actor: todas con viewAllTenders, si no solo las dirigidas a él.
func (uc *UseCase) List(ctx context.Context, actor dto.Actor, in dto.TenderListRequest) (*dto.TenderListResponse, error) {
	in.DefaultPage()
	f := repository.TenderFilter{Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		f.Status = entity.TenderStatus(in.Status)
		if !entity.ValidTenderStatus(f.Status) {
			return nil, fmt.Errorf("estado %q: %w", in.Status, domain.ErrInvalidInput)
		}
	}
	if !uc.perms.HasPermission(actor.Role, permission.ViewAllTenders) {
		f.VisibleTo = actor.UserID
	}
	list, total, err := uc.tenders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar licitaciones: %w: %w", domain.ErrUpstream, err)
	}
	items := make([]dto.TenderResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *dto.ToTenderResponse(t))
	}
	return &dto.TenderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Edit aplica una edición parcial con motivo obligatorio y guarda el estado previo en el historial.
// Si cambia el grupo de compras se podan aprobaciones huérfanas y se reevalúa el quórum.
func (uc *UseCase) Edit(ctx context.Context, actor dto.Actor, id string, in dto.EditTenderRequest, uploads []dto.Upload) (*dto.TenderResponse, error) {
	ctx, span := tracer.Start(ctx, "Tender.UseCase.Edit")
	defer span.End()
	span.SetAttributes(attribute.String("tender.id", id))

	if err := uc.perms.Require(actor.Role, permission.EditTender); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.ChangeReason)
	if reason == "" {
		return nil, fmt.Errorf("motivo del cambio requerido: %w", domain.ErrInvalidInput)
	}
	var targetStatus entity.TenderStatus
	if in.Status != nil {
		if actor.Role != entity.RoleAdmin {
			return nil, fmt.Errorf("solo un admin cambia el estado al editar: %w", domain.ErrForbidden)
		}
		targetStatus = entity.TenderStatus(*in.Status)
		if !entity.ValidTenderStatus(targetStatus) || targetStatus == entity.TenderAwarded {
			return nil, fmt.Errorf("estado %q no asignable por edición: %w", *in.Status, domain.ErrInvalidInput)
		}
	}
	var targeted, group []string
	if in.TargetedUsers != nil {
		targeted = uniq(in.TargetedUsers)
		if err := uc.checkUsers(ctx, targeted, ""); err != nil {
			return nil, err
		}
	}
	if in.ProcurementGroup != nil {
		group = uniq(in.ProcurementGroup)
		if err := uc.checkUsers(ctx, group, permission.ApproveTender); err != nil {
			return nil, err
		}
	}

	now := uc.now()
	stored, err := files.Store(ctx, uc.storage, uploads, actor.UserID, now)
	if err != nil {
		return nil, err
	}

	var (
		result  *entity.Tender
		removed []entity.FileDescriptor
		from    entity.TenderStatus
	)
	err = uc.tx.Run(ctx, func(tenders repository.TenderRepository, _ repository.BidRepository, _ repository.MailRepository) error {
		t, err := tenders.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("leer licitación: %w: %w", domain.ErrUpstream, err)
		}
		if t == nil {
			return fmt.Errorf("licitación %s: %w", id, domain.ErrNotFound)
		}
		from = t.Status
		if targetStatus != "" && t.Status == entity.TenderAwarded {
			return fmt.Errorf("la licitación ya fue adjudicada: %w", domain.ErrConflict)
		}
		snapshot, err := json.Marshal(dto.ToTenderResponse(t))
		if err != nil {
			return fmt.Errorf("serializar versión: %w", err)
		}
		version := &entity.TenderVersion{
			ID:           uuid.New().String(),
			TenderID:     t.ID,
			Version:      t.Version,
			ChangeReason: reason,
			ChangedBy:    actor.UserID,
			Snapshot:     snapshot,
			CreatedAt:    now,
		}

		applyEdit(t, in)
		if targeted != nil {
			t.TargetedUsers = targeted
		}
		if group != nil {
			t.ProcurementGroup = group
		}
		t.Files, removed = removeFiles(t.Files, in.RemoveFiles)
		t.Files = append(t.Files, stored...)
		if targetStatus != "" {
			t.Status = targetStatus
		}
		if !t.ClosingDate.After(t.IssueDate) {
			return fmt.Errorf("la fecha de cierre debe ser posterior a la de emisión: %w", domain.ErrInvalidInput)
		}
		lifecycle.ReevaluateQuorum(t)
		if err := lifecycle.CheckInvariants(t); err != nil {
			return err
		}
		t.UpdatedAt = now

		if err := tenders.CreateVersion(ctx, version); err != nil {
			return fmt.Errorf("guardar versión: %w: %w", domain.ErrUpstream, err)
		}
		if err := tenders.Update(ctx, t); err != nil {
			return fmt.Errorf("actualizar licitación: %w: %w", domain.ErrUpstream, err)
		}
		result = t
		return nil
	})
	if err != nil {
		files.Discard(ctx, uc.storage, stored)
		span.RecordError(err)
		return nil, err
	}
	files.Discard(ctx, uc.storage, removed)
	recordTransition(from, result.Status)
	uc.log.Info().Str("tender_id", id).Str("by", actor.UserID).Str("reason", reason).
		Int("version", result.Version).Msg("licitación editada")
	return dto.ToTenderResponse(result), nil
}

// Versions historial de cambios, del más antiguo al más reciente.
func (uc *UseCase) Versions(ctx context.Context, actor dto.Actor, id string) ([]dto.TenderVersionResponse, error) {
	if !uc.perms.HasPermission(actor.Role, permission.EditTender) &&
		!uc.perms.HasPermission(actor.Role, permission.ViewAllTenders) {
		return nil, fmt.Errorf("historial de licitación: %w", domain.ErrForbidden)
	}
	if _, err := uc.load(ctx, id); err != nil {
		return nil, err
	}
	versions, err := uc.tenders.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listar versiones: %w: %w", domain.ErrUpstream, err)
	}
	out := make([]dto.TenderVersionResponse, 0, len(versions))
	for _, v := range versions {
		var snap dto.TenderResponse
		if err := json.Unmarshal(v.Snapshot, &snap); err != nil {
			return nil, fmt.Errorf("versión %d ilegible: %w", v.Version, err)
		}
		out = append(out, dto.TenderVersionResponse{
			Version:      v.Version,
			ChangeReason: v.ChangeReason,
			ChangedBy:    v.ChangedBy,
			Snapshot:     &snap,
			CreatedAt:    v.CreatedAt,
		})
	}
	return out, nil
}

// Delete borra la licitación con sus ofertas y conversaciones, y luego sus archivos.
func (uc *UseCase) Delete(ctx context.Context, actor dto.Actor, id string) error {
	if err := uc.perms.Require(actor.Role, permission.DeleteTender); err != nil {
		return err
	}
	t, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	bids, err := uc.bids.ListByTender(ctx, id)
	if err != nil {
		return fmt.Errorf("listar ofertas: %w: %w", domain.ErrUpstream, err)
	}
	if err := uc.tenders.Delete(ctx, id); err != nil {
		return fmt.Errorf("borrar licitación: %w: %w", domain.ErrUpstream, err)
	}
	toDelete := append([]entity.FileDescriptor(nil), t.Files...)
	for _, b := range bids {
		toDelete = append(toDelete, b.Files...)
		for _, e := range b.Evaluations {
			toDelete = append(toDelete, e.Files...)
		}
	}
	for _, f := range toDelete {
		if err := uc.storage.Delete(ctx, f.Path); err != nil {
			uc.log.Warn().Err(err).Str("path", f.Path).Msg("no se pudo borrar archivo de licitación")
		}
	}
	uc.log.Info().Str("tender_id", id).Str("by", actor.UserID).Int("files", len(toDelete)).Msg("licitación borrada")
	return nil
}

func (uc *UseCase) load(ctx context.Context, id string) (*entity.Tender, error) {
	t, err := uc.tenders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer licitación: %w: %w", domain.ErrUpstream, err)
	}
	if t == nil {
		return nil, fmt.Errorf("licitación %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (uc *UseCase) canView(actor dto.Actor, t *entity.Tender) bool {
	return uc.perms.HasPermission(actor.Role, permission.ViewAllTenders) ||
		t.CreatedBy == actor.UserID ||
		t.IsTargeted(actor.UserID)
}

// checkUsers valida que cada id exista y, si capability no es vacío, que su rol la tenga.
func (uc *UseCase) checkUsers(ctx context.Context, ids []string, capability permission.Capability) error {
	for _, id := range ids {
		u, err := uc.users.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("leer usuario: %w: %w", domain.ErrUpstream, err)
		}
		if u == nil {
			return fmt.Errorf("usuario %s no existe: %w", id, domain.ErrInvalidInput)
		}
		if capability != "" && !uc.perms.HasPermission(u.Role, capability) {
			return fmt.Errorf("usuario %s con rol %s no puede %s: %w", id, u.Role, capability, domain.ErrInvalidInput)
		}
	}
	return nil
}

func applyEdit(t *entity.Tender, in dto.EditTenderRequest) {
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.ClosingDate != nil {
		t.ClosingDate = *in.ClosingDate
	}
	if in.Contact != nil {
		t.Contact = entity.Contact{Name: in.Contact.Name, Email: in.Contact.Email, Phone: in.Contact.Phone}
	}
	if in.OtherRequirements != nil {
		t.OtherRequirements = *in.OtherRequirements
	}
}

// removeFiles separa los archivos cuyo path está en paths.
func removeFiles(current []entity.FileDescriptor, paths []string) (kept, removed []entity.FileDescriptor) {
	if len(paths) == 0 {
		return current, nil
	}
	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		drop[p] = struct{}{}
	}
	for _, f := range current {
		if _, ok := drop[f.Path]; ok {
			removed = append(removed, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, removed
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
