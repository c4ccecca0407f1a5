// Package lifecycle implementa la máquina de estados de la licitación como funciones puras sobre la entidad.
// Los casos de uso las invocan dentro de una transacción con la fila de la licitación bloqueada,
// de modo que verificar el quórum y cambiar el estado ocurren en la misma escritura.
//
//	Open → Closed → ClosedAndCanSeeBids → NegotiationCandidatesSelected
//	(cualquier estado) → Awarded
package lifecycle

import (
	"fmt"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// CanTransition informa si from → to es una arista de la máquina.
func CanTransition(from, to entity.TenderStatus) bool {
	if to == entity.TenderAwarded {
		return entity.ValidTenderStatus(from)
	}
	switch from {
	case entity.TenderOpen:
		return to == entity.TenderClosed
	case entity.TenderClosed:
		return to == entity.TenderClosedAndCanSeeBids
	case entity.TenderClosedAndCanSeeBids:
		return to == entity.TenderNegotiationCandidatesSelected
	}
	return false
}

// QuorumMet todos los miembros del grupo de compras aprobaron. Un grupo vacío nunca alcanza quórum.
// Compara por identidad, no por cantidad: cambiar el grupo cambia el requisito.
func QuorumMet(group, approvals []string) bool {
	if len(group) == 0 {
		return false
	}
	approved := make(map[string]struct{}, len(approvals))
	for _, a := range approvals {
		approved[a] = struct{}{}
	}
	for _, member := range group {
		if _, ok := approved[member]; !ok {
			return false
		}
	}
	return true
}

// AddApproval agrega userID con semántica de conjunto. added es false si ya estaba.
func AddApproval(approvals []string, userID string) (out []string, added bool) {
	for _, a := range approvals {
		if a == userID {
			return approvals, false
		}
	}
	return append(approvals, userID), true
}

// PruneApprovals descarta aprobaciones de usuarios que ya no están en el grupo.
func PruneApprovals(approvals, group []string) []string {
	inGroup := make(map[string]struct{}, len(group))
	for _, g := range group {
		inGroup[g] = struct{}{}
	}
	out := make([]string, 0, len(approvals))
	for _, a := range approvals {
		if _, ok := inGroup[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ApprovalResult resultado de Approve.
type ApprovalResult struct {
	Added        bool // el usuario no había aprobado antes
	Transitioned bool // el estado pasó a ClosedAndCanSeeBids en esta operación
}

// Approve agrega la aprobación de userID y, si se alcanza el quórum, pasa a ClosedAndCanSeeBids.
func Approve(t *entity.Tender, userID string, now time.Time) (ApprovalResult, error) {
	if t.Status != entity.TenderClosed {
		return ApprovalResult{}, fmt.Errorf("aprobar en estado %s: %w", t.Status, domain.ErrConflict)
	}
	if !t.InProcurementGroup(userID) {
		return ApprovalResult{}, fmt.Errorf("el usuario no pertenece al grupo de compras: %w", domain.ErrForbidden)
	}
	var res ApprovalResult
	t.Approvals, res.Added = AddApproval(t.Approvals, userID)
	if QuorumMet(t.ProcurementGroup, t.Approvals) {
		t.Status = entity.TenderClosedAndCanSeeBids
		res.Transitioned = true
	}
	if res.Added || res.Transitioned {
		t.UpdatedAt = now
	}
	return res, nil
}

// ReevaluateQuorum se usa tras editar el grupo de compras: poda aprobaciones huérfanas y,
// si la licitación está Closed con al menos una aprobación y el quórum se cumple, la abre a revisión.
func ReevaluateQuorum(t *entity.Tender) (transitioned bool) {
	t.Approvals = PruneApprovals(t.Approvals, t.ProcurementGroup)
	if t.Status == entity.TenderClosed && len(t.Approvals) > 0 && QuorumMet(t.ProcurementGroup, t.Approvals) {
		t.Status = entity.TenderClosedAndCanSeeBids
		return true
	}
	return false
}

// SelectNegotiationCandidates ClosedAndCanSeeBids → NegotiationCandidatesSelected; cualquier otro origen es conflicto.
func SelectNegotiationCandidates(t *entity.Tender, now time.Time) error {
	if t.Status != entity.TenderClosedAndCanSeeBids {
		return fmt.Errorf("cambiar a %s desde %s: %w",
			entity.TenderNegotiationCandidatesSelected, t.Status, domain.ErrConflict)
	}
	t.Status = entity.TenderNegotiationCandidatesSelected
	t.UpdatedAt = now
	return nil
}

// CloseIfExpired Open → Closed cuando now supera la fecha de cierre. Idempotente.
func CloseIfExpired(t *entity.Tender, now time.Time) bool {
	if t.Status != entity.TenderOpen || !now.After(t.ClosingDate) {
		return false
	}
	t.Status = entity.TenderClosed
	t.UpdatedAt = now
	return true
}

// AwardStatuses calcula el estado final de cada oferta: winnerID gana y las demás pierden.
// Devuelve ErrNotFound si winnerID no es una de las ofertas de la licitación.
func AwardStatuses(bidIDs []string, winnerID string) (map[string]entity.BidStatus, error) {
	out := make(map[string]entity.BidStatus, len(bidIDs))
	found := false
	for _, id := range bidIDs {
		if id == winnerID {
			out[id] = entity.BidWon
			found = true
			continue
		}
		out[id] = entity.BidLost
	}
	if !found {
		return nil, fmt.Errorf("oferta %s no pertenece a la licitación: %w", winnerID, domain.ErrNotFound)
	}
	return out, nil
}

// Award fija la oferta ganadora y el estado Awarded. Desde cualquier estado.
// changed es false cuando la licitación ya estaba adjudicada a la misma oferta.
func Award(t *entity.Tender, bidID string, now time.Time) (changed bool) {
	if t.Status == entity.TenderAwarded && t.WinningBidID != nil && *t.WinningBidID == bidID {
		return false
	}
	id := bidID
	t.WinningBidID = &id
	t.Status = entity.TenderAwarded
	t.UpdatedAt = now
	return true
}

// CheckInvariants valida WinningBidID ⇔ Awarded y Approvals ⊆ ProcurementGroup.
func CheckInvariants(t *entity.Tender) error {
	if (t.WinningBidID != nil) != (t.Status == entity.TenderAwarded) {
		return fmt.Errorf("winningBid y estado %s inconsistentes: %w", t.Status, domain.ErrConflict)
	}
	for _, a := range t.Approvals {
		if !t.InProcurementGroup(a) {
			return fmt.Errorf("aprobación %s fuera del grupo de compras: %w", a, domain.ErrConflict)
		}
	}
	return nil
}
