// Package permission contiene la tabla estática capacidad → roles y capacidad → estados de licitación.
// La tabla se construye una vez al arrancar y se inyecta en los casos de uso; no hay estado global.
package permission

import (
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// Capability nombre de una acción protegida.
type Capability string

const (
	CreateTender        Capability = "createTender"
	EditTender          Capability = "editTender"
	DeleteTender        Capability = "deleteTender"
	ViewAllTenders      Capability = "viewAllTenders"
	ApproveTender       Capability = "approveTender"
	ChangeTenderStatus  Capability = "changeTenderStatus"
	SelectWinningBid    Capability = "selectWinningBid"
	SubmitBid           Capability = "submitBid"
	ViewBids            Capability = "viewBids"
	EvaluateBid         Capability = "evaluateBid"
	MessageOnAllTenders Capability = "messageOnAllTenders"
	ManageUsers         Capability = "manageUsers"
	ViewTendererDetails Capability = "viewTendererDetails"
	VerifyTenderer      Capability = "verifyTenderer"
	CommentTenderer     Capability = "commentTenderer"
)

// Table consulta pura; el valor cero no concede nada.
type Table struct {
	roles    map[Capability]map[string]struct{}
	statuses map[Capability]map[entity.TenderStatus]struct{}
}

// New construye una tabla copiando los mapas recibidos, de modo que el llamador no pueda mutarla después.
func New(roles map[Capability][]string, statuses map[Capability][]entity.TenderStatus) *Table {
	t := &Table{
		roles:    make(map[Capability]map[string]struct{}, len(roles)),
		statuses: make(map[Capability]map[entity.TenderStatus]struct{}, len(statuses)),
	}
	for c, rs := range roles {
		set := make(map[string]struct{}, len(rs))
		for _, r := range rs {
			set[r] = struct{}{}
		}
		t.roles[c] = set
	}
	for c, ss := range statuses {
		set := make(map[entity.TenderStatus]struct{}, len(ss))
		for _, s := range ss {
			set[s] = struct{}{}
		}
		t.statuses[c] = set
	}
	return t
}

// Default tabla de producción.
func Default() *Table {
	const (
		admin     = entity.RoleAdmin
		tenderer  = entity.RoleTenderer
		group     = entity.RoleTenderProcurementGroup
		secretary = entity.RoleSecretary
	)
	return New(
		map[Capability][]string{
			CreateTender:        {admin, secretary},
			EditTender:          {admin, secretary},
			DeleteTender:        {admin},
			ViewAllTenders:      {admin, secretary, group},
			ApproveTender:       {admin, secretary, group},
			ChangeTenderStatus:  {admin, secretary},
			SelectWinningBid:    {admin, secretary},
			SubmitBid:           {tenderer},
			ViewBids:            {admin, secretary, group},
			EvaluateBid:         {admin, group},
			MessageOnAllTenders: {admin, secretary, group},
			ManageUsers:         {admin},
			ViewTendererDetails: {admin, secretary, group},
			VerifyTenderer:      {admin, secretary},
			CommentTenderer:     {admin, secretary},
		},
		map[Capability][]entity.TenderStatus{
			ViewBids:           {entity.TenderClosedAndCanSeeBids, entity.TenderAwarded},
			SubmitBid:          {entity.TenderOpen},
			ChangeTenderStatus: {entity.TenderClosedAndCanSeeBids},
			ApproveTender:      {entity.TenderClosed},
		},
	)
}

// HasPermission role ∈ roles[capability].
func (t *Table) HasPermission(role string, c Capability) bool {
	if t == nil {
		return false
	}
	_, ok := t.roles[c][role]
	return ok
}

// HasPermissionForStatus status ∈ statuses[capability].
// Una capacidad sin mapa de estados no depende del estado y devuelve true.
func (t *Table) HasPermissionForStatus(c Capability, status entity.TenderStatus) bool {
	if t == nil {
		return false
	}
	set, ok := t.statuses[c]
	if !ok {
		return true
	}
	_, ok = set[status]
	return ok
}

// Require traduce una consulta negativa a domain.ErrForbidden.
func (t *Table) Require(role string, c Capability) error {
	if !t.HasPermission(role, c) {
		return domain.ErrForbidden
	}
	return nil
}

// Roles devuelve los roles con la capacidad (para middlewares de ruta).
func (t *Table) Roles(c Capability) []string {
	out := make([]string, 0, len(t.roles[c]))
	for r := range t.roles[c] {
		out = append(out, r)
	}
	return out
}
