package entity

import "time"

// TenderStatus estado del ciclo de vida de una licitación.
type TenderStatus string

// Estados en orden de avance. Awarded es terminal y se alcanza al elegir una oferta ganadora.
const (
	TenderOpen                          TenderStatus = "Open"
	TenderClosed                        TenderStatus = "Closed"
	TenderClosedAndCanSeeBids           TenderStatus = "ClosedAndCanSeeBids"
	TenderNegotiationCandidatesSelected TenderStatus = "NegotiationCandidatesSelected"
	TenderAwarded                       TenderStatus = "Awarded"
)

// ValidTenderStatus informa si s es un estado conocido.
func ValidTenderStatus(s TenderStatus) bool {
	switch s {
	case TenderOpen, TenderClosed, TenderClosedAndCanSeeBids, TenderNegotiationCandidatesSelected, TenderAwarded:
		return true
	default:
		return false
	}
}

// Contact datos de contacto publicados en la licitación.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Tender agregado central. Las ofertas y conversaciones se relacionan por tender_id.
//
// Invariantes:
//   - WinningBidID != nil si y solo si Status == TenderAwarded.
//   - Approvals ⊆ ProcurementGroup.
type Tender struct {
	ID                string
	Title             string
	Description       string
	IssueDate         time.Time
	ClosingDate       time.Time
	Contact           Contact
	OtherRequirements string
	Files             []FileDescriptor
	Status            TenderStatus
	TargetedUsers     []string
	ProcurementGroup  []string
	Approvals         []string
	WinningBidID      *string
	CreatedBy         string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsTargeted informa si userID está entre los usuarios invitados a ver la licitación.
func (t *Tender) IsTargeted(userID string) bool {
	return contains(t.TargetedUsers, userID)
}

// InProcurementGroup informa si userID puede aprobar la licitación.
func (t *Tender) InProcurementGroup(userID string) bool {
	return contains(t.ProcurementGroup, userID)
}

// TenderVersion instantánea previa a una edición, con el motivo del cambio.
type TenderVersion struct {
	ID           string
	TenderID     string
	Version      int
	ChangeReason string
	ChangedBy    string
	Snapshot     []byte // JSON del estado anterior
	CreatedAt    time.Time
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
