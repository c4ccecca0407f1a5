package dto

import "time"

// ContactDTO datos de contacto de la licitación.
type ContactDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateTenderRequest entrada para publicar una licitación. Los archivos llegan aparte (multipart).
type CreateTenderRequest struct {
	Title             string     `json:"title" validate:"required"`
	Description       string     `json:"description"`
	IssueDate         time.Time  `json:"issue_date"`
	ClosingDate       time.Time  `json:"closing_date" validate:"required"`
	Contact           ContactDTO `json:"contact"`
	OtherRequirements string     `json:"other_requirements"`
	TargetedUsers     []string   `json:"targeted_users"`
	ProcurementGroup  []string   `json:"procurement_group"`
}

// EditTenderRequest edición parcial; campos nil no cambian. ChangeReason es obligatorio.
type EditTenderRequest struct {
	Title             *string     `json:"title,omitempty"`
	Description       *string     `json:"description,omitempty"`
	ClosingDate       *time.Time  `json:"closing_date,omitempty"`
	Contact           *ContactDTO `json:"contact,omitempty"`
	OtherRequirements *string     `json:"other_requirements,omitempty"`
	TargetedUsers     []string    `json:"targeted_users,omitempty"`
	ProcurementGroup  []string    `json:"procurement_group,omitempty"`
	// Status solo lo aplica un admin; nunca Awarded.
	Status       *string  `json:"status,omitempty"`
	RemoveFiles  []string `json:"remove_files,omitempty"`
	ChangeReason string   `json:"change_reason" validate:"required"`
}

// ChangeStatusRequest cambio manual de estado.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SelectWinningBidRequest adjudicación.
type SelectWinningBidRequest struct {
	BidID string `json:"bid_id" validate:"required"`
}

// TenderListRequest filtros del listado.
type TenderListRequest struct {
	PageRequest
	Status string `query:"status"`
}

// TenderResponse salida de una licitación.
type TenderResponse struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	IssueDate         time.Time      `json:"issue_date"`
	ClosingDate       time.Time      `json:"closing_date"`
	Contact           ContactDTO     `json:"contact"`
	OtherRequirements string         `json:"other_requirements"`
	Files             []FileResponse `json:"files"`
	Status            string         `json:"status"`
	TargetedUsers     []string       `json:"targeted_users"`
	ProcurementGroup  []string       `json:"procurement_group"`
	Approvals         []string       `json:"approvals"`
	WinningBidID      *string        `json:"winning_bid_id,omitempty"`
	CreatedBy         string         `json:"created_by"`
	Version           int            `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TenderListResponse listado paginado.
type TenderListResponse struct {
	Items []TenderResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// TenderVersionResponse entrada del historial de cambios.
type TenderVersionResponse struct {
	Version      int             `json:"version"`
	ChangeReason string          `json:"change_reason"`
	ChangedBy    string          `json:"changed_by"`
	Snapshot     *TenderResponse `json:"snapshot"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ApprovalResponse resultado de aprobar.
type ApprovalResponse struct {
	Tender       TenderResponse `json:"tender"`
	Transitioned bool           `json:"transitioned"`
}
