package dto

import "time"

// InboxRequest filtros de lectura de la bandeja.
type InboxRequest struct {
	UnreadOnly  bool `query:"unread_only"`
	NewestFirst bool `query:"newest_first"`
}

// MailIDsRequest operación sobre una lista explícita de correos.
type MailIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// SetReadRequest marca como leídos o no leídos.
type SetReadRequest struct {
	IDs  []string `json:"ids" validate:"required,min=1"`
	Read bool     `json:"read"`
}

// RelatedResponse ítem relacionado resuelto según el tipo del correo.
type RelatedResponse struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	// Title resumen legible (título de la licitación, monto de la oferta, etc.). Vacío si ya no existe.
	Title string `json:"title,omitempty"`
	// TenderID licitación a la que pertenece el ítem, para navegar desde la bandeja.
	TenderID string `json:"tender_id,omitempty"`
}

// MailResponse correo con el nombre del remitente resuelto.
type MailResponse struct {
	ID         string          `json:"id"`
	SenderID   string          `json:"sender_id"`
	SenderName string          `json:"sender_name"`
	Type       string          `json:"type"`
	Subject    string          `json:"subject"`
	Content    string          `json:"content"`
	Related    RelatedResponse `json:"related"`
	Read       bool            `json:"read"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UnreadCountResponse cantidad de correos sin leer.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// AffectedResponse filas afectadas por una operación en lote.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}
