package dto

import "time"

// SaveTendererDetailsRequest datos empresariales; los archivos llegan aparte (license, business_card).
type SaveTendererDetailsRequest struct {
	BusinessType            string     `json:"business_type"`
	LegalRepresentative     string     `json:"legal_representative"`
	EstablishedOn           *time.Time `json:"established_on,omitempty"`
	Country                 string     `json:"country"`
	OfficeAddress           string     `json:"office_address"`
	UnifiedSocialCreditCode string     `json:"unified_social_credit_code"`
}

// VerifyTendererRequest marca de verificación.
type VerifyTendererRequest struct {
	Verified bool `json:"verified"`
}

// CommentRequest comentario sobre un licitante.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// TendererCommentResponse comentario.
type TendererCommentResponse struct {
	CommenterID string    `json:"commenter_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// TendererDetailsResponse salida de los datos del licitante.
type TendererDetailsResponse struct {
	UserID                  string                    `json:"user_id"`
	BusinessLicense         *FileResponse             `json:"business_license,omitempty"`
	BusinessType            string                    `json:"business_type"`
	LegalRepresentative     string                    `json:"legal_representative"`
	EstablishedOn           *time.Time                `json:"established_on,omitempty"`
	Country                 string                    `json:"country"`
	OfficeAddress           string                    `json:"office_address"`
	LegalRepBusinessCard    *FileResponse             `json:"legal_rep_business_card,omitempty"`
	UnifiedSocialCreditCode string                    `json:"unified_social_credit_code"`
	Verified                bool                      `json:"verified"`
	Complete                bool                      `json:"complete"`
	Comments                []TendererCommentResponse `json:"comments"`
	UpdatedAt               time.Time                 `json:"updated_at"`
}
