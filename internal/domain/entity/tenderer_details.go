package entity

import "time"

// TendererComment comentario de un rol privilegiado sobre los datos de un licitante.
type TendererComment struct {
	CommenterID string    `json:"commenter_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// TendererDetails datos empresariales de un usuario con rol tenderer (1:1).
type TendererDetails struct {
	UserID                  string
	BusinessLicense         *FileDescriptor
	BusinessType            string
	LegalRepresentative     string
	EstablishedOn           *time.Time
	Country                 string
	OfficeAddress           string
	LegalRepBusinessCard    *FileDescriptor
	UnifiedSocialCreditCode string
	Verified                bool
	Comments                []TendererComment
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Complete informa si los datos mínimos para ofertar están cargados.
func (d *TendererDetails) Complete() bool {
	return d != nil &&
		d.BusinessLicense != nil &&
		d.BusinessType != "" &&
		d.LegalRepresentative != "" &&
		d.UnifiedSocialCreditCode != ""
}
