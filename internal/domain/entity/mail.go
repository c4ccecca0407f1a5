package entity

import "time"

// MailType etiqueta que indica a qué colección apunta el ítem relacionado.
type MailType string

const (
	MailTender       MailType = "tender"
	MailMessage      MailType = "message"
	MailNotification MailType = "notification"
	MailBid          MailType = "bid"
)

// ValidMailType informa si t es un tipo de correo conocido.
func ValidMailType(t MailType) bool {
	switch t {
	case MailTender, MailMessage, MailNotification, MailBid:
		return true
	default:
		return false
	}
}

// RelatedRef referencia polimórfica del correo: Kind decide a qué entidad pertenece ID.
// Para MailNotification el ID apunta al usuario afectado (datos de licitante).
type RelatedRef struct {
	Kind MailType
	ID   string
}

// TenderRef construye una referencia a una licitación.
func TenderRef(id string) RelatedRef { return RelatedRef{Kind: MailTender, ID: id} }

// BidRef construye una referencia a una oferta.
func BidRef(id string) RelatedRef { return RelatedRef{Kind: MailBid, ID: id} }

// MessageRef construye una referencia a un mensaje.
func MessageRef(id string) RelatedRef { return RelatedRef{Kind: MailMessage, ID: id} }

// NotificationRef construye una referencia a un usuario.
func NotificationRef(userID string) RelatedRef { return RelatedRef{Kind: MailNotification, ID: userID} }

// Mail notificación en la bandeja de un usuario.
type Mail struct {
	ID          string
	SenderID    string
	RecipientID string
	Type        MailType
	Subject     string
	Content     string
	Related     RelatedRef
	Read        bool
	CreatedAt   time.Time
}
