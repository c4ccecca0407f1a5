package dto

import "time"

// PostMessageRequest mensaje en una licitación. TendererID es obligatorio para roles privilegiados.
type PostMessageRequest struct {
	Content    string `json:"content" validate:"required"`
	TendererID string `json:"tenderer_id,omitempty"`
}

// ConversationResponse hilo (licitación, licitante).
type ConversationResponse struct {
	ID          string    `json:"id"`
	TenderID    string    `json:"tender_id"`
	TendererID  string    `json:"tenderer_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// MessageResponse salida de un mensaje.
type MessageResponse struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	SenderID       string         `json:"sender_id"`
	Content        string         `json:"content"`
	Files          []FileResponse `json:"files"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PostMessageResponse mensaje creado y el hilo donde quedó.
type PostMessageResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Message      MessageResponse      `json:"message"`
}
