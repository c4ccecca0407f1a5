package entity

import "time"

// Conversation hilo de mensajes para un par (licitación, licitante).
type Conversation struct {
	ID          string
	TenderID    string
	TendererID  string
	CreatedAt   time.Time
	LastUpdated time.Time
}

// Message mensaje inmutable dentro de una conversación.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	Files          []FileDescriptor
	CreatedAt      time.Time
}
