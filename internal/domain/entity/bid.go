package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus estado de una oferta, independiente del estado de la licitación.
type BidStatus string

const (
	BidPending BidStatus = "pending"
	BidWon     BidStatus = "won"
	BidLost    BidStatus = "lost"
)

// Bid oferta de un licitante sobre exactamente una licitación.
type Bid struct {
	ID          string
	TenderID    string
	BidderID    string
	Amount      decimal.Decimal
	Content     string
	Files       []FileDescriptor
	Status      BidStatus
	Evaluations []Evaluation // orden de creación
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// Evaluation evaluación de una oferta. Solo se agregan, nunca se modifican.
type Evaluation struct {
	ID          string
	BidID       string
	EvaluatorID string
	Score       int
	Feedback    string
	Files       []FileDescriptor
	EvaluatedAt time.Time
}

// AverageScore promedio de las evaluaciones; cero si no hay ninguna.
func (b *Bid) AverageScore() decimal.Decimal {
	if len(b.Evaluations) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, e := range b.Evaluations {
		total = total.Add(decimal.NewFromInt(int64(e.Score)))
	}
	return total.Div(decimal.NewFromInt(int64(len(b.Evaluations))))
}
