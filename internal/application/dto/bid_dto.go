package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitBidRequest entrada de una oferta. Amount viaja como string para no perder precisión.
type SubmitBidRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	Content string          `json:"content"`
}

// AddEvaluationRequest evaluación de una oferta; Score entre 1 y 100.
type AddEvaluationRequest struct {
	Score    int    `json:"score" validate:"required,min=1,max=100"`
	Feedback string `json:"feedback"`
}

// EvaluationResponse salida de una evaluación.
type EvaluationResponse struct {
	ID          string         `json:"id"`
	EvaluatorID string         `json:"evaluator_id"`
	Score       int            `json:"score"`
	Feedback    string         `json:"feedback"`
	Files       []FileResponse `json:"files"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
}

// BidResponse salida de una oferta.
type BidResponse struct {
	ID           string               `json:"id"`
	TenderID     string               `json:"tender_id"`
	BidderID     string               `json:"bidder_id"`
	Amount       decimal.Decimal      `json:"amount"`
	Content      string               `json:"content"`
	Files        []FileResponse       `json:"files"`
	Status       string               `json:"status"`
	Evaluations  []EvaluationResponse `json:"evaluations"`
	AverageScore decimal.Decimal      `json:"average_score"`
	SubmittedAt  time.Time            `json:"submitted_at"`
}
