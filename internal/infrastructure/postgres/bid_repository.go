package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var _ repository.BidRepository = (*BidRepo)(nil)

const bidColumns = `id, tender_id, bidder_id, amount, content, files, status, submitted_at, updated_at`

// BidRepo implementación de BidRepository (usable con pool o tx).
type BidRepo struct {
	q Querier
}

// NewBidRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBidRepository(q Querier) *BidRepo {
	return &BidRepo{q: q}
}

// Create persiste la oferta. La unicidad (tender_id, bidder_id) la garantiza la BD.
func (r *BidRepo) Create(ctx context.Context, b *entity.Bid) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = entity.BidPending
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO bids (`+bidColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.TenderID, b.BidderID, b.Amount, b.Content, nonNil(b.Files), b.Status, b.SubmittedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("oferta de %s en %s: %w", b.BidderID, b.TenderID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

// GetByID obtiene la oferta con sus evaluaciones.
func (r *BidRepo) GetByID(ctx context.Context, id string) (*entity.Bid, error) {
	list, err := r.list(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListByTender ofertas de una licitación en orden de envío.
func (r *BidRepo) ListByTender(ctx context.Context, tenderID string) ([]*entity.Bid, error) {
	return r.list(ctx, `SELECT `+bidColumns+` FROM bids WHERE tender_id = $1 ORDER BY submitted_at, id`, tenderID)
}

// ListByBidder ofertas de un licitante en orden de envío.
func (r *BidRepo) ListByBidder(ctx context.Context, bidderID string) ([]*entity.Bid, error) {
	return r.list(ctx, `SELECT `+bidColumns+` FROM bids WHERE bidder_id = $1 ORDER BY submitted_at, id`, bidderID)
}

// AddEvaluation agrega una evaluación; nunca se modifican.
func (r *BidRepo) AddEvaluation(ctx context.Context, e *entity.Evaluation) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO bid_evaluations (id, bid_id, evaluator_id, score, feedback, files, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.BidID, e.EvaluatorID, e.Score, e.Feedback, nonNil(e.Files), e.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// SetAwardStatuses ganadora y perdedoras en una sola sentencia.
func (r *BidRepo) SetAwardStatuses(ctx context.Context, tenderID, winnerID string) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE bids
		SET status = CASE WHEN id = $2 THEN $3 ELSE $4 END, updated_at = now()
		WHERE tender_id = $1`,
		tenderID, winnerID, entity.BidWon, entity.BidLost)
	if err != nil {
		return 0, fmt.Errorf("set award statuses: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *BidRepo) list(ctx context.Context, query string, arg any) ([]*entity.Bid, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var list []*entity.Bid
	byID := make(map[string]*entity.Bid)
	for rows.Next() {
		var b entity.Bid
		if err := rows.Scan(&b.ID, &b.TenderID, &b.BidderID, &b.Amount, &b.Content, &b.Files, &b.Status,
			&b.SubmittedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		list = append(list, &b)
		byID[b.ID] = &b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	if err := r.loadEvaluations(ctx, byID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *BidRepo) loadEvaluations(ctx context.Context, byID map[string]*entity.Bid) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, bid_id, evaluator_id, score, feedback, files, evaluated_at
		FROM bid_evaluations WHERE bid_id = ANY($1::text[])
		ORDER BY evaluated_at, id`, ids)
	if err != nil {
		return fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.Evaluation
		if err := rows.Scan(&e.ID, &e.BidID, &e.EvaluatorID, &e.Score, &e.Feedback, &e.Files, &e.EvaluatedAt); err != nil {
			return fmt.Errorf("scan evaluation: %w", err)
		}
		if b, ok := byID[e.BidID]; ok {
			b.Evaluations = append(b.Evaluations, e)
		}
	}
	return rows.Err()
}
