package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var _ repository.TendererDetailsRepository = (*TendererDetailsRepo)(nil)

// TendererDetailsRepo datos empresariales del licitante. Archivos y comentarios viven en columnas JSONB.
type TendererDetailsRepo struct {
	q Querier
}

// NewTendererDetailsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTendererDetailsRepository(q Querier) *TendererDetailsRepo {
	return &TendererDetailsRepo{q: q}
}

// Upsert no toca verified ni comments, que solo cambian por SetVerified y AddComment.
func (r *TendererDetailsRepo) Upsert(ctx context.Context, d *entity.TendererDetails) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tenderer_details (user_id, business_license, business_type, legal_representative,
		    established_on, country, office_address, legal_rep_business_card, unified_social_credit_code,
		    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
		    business_license           = EXCLUDED.business_license,
		    business_type              = EXCLUDED.business_type,
		    legal_representative       = EXCLUDED.legal_representative,
		    established_on             = EXCLUDED.established_on,
		    country                    = EXCLUDED.country,
		    office_address             = EXCLUDED.office_address,
		    legal_rep_business_card    = EXCLUDED.legal_rep_business_card,
		    unified_social_credit_code = EXCLUDED.unified_social_credit_code,
		    updated_at                 = EXCLUDED.updated_at`,
		d.UserID, d.BusinessLicense, d.BusinessType, d.LegalRepresentative, d.EstablishedOn, d.Country,
		d.OfficeAddress, d.LegalRepBusinessCard, d.UnifiedSocialCreditCode, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert tenderer details: %w", err)
	}
	return nil
}

// GetByUserID (nil, nil) si el licitante aún no cargó datos.
func (r *TendererDetailsRepo) GetByUserID(ctx context.Context, userID string) (*entity.TendererDetails, error) {
	var d entity.TendererDetails
	err := r.q.QueryRow(ctx, `
		SELECT user_id, business_license, business_type, legal_representative, established_on, country,
		       office_address, legal_rep_business_card, unified_social_credit_code, verified, comments,
		       created_at, updated_at
		FROM tenderer_details WHERE user_id = $1`, userID,
	).Scan(&d.UserID, &d.BusinessLicense, &d.BusinessType, &d.LegalRepresentative, &d.EstablishedOn, &d.Country,
		&d.OfficeAddress, &d.LegalRepBusinessCard, &d.UnifiedSocialCreditCode, &d.Verified, &d.Comments,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenderer details: %w", err)
	}
	return &d, nil
}

// SetVerified marca de verificación.
func (r *TendererDetailsRepo) SetVerified(ctx context.Context, userID string, verified bool, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE tenderer_details SET verified = $2, updated_at = $3 WHERE user_id = $1`, userID, verified, at)
	if err != nil {
		return fmt.Errorf("set tenderer verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddComment agrega al final del arreglo JSONB sin leerlo antes.
func (r *TendererDetailsRepo) AddComment(ctx context.Context, userID string, c entity.TendererComment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE tenderer_details
		SET comments = comments || jsonb_build_array($2::jsonb), updated_at = $3
		WHERE user_id = $1`, userID, c, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("add tenderer comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
