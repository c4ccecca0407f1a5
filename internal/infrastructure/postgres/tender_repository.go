package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

var _ repository.TenderRepository = (*TenderRepo)(nil)

// tenderSelect carga la fila junto con los tres conjuntos de usuarios.
const tenderSelect = `
	SELECT t.id, t.title, t.description, t.issue_date, t.closing_date, t.contact, t.other_requirements,
	       t.files, t.status, t.winning_bid_id, t.created_by, t.version, t.created_at, t.updated_at,
	       COALESCE((SELECT array_agg(user_id ORDER BY user_id) FROM tender_targeted_users WHERE tender_id = t.id), '{}'),
	       COALESCE((SELECT array_agg(user_id ORDER BY user_id) FROM tender_procurement_group WHERE tender_id = t.id), '{}'),
	       COALESCE((SELECT array_agg(user_id ORDER BY approved_at, user_id) FROM tender_approvals WHERE tender_id = t.id), '{}')
	FROM tenders t`

// TenderRepo implementación de TenderRepository (usable con pool o tx).
type TenderRepo struct {
	q Querier
}

// NewTenderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenderRepository(q Querier) *TenderRepo {
	return &TenderRepo{q: q}
}

// Create persiste la licitación con sus conjuntos.
func (r *TenderRepo) Create(ctx context.Context, t *entity.Tender) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO tenders (id, title, description, issue_date, closing_date, contact, other_requirements,
		                     files, status, winning_bid_id, created_by, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Title, t.Description, t.IssueDate, t.ClosingDate, t.Contact, t.OtherRequirements,
		nonNil(t.Files), t.Status, t.WinningBidID, t.CreatedBy, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tender: %w", err)
	}
	return r.replaceSets(ctx, t)
}

// GetByID obtiene la licitación; (nil, nil) si no existe.
func (r *TenderRepo) GetByID(ctx context.Context, id string) (*entity.Tender, error) {
	return r.findOne(ctx, tenderSelect+` WHERE t.id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
func (r *TenderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tender, error) {
	return r.findOne(ctx, tenderSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id)
}

// Update reemplaza campos y conjuntos; incrementa la versión.
func (r *TenderRepo) Update(ctx context.Context, t *entity.Tender) error {
	query := `
		UPDATE tenders
		SET title = $2, description = $3, issue_date = $4, closing_date = $5, contact = $6,
		    other_requirements = $7, files = $8, status = $9, winning_bid_id = $10,
		    version = version + 1, updated_at = $11
		WHERE id = $1
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		t.ID, t.Title, t.Description, t.IssueDate, t.ClosingDate, t.Contact, t.OtherRequirements,
		nonNil(t.Files), t.Status, t.WinningBidID, t.UpdatedAt,
	).Scan(&t.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update tender: %w", err)
	}
	return r.replaceSets(ctx, t)
}

// Delete borra la licitación; ofertas, conversaciones y versiones caen por ON DELETE CASCADE.
func (r *TenderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tenders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tender: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List licitaciones por fecha de cierre descendente.
func (r *TenderRepo) List(ctx context.Context, f repository.TenderFilter) ([]*entity.Tender, int, error) {
	where := `
		WHERE ($1 = '' OR EXISTS (SELECT 1 FROM tender_targeted_users tu WHERE tu.tender_id = t.id AND tu.user_id = $1))
		  AND ($2 = '' OR t.status = $2)`
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM tenders t`+where, f.VisibleTo, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tenders: %w", err)
	}
	rows, err := r.q.Query(ctx, tenderSelect+where+`
		ORDER BY t.closing_date DESC, t.id
		LIMIT $3 OFFSET $4`, f.VisibleTo, string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenders: %w", err)
	}
	defer rows.Close()

	var list []*entity.Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tender: %w", err)
		}
		list = append(list, t)
	}
	return list, total, rows.Err()
}

// AddApproval inserta con semántica de conjunto.
func (r *TenderRepo) AddApproval(ctx context.Context, tenderID, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO tender_approvals (tender_id, user_id, approved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (tender_id, user_id) DO NOTHING`, tenderID, userID)
	if err != nil {
		return false, fmt.Errorf("insert approval: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus cambia solo el estado.
func (r *TenderRepo) UpdateStatus(ctx context.Context, id string, status entity.TenderStatus, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE tenders SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update tender status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetWinningBid fija la oferta ganadora y pasa a Awarded en la misma sentencia.
func (r *TenderRepo) SetWinningBid(ctx context.Context, id, bidID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE tenders SET winning_bid_id = $2, status = $3, updated_at = $4 WHERE id = $1`,
		id, bidID, entity.TenderAwarded, at)
	if err != nil {
		return fmt.Errorf("set winning bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CloseExpired cierra en una sola sentencia; una segunda ejecución no encuentra filas.
func (r *TenderRepo) CloseExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE tenders SET status = $1, updated_at = $3
		WHERE status = $2 AND closing_date < $3
		RETURNING id`, entity.TenderClosed, entity.TenderOpen, now)
	if err != nil {
		return nil, fmt.Errorf("close expired tenders: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("close expired tenders: %w", err)
	}
	return ids, nil
}

// CreateVersion guarda la instantánea previa a una edición.
func (r *TenderRepo) CreateVersion(ctx context.Context, v *entity.TenderVersion) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO tender_versions (id, tender_id, version, change_reason, changed_by, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.TenderID, v.Version, v.ChangeReason, v.ChangedBy, string(v.Snapshot), v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("versión %d de %s: %w", v.Version, v.TenderID, domain.ErrConflict)
		}
		return fmt.Errorf("insert tender version: %w", err)
	}
	return nil
}

// ListVersions historial en orden de versión.
func (r *TenderRepo) ListVersions(ctx context.Context, tenderID string) ([]*entity.TenderVersion, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, tender_id, version, change_reason, changed_by, snapshot::text, created_at
		FROM tender_versions WHERE tender_id = $1 ORDER BY version`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("list tender versions: %w", err)
	}
	defer rows.Close()

	var list []*entity.TenderVersion
	for rows.Next() {
		var v entity.TenderVersion
		var snapshot string
		if err := rows.Scan(&v.ID, &v.TenderID, &v.Version, &v.ChangeReason, &v.ChangedBy, &snapshot, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tender version: %w", err)
		}
		v.Snapshot = []byte(snapshot)
		list = append(list, &v)
	}
	return list, rows.Err()
}

// replaceSets sincroniza invitados, grupo de compras y aprobaciones con el estado de t en un solo lote.
func (r *TenderRepo) replaceSets(ctx context.Context, t *entity.Tender) error {
	b := &pgx.Batch{}
	for _, table := range []string{"tender_targeted_users", "tender_procurement_group"} {
		b.Queue(`DELETE FROM `+table+` WHERE tender_id = $1`, t.ID)
	}
	b.Queue(`INSERT INTO tender_targeted_users (tender_id, user_id)
		SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`, t.ID, nonNil(t.TargetedUsers))
	b.Queue(`INSERT INTO tender_procurement_group (tender_id, user_id)
		SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`, t.ID, nonNil(t.ProcurementGroup))
	b.Queue(`DELETE FROM tender_approvals WHERE tender_id = $1 AND NOT (user_id = ANY($2::text[]))`,
		t.ID, nonNil(t.Approvals))
	b.Queue(`INSERT INTO tender_approvals (tender_id, user_id, approved_at)
		SELECT $1, unnest($2::text[]), now() ON CONFLICT DO NOTHING`, t.ID, nonNil(t.Approvals))

	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("replace tender sets: %w", err)
		}
	}
	return nil
}

func (r *TenderRepo) findOne(ctx context.Context, query string, id string) (*entity.Tender, error) {
	t, err := scanTender(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tender: %w", err)
	}
	return t, nil
}

func scanTender(row pgx.Row) (*entity.Tender, error) {
	var t entity.Tender
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.IssueDate, &t.ClosingDate, &t.Contact, &t.OtherRequirements,
		&t.Files, &t.Status, &t.WinningBidID, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt,
		&t.TargetedUsers, &t.ProcurementGroup, &t.Approvals,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
