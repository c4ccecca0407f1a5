// Package report arma reportes descargables sobre licitaciones.
package report

import (
	"context"
	"fmt"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// TenderReader lectura de licitaciones y ofertas con las mismas reglas de visibilidad que la API.
type TenderReader interface {
	Load(ctx context.Context, actor dto.Actor, id string) (*entity.Tender, error)
	VisibleBids(ctx context.Context, actor dto.Actor, tenderID string) ([]*entity.Bid, error)
}

// UseCase reporte PDF de ofertas de una licitación.
type UseCase struct {
	tenders TenderReader
	users   repository.UserRepository
	gen     ports.ReportGenerator
}

// NewUseCase construye el caso de uso.
func NewUseCase(tenders TenderReader, users repository.UserRepository, gen ports.ReportGenerator) *UseCase {
	return &UseCase{tenders: tenders, users: users, gen: gen}
}

// TenderBidReport PDF con las ofertas visibles. Aplica el mismo control que ListBids.
func (uc *UseCase) TenderBidReport(ctx context.Context, actor dto.Actor, tenderID string) ([]byte, error) {
	t, err := uc.tenders.Load(ctx, actor, tenderID)
	if err != nil {
		return nil, err
	}
	bids, err := uc.tenders.VisibleBids(ctx, actor, tenderID)
	if err != nil {
		return nil, err
	}
	rows := make([]ports.BidReportRow, 0, len(bids))
	names := make(map[string]string, len(bids))
	for _, b := range bids {
		name, ok := names[b.BidderID]
		if !ok {
			u, err := uc.users.GetByID(ctx, b.BidderID)
			if err != nil {
				return nil, fmt.Errorf("leer oferente: %w: %w", domain.ErrUpstream, err)
			}
			name = b.BidderID
			if u != nil {
				name = u.DisplayName()
			}
			names[b.BidderID] = name
		}
		rows = append(rows, ports.BidReportRow{Bid: b, BidderName: name})
	}
	pdf, err := uc.gen.GenerateBidReport(t, rows)
	if err != nil {
		return nil, fmt.Errorf("generar reporte: %w: %w", domain.ErrUpstream, err)
	}
	return pdf, nil
}
