package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/application/report"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/testutil/memstore"
)

type fakeReader struct {
	tender *entity.Tender
	bids   []*entity.Bid
	err    error
}

func (f *fakeReader) Load(context.Context, dto.Actor, string) (*entity.Tender, error) {
	return f.tender, nil
}

func (f *fakeReader) VisibleBids(context.Context, dto.Actor, string) ([]*entity.Bid, error) {
	return f.bids, f.err
}

type fakeGen struct {
	rows []ports.BidReportRow
	err  error
}

func (g *fakeGen) GenerateBidReport(_ *entity.Tender, rows []ports.BidReportRow) ([]byte, error) {
	g.rows = rows
	return []byte("%PDF"), g.err
}

var admin = dto.Actor{UserID: "admin", Role: entity.RoleAdmin}

func TestTenderBidReport(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.Users().Create(context.Background(), &entity.User{ID: "X", Username: "Proveedor X", Email: "x@x.com", Phone: "1"}))
	reader := &fakeReader{
		tender: &entity.Tender{ID: "t1", Title: "Papelería", Status: entity.TenderAwarded},
		bids: []*entity.Bid{
			{ID: "b1", TenderID: "t1", BidderID: "X", Amount: decimal.NewFromInt(100), SubmittedAt: time.Now()},
			{ID: "b2", TenderID: "t1", BidderID: "borrado", Amount: decimal.NewFromInt(90), SubmittedAt: time.Now()},
		},
	}
	gen := &fakeGen{}
	uc := report.NewUseCase(reader, s.Users(), gen)

	pdf, err := uc.TenderBidReport(context.Background(), admin, "t1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
	require.Len(t, gen.rows, 2)
	assert.Equal(t, "Proveedor X", gen.rows[0].BidderName)
	assert.Equal(t, "borrado", gen.rows[1].BidderName)
}

func TestTenderBidReport_Errores(t *testing.T) {
	s := memstore.New()
	reader := &fakeReader{tender: &entity.Tender{ID: "t1"}, err: domain.ErrForbidden}
	uc := report.NewUseCase(reader, s.Users(), &fakeGen{})
	_, err := uc.TenderBidReport(context.Background(), admin, "t1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	reader.err = nil
	uc = report.NewUseCase(reader, s.Users(), &fakeGen{err: errors.New("fuente")})
	_, err = uc.TenderBidReport(context.Background(), admin, "t1")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
