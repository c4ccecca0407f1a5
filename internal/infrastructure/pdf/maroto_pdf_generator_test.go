package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.500,50", formatAmount(decimal.RequireFromString("1500.5")))
	assert.Equal(t, "999,00", formatAmount(decimal.NewFromInt(999)))
	assert.Equal(t, "1.000.000,00", formatAmount(decimal.NewFromInt(1000000)))
	assert.Equal(t, "-25.000,10", formatAmount(decimal.RequireFromString("-25000.1")))
}

func TestGenerateBidReport(t *testing.T) {
	winner := "b2"
	tender := &entity.Tender{
		ID: "t1", Title: "Papelería 2026", Status: entity.TenderAwarded, WinningBidID: &winner,
		IssueDate: time.Now().Add(-48 * time.Hour), ClosingDate: time.Now().Add(-time.Hour),
		Contact: entity.Contact{Name: "Compras"},
	}
	rows := []ports.BidReportRow{
		{BidderName: "Proveedor X", Bid: &entity.Bid{ID: "b1", Amount: decimal.NewFromInt(1500), Status: entity.BidLost,
			Evaluations: []entity.Evaluation{{Score: 80}, {Score: 70}}, SubmittedAt: time.Now()}},
		{BidderName: "Proveedor Y", Bid: &entity.Bid{ID: "b2", Amount: decimal.NewFromInt(1400), Status: entity.BidWon,
			SubmittedAt: time.Now()}},
	}

	out, err := NewMarotoPDFGenerator().GenerateBidReport(tender, rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := NewMarotoPDFGenerator().GenerateBidReport(&entity.Tender{ID: "t2", Title: "Vacía"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}
