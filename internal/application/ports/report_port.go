package ports

import (
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// BidReportRow fila del reporte de ofertas con el nombre del licitante ya resuelto.
type BidReportRow struct {
	Bid        *entity.Bid
	BidderName string
}

// ReportGenerator renderiza el reporte de ofertas de una licitación.
type ReportGenerator interface {
	GenerateBidReport(tender *entity.Tender, rows []BidReportRow) ([]byte, error)
}
