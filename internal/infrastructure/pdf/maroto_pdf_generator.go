// Package pdf genera el reporte de ofertas de una licitación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título de la licitación  │  Estado + Fecha reporte │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Emisión / Cierre / Contacto                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Oferente | Fecha | Monto | Estado | Eval. | Promedio │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Ofertas / Menor monto / Ganadora                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

var _ ports.ReportGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWin     = &props.Color{Red: 0, Green: 120, Blue: 60}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.ReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	now func() time.Time
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{now: time.Now} }

// GenerateBidReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateBidReport(tender *entity.Tender, rows []ports.BidReportRow) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de ofertas", true).
		WithSubject(tender.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(tender, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tenderInfoRow(tender))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(rows) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin ofertas registradas.", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	for _, r := range tableDetailRows(tender, rows) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(tender, rows))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(t *entity.Tender, now time.Time) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(t.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("ID: "+t.ID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("REPORTE DE OFERTAS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(string(t.Status), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 7,
			}),
			text.New("Generado: "+now.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func tenderInfoRow(t *entity.Tender) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Emisión: %s   |   Cierre: %s",
				t.IssueDate.Format("02/01/2006"), t.ClosingDate.Format("02/01/2006 15:04"),
			), props.Text{Size: 8, Top: 1}),
			text.New(fmt.Sprintf("Contacto: %s   |   %s   |   %s",
				nonEmpty(t.Contact.Name, "—"),
				nonEmpty(t.Contact.Email, "—"),
				nonEmpty(t.Contact.Phone, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Oferente", 4, align.Left),
		h("Fecha", 2, align.Center),
		h("Monto", 2, align.Right),
		h("Estado", 1, align.Center),
		h("Eval.", 1, align.Center),
		h("Promedio", 2, align.Right),
	)
}

// tableDetailRows una fila por oferta; la ganadora en verde.
func tableDetailRows(t *entity.Tender, rows []ports.BidReportRow) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		b := r.Bid
		style := props.Text{Size: 8, Top: 1}
		if t.WinningBidID != nil && *t.WinningBidID == b.ID {
			style.Style = fontstyle.Bold
			style.Color = colorWin
		}
		cell := func(s string, size int, a align.Type) core.Col {
			p := style
			p.Align = a
			p.Left, p.Right = 1, 1
			return col.New(size).Add(text.New(s, p))
		}
		avg := "—"
		if len(b.Evaluations) > 0 {
			avg = b.AverageScore().StringFixed(1)
		}
		result = append(result, row.New(7).Add(
			cell(r.BidderName, 4, align.Left),
			cell(b.SubmittedAt.Format("02/01/2006"), 2, align.Center),
			cell("$"+formatAmount(b.Amount), 2, align.Right),
			cell(string(b.Status), 1, align.Center),
			cell(fmt.Sprintf("%d", len(b.Evaluations)), 1, align.Center),
			cell(avg, 2, align.Right),
		))
	}
	return result
}

func summaryRow(t *entity.Tender, rows []ports.BidReportRow) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}

	lowest := "—"
	winner := "—"
	var minAmount *decimal.Decimal
	for _, r := range rows {
		if minAmount == nil || r.Bid.Amount.LessThan(*minAmount) {
			a := r.Bid.Amount
			minAmount = &a
		}
		if t.WinningBidID != nil && *t.WinningBidID == r.Bid.ID {
			winner = r.BidderName
		}
	}
	if minAmount != nil {
		lowest = "$" + formatAmount(*minAmount)
	}

	return row.New(20).Add(
		col.New(4),
		col.New(4).Add(
			label("Ofertas:"),
			label("Menor monto:"),
			label("Ganadora:"),
		),
		col.New(4).Add(
			value(fmt.Sprintf("%d", len(rows))),
			value(lowest),
			value(winner),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount monto con separador de miles y dos decimales. Ej: 1500.5 → "1.500,50"
func formatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	out := formatMoney(intPart) + "," + frac
	if d.IsNegative() {
		return "-" + out
	}
	return out
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
