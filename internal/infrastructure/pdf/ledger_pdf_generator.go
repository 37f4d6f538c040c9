// Package pdf genera la representación imprimible del historial de stock de
// un ítem.
//
// Layout de la página A4 apaisada:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre del ítem + SKU  │  Fecha de generación      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Op | Cant | Cambio | Antes | Después |      │
//	│         Desde | Hacia | Costo U. | Actor                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: total de movimientos + leyenda de inmutabilidad    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ stock.HistoryExporter = (*LedgerPDFGenerator)(nil)

// LedgerPDFGenerator implementa stock.HistoryExporter usando Maroto v2.
type LedgerPDFGenerator struct{}

// NewLedgerPDFGenerator construye el generador.
func NewLedgerPDFGenerator() *LedgerPDFGenerator { return &LedgerPDFGenerator{} }

func (g *LedgerPDFGenerator) ContentType() string { return "application/pdf" }
func (g *LedgerPDFGenerator) Extension() string   { return "pdf" }

// Render genera el PDF y devuelve sus bytes.
func (g *LedgerPDFGenerator) Render(item *entity.Item, entries []*entity.LedgerEntry) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Historial de stock", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(item))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableEntryRows(entries) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(len(entries)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre + SKU (izq) y fecha de generación (der).
func headerRow(item *entity.Item) core.Row {
	name := item.Name
	if name == "" {
		name = item.ID
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("SKU: "+nonEmpty(item.SKU, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("HISTORIAL DE STOCK", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+time.Now().UTC().Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Op.", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("Cambio", 1, align.Right),
		h("Antes", 1, align.Right),
		h("Después", 1, align.Right),
		h("Desde", 1, align.Left),
		h("Hacia", 1, align.Left),
		h("Costo U.", 1, align.Right),
		h("Actor", 2, align.Left),
	)
}

// tableEntryRows: una fila por movimiento, del más reciente al más antiguo.
func tableEntryRows(entries []*entity.LedgerEntry) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{
			Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1,
		}))
	}
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		result = append(result, row.New(6).Add(
			cell(e.CreatedAt.UTC().Format("02/01/2006 15:04:05"), 2, align.Left),
			cell(e.OperationType, 1, align.Center),
			cell(fmt.Sprintf("%d", e.Quantity), 1, align.Right),
			cell(fmt.Sprintf("%+d", e.QuantityChange), 1, align.Right),
			cell(fmt.Sprintf("%d", e.QuantityBefore), 1, align.Right),
			cell(fmt.Sprintf("%d", e.QuantityAfter), 1, align.Right),
			cell(derefOr(e.FromLocationID, "—"), 1, align.Left),
			cell(derefOr(e.ToLocationID, "—"), 1, align.Left),
			cell(costOr(e.UnitCost, "—"), 1, align.Right),
			cell(e.ActorName, 2, align.Left),
		))
	}
	return result
}

// footerRow: total de movimientos + leyenda.
func footerRow(total int) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Total de movimientos: %d", total), props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 1,
			}),
			text.New(
				"Este historial es inmutable: cada movimiento se registró en la misma "+
					"transacción que el cambio de stock y no admite edición posterior.",
				props.Text{Size: 6.5, Color: colorGray, Top: 6},
			),
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

func derefOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

func costOr(d *decimal.Decimal, fallback string) string {
	if d == nil {
		return fallback
	}
	return "$" + d.StringFixed(4)
}
