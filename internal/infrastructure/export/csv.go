package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

var _ stock.HistoryExporter = (*CSVExporter)(nil)

// CSVExporter serializa el historial como CSV con cabecera.
type CSVExporter struct{}

// NewCSVExporter construye el exportador.
func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }
func (e *CSVExporter) Extension() string   { return "csv" }

// Render escribe cabecera + una fila por entry.
func (e *CSVExporter) Render(_ *entity.Item, entries []*entity.LedgerEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headerColumns); err != nil {
		return nil, fmt.Errorf("csv: escribir cabecera: %w", err)
	}
	for _, entry := range entries {
		if err := w.Write(entryCells(entry)); err != nil {
			return nil, fmt.Errorf("csv: escribir fila: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}
