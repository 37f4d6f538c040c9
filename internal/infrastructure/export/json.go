package export

import (
	"encoding/json"
	"fmt"

	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

var _ stock.HistoryExporter = (*JSONExporter)(nil)

// JSONExporter serializa el historial con los mismos DTOs que la respuesta
// HTTP paginada, de modo que ambas representaciones son comparables campo a
// campo.
type JSONExporter struct{}

// NewJSONExporter construye el exportador.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

func (e *JSONExporter) ContentType() string { return "application/json" }
func (e *JSONExporter) Extension() string   { return "json" }

// Render serializa un array de entries (puede ser vacío, nunca null).
func (e *JSONExporter) Render(_ *entity.Item, entries []*entity.LedgerEntry) ([]byte, error) {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.NewLedgerEntryResponse(entry))
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json: serializar historial: %w", err)
	}
	return b, nil
}
