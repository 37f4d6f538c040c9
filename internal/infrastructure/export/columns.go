// Package export serializa el historial de un ítem a formatos tabulares
// (CSV, XLSX) y a JSON. Todos los formatos comparten el mismo orden de
// columnas y el mismo orden de filas (del más reciente al más antiguo).
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// Cabecera común de los formatos tabulares.
var headerColumns = []string{
	"fecha", "operacion", "cantidad", "cambio", "total_antes", "total_despues",
	"desde", "hacia", "lote", "costo_unitario", "costo_total", "comentario", "actor",
}

// entryCells aplana un entry en el mismo orden que headerColumns.
func entryCells(e *entity.LedgerEntry) []string {
	return []string{
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.OperationType,
		formatInt(e.Quantity),
		formatInt(e.QuantityChange),
		formatInt(e.QuantityBefore),
		formatInt(e.QuantityAfter),
		strOrEmpty(e.FromLocationID),
		strOrEmpty(e.ToLocationID),
		strOrEmpty(e.LotID),
		decOrEmpty(e.UnitCost),
		decOrEmpty(e.TotalCost),
		strOrEmpty(e.Comment),
		e.ActorName,
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func decOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func formatInt(n int64) string {
	return decimal.NewFromInt(n).String()
}
