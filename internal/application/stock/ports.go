package stock

import (
	"context"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios
// atados a esa transacción. Garantiza atomicidad: o la mutación del
// QuantityRecord y el append del LedgerEntry se confirman juntos, o ninguno
// es visible. Los locks de fila adquiridos dentro se liberan en Commit o
// Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		records repository.QuantityRecordRepository,
		entries repository.LedgerEntryRepository,
	) error) error
}

// HistoryExporter serializa el historial completo de un ítem a un formato
// descargable (CSV, XLSX, JSON, PDF).
type HistoryExporter interface {
	// ContentType devuelve el MIME type del formato.
	ContentType() string
	// Extension devuelve la extensión de archivo sin punto (csv, xlsx...).
	Extension() string
	// Render serializa el historial; entries llega del más reciente al más antiguo.
	Render(item *entity.Item, entries []*entity.LedgerEntry) ([]byte, error)
}
