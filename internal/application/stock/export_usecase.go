package stock

import (
	"fmt"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// ExportResult archivo listo para streaming al caller.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportUseCase exporta el historial completo (sin paginar) de un ítem en el
// formato pedido. Los exportadores se registran por nombre de formato.
type ExportUseCase struct {
	itemRepo  repository.ItemRepository
	entryRepo repository.LedgerEntryRepository
	exporters map[string]HistoryExporter
}

// NewExportUseCase construye el caso de uso con los exportadores disponibles.
func NewExportUseCase(
	itemRepo repository.ItemRepository,
	entryRepo repository.LedgerEntryRepository,
	exporters map[string]HistoryExporter,
) *ExportUseCase {
	return &ExportUseCase{itemRepo: itemRepo, entryRepo: entryRepo, exporters: exporters}
}

// Formats devuelve los formatos registrados (para mensajes de error).
func (uc *ExportUseCase) Formats() []string {
	out := make([]string, 0, len(uc.exporters))
	for f := range uc.exporters {
		out = append(out, f)
	}
	return out
}

// Export serializa el historial completo del ítem, siempre del más reciente
// al más antiguo e independiente de la vista paginada.
func (uc *ExportUseCase) Export(itemID, format string) (*ExportResult, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	exporter, ok := uc.exporters[format]
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	entries, err := uc.entryRepo.ListAllByItem(itemID)
	if err != nil {
		return nil, err
	}
	content, err := exporter.Render(item, entries)
	if err != nil {
		return nil, fmt.Errorf("exportar historial %s: %w", format, err)
	}
	name := item.SKU
	if name == "" {
		name = item.ID
	}
	return &ExportResult{
		FileName:    fmt.Sprintf("historial-%s.%s", name, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Content:     content,
	}, nil
}
