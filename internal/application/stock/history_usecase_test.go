package stock_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/export"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
)

// newHistoryEngine siembra un motor y ejecuta n Add de una unidad, de modo que
// el historial queda con n entries de timestamps crecientes.
func newHistoryEngine(t *testing.T, n int) (*memory.Store, *stock.HistoryUseCase) {
	t.Helper()
	store, uc := newEngine(t, time.Second)
	for i := 0; i < n; i++ {
		mustAdd(t, uc, locA, 1, nil)
		// El orden secundario desempata por ID; separar timestamps evita
		// depender de eso en los asserts.
		time.Sleep(2 * time.Millisecond)
	}
	history := stock.NewHistoryUseCase(
		store.ItemRepository(),
		store.LedgerEntryRepository(),
		store.QuantityRecordRepository(),
	)
	return store, history
}

func TestHistory_DefaultsYPaginacion(t *testing.T) {
	_, history := newHistoryEngine(t, 25)

	// Sin parámetros: página 1, 10 entries, timestamp descendente.
	page1, err := history.Query(itemID, dto.HistoryQuery{})
	require.NoError(t, err)
	assert.Len(t, page1.Entries, 10)
	assert.Equal(t, 25, page1.TotalCount)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, 1, page1.Page)
	assert.True(t, page1.HasNext)

	// El primer entry es el más reciente.
	assert.True(t, page1.Entries[0].CreatedAt.After(page1.Entries[9].CreatedAt))

	page3, err := history.Query(itemID, dto.HistoryQuery{Page: 3})
	require.NoError(t, err)
	assert.Len(t, page3.Entries, 5)
	assert.False(t, page3.HasNext)

	// Página más allá del final: vacía, no error.
	page9, err := history.Query(itemID, dto.HistoryQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page9.Entries)
	assert.Equal(t, 25, page9.TotalCount)
}

func TestHistory_OrdenAscendente(t *testing.T) {
	_, history := newHistoryEngine(t, 5)

	result, err := history.Query(itemID, dto.HistoryQuery{
		SortBy:    repository.SortByTimestamp,
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 5)
	assert.True(t, result.Entries[0].CreatedAt.Before(result.Entries[4].CreatedAt))
}

func TestHistory_SortPorCambioDeCantidad(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 100, nil)
	_, err := uc.Remove(context.Background(), actor, stock.RemoveInput{
		ItemID: itemID, LocationID: locA, Quantity: 30,
	})
	require.NoError(t, err)

	history := stock.NewHistoryUseCase(
		store.ItemRepository(),
		store.LedgerEntryRepository(),
		store.QuantityRecordRepository(),
	)
	result, err := history.Query(itemID, dto.HistoryQuery{
		SortBy:    repository.SortByQuantityChange,
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, int64(-30), result.Entries[0].QuantityChange)
	assert.Equal(t, int64(100), result.Entries[1].QuantityChange)
}

func TestHistory_SortFueraDeWhitelist(t *testing.T) {
	_, history := newHistoryEngine(t, 1)

	_, err := history.Query(itemID, dto.HistoryQuery{SortBy: "actor_id; DROP TABLE"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = history.Query(itemID, dto.HistoryQuery{SortOrder: "sideways"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistory_PageSizeSeAcota(t *testing.T) {
	_, history := newHistoryEngine(t, 3)

	result, err := history.Query(itemID, dto.HistoryQuery{PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, stock.MaxPageSize, result.PageSize)
}

func TestHistory_ItemInexistente(t *testing.T) {
	_, history := newHistoryEngine(t, 0)

	_, err := history.Query("fantasma", dto.HistoryQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLevels_PosicionesPorUbicacion(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 10, dec("1.50"))
	mustAdd(t, uc, locB, 20, nil)

	history := stock.NewHistoryUseCase(
		store.ItemRepository(),
		store.LedgerEntryRepository(),
		store.QuantityRecordRepository(),
	)
	levels, err := history.Levels(itemID)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, locA, levels[0].LocationID)
	assert.Equal(t, int64(10), levels[0].QuantityOnHand)
	assert.Equal(t, locB, levels[1].LocationID)
	assert.Equal(t, int64(20), levels[1].QuantityOnHand)
}

// ──────────────────────────────────────────────────────────────────────────────
// Export
// ──────────────────────────────────────────────────────────────────────────────

func newExportEngine(t *testing.T, store *memory.Store) *stock.ExportUseCase {
	t.Helper()
	return stock.NewExportUseCase(
		store.ItemRepository(),
		store.LedgerEntryRepository(),
		map[string]stock.HistoryExporter{
			"csv":  export.NewCSVExporter(),
			"json": export.NewJSONExporter(),
		},
	)
}

// El export JSON y la vista paginada deben describir exactamente los mismos
// entries con los mismos campos.
func TestExport_JSONCoincideConElHistorial(t *testing.T) {
	store, history := newHistoryEngine(t, 5)
	exportUC := newExportEngine(t, store)

	result, err := exportUC.Export(itemID, "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.ContentType)
	assert.Equal(t, "historial-SKU-001.json", result.FileName)

	var exported []dto.LedgerEntryResponse
	require.NoError(t, json.Unmarshal(result.Content, &exported))

	paged, err := history.Query(itemID, dto.HistoryQuery{PageSize: 100})
	require.NoError(t, err)

	require.Equal(t, len(paged.Entries), len(exported))
	for i := range exported {
		assert.Equal(t, paged.Entries[i].ID, exported[i].ID)
		assert.Equal(t, paged.Entries[i].QuantityAfter, exported[i].QuantityAfter)
	}
}

func TestExport_FormatoDesconocido(t *testing.T) {
	store, _ := newHistoryEngine(t, 1)
	exportUC := newExportEngine(t, store)

	_, err := exportUC.Export(itemID, "toml")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExport_ItemInexistente(t *testing.T) {
	store, _ := newHistoryEngine(t, 0)
	exportUC := newExportEngine(t, store)

	_, err := exportUC.Export("fantasma", "csv")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
