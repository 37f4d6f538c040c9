package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

func sampleEntries() (*entity.Item, []*entity.LedgerEntry) {
	item := &entity.Item{ID: "item-1", SKU: "SKU-001", Name: "Tornillo M4"}
	locA := "loc-a"
	locB := "loc-b"
	cost := decimal.NewFromFloat(0.5)
	total := decimal.NewFromInt(100)
	comment := "compra inicial"
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	return item, []*entity.LedgerEntry{
		{
			ID: "e2", ItemID: "item-1", OperationType: entity.OperationMove,
			Quantity: 25, QuantityChange: 0, QuantityBefore: 200, QuantityAfter: 200,
			FromLocationID: &locA, ToLocationID: &locB,
			ActorID: "u1", ActorName: "Laura", CreatedAt: now.Add(time.Hour),
		},
		{
			ID: "e1", ItemID: "item-1", OperationType: entity.OperationAdd,
			Quantity: 200, QuantityChange: 200, QuantityBefore: 0, QuantityAfter: 200,
			ToLocationID: &locA, UnitCost: &cost, TotalCost: &total, Comment: &comment,
			ActorID: "u1", ActorName: "Laura", CreatedAt: now,
		},
	}
}

func TestCSVExporter_CabeceraYFilas(t *testing.T) {
	item, entries := sampleEntries()

	out, err := NewCSVExporter().Render(item, entries)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, headerColumns, rows[0])
	// Primera fila = entry más reciente (MOVE).
	assert.Equal(t, "MOVE", rows[1][1])
	assert.Equal(t, "25", rows[1][2])
	assert.Equal(t, "0", rows[1][3])
	assert.Equal(t, "loc-a", rows[1][6])
	assert.Equal(t, "loc-b", rows[1][7])
	// Segunda fila = ADD con costos.
	assert.Equal(t, "ADD", rows[2][1])
	assert.Equal(t, "0.5", rows[2][9])
	assert.Equal(t, "100", rows[2][10])
	assert.Equal(t, "compra inicial", rows[2][11])
}

func TestJSONExporter_MismoDTOQueElHistorial(t *testing.T) {
	item, entries := sampleEntries()

	out, err := NewJSONExporter().Render(item, entries)
	require.NoError(t, err)

	var got []dto.LedgerEntryResponse
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got, 2)

	// El export debe ser exactamente el mismo mapeo que la respuesta HTTP.
	assert.Equal(t, dto.NewLedgerEntryResponse(entries[0]).ID, got[0].ID)
	assert.Equal(t, dto.NewLedgerEntryResponse(entries[1]).QuantityChange, got[1].QuantityChange)
	assert.Equal(t, "MOVE", got[0].OperationType)
}

func TestJSONExporter_HistorialVacioEsArray(t *testing.T) {
	item := &entity.Item{ID: "item-1"}

	out, err := NewJSONExporter().Render(item, nil)
	require.NoError(t, err)

	assert.Equal(t, "[]", string(bytes.TrimSpace(out)))
}

func TestXLSXExporter_LibroLegible(t *testing.T) {
	item, entries := sampleEntries()

	out, err := NewXLSXExporter().Render(item, entries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Historial")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "fecha", rows[0][0])
	assert.Equal(t, "MOVE", rows[1][1])
	assert.Equal(t, "ADD", rows[2][1])
}
