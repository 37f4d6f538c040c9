package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

var _ stock.HistoryExporter = (*XLSXExporter)(nil)

// XLSXExporter serializa el historial como libro de Excel con una hoja por
// ítem (cabecera en negrita, una fila por entry).
type XLSXExporter struct{}

// NewXLSXExporter construye el exportador.
func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render genera el libro en memoria.
func (e *XLSXExporter) Render(item *entity.Item, entries []*entity.LedgerEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Historial"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: crear estilo: %w", err)
	}

	for i, col := range headerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("xlsx: coordenada cabecera: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, fmt.Errorf("xlsx: escribir cabecera: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("xlsx: aplicar estilo: %w", err)
		}
	}

	for rowIdx, entry := range entries {
		for colIdx, val := range entryCells(entry) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("xlsx: coordenada fila: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("xlsx: escribir celda: %w", err)
			}
		}
	}

	if item != nil {
		title := item.Name
		if title == "" {
			title = item.ID
		}
		f.SetDocProps(&excelize.DocProperties{Title: "Historial de " + title})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: serializar libro: %w", err)
	}
	return buf.Bytes(), nil
}
