package stock

import (
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// Valores por defecto de la vista paginada.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var sortKeys = map[string]bool{
	repository.SortByTimestamp:      true,
	repository.SortByQuantityChange: true,
	repository.SortByOperationType:  true,
	repository.SortByActorName:      true,
}

// HistoryUseCase consultas de solo lectura sobre el historial y las
// posiciones actuales de un ítem.
type HistoryUseCase struct {
	itemRepo   repository.ItemRepository
	entryRepo  repository.LedgerEntryRepository
	recordRepo repository.QuantityRecordRepository
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(
	itemRepo repository.ItemRepository,
	entryRepo repository.LedgerEntryRepository,
	recordRepo repository.QuantityRecordRepository,
) *HistoryUseCase {
	return &HistoryUseCase{itemRepo: itemRepo, entryRepo: entryRepo, recordRepo: recordRepo}
}

// Query devuelve una página del historial del ítem. Defaults: página 1,
// 10 entries, timestamp descendente. sort_by fuera de la whitelist es error
// de validación.
func (uc *HistoryUseCase) Query(itemID string, q dto.HistoryQuery) (*dto.StockHistoryResponse, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = repository.SortByTimestamp
	}
	if !sortKeys[q.SortBy] {
		return nil, domain.ErrInvalidInput
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = "desc"
	case "asc", "desc":
	default:
		return nil, domain.ErrInvalidInput
	}

	total, err := uc.entryRepo.CountByItem(itemID)
	if err != nil {
		return nil, err
	}
	offset := (q.Page - 1) * q.PageSize
	entries, err := uc.entryRepo.ListByItem(itemID, q.SortBy, q.SortOrder, q.PageSize, offset)
	if err != nil {
		return nil, err
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.NewLedgerEntryResponse(e))
	}
	return &dto.StockHistoryResponse{
		Entries:    items,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       q.Page,
		PageSize:   q.PageSize,
		HasNext:    q.Page < totalPages,
	}, nil
}

// Levels devuelve las posiciones actuales del ítem por ubicación.
func (uc *HistoryUseCase) Levels(itemID string) ([]dto.StockLevelResponse, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	records, err := uc.recordRepo.ListByItem(itemID)
	if err != nil {
		return nil, err
	}
	levels := make([]dto.StockLevelResponse, 0, len(records))
	for _, r := range records {
		levels = append(levels, dto.StockLevelResponse{
			LocationID:     r.LocationID,
			QuantityOnHand: r.QuantityOnHand,
			UnitCost:       r.UnitCost,
			LotID:          r.LotID,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return levels, nil
}
