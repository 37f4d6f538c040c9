package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// AddStockRequest body para POST /api/stock/add.
// unit_price y total_price son mutuamente excluyentes; el que falte se deriva.
type AddStockRequest struct {
	ItemID     string           `json:"item_id"`
	LocationID string           `json:"location_id"`
	Quantity   int64            `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
	LotID      *string          `json:"lot_id,omitempty"`
	Comment    *string          `json:"comment,omitempty"`
}

// RemoveStockRequest body para POST /api/stock/remove.
type RemoveStockRequest struct {
	ItemID     string  `json:"item_id"`
	LocationID string  `json:"location_id"`
	Quantity   int64   `json:"quantity"`
	Comment    *string `json:"comment,omitempty"`
}

// MoveStockRequest body para POST /api/stock/move.
type MoveStockRequest struct {
	ItemID         string  `json:"item_id"`
	FromLocationID string  `json:"from_location_id"`
	ToLocationID   string  `json:"to_location_id"`
	Quantity       int64   `json:"quantity"`
	Comment        *string `json:"comment,omitempty"`
}

// LedgerEntryResponse representación externa de un entry del historial.
type LedgerEntryResponse struct {
	ID             string           `json:"id"`
	ItemID         string           `json:"item_id"`
	OperationType  string           `json:"operation_type"`
	Quantity       int64            `json:"quantity"`
	QuantityChange int64            `json:"quantity_change"`
	QuantityBefore int64            `json:"quantity_before"`
	QuantityAfter  int64            `json:"quantity_after"`
	FromLocationID *string          `json:"from_location_id,omitempty"`
	ToLocationID   *string          `json:"to_location_id,omitempty"`
	LotID          *string          `json:"lot_id,omitempty"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost      *decimal.Decimal `json:"total_cost,omitempty"`
	Comment        *string          `json:"comment,omitempty"`
	ActorID        string           `json:"actor_id"`
	ActorName      string           `json:"actor_name"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewLedgerEntryResponse mapea la entidad al DTO. Lo usan tanto las
// respuestas HTTP como el export JSON, para que ambos sean comparables.
func NewLedgerEntryResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		ItemID:         e.ItemID,
		OperationType:  e.OperationType,
		Quantity:       e.Quantity,
		QuantityChange: e.QuantityChange,
		QuantityBefore: e.QuantityBefore,
		QuantityAfter:  e.QuantityAfter,
		FromLocationID: e.FromLocationID,
		ToLocationID:   e.ToLocationID,
		LotID:          e.LotID,
		UnitCost:       e.UnitCost,
		TotalCost:      e.TotalCost,
		Comment:        e.Comment,
		ActorID:        e.ActorID,
		ActorName:      e.ActorName,
		CreatedAt:      e.CreatedAt,
	}
}

// AddStockResponse respuesta de Add.
type AddStockResponse struct {
	Entry LedgerEntryResponse `json:"entry"`
}

// RemoveStockResponse respuesta de Remove. Capped indica auto-capping:
// la cantidad aplicada fue menor a la solicitada (éxito con advertencia).
type RemoveStockResponse struct {
	AppliedQuantity int64               `json:"applied_quantity"`
	Capped          bool                `json:"capped"`
	LocationDeleted bool                `json:"location_deleted"`
	Entry           LedgerEntryResponse `json:"entry"`
}

// MoveStockResponse respuesta de Move.
type MoveStockResponse struct {
	AppliedQuantity int64               `json:"applied_quantity"`
	Capped          bool                `json:"capped"`
	SourceDeleted   bool                `json:"source_deleted"`
	DestCreated     bool                `json:"dest_created"`
	Entry           LedgerEntryResponse `json:"entry"`
}

// StockHistoryResponse página del historial de un ítem.
type StockHistoryResponse struct {
	Entries    []LedgerEntryResponse `json:"entries"`
	TotalCount int                   `json:"total_count"`
	TotalPages int                   `json:"total_pages"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	HasNext    bool                  `json:"has_next"`
}

// StockLevelResponse posición actual de un ítem en una ubicación.
type StockLevelResponse struct {
	LocationID     string           `json:"location_id"`
	QuantityOnHand int64            `json:"quantity_on_hand"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	LotID          *string          `json:"lot_id,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
