package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuantityRecord representa el stock de un ítem en una ubicación; es la unidad
// de bloqueo del motor. QuantityOnHand nunca es negativo y una fila que llega
// a cero se elimina en lugar de conservarse.
type QuantityRecord struct {
	ItemID         string
	LocationID     string
	QuantityOnHand int64
	UnitCost       *decimal.Decimal // último costo unitario conocido, 4 decimales
	LotID          *string
	UpdatedAt      time.Time
}
