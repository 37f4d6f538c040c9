package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de operación del ledger.
const (
	OperationAdd    = "ADD"
	OperationRemove = "REMOVE"
	OperationMove   = "MOVE"
)

// LedgerEntry es el registro inmutable de una operación completada.
// Se crea exactamente una vez por operación, dentro de la misma transacción
// que la mutación del QuantityRecord, y nunca se actualiza ni se borra.
//
// QuantityBefore/QuantityAfter son el total del ítem sumando todas las
// ubicaciones, de modo que QuantityAfter = QuantityBefore + QuantityChange
// se cumple también para MOVE (change = 0). Quantity lleva la cantidad
// aplicada para display y reconstrucción por ubicación junto con From/To.
type LedgerEntry struct {
	ID             string
	ItemID         string
	OperationType  string // ADD, REMOVE, MOVE
	Quantity       int64  // cantidad aplicada (siempre positiva)
	QuantityChange int64  // con signo; 0 para MOVE
	QuantityBefore int64
	QuantityAfter  int64
	FromLocationID *string
	ToLocationID   *string
	LotID          *string
	UnitCost       *decimal.Decimal
	TotalCost      *decimal.Decimal
	Comment        *string
	ActorID        string
	ActorName      string
	CreatedAt      time.Time
}
