package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// QuantityRecordRepository persistencia de los registros de cantidad por
// (ítem, ubicación). Los métodos *ForUpdate solo tienen sentido dentro de una
// transacción (TxRunner); el lock se libera en Commit o Rollback.
type QuantityRecordRepository interface {
	// Get devuelve el registro o nil si no existe (sin lock).
	Get(itemID, locationID string) (*entity.QuantityRecord, error)

	// LockForUpdate bloquea la fila y la devuelve, o nil si no existe.
	// Si el lock no se obtiene dentro del presupuesto de espera, devuelve
	// domain.ErrLockTimeout sin retener locks parciales.
	LockForUpdate(itemID, locationID string) (*entity.QuantityRecord, error)

	// EnsureAndLock crea la fila en cero si no existe y la bloquea.
	// created indica si la fila fue creada por esta llamada.
	EnsureAndLock(itemID, locationID string) (rec *entity.QuantityRecord, created bool, err error)

	// Save inserta o actualiza el registro.
	Save(rec *entity.QuantityRecord) error

	// Delete elimina la fila; se invoca cuando la cantidad llega a cero.
	Delete(itemID, locationID string) error

	// SumByItem devuelve el total del ítem sumando todas las ubicaciones.
	SumByItem(itemID string) (int64, error)

	// ListByItem devuelve las posiciones actuales del ítem por ubicación.
	ListByItem(itemID string) ([]*entity.QuantityRecord, error)
}
