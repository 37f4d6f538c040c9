package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// Claves de ordenamiento aceptadas para el historial.
const (
	SortByTimestamp      = "timestamp"
	SortByQuantityChange = "quantity_change"
	SortByOperationType  = "operation_type"
	SortByActorName      = "actor_name"
)

// LedgerEntryRepository persistencia del historial de operaciones.
// Es append-only por contrato: no existe Update ni Delete.
type LedgerEntryRepository interface {
	// Create persiste un entry. Única operación de escritura.
	Create(entry *entity.LedgerEntry) error

	// ListByItem devuelve una página del historial del ítem. sortBy debe ser
	// una de las constantes SortBy*; sortOrder "asc" o "desc".
	ListByItem(itemID, sortBy, sortOrder string, limit, offset int) ([]*entity.LedgerEntry, error)

	// CountByItem devuelve el total de entries del ítem.
	CountByItem(itemID string) (int, error)

	// ListAllByItem devuelve el historial completo sin paginar, del más
	// reciente al más antiguo. Lo usa la exportación.
	ListAllByItem(itemID string) ([]*entity.LedgerEntry, error)
}
