package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// ItemRepository acceso de solo lectura al catálogo de ítems.
// El CRUD del catálogo vive fuera de este motor.
type ItemRepository interface {
	// GetByID devuelve el ítem o nil si no existe.
	GetByID(id string) (*entity.Item, error)
}
