package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// LocationRepository acceso de solo lectura a ubicaciones de almacenamiento.
type LocationRepository interface {
	// GetByID devuelve la ubicación o nil si no existe.
	GetByID(id string) (*entity.Location, error)
}
