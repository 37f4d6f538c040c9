package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo lectura de ubicaciones sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID, o nil si no existe.
func (r *LocationRepo) GetByID(id string) (*entity.Location, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM locations WHERE id = $1`
	var loc entity.Location
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&loc.ID, &loc.Name, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}
