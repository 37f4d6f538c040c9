package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo lectura del catálogo de ítems sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// GetByID obtiene un ítem por ID, o nil si no existe.
func (r *ItemRepo) GetByID(id string) (*entity.Item, error) {
	query := `
		SELECT id, sku, name, created_at, updated_at
		FROM items WHERE id = $1`
	var it entity.Item
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&it.ID, &it.SKU, &it.Name, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}
