package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

// LedgerEntryRepo implementación append-only del historial sobre PostgreSQL
// (usable con pool o tx). No expone UPDATE ni DELETE: la inmutabilidad es
// estructural, no una convención.
type LedgerEntryRepo struct {
	q Querier
}

// NewLedgerEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerEntryRepository(q Querier) *LedgerEntryRepo {
	return &LedgerEntryRepo{q: q}
}

const entryColumns = `id, item_id, operation_type, quantity, quantity_change,
	quantity_before, quantity_after, from_location_id, to_location_id,
	lot_id, unit_cost, total_cost, comment, actor_id, actor_name, created_at`

// Columnas permitidas para ORDER BY; todo lo demás se rechaza antes de armar
// el SQL.
var sortColumns = map[string]string{
	repository.SortByTimestamp:      "created_at",
	repository.SortByQuantityChange: "quantity_change",
	repository.SortByOperationType:  "operation_type",
	repository.SortByActorName:      "actor_name",
}

// Create persiste un entry del historial. Única operación de escritura.
func (r *LedgerEntryRepo) Create(e *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, e.ItemID, e.OperationType, e.Quantity, e.QuantityChange,
		e.QuantityBefore, e.QuantityAfter, e.FromLocationID, e.ToLocationID,
		e.LotID, e.UnitCost, e.TotalCost, e.Comment, e.ActorID, e.ActorName, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// ListByItem devuelve una página del historial del ítem.
func (r *LedgerEntryRepo) ListByItem(itemID, sortBy, sortOrder string, limit, offset int) ([]*entity.LedgerEntry, error) {
	col, ok := sortColumns[sortBy]
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	dir := "DESC"
	if sortOrder == "asc" {
		dir = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT `+entryColumns+`
		FROM ledger_entries WHERE item_id = $1
		ORDER BY %s %s, created_at DESC, id
		LIMIT $2 OFFSET $3`, col, dir)
	rows, err := r.q.Query(context.Background(), query, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// CountByItem devuelve el total de entries del ítem.
func (r *LedgerEntryRepo) CountByItem(itemID string) (int, error) {
	var total int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM ledger_entries WHERE item_id = $1`, itemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return total, nil
}

// ListAllByItem devuelve el historial completo, del más reciente al más antiguo.
func (r *LedgerEntryRepo) ListAllByItem(itemID string) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries WHERE item_id = $1
		ORDER BY created_at DESC, id`
	rows, err := r.q.Query(context.Background(), query, itemID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*entity.LedgerEntry, error) {
	var list []*entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.OperationType, &e.Quantity,
			&e.QuantityChange, &e.QuantityBefore, &e.QuantityAfter,
			&e.FromLocationID, &e.ToLocationID, &e.LotID, &e.UnitCost,
			&e.TotalCost, &e.Comment, &e.ActorID, &e.ActorName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
