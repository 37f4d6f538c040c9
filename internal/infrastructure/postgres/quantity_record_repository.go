package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.QuantityRecordRepository = (*QuantityRecordRepo)(nil)

// QuantityRecordRepo implementación de QuantityRecordRepository sobre
// PostgreSQL (usable con pool o tx).
type QuantityRecordRepo struct {
	q Querier
}

// NewQuantityRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuantityRecordRepository(q Querier) *QuantityRecordRepo {
	return &QuantityRecordRepo{q: q}
}

const recordColumns = `item_id, location_id, quantity_on_hand, unit_cost, lot_id, updated_at`

func scanRecord(row pgx.Row) (*entity.QuantityRecord, error) {
	var r entity.QuantityRecord
	err := row.Scan(&r.ItemID, &r.LocationID, &r.QuantityOnHand, &r.UnitCost, &r.LotID, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Get obtiene el registro o nil si no existe (sin lock).
func (r *QuantityRecordRepo) Get(itemID, locationID string) (*entity.QuantityRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM quantity_records WHERE item_id = $1 AND location_id = $2`
	rec, err := scanRecord(r.q.QueryRow(context.Background(), query, itemID, locationID))
	if err != nil {
		return nil, fmt.Errorf("get quantity record: %w", err)
	}
	return rec, nil
}

// LockForUpdate bloquea la fila (SELECT FOR UPDATE) y la devuelve, o nil si
// no existe. La espera está acotada por el lock_timeout de la transacción.
func (r *QuantityRecordRepo) LockForUpdate(itemID, locationID string) (*entity.QuantityRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM quantity_records WHERE item_id = $1 AND location_id = $2
		FOR UPDATE`
	rec, err := scanRecord(r.q.QueryRow(context.Background(), query, itemID, locationID))
	if err != nil {
		if isLockTimeout(err) {
			return nil, err
		}
		return nil, fmt.Errorf("lock quantity record: %w", err)
	}
	return rec, nil
}

// EnsureAndLock crea la fila en cero si no existe y la bloquea. El INSERT
// previo hace que dos transacciones concurrentes sobre una fila aún
// inexistente queden serializadas por el mismo lock.
func (r *QuantityRecordRepo) EnsureAndLock(itemID, locationID string) (*entity.QuantityRecord, bool, error) {
	insert := `
		INSERT INTO quantity_records (item_id, location_id, quantity_on_hand, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (item_id, location_id) DO NOTHING`
	tag, err := r.q.Exec(context.Background(), insert, itemID, locationID)
	if err != nil {
		return nil, false, fmt.Errorf("ensure quantity record: %w", err)
	}
	created := tag.RowsAffected() > 0

	rec, err := r.LockForUpdate(itemID, locationID)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		// La fila existía al insertar y desapareció antes del lock: otra tx
		// la borró al dejarla en cero. Reintentar el ciclo una vez.
		tag, err = r.q.Exec(context.Background(), insert, itemID, locationID)
		if err != nil {
			return nil, false, fmt.Errorf("ensure quantity record: %w", err)
		}
		created = tag.RowsAffected() > 0
		rec, err = r.LockForUpdate(itemID, locationID)
		if err != nil {
			return nil, false, err
		}
		if rec == nil {
			return nil, false, fmt.Errorf("ensure quantity record: fila inalcanzable %s/%s", itemID, locationID)
		}
	}
	return rec, created, nil
}

// Save inserta o actualiza el registro.
func (r *QuantityRecordRepo) Save(rec *entity.QuantityRecord) error {
	query := `
		INSERT INTO quantity_records (item_id, location_id, quantity_on_hand, unit_cost, lot_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity_on_hand = EXCLUDED.quantity_on_hand,
		              unit_cost = EXCLUDED.unit_cost,
		              lot_id = EXCLUDED.lot_id,
		              updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		rec.ItemID, rec.LocationID, rec.QuantityOnHand, rec.UnitCost, rec.LotID)
	if err != nil {
		return fmt.Errorf("save quantity record: %w", err)
	}
	return nil
}

// Delete elimina la fila (cantidad en cero).
func (r *QuantityRecordRepo) Delete(itemID, locationID string) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM quantity_records WHERE item_id = $1 AND location_id = $2`,
		itemID, locationID)
	if err != nil {
		return fmt.Errorf("delete quantity record: %w", err)
	}
	return nil
}

// SumByItem devuelve el total del ítem sumando todas las ubicaciones.
func (r *QuantityRecordRepo) SumByItem(itemID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(quantity_on_hand), 0) FROM quantity_records WHERE item_id = $1`,
		itemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum quantity records: %w", err)
	}
	return total, nil
}

// ListByItem devuelve las posiciones del ítem ordenadas por ubicación.
func (r *QuantityRecordRepo) ListByItem(itemID string) ([]*entity.QuantityRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM quantity_records WHERE item_id = $1
		ORDER BY location_id`
	rows, err := r.q.Query(context.Background(), query, itemID)
	if err != nil {
		return nil, fmt.Errorf("list quantity records: %w", err)
	}
	defer rows.Close()
	var list []*entity.QuantityRecord
	for rows.Next() {
		var rec entity.QuantityRecord
		if err := rows.Scan(&rec.ItemID, &rec.LocationID, &rec.QuantityOnHand,
			&rec.UnitCost, &rec.LotID, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quantity record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
