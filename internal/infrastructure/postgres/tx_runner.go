package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. El
// presupuesto de espera por locks de fila se aplica con SET LOCAL
// lock_timeout: un SELECT FOR UPDATE que no obtiene la fila dentro del
// presupuesto falla con 55P03 y la transacción completa hace rollback, sin
// retener locks parciales.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool y el presupuesto de lock.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Un 55P03 se traduce a domain.ErrLockTimeout.
func (r *TxRunner) Run(ctx context.Context, fn func(
	records repository.QuantityRecordRepository,
	entries repository.LedgerEntryRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, timeout); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	if err := fn(NewQuantityRecordRepository(tx), NewLedgerEntryRepository(tx)); err != nil {
		if isLockTimeout(err) {
			return domain.ErrLockTimeout
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
