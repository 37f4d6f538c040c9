package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// Store implementación en memoria de los repositorios del motor, con la misma
// semántica transaccional que la implementación PostgreSQL: los locks de fila
// se adquieren vía LockManager, las escrituras quedan en staging y se aplican
// de forma atómica en el commit. Pensado para tests y para correr el motor
// sin base de datos.
type Store struct {
	locks *LockManager

	mu        sync.RWMutex
	items     map[string]entity.Item
	locations map[string]entity.Location
	records   map[string]entity.QuantityRecord // key: item|location
	entries   []entity.LedgerEntry
}

// NewStore construye el store con el presupuesto de espera por lock.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		locks:     NewLockManager(lockTimeout),
		items:     make(map[string]entity.Item),
		locations: make(map[string]entity.Location),
		records:   make(map[string]entity.QuantityRecord),
	}
}

func rowKey(itemID, locationID string) string {
	return itemID + "|" + locationID
}

// PutItem registra un ítem (seed).
func (s *Store) PutItem(it entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
}

// PutLocation registra una ubicación (seed).
func (s *Store) PutLocation(loc entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = loc
}

// SeedRecord inserta un registro de cantidad sin pasar por el motor (seed).
func (s *Store) SeedRecord(rec entity.QuantityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rowKey(rec.ItemID, rec.LocationID)] = rec
}

// Locks expone el LockManager (tests de concurrencia).
func (s *Store) Locks() *LockManager { return s.locks }

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios de solo lectura (fuera de transacción)
// ──────────────────────────────────────────────────────────────────────────────

// ItemRepository devuelve el repo de ítems.
func (s *Store) ItemRepository() repository.ItemRepository { return &itemRepo{s: s} }

// LocationRepository devuelve el repo de ubicaciones.
func (s *Store) LocationRepository() repository.LocationRepository { return &locationRepo{s: s} }

// QuantityRecordRepository devuelve el repo de registros para lecturas.
// Los métodos con lock solo están disponibles dentro de una transacción.
func (s *Store) QuantityRecordRepository() repository.QuantityRecordRepository {
	return &storeRecordRepo{s: s}
}

// LedgerEntryRepository devuelve el repo del historial.
func (s *Store) LedgerEntryRepository() repository.LedgerEntryRepository {
	return &storeEntryRepo{s: s}
}

type itemRepo struct{ s *Store }

func (r *itemRepo) GetByID(id string) (*entity.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if it, ok := r.s.items[id]; ok {
		return &it, nil
	}
	return nil, nil
}

type locationRepo struct{ s *Store }

func (r *locationRepo) GetByID(id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if loc, ok := r.s.locations[id]; ok {
		return &loc, nil
	}
	return nil, nil
}

type storeRecordRepo struct{ s *Store }

func (r *storeRecordRepo) Get(itemID, locationID string) (*entity.QuantityRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if rec, ok := r.s.records[rowKey(itemID, locationID)]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (r *storeRecordRepo) LockForUpdate(string, string) (*entity.QuantityRecord, error) {
	return nil, fmt.Errorf("lock fuera de transacción")
}

func (r *storeRecordRepo) EnsureAndLock(string, string) (*entity.QuantityRecord, bool, error) {
	return nil, false, fmt.Errorf("lock fuera de transacción")
}

func (r *storeRecordRepo) Save(*entity.QuantityRecord) error {
	return fmt.Errorf("escritura fuera de transacción")
}

func (r *storeRecordRepo) Delete(string, string) error {
	return fmt.Errorf("escritura fuera de transacción")
}

func (r *storeRecordRepo) SumByItem(itemID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for _, rec := range r.s.records {
		if rec.ItemID == itemID {
			total += rec.QuantityOnHand
		}
	}
	return total, nil
}

func (r *storeRecordRepo) ListByItem(itemID string) ([]*entity.QuantityRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.QuantityRecord
	for _, rec := range r.s.records {
		if rec.ItemID == itemID {
			c := rec
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LocationID < list[j].LocationID })
	return list, nil
}

type storeEntryRepo struct{ s *Store }

func (r *storeEntryRepo) Create(e *entity.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries = append(r.s.entries, *e)
	return nil
}

func (r *storeEntryRepo) ListByItem(itemID, sortBy, sortOrder string, limit, offset int) ([]*entity.LedgerEntry, error) {
	all, err := r.ListAllByItem(itemID)
	if err != nil {
		return nil, err
	}
	if err := sortEntries(all, sortBy, sortOrder); err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *storeEntryRepo) CountByItem(itemID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for i := range r.s.entries {
		if r.s.entries[i].ItemID == itemID {
			total++
		}
	}
	return total, nil
}

func (r *storeEntryRepo) ListAllByItem(itemID string) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.LedgerEntry
	for i := range r.s.entries {
		if r.s.entries[i].ItemID == itemID {
			c := r.s.entries[i]
			list = append(list, &c)
		}
	}
	// Del más reciente al más antiguo, como la implementación SQL.
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// sortEntries ordena in place según la clave pedida, con desempate por fecha
// descendente y luego ID (mismo criterio que el ORDER BY de PostgreSQL).
func sortEntries(list []*entity.LedgerEntry, sortBy, sortOrder string) error {
	desc := sortOrder != "asc"
	var less func(a, b *entity.LedgerEntry) int
	switch sortBy {
	case repository.SortByTimestamp:
		less = func(a, b *entity.LedgerEntry) int {
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				return -1
			case a.CreatedAt.After(b.CreatedAt):
				return 1
			}
			return 0
		}
	case repository.SortByQuantityChange:
		less = func(a, b *entity.LedgerEntry) int {
			switch {
			case a.QuantityChange < b.QuantityChange:
				return -1
			case a.QuantityChange > b.QuantityChange:
				return 1
			}
			return 0
		}
	case repository.SortByOperationType:
		less = func(a, b *entity.LedgerEntry) int {
			switch {
			case a.OperationType < b.OperationType:
				return -1
			case a.OperationType > b.OperationType:
				return 1
			}
			return 0
		}
	case repository.SortByActorName:
		less = func(a, b *entity.LedgerEntry) int {
			switch {
			case a.ActorName < b.ActorName:
				return -1
			case a.ActorName > b.ActorName:
				return 1
			}
			return 0
		}
	default:
		return domain.ErrInvalidInput
	}
	sort.SliceStable(list, func(i, j int) bool {
		c := less(list[i], list[j])
		if c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner en memoria
// ──────────────────────────────────────────────────────────────────────────────

var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks con semántica transaccional sobre el Store: las
// escrituras quedan en staging y se aplican de forma atómica al commit; los
// locks de fila se liberan en commit o rollback.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn con repos atados a la transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	records repository.QuantityRecordRepository,
	entries repository.LedgerEntryRepository,
) error) error {
	_ = ctx
	tx := &memTx{
		s:       r.s,
		staged:  make(map[string]entity.QuantityRecord),
		deleted: make(map[string]bool),
	}
	defer tx.release()

	if err := fn(&txRecordRepo{tx: tx}, &txEntryRepo{tx: tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	s       *Store
	held    []*LockHandle
	staged  map[string]entity.QuantityRecord
	deleted map[string]bool
	entries []entity.LedgerEntry
}

func (t *memTx) lock(key string) error {
	for _, h := range t.held {
		if len(h.keys) == 1 && h.keys[0] == key {
			return nil // ya la tenemos
		}
	}
	h, err := t.s.locks.Acquire(key)
	if err != nil {
		return err
	}
	t.held = append(t.held, h)
	return nil
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Release()
	}
	t.held = nil
}

// read devuelve una copia de la fila vista por esta transacción (staging
// sobre el estado confirmado), o nil si no existe.
func (t *memTx) read(key string) *entity.QuantityRecord {
	if t.deleted[key] {
		return nil
	}
	if rec, ok := t.staged[key]; ok {
		c := rec
		return &c
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if rec, ok := t.s.records[key]; ok {
		c := rec
		return &c
	}
	return nil
}

func (t *memTx) commit() {
	t.s.mu.Lock()
	for key, rec := range t.staged {
		t.s.records[key] = rec
	}
	for key := range t.deleted {
		delete(t.s.records, key)
	}
	t.s.entries = append(t.s.entries, t.entries...)
	t.s.mu.Unlock()
	t.release()
}

type txRecordRepo struct{ tx *memTx }

func (r *txRecordRepo) Get(itemID, locationID string) (*entity.QuantityRecord, error) {
	return r.tx.read(rowKey(itemID, locationID)), nil
}

func (r *txRecordRepo) LockForUpdate(itemID, locationID string) (*entity.QuantityRecord, error) {
	if err := r.tx.lock(rowKey(itemID, locationID)); err != nil {
		return nil, err
	}
	return r.tx.read(rowKey(itemID, locationID)), nil
}

func (r *txRecordRepo) EnsureAndLock(itemID, locationID string) (*entity.QuantityRecord, bool, error) {
	key := rowKey(itemID, locationID)
	if err := r.tx.lock(key); err != nil {
		return nil, false, err
	}
	if rec := r.tx.read(key); rec != nil {
		return rec, false, nil
	}
	return &entity.QuantityRecord{ItemID: itemID, LocationID: locationID}, true, nil
}

func (r *txRecordRepo) Save(rec *entity.QuantityRecord) error {
	key := rowKey(rec.ItemID, rec.LocationID)
	r.tx.staged[key] = *rec
	delete(r.tx.deleted, key)
	return nil
}

func (r *txRecordRepo) Delete(itemID, locationID string) error {
	key := rowKey(itemID, locationID)
	r.tx.deleted[key] = true
	delete(r.tx.staged, key)
	return nil
}

func (r *txRecordRepo) SumByItem(itemID string) (int64, error) {
	var total int64
	seen := make(map[string]bool)
	for key, rec := range r.tx.staged {
		seen[key] = true
		if rec.ItemID == itemID {
			total += rec.QuantityOnHand
		}
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	for key, rec := range r.tx.s.records {
		if seen[key] || r.tx.deleted[key] {
			continue
		}
		if rec.ItemID == itemID {
			total += rec.QuantityOnHand
		}
	}
	return total, nil
}

func (r *txRecordRepo) ListByItem(itemID string) ([]*entity.QuantityRecord, error) {
	var list []*entity.QuantityRecord
	seen := make(map[string]bool)
	for key, rec := range r.tx.staged {
		seen[key] = true
		if rec.ItemID == itemID {
			c := rec
			list = append(list, &c)
		}
	}
	r.tx.s.mu.RLock()
	for key, rec := range r.tx.s.records {
		if seen[key] || r.tx.deleted[key] {
			continue
		}
		if rec.ItemID == itemID {
			c := rec
			list = append(list, &c)
		}
	}
	r.tx.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].LocationID < list[j].LocationID })
	return list, nil
}

type txEntryRepo struct{ tx *memTx }

func (r *txEntryRepo) Create(e *entity.LedgerEntry) error {
	r.tx.entries = append(r.tx.entries, *e)
	return nil
}

func (r *txEntryRepo) ListByItem(itemID, sortBy, sortOrder string, limit, offset int) ([]*entity.LedgerEntry, error) {
	return (&storeEntryRepo{s: r.tx.s}).ListByItem(itemID, sortBy, sortOrder, limit, offset)
}

func (r *txEntryRepo) CountByItem(itemID string) (int, error) {
	return (&storeEntryRepo{s: r.tx.s}).CountByItem(itemID)
}

func (r *txEntryRepo) ListAllByItem(itemID string) ([]*entity.LedgerEntry, error) {
	return (&storeEntryRepo{s: r.tx.s}).ListAllByItem(itemID)
}
