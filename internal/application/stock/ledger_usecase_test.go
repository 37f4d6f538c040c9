package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	itemID = "item-1"
	locA   = "loc-a"
	locB   = "loc-b"
	locC   = "loc-c"
)

var actor = stock.Actor{ID: "u1", Name: "Laura"}

// newEngine arma el motor completo sobre el store en memoria, con un ítem y
// tres ubicaciones sembrados.
func newEngine(t *testing.T, lockTimeout time.Duration) (*memory.Store, *stock.LedgerUseCase) {
	t.Helper()
	store := memory.NewStore(lockTimeout)
	store.PutItem(entity.Item{ID: itemID, SKU: "SKU-001", Name: "Tornillo M4"})
	store.PutLocation(entity.Location{ID: locA, Name: "Bodega A"})
	store.PutLocation(entity.Location{ID: locB, Name: "Bodega B"})
	store.PutLocation(entity.Location{ID: locC, Name: "Bodega C"})

	uc := stock.NewLedgerUseCase(
		memory.NewTxRunner(store),
		store.ItemRepository(),
		store.LocationRepository(),
		logger.NewNop(),
	)
	return store, uc
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// mustAdd siembra stock vía el propio motor, con costo unitario opcional.
func mustAdd(t *testing.T, uc *stock.LedgerUseCase, loc string, qty int64, unitPrice *decimal.Decimal) {
	t.Helper()
	_, err := uc.Add(context.Background(), actor, stock.AddInput{
		ItemID:     itemID,
		LocationID: loc,
		Quantity:   qty,
		UnitPrice:  unitPrice,
	})
	require.NoError(t, err)
}

func record(t *testing.T, store *memory.Store, loc string) *entity.QuantityRecord {
	t.Helper()
	rec, err := store.QuantityRecordRepository().Get(itemID, loc)
	require.NoError(t, err)
	return rec
}

// ──────────────────────────────────────────────────────────────────────────────
// Add
// ──────────────────────────────────────────────────────────────────────────────

func TestAdd_CreaRegistroYDerivaCostoUnitario(t *testing.T) {
	store, uc := newEngine(t, time.Second)

	// 200 unidades por un total de 100.00 → costo unitario 0.5000.
	result, err := uc.Add(context.Background(), actor, stock.AddInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   200,
		TotalPrice: dec("100.00"),
	})
	require.NoError(t, err)

	rec := record(t, store, locA)
	require.NotNil(t, rec)
	assert.Equal(t, int64(200), rec.QuantityOnHand)
	require.NotNil(t, rec.UnitCost)
	assert.True(t, rec.UnitCost.Equal(decimal.RequireFromString("0.5")),
		"costo unitario derivado: 100 / 200 = 0.5, obtuvo %s", rec.UnitCost)

	entry := result.Entry
	assert.Equal(t, entity.OperationAdd, entry.OperationType)
	assert.Equal(t, int64(200), entry.Quantity)
	assert.Equal(t, int64(200), entry.QuantityChange)
	assert.Equal(t, int64(0), entry.QuantityBefore)
	assert.Equal(t, int64(200), entry.QuantityAfter)
	require.NotNil(t, entry.ToLocationID)
	assert.Equal(t, locA, *entry.ToLocationID)
	assert.Equal(t, actor.ID, entry.ActorID)
}

func TestAdd_AcumulaSobreRegistroExistente(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 50, dec("1.00"))

	result, err := uc.Add(context.Background(), actor, stock.AddInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   30,
		UnitPrice:  dec("2.00"),
	})
	require.NoError(t, err)

	rec := record(t, store, locA)
	assert.Equal(t, int64(80), rec.QuantityOnHand)
	// Add persiste el último costo recibido sobre el registro.
	assert.True(t, rec.UnitCost.Equal(decimal.RequireFromString("2")))

	assert.Equal(t, int64(50), result.Entry.QuantityBefore)
	assert.Equal(t, int64(80), result.Entry.QuantityAfter)
	// total = 30 * 2.00
	require.NotNil(t, result.Entry.TotalCost)
	assert.True(t, result.Entry.TotalCost.Equal(decimal.RequireFromString("60")))
}

func TestAdd_AmbosPreciosEsInvalido(t *testing.T) {
	_, uc := newEngine(t, time.Second)

	_, err := uc.Add(context.Background(), actor, stock.AddInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   10,
		UnitPrice:  dec("1.00"),
		TotalPrice: dec("10.00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdd_Validaciones(t *testing.T) {
	_, uc := newEngine(t, time.Second)
	ctx := context.Background()

	_, err := uc.Add(ctx, actor, stock.AddInput{ItemID: "", LocationID: locA, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "item vacío")

	_, err = uc.Add(ctx, actor, stock.AddInput{ItemID: itemID, LocationID: locA, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = uc.Add(ctx, actor, stock.AddInput{ItemID: itemID, LocationID: locA, Quantity: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad negativa")

	_, err = uc.Add(ctx, actor, stock.AddInput{ItemID: "no-existe", LocationID: locA, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound, "ítem inexistente")

	_, err = uc.Add(ctx, actor, stock.AddInput{ItemID: itemID, LocationID: "no-existe", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound, "ubicación inexistente")

	_, err = uc.Add(ctx, stock.Actor{}, stock.AddInput{ItemID: itemID, LocationID: locA, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "actor vacío")
}

// ──────────────────────────────────────────────────────────────────────────────
// Remove
// ──────────────────────────────────────────────────────────────────────────────

func TestRemove_Parcial(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 100, dec("0.50"))

	result, err := uc.Remove(context.Background(), actor, stock.RemoveInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   40,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(40), result.AppliedQuantity)
	assert.False(t, result.Capped)
	assert.False(t, result.LocationDeleted)

	rec := record(t, store, locA)
	assert.Equal(t, int64(60), rec.QuantityOnHand)

	assert.Equal(t, int64(-40), result.Entry.QuantityChange)
	assert.Equal(t, int64(100), result.Entry.QuantityBefore)
	assert.Equal(t, int64(60), result.Entry.QuantityAfter)
}

func TestRemove_CapadoEliminaLaFila(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 50, nil)

	// Se piden 100 habiendo 50: éxito con capped, nunca negativo.
	result, err := uc.Remove(context.Background(), actor, stock.RemoveInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   100,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50), result.AppliedQuantity)
	assert.True(t, result.Capped)
	assert.True(t, result.LocationDeleted, "una fila en cero se elimina")

	assert.Nil(t, record(t, store, locA), "el registro no debe existir más")
	assert.Equal(t, int64(0), result.Entry.QuantityAfter)
}

func TestRemove_ExactoEliminaLaFila(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 30, nil)

	result, err := uc.Remove(context.Background(), actor, stock.RemoveInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   30,
	})
	require.NoError(t, err)

	assert.False(t, result.Capped)
	assert.True(t, result.LocationDeleted)
	assert.Nil(t, record(t, store, locA))
}

func TestRemove_SinRegistroEsNotFound(t *testing.T) {
	_, uc := newEngine(t, time.Second)

	_, err := uc.Remove(context.Background(), actor, stock.RemoveInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   10,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Move
// ──────────────────────────────────────────────────────────────────────────────

func TestMove_CreaDestinoHeredandoCostoYLote(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	lot := "L-77"
	_, err := uc.Add(context.Background(), actor, stock.AddInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   75,
		UnitPrice:  dec("0.15"),
		LotID:      &lot,
	})
	require.NoError(t, err)

	result, err := uc.Move(context.Background(), actor, stock.MoveInput{
		ItemID:         itemID,
		FromLocationID: locA,
		ToLocationID:   locB,
		Quantity:       25,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), result.AppliedQuantity)
	assert.True(t, result.DestCreated)
	assert.False(t, result.SourceDeleted)

	src := record(t, store, locA)
	dst := record(t, store, locB)
	assert.Equal(t, int64(50), src.QuantityOnHand)
	require.NotNil(t, dst)
	assert.Equal(t, int64(25), dst.QuantityOnHand)
	assert.True(t, dst.UnitCost.Equal(decimal.RequireFromString("0.15")),
		"el destino nuevo hereda el costo del origen")
	require.NotNil(t, dst.LotID)
	assert.Equal(t, lot, *dst.LotID)
}

func TestMove_FusionaConPromedioPonderado(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 50, dec("1.00"))
	mustAdd(t, uc, locB, 100, dec("2.50"))

	result, err := uc.Move(context.Background(), actor, stock.MoveInput{
		ItemID:         itemID,
		FromLocationID: locA,
		ToLocationID:   locB,
		Quantity:       50,
	})
	require.NoError(t, err)

	assert.True(t, result.SourceDeleted, "el origen quedó en cero")
	assert.False(t, result.DestCreated)

	dst := record(t, store, locB)
	assert.Equal(t, int64(150), dst.QuantityOnHand)
	// (50*1.00 + 100*2.50) / 150 = 300 / 150 = 2.0000
	assert.True(t, dst.UnitCost.Equal(decimal.RequireFromString("2")),
		"promedio ponderado esperado 2, obtuvo %s", dst.UnitCost)
}

func TestMove_CapadoAlDisponible(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 20, nil)

	result, err := uc.Move(context.Background(), actor, stock.MoveInput{
		ItemID:         itemID,
		FromLocationID: locA,
		ToLocationID:   locB,
		Quantity:       999,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.AppliedQuantity)
	assert.True(t, result.Capped)
	assert.True(t, result.SourceDeleted)

	dst := record(t, store, locB)
	assert.Equal(t, int64(20), dst.QuantityOnHand)
}

func TestMove_NoAlteraElTotalDelItem(t *testing.T) {
	store, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 70, nil)
	mustAdd(t, uc, locB, 30, nil)

	result, err := uc.Move(context.Background(), actor, stock.MoveInput{
		ItemID:         itemID,
		FromLocationID: locA,
		ToLocationID:   locB,
		Quantity:       40,
	})
	require.NoError(t, err)

	// El entry de un Move lleva cambio cero y total intacto.
	assert.Equal(t, int64(0), result.Entry.QuantityChange)
	assert.Equal(t, int64(100), result.Entry.QuantityBefore)
	assert.Equal(t, int64(100), result.Entry.QuantityAfter)

	total, err := store.QuantityRecordRepository().SumByItem(itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}

func TestMove_MismoOrigenYDestinoEsInvalido(t *testing.T) {
	_, uc := newEngine(t, time.Second)
	mustAdd(t, uc, locA, 10, nil)

	_, err := uc.Move(context.Background(), actor, stock.MoveInput{
		ItemID:         itemID,
		FromLocationID: locA,
		ToLocationID:   locA,
		Quantity:       5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMove_OrigenSinStockEsNotFound(t *testing.T) {
	_, uc := newEngine(t, time.Second)

	_, err := uc.Move(context.Background(), actor, stock.MoveInput{
		ItemID:         itemID,
		FromLocationID: locA,
		ToLocationID:   locB,
		Quantity:       5,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos Move sobre el mismo par de ubicaciones en orden opuesto, repetidos. Con
// adquisición en orden canónico ninguno puede interbloquearse.
func TestMove_ParOpuestoConcurrenteNoInterbloquea(t *testing.T) {
	store, uc := newEngine(t, 10*time.Second)
	mustAdd(t, uc, locA, 1000, nil)
	mustAdd(t, uc, locB, 1000, nil)

	const rounds = 30
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)

	move := func(from, to string) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := uc.Move(context.Background(), actor, stock.MoveInput{
				ItemID:         itemID,
				FromLocationID: from,
				ToLocationID:   to,
				Quantity:       1,
			})
			// El origen puede haber quedado en cero por el otro worker.
			if err != nil && err != domain.ErrNotFound {
				errs <- err
				return
			}
		}
	}
	wg.Add(2)
	go move(locA, locB)
	go move(locB, locA)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("move concurrente falló: %v", err)
	}

	total, err := store.QuantityRecordRepository().SumByItem(itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), total, "los Move nunca alteran el total")
}

// Dos Remove concurrentes por el total disponible: uno completo y uno capado
// (o capado a cero concurrencia mediante), pero la suma retirada jamás excede
// lo que había.
func TestRemove_ConcurrenteNuncaNegativo(t *testing.T) {
	store, uc := newEngine(t, 10*time.Second)
	mustAdd(t, uc, locA, 100, nil)

	var wg sync.WaitGroup
	results := make(chan *stock.RemoveResult, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			r, err := uc.Remove(context.Background(), actor, stock.RemoveInput{
				ItemID:     itemID,
				LocationID: locA,
				Quantity:   100,
			})
			if err == nil {
				results <- r
			}
		}()
	}
	wg.Wait()
	close(results)

	var applied int64
	for r := range results {
		applied += r.AppliedQuantity
	}
	assert.LessOrEqual(t, applied, int64(100), "jamás se retira más de lo disponible")

	rec := record(t, store, locA)
	if rec != nil {
		assert.GreaterOrEqual(t, rec.QuantityOnHand, int64(0))
	}
}

func TestRemove_LockOcupadoVenceElPresupuesto(t *testing.T) {
	store, uc := newEngine(t, 50*time.Millisecond)
	mustAdd(t, uc, locA, 10, nil)

	// Otro actor retiene el lock de la fila más allá del presupuesto.
	h, err := store.Locks().Acquire(itemID + "|" + locA)
	require.NoError(t, err)
	defer h.Release()

	_, err = uc.Remove(context.Background(), actor, stock.RemoveInput{
		ItemID:     itemID,
		LocationID: locA,
		Quantity:   5,
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	// El rollback no debe dejar nada a medias.
	rec := record(t, store, locA)
	require.NotNil(t, rec)
	assert.Equal(t, int64(10), rec.QuantityOnHand)
}
