package stock

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Actor identidad ya autenticada que ejecuta la operación. El motor confía en
// ella; la autorización ocurre antes (middleware).
type Actor struct {
	ID   string
	Name string
}

// LedgerUseCase ejecuta Add, Remove y Move como operaciones todo-o-nada:
// validar → lock → calcular → escribir → append del entry → commit/rollback.
// Los locks de fila se adquieren siempre en orden canónico (location IDs
// deduplicados y ordenados) para que dos Move concurrentes sobre el mismo par
// de ubicaciones no puedan interbloquearse.
type LedgerUseCase struct {
	txRunner     TxRunner
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	log          *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		log:          log,
	}
}

// AddInput entrada para Add. UnitPrice y TotalPrice son mutuamente
// excluyentes; el que falte se deriva con redondeo a 4 decimales.
type AddInput struct {
	ItemID     string
	LocationID string
	Quantity   int64
	UnitPrice  *decimal.Decimal
	TotalPrice *decimal.Decimal
	LotID      *string
	Comment    *string
}

// AddResult resultado de Add.
type AddResult struct {
	Entry *entity.LedgerEntry
}

// RemoveInput entrada para Remove.
type RemoveInput struct {
	ItemID     string
	LocationID string
	Quantity   int64
	Comment    *string
}

// RemoveResult resultado de Remove. Capped indica que la cantidad se ajustó
// a lo disponible (éxito con advertencia, no error).
type RemoveResult struct {
	AppliedQuantity int64
	Capped          bool
	LocationDeleted bool
	Entry           *entity.LedgerEntry
}

// MoveInput entrada para Move.
type MoveInput struct {
	ItemID         string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Comment        *string
}

// MoveResult resultado de Move.
type MoveResult struct {
	AppliedQuantity int64
	Capped          bool
	SourceDeleted   bool
	DestCreated     bool
	Entry           *entity.LedgerEntry
}

// Add suma stock en una ubicación. Crea el registro si no existe y persiste
// lote y costo unitario sobre él.
func (uc *LedgerUseCase) Add(ctx context.Context, actor Actor, in AddInput) (*AddResult, error) {
	if in.ItemID == "" || in.LocationID == "" || in.Quantity < 1 || actor.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	unitCost, totalCost, err := ledger.DerivePricing(in.Quantity, in.UnitPrice, in.TotalPrice)
	if err != nil {
		return nil, err
	}
	if err := uc.checkItem(in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.checkLocations(in.LocationID); err != nil {
		return nil, err
	}

	now := time.Now()
	var result *AddResult
	err = uc.txRunner.Run(ctx, func(
		records repository.QuantityRecordRepository,
		entries repository.LedgerEntryRepository,
	) error {
		rec, _, err := records.EnsureAndLock(in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		before, err := records.SumByItem(in.ItemID)
		if err != nil {
			return err
		}
		rec.QuantityOnHand += in.Quantity
		if unitCost != nil {
			rec.UnitCost = unitCost
		}
		if in.LotID != nil {
			rec.LotID = in.LotID
		}
		rec.UpdatedAt = now
		if err := records.Save(rec); err != nil {
			return err
		}
		entry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			ItemID:         in.ItemID,
			OperationType:  entity.OperationAdd,
			Quantity:       in.Quantity,
			QuantityChange: in.Quantity,
			QuantityBefore: before,
			QuantityAfter:  before + in.Quantity,
			ToLocationID:   &in.LocationID,
			LotID:          in.LotID,
			UnitCost:       unitCost,
			TotalCost:      totalCost,
			Comment:        in.Comment,
			ActorID:        actor.ID,
			ActorName:      actor.Name,
			CreatedAt:      now,
		}
		if err := entries.Create(entry); err != nil {
			return err
		}
		result = &AddResult{Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove resta stock de una ubicación. La cantidad se capea a lo disponible
// (Capped) y la fila se elimina si queda en cero (LocationDeleted).
func (uc *LedgerUseCase) Remove(ctx context.Context, actor Actor, in RemoveInput) (*RemoveResult, error) {
	if in.ItemID == "" || in.LocationID == "" || in.Quantity < 1 || actor.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkItem(in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.checkLocations(in.LocationID); err != nil {
		return nil, err
	}

	now := time.Now()
	var result *RemoveResult
	err := uc.txRunner.Run(ctx, func(
		records repository.QuantityRecordRepository,
		entries repository.LedgerEntryRepository,
	) error {
		rec, err := records.LockForUpdate(in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		if rec.QuantityOnHand <= 0 {
			// Una fila en cero se habría eliminado; si se observa es corrupción.
			uc.log.Error().
				Str("item_id", in.ItemID).
				Str("location_id", in.LocationID).
				Int64("quantity_on_hand", rec.QuantityOnHand).
				Msg("registro de cantidad no positivo bajo lock")
			return domain.ErrInvariant
		}
		applied := in.Quantity
		capped := false
		if applied > rec.QuantityOnHand {
			applied = rec.QuantityOnHand
			capped = true
		}
		before, err := records.SumByItem(in.ItemID)
		if err != nil {
			return err
		}
		unitCost := rec.UnitCost
		lotID := rec.LotID

		rec.QuantityOnHand -= applied
		locationDeleted := false
		if rec.QuantityOnHand == 0 {
			if err := records.Delete(in.ItemID, in.LocationID); err != nil {
				return err
			}
			locationDeleted = true
		} else {
			rec.UpdatedAt = now
			if err := records.Save(rec); err != nil {
				return err
			}
		}
		entry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			ItemID:         in.ItemID,
			OperationType:  entity.OperationRemove,
			Quantity:       applied,
			QuantityChange: -applied,
			QuantityBefore: before,
			QuantityAfter:  before - applied,
			FromLocationID: &in.LocationID,
			LotID:          lotID,
			UnitCost:       unitCost,
			TotalCost:      ledger.TotalFor(unitCost, applied),
			Comment:        in.Comment,
			ActorID:        actor.ID,
			ActorName:      actor.Name,
			CreatedAt:      now,
		}
		if err := entries.Create(entry); err != nil {
			return err
		}
		result = &RemoveResult{
			AppliedQuantity: applied,
			Capped:          capped,
			LocationDeleted: locationDeleted,
			Entry:           entry,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Move traslada stock entre dos ubicaciones en una sola transacción. Si el
// destino ya tiene stock del ítem fusiona cantidades y recalcula el costo
// unitario como promedio ponderado; si no, crea el registro heredando costo
// y lote del origen. El total del ítem no cambia.
func (uc *LedgerUseCase) Move(ctx context.Context, actor Actor, in MoveInput) (*MoveResult, error) {
	if in.ItemID == "" || in.FromLocationID == "" || in.ToLocationID == "" ||
		in.Quantity < 1 || actor.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkItem(in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.checkLocations(in.FromLocationID, in.ToLocationID); err != nil {
		return nil, err
	}

	now := time.Now()
	var result *MoveResult
	err := uc.txRunner.Run(ctx, func(
		records repository.QuantityRecordRepository,
		entries repository.LedgerEntryRepository,
	) error {
		// Locks en orden canónico, nunca en el orden del caller.
		locs := []string{in.FromLocationID, in.ToLocationID}
		sort.Strings(locs)

		var src, dst *entity.QuantityRecord
		var destCreated bool
		for _, loc := range locs {
			var err error
			if loc == in.FromLocationID {
				src, err = records.LockForUpdate(in.ItemID, loc)
			} else {
				dst, destCreated, err = records.EnsureAndLock(in.ItemID, loc)
			}
			if err != nil {
				return err
			}
		}
		if src == nil {
			return domain.ErrNotFound
		}
		if src.QuantityOnHand <= 0 {
			uc.log.Error().
				Str("item_id", in.ItemID).
				Str("location_id", in.FromLocationID).
				Int64("quantity_on_hand", src.QuantityOnHand).
				Msg("registro de cantidad no positivo bajo lock")
			return domain.ErrInvariant
		}
		before, err := records.SumByItem(in.ItemID)
		if err != nil {
			return err
		}

		applied := in.Quantity
		capped := false
		if applied > src.QuantityOnHand {
			applied = src.QuantityOnHand
			capped = true
		}
		movedCost := src.UnitCost
		movedLot := src.LotID

		if destCreated {
			dst.QuantityOnHand = applied
			dst.UnitCost = movedCost
			dst.LotID = movedLot
		} else {
			dst.UnitCost = ledger.WeightedAverageCost(applied, movedCost, dst.QuantityOnHand, dst.UnitCost)
			dst.QuantityOnHand += applied
		}
		dst.UpdatedAt = now

		src.QuantityOnHand -= applied
		sourceDeleted := false
		if src.QuantityOnHand == 0 {
			if err := records.Delete(in.ItemID, in.FromLocationID); err != nil {
				return err
			}
			sourceDeleted = true
		} else {
			src.UpdatedAt = now
			if err := records.Save(src); err != nil {
				return err
			}
		}
		if err := records.Save(dst); err != nil {
			return err
		}

		// Un Move nunca cambia el total del ítem; verificarlo antes del commit.
		after, err := records.SumByItem(in.ItemID)
		if err != nil {
			return err
		}
		if after != before {
			uc.log.Error().
				Str("item_id", in.ItemID).
				Int64("total_before", before).
				Int64("total_after", after).
				Msg("el total del ítem cambió durante un Move")
			return domain.ErrInvariant
		}

		entry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			ItemID:         in.ItemID,
			OperationType:  entity.OperationMove,
			Quantity:       applied,
			QuantityChange: 0,
			QuantityBefore: before,
			QuantityAfter:  before,
			FromLocationID: &in.FromLocationID,
			ToLocationID:   &in.ToLocationID,
			LotID:          movedLot,
			UnitCost:       movedCost,
			TotalCost:      ledger.TotalFor(movedCost, applied),
			Comment:        in.Comment,
			ActorID:        actor.ID,
			ActorName:      actor.Name,
			CreatedAt:      now,
		}
		if err := entries.Create(entry); err != nil {
			return err
		}
		result = &MoveResult{
			AppliedQuantity: applied,
			Capped:          capped,
			SourceDeleted:   sourceDeleted,
			DestCreated:     destCreated,
			Entry:           entry,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkItem valida que el ítem exista.
func (uc *LedgerUseCase) checkItem(itemID string) error {
	item, err := uc.itemRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return nil
}

// checkLocations valida que todas las ubicaciones existan.
func (uc *LedgerUseCase) checkLocations(ids ...string) error {
	for _, id := range ids {
		loc, err := uc.locationRepo.GetByID(id)
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}
