package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain"
)

// CostScale es la cantidad de decimales de todo costo unitario y total.
const CostScale = 4

// WeightedAverageCost calcula el costo promedio ponderado al fusionar una
// cantidad entrante con una posición existente (servicio de dominio, puro):
//
//	NuevoCosto = (CantEntrada*CostoEntrada + CantExistente*CostoExistente) / (CantEntrada + CantExistente)
//
// Un costo nil cuenta como cero solo si el otro lado tiene costo; si ambos
// son nil el resultado queda nil (no hay información de precio que fusionar).
func WeightedAverageCost(inQty int64, inCost *decimal.Decimal, curQty int64, curCost *decimal.Decimal) *decimal.Decimal {
	if inCost == nil && curCost == nil {
		return nil
	}
	total := inQty + curQty
	if total <= 0 {
		return nil
	}
	in := decimal.Zero
	if inCost != nil {
		in = *inCost
	}
	cur := decimal.Zero
	if curCost != nil {
		cur = *curCost
	}
	num := decimal.NewFromInt(inQty).Mul(in).Add(decimal.NewFromInt(curQty).Mul(cur))
	avg := num.DivRound(decimal.NewFromInt(total), CostScale)
	return &avg
}

// DerivePricing resuelve el par (costo unitario, costo total del lote) a
// partir de la entrada del caller. Son mutuamente excluyentes: si llegan
// ambos es un error de validación; si llega uno se deriva el otro con
// redondeo a CostScale; si no llega ninguno ambos quedan nil.
func DerivePricing(quantity int64, unitPrice, totalPrice *decimal.Decimal) (unit, total *decimal.Decimal, err error) {
	if unitPrice != nil && totalPrice != nil {
		return nil, nil, domain.ErrInvalidInput
	}
	if quantity <= 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	qty := decimal.NewFromInt(quantity)
	switch {
	case unitPrice != nil:
		if unitPrice.IsNegative() {
			return nil, nil, domain.ErrInvalidInput
		}
		u := unitPrice.Round(CostScale)
		t := u.Mul(qty).Round(CostScale)
		return &u, &t, nil
	case totalPrice != nil:
		if totalPrice.IsNegative() {
			return nil, nil, domain.ErrInvalidInput
		}
		t := totalPrice.Round(CostScale)
		u := t.DivRound(qty, CostScale)
		return &u, &t, nil
	}
	return nil, nil, nil
}

// TotalFor devuelve unitCost * quantity redondeado a CostScale, o nil si no
// hay costo unitario. Se usa para valorar salidas y traslados al costo del
// registro de origen.
func TotalFor(unitCost *decimal.Decimal, quantity int64) *decimal.Decimal {
	if unitCost == nil {
		return nil
	}
	t := unitCost.Mul(decimal.NewFromInt(quantity)).Round(CostScale)
	return &t
}
