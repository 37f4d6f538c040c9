package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// WeightedAverageCost
// ──────────────────────────────────────────────────────────────────────────────

// Mover 10 @ 1.00 sobre 10 @ 3.00 → promedio 2.00 (escenario de fusión clásico).
func TestWeightedAverageCost_FusionSimetrica(t *testing.T) {
	got := ledger.WeightedAverageCost(10, dec("1.00"), 10, dec("3.00"))
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("2.00")),
		"promedio de 10@1.00 y 10@3.00 debe ser 2.00, fue %s", got)
}

func TestWeightedAverageCost_PonderaPorCantidad(t *testing.T) {
	// 30 @ 1.00 + 10 @ 5.00 = (30 + 50) / 40 = 2.00
	got := ledger.WeightedAverageCost(30, dec("1.00"), 10, dec("5.00"))
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("2.00")))
}

func TestWeightedAverageCost_RedondeaA4Decimales(t *testing.T) {
	// (1*1.00 + 2*2.00) / 3 = 1.6666... → 1.6667
	got := ledger.WeightedAverageCost(1, dec("1.00"), 2, dec("2.00"))
	require.NotNil(t, got)
	assert.Equal(t, "1.6667", got.StringFixed(4))
}

func TestWeightedAverageCost_AmbosNil_QuedaNil(t *testing.T) {
	assert.Nil(t, ledger.WeightedAverageCost(5, nil, 5, nil),
		"sin información de costo en ningún lado el resultado debe quedar nil")
}

func TestWeightedAverageCost_NilCuentaComoCeroSiElOtroTieneCosto(t *testing.T) {
	// Entrada sin costo (nil → 0) sobre 10 @ 2.00: (0 + 20) / 20 = 1.00
	got := ledger.WeightedAverageCost(10, nil, 10, dec("2.00"))
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("1.00")))

	// Posición sin costo, entrada con costo: (10*3.00 + 0) / 20 = 1.50
	got = ledger.WeightedAverageCost(10, dec("3.00"), 10, nil)
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("1.50")))
}

func TestWeightedAverageCost_CantidadTotalCero_QuedaNil(t *testing.T) {
	assert.Nil(t, ledger.WeightedAverageCost(0, dec("1.00"), 0, dec("2.00")))
}

// ──────────────────────────────────────────────────────────────────────────────
// DerivePricing
// ──────────────────────────────────────────────────────────────────────────────

func TestDerivePricing_SoloUnitario_DerivaTotal(t *testing.T) {
	unit, total, err := ledger.DerivePricing(200, dec("0.50"), nil)
	require.NoError(t, err)
	require.NotNil(t, unit)
	require.NotNil(t, total)
	assert.True(t, unit.Equal(decimal.RequireFromString("0.50")))
	assert.True(t, total.Equal(decimal.RequireFromString("100.00")))
}

func TestDerivePricing_SoloTotal_DerivaUnitarioRedondeado(t *testing.T) {
	// 10.00 / 3 = 3.3333...
	unit, total, err := ledger.DerivePricing(3, nil, dec("10.00"))
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.Equal(t, "3.3333", unit.StringFixed(4))
	assert.True(t, total.Equal(decimal.RequireFromString("10.00")))
}

func TestDerivePricing_AmbosCampos_EsErrorDeValidacion(t *testing.T) {
	_, _, err := ledger.DerivePricing(5, dec("1.00"), dec("5.00"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput,
		"precio unitario y total del lote son mutuamente excluyentes")
}

func TestDerivePricing_SinPrecios_QuedanNil(t *testing.T) {
	unit, total, err := ledger.DerivePricing(5, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, unit)
	assert.Nil(t, total)
}

func TestDerivePricing_PrecioNegativo_EsError(t *testing.T) {
	_, _, err := ledger.DerivePricing(5, dec("-1.00"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = ledger.DerivePricing(5, nil, dec("-5.00"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTotalFor(t *testing.T) {
	assert.Nil(t, ledger.TotalFor(nil, 10))

	got := ledger.TotalFor(dec("0.15"), 25)
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("3.75")))
}
