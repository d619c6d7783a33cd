package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var brokerFees = FeeConfig{BrokerCommissionPct: 0.15, IVAPct: 21}

func TestEffectiveCostRate(t *testing.T) {
	assert.InDelta(t, 0.001815, brokerFees.EffectiveCostRate(), 1e-12)

	fee := FeeConfig{BrokerCommissionPct: 0.1, IVAPct: 21, OtherCostsPct: 0.05}
	assert.InDelta(t, 0.00121+0.0005, fee.EffectiveCostRate(), 1e-12)
}

func TestEffectiveCostRate_NegativeClamped(t *testing.T) {
	fee := FeeConfig{BrokerCommissionPct: -1, IVAPct: -21, OtherCostsPct: -3}
	assert.Equal(t, 0.0, fee.EffectiveCostRate())
}

func TestNormalizeBaseDays(t *testing.T) {
	assert.Equal(t, 360, NormalizeBaseDays(360))
	assert.Equal(t, 365, NormalizeBaseDays(365))
	assert.Equal(t, 365, NormalizeBaseDays(0))
	assert.Equal(t, 365, NormalizeBaseDays(366))
}

func TestNetCaucionProfit(t *testing.T) {
	res := NetCaucionProfit(1_000_000, 14, 40, brokerFees, 365)
	assert.InDelta(t, 15342.4658, res.Gross, 1e-3)
	assert.InDelta(t, 1815.0, res.Cost, 1e-6)
	assert.InDelta(t, 13527.4658, res.Net, 1e-3)
}

func TestNetCaucionProfit_Base360(t *testing.T) {
	res := NetCaucionProfit(360_000, 30, 36, FeeConfig{}, 360)
	assert.InDelta(t, 10800.0, res.Gross, 1e-6)
	assert.Equal(t, 0.0, res.Cost)
	assert.InDelta(t, 10800.0, res.Net, 1e-6)
}

func TestNetCaucionProfit_CostIndependentOfDays(t *testing.T) {
	short := NetCaucionProfit(1_000_000, 1, 40, brokerFees, 365)
	long := NetCaucionProfit(1_000_000, 30, 40, brokerFees, 365)
	assert.Equal(t, short.Cost, long.Cost)
	assert.Less(t, short.Net, 0.0)
}

func TestCompoundProfit(t *testing.T) {
	res := CompoundProfit(1_000_000, 14, 22.1, 365)
	assert.InDelta(t, 8510.15, res.Gain, 0.01)
	assert.InDelta(t, 1_008_510.15, res.Final, 0.01)
}

func TestCompoundProfit_ZeroAndNegativeDays(t *testing.T) {
	for _, d := range []int{0, -5} {
		res := CompoundProfit(1_000_000, d, 22.1, 365)
		assert.Equal(t, 0.0, res.Gain)
		assert.Equal(t, 1_000_000.0, res.Final)
	}
}

func TestCompoundProfit_AboveSimpleInterest(t *testing.T) {
	simple := GrossInterest(1_000_000, 30, 22.1, 365)
	compound := CompoundProfit(1_000_000, 30, 22.1, 365).Gain
	assert.Greater(t, compound, simple)
}

func TestBreakevenRate(t *testing.T) {
	// sin costos ni extra la valla es la propia tasa de referencia
	assert.InDelta(t, 22.1, BreakevenRate(1_000_000, 14, 22.1, FeeConfig{}, 0, 365), 1e-9)

	r := BreakevenRate(1_000_000, 14, 22.1, brokerFees, 1000, 365)
	frac := 14.0 / 365
	want := 22.1 + 100*0.001815/frac + 100*1000/(1_000_000*frac)
	assert.InDelta(t, want, r, 1e-9)
}

func TestBreakevenRate_Degenerate(t *testing.T) {
	assert.True(t, math.IsInf(BreakevenRate(1_000_000, 0, 22.1, brokerFees, 0, 365), 1))
	assert.True(t, math.IsInf(BreakevenRate(0, 14, 22.1, brokerFees, 100, 365), 1))

	// capital 0 sin extra: sólo el costo
	frac := 14.0 / 365
	assert.InDelta(t, 22.1+100*0.001815/frac, BreakevenRate(0, 14, 22.1, brokerFees, 0, 365), 1e-9)
}

func TestBreakevenRate_MatchesCompoundReference(t *testing.T) {
	capital, days, mm, extra := 1_000_000.0, 14, 22.1, 1000.0

	ref := EquivalentSimpleRate(days, mm, 365)
	rate := BreakevenRate(capital, days, ref, brokerFees, extra, 365)

	net := NetCaucionProfit(capital, days, rate, brokerFees, 365).Net
	want := CompoundProfit(capital, days, mm, 365).Gain + extra
	assert.InDelta(t, want, net, 1e-6)
}

func TestEquivalentSimpleRate(t *testing.T) {
	assert.Equal(t, 22.1, EquivalentSimpleRate(0, 22.1, 365))
	assert.Greater(t, EquivalentSimpleRate(30, 22.1, 365), 22.1)
	// un día: capitalizar o no da lo mismo
	assert.InDelta(t, 22.1, EquivalentSimpleRate(1, 22.1, 365), 1e-9)
}

func TestBondRates(t *testing.T) {
	growth := 119.06 / 118.05

	tna, ok := BondAnnualizedRate(growth, 10)
	assert.True(t, ok)
	assert.InDelta(t, 31.2283, tna, 1e-3)

	tem, ok := BondPeriodicRate(growth, 10)
	assert.True(t, ok)
	assert.InDelta(t, 2.5887, tem, 1e-3)
}

func TestBondRates_InvalidDays(t *testing.T) {
	_, ok := BondAnnualizedRate(1.01, 0)
	assert.False(t, ok)
	_, ok = BondPeriodicRate(1.01, -3)
	assert.False(t, ok)
	_, ok = BondAnnualizedRate(math.Inf(1), 10)
	assert.False(t, ok)
}
