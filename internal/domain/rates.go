package domain

import "math"

// Bases de cálculo para tasas nominales anuales.
const (
	BaseDays360 = 360
	BaseDays365 = 365

	// bondYearDays es la base fija con la que se anualizan los rendimientos de LECAPs.
	bondYearDays = 365.0
	// periodDays es el período de la tasa efectiva mensual (TEM).
	periodDays = 30.0
)

// FeeConfig es el esquema de costos de una operación, todo en porcentaje.
type FeeConfig struct {
	BrokerCommissionPct float64 `yaml:"broker_commission_pct" json:"broker_commission_pct"`
	IVAPct              float64 `yaml:"iva_pct" json:"iva_pct"`
	OtherCostsPct       float64 `yaml:"other_costs_pct" json:"other_costs_pct"`
}

// Sanitize devuelve una copia con todos los porcentajes >= 0.
func (f FeeConfig) Sanitize() FeeConfig {
	return FeeConfig{
		BrokerCommissionPct: clampNonNegative(f.BrokerCommissionPct),
		IVAPct:              clampNonNegative(f.IVAPct),
		OtherCostsPct:       clampNonNegative(f.OtherCostsPct),
	}
}

// EffectiveCostRate devuelve el costo total como fracción del capital:
//
//	comisión/100 × (1 + IVA/100) + otros/100
//
// El IVA aplica sólo sobre la comisión del broker. Nunca es negativo.
func (f FeeConfig) EffectiveCostRate() float64 {
	s := f.Sanitize()
	return s.BrokerCommissionPct/100*(1+s.IVAPct/100) + s.OtherCostsPct/100
}

// Position describe una colocación: capital, plazo en días y tasa nominal anual.
type Position struct {
	Capital           float64 `json:"capital"`
	Days              int     `json:"days"`
	InstrumentRatePct float64 `json:"instrument_rate_pct"`
}

// Sanitize devuelve una copia con capital, días y tasa >= 0.
func (p Position) Sanitize() Position {
	if p.Days < 0 {
		p.Days = 0
	}
	p.Capital = clampNonNegative(p.Capital)
	p.InstrumentRatePct = clampNonNegative(p.InstrumentRatePct)
	return p
}

// NormalizeBaseDays devuelve 360 o 365. Cualquier otro valor cae en 365.
func NormalizeBaseDays(baseDays int) int {
	if baseDays == BaseDays360 {
		return BaseDays360
	}
	return BaseDays365
}

// CaucionResult es el resultado de una caución a plazo fijo.
type CaucionResult struct {
	Gross float64 `json:"gross"`
	Cost  float64 `json:"cost"`
	Net   float64 `json:"net"`
}

// CompoundResult es el resultado de una colocación con capitalización diaria.
type CompoundResult struct {
	Gain  float64 `json:"gain"`
	Final float64 `json:"final"`
}

// GrossInterest calcula el interés simple: capital × TNA/100 × días/base.
func GrossInterest(capital float64, days int, annualRatePct float64, baseDays int) float64 {
	return capital * (annualRatePct / 100) * (float64(days) / float64(NormalizeBaseDays(baseDays)))
}

// NetCaucionProfit calcula interés bruto, costo y neto de una caución.
// El costo es una tasa plana sobre el capital, independiente del plazo
// (así liquidan los brokers).
func NetCaucionProfit(capital float64, days int, annualRatePct float64, fee FeeConfig, baseDays int) CaucionResult {
	gross := GrossInterest(capital, days, annualRatePct, baseDays)
	cost := capital * fee.EffectiveCostRate()
	return CaucionResult{Gross: gross, Cost: cost, Net: gross - cost}
}

// CompoundProfit calcula el resultado de capitalizar diariamente:
//
//	final = capital × (1 + TNA/100/base)^días
//
// Días negativos se tratan como 0.
func CompoundProfit(capital float64, days int, annualRatePct float64, baseDays int) CompoundResult {
	if days < 0 {
		days = 0
	}
	dailyRate := annualRatePct / 100 / float64(NormalizeBaseDays(baseDays))
	final := capital * math.Pow(1+dailyRate, float64(days))
	return CompoundResult{Gain: final - capital, Final: final}
}

// BreakevenRate devuelve la TNA de caución a partir de la cual el neto de la caución
// alcanza la ganancia de referencia (interés simple a refRate) más extraMinProfit:
//
//	frac = días/base
//	tna  = refRate + 100×costRate/frac + 100×extra/(capital×frac)
//
// Con frac <= 0 no existe tasa que alcance: devuelve +Inf.
// Si la referencia capitaliza, pasar su tasa por EquivalentSimpleRate primero.
func BreakevenRate(capital float64, days int, referenceAnnualRatePct float64, fee FeeConfig, extraMinProfit float64, baseDays int) float64 {
	frac := float64(days) / float64(NormalizeBaseDays(baseDays))
	if frac <= 0 {
		return math.Inf(1)
	}
	costTerm := 100 * fee.EffectiveCostRate() / frac
	if capital <= 0 {
		if extraMinProfit > 0 {
			return math.Inf(1)
		}
		return referenceAnnualRatePct + costTerm
	}
	return referenceAnnualRatePct + costTerm + 100*extraMinProfit/(capital*frac)
}

// EquivalentSimpleRate devuelve la TNA de interés simple que, en el plazo dado,
// rinde lo mismo que capitalizar diariamente a annualRatePct.
// Con días <= 0 devuelve la misma tasa.
func EquivalentSimpleRate(days int, annualRatePct float64, baseDays int) float64 {
	if days <= 0 {
		return annualRatePct
	}
	frac := float64(days) / float64(NormalizeBaseDays(baseDays))
	growth := CompoundProfit(1, days, annualRatePct, baseDays).Gain
	return 100 * growth / frac
}

// BondAnnualizedRate anualiza (base 365) el rendimiento directo de un bono:
// (factor - 1) × 365/días × 100. ok=false si días <= 0 o el factor no es finito.
func BondAnnualizedRate(growthFactor float64, days int) (float64, bool) {
	if days <= 0 || !isFinite(growthFactor) {
		return 0, false
	}
	r := (growthFactor - 1) * (bondYearDays / float64(days)) * 100
	if !isFinite(r) {
		return 0, false
	}
	return r, true
}

// BondPeriodicRate calcula la tasa efectiva a 30 días (TEM): (factor^(30/días) - 1) × 100.
// ok=false si días <= 0 o el factor no es finito.
func BondPeriodicRate(growthFactor float64, days int) (float64, bool) {
	if days <= 0 || !isFinite(growthFactor) {
		return 0, false
	}
	r := (math.Pow(growthFactor, periodDays/float64(days)) - 1) * 100
	if !isFinite(r) {
		return 0, false
	}
	return r, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
