package domain

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Rango de plazos que participan en la selección de mejores tasas de caución.
const (
	MinOfferDays = 1
	MaxOfferDays = 30
)

// MarketOffer es una fila del libro de cauciones.
// SettlementRate y TradedQty son nil cuando el feed no los informa.
type MarketOffer struct {
	Currency       string   `json:"currency"`
	DaysToMaturity float64  `json:"days_to_maturity"`
	MaturityDate   string   `json:"maturity_date"` // YYYY-MM-DD
	SettlementRate *float64 `json:"settlement_rate"`
	TradedQty      *float64 `json:"traded_qty"`
}

// Rate devuelve la tasa de liquidación, o 0 si no está informada.
// Sólo para comparar ofertas: no usar como tasa de la colocación.
func (o MarketOffer) Rate() float64 {
	if o.SettlementRate == nil || !isFinite(*o.SettlementRate) {
		return 0
	}
	return *o.SettlementRate
}

// DayBucket devuelve el plazo como entero y si la oferta participa de la selección
// (plazo entero entre MinOfferDays y MaxOfferDays).
func (o MarketOffer) DayBucket() (int, bool) {
	d := o.DaysToMaturity
	if !isFinite(d) || d != math.Trunc(d) {
		return 0, false
	}
	if d < MinOfferDays || d > MaxOfferDays {
		return 0, false
	}
	return int(d), true
}

// BestOfferMap mapea plazo en días → oferta con mayor tasa para ese plazo.
type BestOfferMap map[int]MarketOffer

// Days devuelve los plazos presentes, ordenados.
func (m BestOfferMap) Days() []int {
	days := make([]int, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// RateFor devuelve la tasa de la mejor oferta para el plazo dado.
// ok=false si no hay oferta para ese plazo o la oferta no informa tasa.
func (m BestOfferMap) RateFor(days int) (float64, bool) {
	o, ok := m[days]
	if !ok || o.SettlementRate == nil || !isFinite(*o.SettlementRate) {
		return 0, false
	}
	return *o.SettlementRate, true
}

// BestOffersByDay filtra las ofertas de la moneda pedida y se queda con la de mayor
// tasa por plazo (1 a 30 días). Ante empate gana la primera vista.
// Plazos no enteros o fuera de rango se descartan sin error.
func BestOffersByDay(offers []MarketOffer, currency string) BestOfferMap {
	want := strings.ToUpper(strings.TrimSpace(currency))
	best := make(BestOfferMap)

	for _, o := range offers {
		if strings.ToUpper(strings.TrimSpace(o.Currency)) != want {
			continue
		}
		day, ok := o.DayBucket()
		if !ok {
			continue
		}
		if cur, seen := best[day]; seen && o.Rate() <= cur.Rate() {
			continue
		}
		best[day] = o
	}
	return best
}

// CurveSummary resume la curva de mejores tasas de caución.
type CurveSummary struct {
	Buckets       int     `json:"buckets"`
	MeanRatePct   float64 `json:"mean_rate_pct"` // promedio ponderado por monto operado
	StdDevPct     float64 `json:"std_dev_pct"`
	MaxRatePct    float64 `json:"max_rate_pct"`
	MaxRateDays   int     `json:"max_rate_days"`
	WeightedByQty bool    `json:"weighted_by_qty"` // false si alguna oferta no informa monto
}

// SummarizeCurve calcula promedio y dispersión de las tasas informadas.
// Pondera por monto operado cuando todas las ofertas con tasa lo informan.
func SummarizeCurve(best BestOfferMap) CurveSummary {
	var rates, weights []float64
	summary := CurveSummary{WeightedByQty: true}

	for _, d := range best.Days() {
		rate, ok := best.RateFor(d)
		if !ok {
			continue
		}
		rates = append(rates, rate)
		if rate > summary.MaxRatePct || len(rates) == 1 {
			summary.MaxRatePct = rate
			summary.MaxRateDays = d
		}

		qty := best[d].TradedQty
		if qty == nil || *qty <= 0 || !isFinite(*qty) {
			summary.WeightedByQty = false
			continue
		}
		weights = append(weights, *qty)
	}

	summary.Buckets = len(rates)
	if len(rates) == 0 {
		summary.WeightedByQty = false
		return summary
	}

	var w []float64
	if summary.WeightedByQty && len(weights) == len(rates) {
		w = weights
	} else {
		summary.WeightedByQty = false
	}

	summary.MeanRatePct = stat.Mean(rates, w)
	if !isFinite(summary.MeanRatePct) && w != nil {
		// tasa × monto desbordó: se cae al promedio simple
		w = nil
		summary.WeightedByQty = false
		summary.MeanRatePct = stat.Mean(rates, nil)
	}
	if !isFinite(summary.MeanRatePct) {
		summary.MeanRatePct = 0
	}
	if len(rates) > 1 {
		if sd := stat.StdDev(rates, w); isFinite(sd) {
			summary.StdDevPct = sd
		}
	}
	return summary
}
