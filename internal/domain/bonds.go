package domain

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Headers candidatos por campo, en orden de prioridad. Las tablas de LECAPs
// cambian de nombres de columna seguido ("Días", "Dias", "Días al Vto").
var (
	DaysFieldNames       = []string{"Días", "Dias", "Días al Vto", "Dias al Vto", "Plazo"}
	MaturityFieldNames   = []string{"Vencimiento", "Fecha Vto", "Fecha de Vencimiento", "Vto"}
	PriceFieldNames      = []string{"Precio", "Último", "Ultimo", "Price"}
	ChangeFieldNames     = []string{"Var %", "Variación", "Variacion", "Var", "Change"}
	RedemptionFieldNames = []string{"Pago Final", "Valor Final", "Monto al Vto", "VF"}
)

// maxMaturityDays descarta plazos que no pueden ser de una letra (100 años).
const maxMaturityDays = 36500

// dateLike reconoce fechas ("24/10/2025", "2025-10-24"). La búsqueda difusa de
// "Días al Vto" puede caer en una columna "Vto" con la fecha de vencimiento.
var dateLike = regexp.MustCompile(`^\d{1,4}[/-]\d{1,2}[/-]\d{1,4}$`)

// BondRow es una fila de la tabla de bonos ya reconciliada con los precios en vivo.
// Fields conserva los headers originales; los campos ausentes no están o están vacíos.
type BondRow struct {
	Ticker string            `json:"ticker"`
	Fields map[string]string `json:"fields"`
}

// Field resuelve un campo por nombre semántico. "" si no existe.
func (r BondRow) Field(candidates []string) string {
	return strings.TrimSpace(ResolveField(r.Fields, candidates))
}

// NormalizeTicker devuelve el ticker en mayúsculas y sin espacios.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// FavoriteSet es el conjunto ordenado de tickers favoritos, sin duplicados.
type FavoriteSet []string

// NewFavoriteSet normaliza los tickers y descarta vacíos y repetidos,
// conservando el orden de la primera aparición.
func NewFavoriteSet(tickers ...string) FavoriteSet {
	seen := make(map[string]bool, len(tickers))
	set := make(FavoriteSet, 0, len(tickers))
	for _, t := range tickers {
		n := NormalizeTicker(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		set = append(set, n)
	}
	return set
}

// Contains devuelve true si el ticker está en el conjunto.
func (f FavoriteSet) Contains(ticker string) bool {
	n := NormalizeTicker(ticker)
	for _, t := range f {
		if t == n {
			return true
		}
	}
	return false
}

// Sorted devuelve una copia ordenada alfabéticamente, para mostrar.
func (f FavoriteSet) Sorted() []string {
	out := append([]string(nil), f...)
	sort.Strings(out)
	return out
}

// DerivedBondMetrics son las métricas de una LECAP para un capital y horizonte dados.
// Los punteros nil son métricas no calculables con los datos disponibles.
type DerivedBondMetrics struct {
	Ticker          string   `json:"ticker"`
	MaturityDate    string   `json:"maturity_date,omitempty"`
	MaturityDays    *int     `json:"maturity_days"`
	Price           *float64 `json:"price"`
	PriceChangePct  *float64 `json:"price_change_pct"`
	RedemptionValue *float64 `json:"redemption_value"`

	PriceWithFee      *float64 `json:"price_with_fee"`
	DirectReturn      *float64 `json:"direct_return"`
	AnnualizedRatePct *float64 `json:"annualized_rate_pct"` // TNA base 365
	PeriodicRatePct   *float64 `json:"periodic_rate_pct"`   // TEM

	UnitsBought      int64    `json:"units_bought"`
	InvestedAmount   float64  `json:"invested_amount"`
	LeftoverCapital  float64  `json:"leftover_capital"`
	PayoutAtMaturity *float64 `json:"payout_at_maturity"`
	GainAmount       *float64 `json:"gain_amount"`

	HorizonEligible     bool     `json:"horizon_eligible"`
	HorizonAdjustedGain *float64 `json:"horizon_adjusted_gain"`
}

// DeriveMetrics calcula las métricas de cada favorito presente en rows.
//
//   - pos.Capital: capital a invertir en cada bono (se evalúa uno por vez)
//   - pos.Days: horizonte de la comparación
//   - pos.InstrumentRatePct: TNA del money market donde se reinvierte el cobro
//     hasta completar el horizonte
//   - brokerFeePct: comisión de compra, se suma al precio
//
// Los favoritos sin fila se omiten. Un campo ausente sólo anula las métricas que
// dependen de él.
func DeriveMetrics(favorites FavoriteSet, rows []BondRow, pos Position, brokerFeePct float64, baseDays int) []DerivedBondMetrics {
	pos = pos.Sanitize()
	brokerFeePct = clampNonNegative(brokerFeePct)

	index := make(map[string]BondRow, len(rows))
	for _, r := range rows {
		t := NormalizeTicker(r.Ticker)
		if t == "" {
			continue
		}
		if _, dup := index[t]; !dup {
			index[t] = r
		}
	}

	out := make([]DerivedBondMetrics, 0, len(favorites))
	for _, ticker := range favorites {
		row, ok := index[NormalizeTicker(ticker)]
		if !ok {
			continue
		}
		out = append(out, deriveBond(NormalizeTicker(ticker), row, pos, brokerFeePct, baseDays))
	}
	return out
}

func deriveBond(ticker string, row BondRow, pos Position, brokerFeePct float64, baseDays int) DerivedBondMetrics {
	m := DerivedBondMetrics{
		Ticker:          ticker,
		MaturityDate:    row.Field(MaturityFieldNames),
		Price:           parseOptional(row.Field(PriceFieldNames)),
		RedemptionValue: parseOptional(row.Field(RedemptionFieldNames)),
		LeftoverCapital: pos.Capital,
	}
	if days, ok := parseMaturityDays(row.Field(DaysFieldNames)); ok {
		m.MaturityDays = &days
	}
	if chg, ok := ParseSignedLocaleNumber(row.Field(ChangeFieldNames)); ok {
		m.PriceChangePct = &chg
	}

	if m.Price != nil {
		m.PriceWithFee = finiteOrNil(*m.Price * (1 + brokerFeePct/100))
	}

	pwfOK := m.PriceWithFee != nil && *m.PriceWithFee > 0
	if pwfOK && m.RedemptionValue != nil {
		pwf := *m.PriceWithFee
		m.DirectReturn = finiteOrNil((*m.RedemptionValue - pwf) / pwf)

		if m.MaturityDays != nil {
			growth := *m.RedemptionValue / pwf
			if r, ok := BondAnnualizedRate(growth, *m.MaturityDays); ok {
				m.AnnualizedRatePct = &r
			}
			if r, ok := BondPeriodicRate(growth, *m.MaturityDays); ok {
				m.PeriodicRatePct = &r
			}
		}
	}

	if pwfOK {
		m.UnitsBought, m.InvestedAmount = sizePosition(pos.Capital, *m.PriceWithFee)
		m.LeftoverCapital = math.Max(pos.Capital-m.InvestedAmount, 0)
	}

	if m.UnitsBought > 0 && m.RedemptionValue != nil {
		redemption := *m.RedemptionValue
		m.PayoutAtMaturity = finiteOrNil(float64(m.UnitsBought)*redemption + m.LeftoverCapital)
		if m.PayoutAtMaturity != nil {
			m.GainAmount = finiteOrNil(*m.PayoutAtMaturity - pos.Capital)
		}
	}

	if m.MaturityDays != nil && *m.MaturityDays > 0 && *m.MaturityDays <= pos.Days {
		m.HorizonEligible = true
		if m.PayoutAtMaturity != nil {
			remaining := pos.Days - *m.MaturityDays
			final := CompoundProfit(*m.PayoutAtMaturity, remaining, pos.InstrumentRatePct, baseDays).Final
			m.HorizonAdjustedGain = finiteOrNil(final - pos.Capital)
		}
	}

	return m
}

// parseMaturityDays lee los días al vencimiento. Una fecha o un plazo fuera de
// rango no son días: ok=false.
func parseMaturityDays(raw string) (int, bool) {
	if dateLike.MatchString(strings.TrimSpace(raw)) {
		return 0, false
	}
	d, ok := ParseLocaleNumber(raw)
	if !ok || d > maxMaturityDays {
		return 0, false
	}
	return int(math.Round(d)), true
}

// maxUnits acota las unidades a enteros exactos en float64.
const maxUnits = 1 << 53

// sizePosition devuelve cuántas unidades enteras se compran con capital a
// priceWithFee y el monto invertido. Garantiza units × price <= capital.
// Un precio tan chico que las unidades superan maxUnits no se opera.
func sizePosition(capital, priceWithFee float64) (int64, float64) {
	if capital <= 0 || priceWithFee <= 0 || !isFinite(priceWithFee) || !isFinite(capital) {
		return 0, 0
	}
	if capital/priceWithFee >= maxUnits {
		return 0, 0
	}
	units := decimal.NewFromFloat(capital).
		Div(decimal.NewFromFloat(priceWithFee)).
		Floor().
		IntPart()

	for units > 0 && float64(units)*priceWithFee > capital {
		units--
	}
	return units, float64(units) * priceWithFee
}

// finiteOrNil devuelve nil para NaN e infinitos: la métrica no es calculable.
func finiteOrNil(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// EligibleBonds devuelve los bonos que vencen dentro del horizonte.
func EligibleBonds(metrics []DerivedBondMetrics) []DerivedBondMetrics {
	out := make([]DerivedBondMetrics, 0, len(metrics))
	for _, m := range metrics {
		if m.HorizonEligible {
			out = append(out, m)
		}
	}
	return out
}
