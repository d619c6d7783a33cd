package domain

import "fmt"

// Instrument identifica cada una de las colocaciones comparadas.
type Instrument int

const (
	InstrumentMoneyMarket Instrument = iota // FCI money market, capitaliza diario
	InstrumentCaucion                       // caución tomadora a plazo fijo
	InstrumentLecap                         // letra capitalizable a descuento
)

func (i Instrument) String() string {
	switch i {
	case InstrumentCaucion:
		return "CAUCION"
	case InstrumentLecap:
		return "LECAP"
	default:
		return "MONEY_MARKET"
	}
}

// MarshalText permite serializar el instrumento por nombre (JSON, SQLite).
func (i Instrument) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText es la inversa de MarshalText.
func (i *Instrument) UnmarshalText(b []byte) error {
	switch string(b) {
	case "MONEY_MARKET":
		*i = InstrumentMoneyMarket
	case "CAUCION":
		*i = InstrumentCaucion
	case "LECAP":
		*i = InstrumentLecap
	default:
		return fmt.Errorf("domain.Instrument: unknown %q", string(b))
	}
	return nil
}

// Recommendation es el resultado de comparar las tres colocaciones.
// CaucionExtra y LecapExtra son la ganancia adicional sobre el money market
// (nil si no se pudo calcular).
type Recommendation struct {
	Winner           Instrument `json:"winner"`
	Label            string     `json:"label"`
	SupportingTicker string     `json:"supporting_ticker,omitempty"`
	SupportingDays   *int       `json:"supporting_days,omitempty"`
	CaucionExtra     *float64   `json:"caucion_extra"`
	LecapExtra       *float64   `json:"lecap_extra"`
}

// BestBond devuelve el bono elegible con mayor ganancia ajustada al horizonte.
// Ante empate gana el primero. ok=false si ninguno tiene ganancia calculable.
func BestBond(eligible []DerivedBondMetrics) (DerivedBondMetrics, bool) {
	var best DerivedBondMetrics
	found := false
	for _, b := range eligible {
		if !b.HorizonEligible || b.HorizonAdjustedGain == nil || !isFinite(*b.HorizonAdjustedGain) {
			continue
		}
		if !found || *b.HorizonAdjustedGain > *best.HorizonAdjustedGain {
			best = b
			found = true
		}
	}
	return best, found
}

// Recommend elige la colocación a recomendar.
//
//	caucionExtra = caución neta - money market
//	lecapExtra   = mejor LECAP ajustada al horizonte - money market
//
// Una alternativa "supera la valla" si su extra es >= minExtraProfit.
//  1. ninguna supera → money market
//  2. sólo caución → caución
//  3. sólo LECAP → esa LECAP
//  4. ambas → la de mayor ganancia absoluta; empate gana la LECAP
//
// No modifica sus argumentos: mismas entradas, misma recomendación.
func Recommend(compoundGain float64, caucionNetGain *float64, eligible []DerivedBondMetrics, minExtraProfit float64) Recommendation {
	rec := Recommendation{}

	var caucionGain, lecapGain float64
	if caucionNetGain != nil && isFinite(*caucionNetGain) {
		caucionGain = *caucionNetGain
		rec.CaucionExtra = Float(caucionGain - compoundGain)
	}

	bond, hasBond := BestBond(eligible)
	if hasBond {
		lecapGain = *bond.HorizonAdjustedGain
		rec.LecapExtra = Float(lecapGain - compoundGain)
	}

	caucionClears := rec.CaucionExtra != nil && *rec.CaucionExtra >= minExtraProfit
	lecapClears := rec.LecapExtra != nil && *rec.LecapExtra >= minExtraProfit

	switch {
	case caucionClears && lecapClears:
		if caucionGain > lecapGain {
			rec.setCaucion()
		} else {
			rec.setLecap(bond)
		}
	case caucionClears:
		rec.setCaucion()
	case lecapClears:
		rec.setLecap(bond)
	default:
		rec.Winner = InstrumentMoneyMarket
		rec.Label = "FCI Money Market"
	}
	return rec
}

func (r *Recommendation) setCaucion() {
	r.Winner = InstrumentCaucion
	r.Label = "Caución"
}

func (r *Recommendation) setLecap(b DerivedBondMetrics) {
	r.Winner = InstrumentLecap
	r.SupportingTicker = b.Ticker
	r.Label = "LECAP " + b.Ticker
	if b.MaturityDays != nil {
		days := *b.MaturityDays
		r.SupportingDays = &days
		r.Label = fmt.Sprintf("LECAP %s (%dd)", b.Ticker, days)
	}
}
