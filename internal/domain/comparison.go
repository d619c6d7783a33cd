package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// DefaultCurrency es la moneda de las cauciones que se comparan.
const DefaultCurrency = "ARS"

// Topes de los parámetros del usuario. Dentro de ellos todas las cifras
// derivadas son finitas y la comparación siempre se puede serializar.
const (
	MaxCapital     = 1e15
	MaxHorizonDays = 3650
	MaxRatePct     = 1000
)

// Origen de la tasa de caución usada en la comparación.
const (
	RateSourceManual = "manual"
	RateSourceMarket = "market"
)

// Settings son los parámetros del usuario para una comparación.
// Es un valor inmutable: cada cambio produce un Settings nuevo con Version mayor.
type Settings struct {
	Version            int       `yaml:"version" json:"version"`
	Capital            float64   `yaml:"capital" json:"capital"`
	HorizonDays        int       `yaml:"horizon_days" json:"horizon_days"`
	BaseDays           int       `yaml:"base_days" json:"base_days"` // 360 | 365
	Currency           string    `yaml:"currency" json:"currency"`
	CaucionRatePct     float64   `yaml:"caucion_rate_pct" json:"caucion_rate_pct"` // 0 = mejor oferta del plazo
	MoneyMarketRatePct float64   `yaml:"money_market_rate_pct" json:"money_market_rate_pct"`
	MinExtraProfit     float64   `yaml:"min_extra_profit" json:"min_extra_profit"`
	CaucionFees        FeeConfig `yaml:"caucion_fees" json:"caucion_fees"`
	LecapBrokerFeePct  float64   `yaml:"lecap_broker_fee_pct" json:"lecap_broker_fee_pct"`
	Favorites          []string  `yaml:"favorites" json:"favorites"`
}

// Sanitize devuelve una copia con todos los valores dentro de rango:
// numéricos entre 0 y su tope, base 360|365, moneda en mayúsculas y favoritos
// sin duplicados.
func (s Settings) Sanitize() Settings {
	out := s
	out.Capital = math.Min(clampNonNegative(s.Capital), MaxCapital)
	if out.HorizonDays < 0 {
		out.HorizonDays = 0
	}
	if out.HorizonDays > MaxHorizonDays {
		out.HorizonDays = MaxHorizonDays
	}
	out.BaseDays = NormalizeBaseDays(s.BaseDays)
	out.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if out.Currency == "" {
		out.Currency = DefaultCurrency
	}
	out.CaucionRatePct = math.Min(clampNonNegative(s.CaucionRatePct), MaxRatePct)
	out.MoneyMarketRatePct = math.Min(clampNonNegative(s.MoneyMarketRatePct), MaxRatePct)
	out.MinExtraProfit = clampNonNegative(s.MinExtraProfit)
	out.CaucionFees = s.CaucionFees.Sanitize()
	out.LecapBrokerFeePct = clampNonNegative(s.LecapBrokerFeePct)
	out.Favorites = []string(NewFavoriteSet(s.Favorites...))
	return out
}

// RateThreshold es una tasa umbral que puede ser inalcanzable (+Inf).
// En JSON, inalcanzable se serializa como null.
type RateThreshold float64

// Attainable devuelve false si ninguna tasa alcanza el umbral.
func (r RateThreshold) Attainable() bool {
	return !math.IsInf(float64(r), 1) && !math.IsNaN(float64(r))
}

func (r RateThreshold) MarshalJSON() ([]byte, error) {
	if !r.Attainable() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r *RateThreshold) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = RateThreshold(math.Inf(1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = RateThreshold(v)
	return nil
}

// USDView son los montos principales convertidos a dólares al oficial vendedor.
type USDView struct {
	Rate            float64  `json:"rate"`
	Capital         float64  `json:"capital"`
	MoneyMarketGain float64  `json:"money_market_gain"`
	CaucionNet      *float64 `json:"caucion_net"`
	LecapGain       *float64 `json:"lecap_gain"`
}

// Comparison es el resultado completo de un ciclo: datos planos para presentar
// o persistir. ID lo asigna quien persiste la comparación.
type Comparison struct {
	ID              string         `json:"id,omitempty"`
	SettingsVersion int            `json:"settings_version"`
	ComputedAt      time.Time      `json:"computed_at"`
	Settings        Settings       `json:"settings"`
	Sources         []SourceStatus `json:"sources"`

	BestOffers BestOfferMap `json:"best_offers"`
	Curve      CurveSummary `json:"curve"`

	CaucionRatePct    *float64       `json:"caucion_rate_pct"`
	CaucionRateSource string         `json:"caucion_rate_source,omitempty"`
	Caucion           *CaucionResult `json:"caucion"`
	MoneyMarket       CompoundResult `json:"money_market"`
	BreakevenRatePct  RateThreshold  `json:"breakeven_rate_pct"`

	Bonds          []DerivedBondMetrics `json:"bonds"`
	Recommendation Recommendation       `json:"recommendation"`
	USD            *USDView             `json:"usd,omitempty"`
}

// Compare ejecuta la comparación completa a partir de los parámetros y las fuentes.
// Es una función pura: no hace I/O, no lee estado global y nunca falla. Una fuente
// caída deja vacías (o nil) sólo las cifras que dependen de ella.
func Compare(settings Settings, snap Snapshot) Comparison {
	s := settings.Sanitize()

	c := Comparison{
		SettingsVersion: s.Version,
		ComputedAt:      snap.TakenAt,
		Settings:        s,
		Sources:         snap.Statuses(),
	}

	var offers []MarketOffer
	if snap.Offers.OK() {
		offers = snap.Offers.Data
	}
	c.BestOffers = BestOffersByDay(offers, s.Currency)
	c.Curve = SummarizeCurve(c.BestOffers)

	if s.CaucionRatePct > 0 {
		c.CaucionRatePct = Float(s.CaucionRatePct)
		c.CaucionRateSource = RateSourceManual
	} else if rate, ok := c.BestOffers.RateFor(s.HorizonDays); ok {
		c.CaucionRatePct = Float(rate)
		c.CaucionRateSource = RateSourceMarket
	}
	if c.CaucionRatePct != nil {
		// una tasa de mercado absurda puede desbordar: queda como no calculable
		res := NetCaucionProfit(s.Capital, s.HorizonDays, *c.CaucionRatePct, s.CaucionFees, s.BaseDays)
		if isFinite(res.Gross) && isFinite(res.Net) {
			c.Caucion = &res
		}
	}

	c.MoneyMarket = CompoundProfit(s.Capital, s.HorizonDays, s.MoneyMarketRatePct, s.BaseDays)

	refRate := EquivalentSimpleRate(s.HorizonDays, s.MoneyMarketRatePct, s.BaseDays)
	c.BreakevenRatePct = RateThreshold(
		BreakevenRate(s.Capital, s.HorizonDays, refRate, s.CaucionFees, s.MinExtraProfit, s.BaseDays),
	)

	var rows []BondRow
	if snap.Bonds.OK() {
		rows = snap.Bonds.Data
	}
	pos := Position{
		Capital:           s.Capital,
		Days:              s.HorizonDays,
		InstrumentRatePct: s.MoneyMarketRatePct,
	}
	c.Bonds = DeriveMetrics(NewFavoriteSet(s.Favorites...), rows, pos, s.LecapBrokerFeePct, s.BaseDays)

	var caucionNet *float64
	if c.Caucion != nil {
		caucionNet = Float(c.Caucion.Net)
	}
	c.Recommendation = Recommend(c.MoneyMarket.Gain, caucionNet, EligibleBonds(c.Bonds), s.MinExtraProfit)

	if snap.FX.OK() && snap.FX.Data.Valid() {
		c.USD = usdView(snap.FX.Data, s.Capital, c.MoneyMarket.Gain, caucionNet, c.Bonds)
	}

	return c
}

func usdView(q FXQuote, capital, mmGain float64, caucionNet *float64, bonds []DerivedBondMetrics) *USDView {
	v := &USDView{Rate: q.Sell}
	var ok bool
	if v.Capital, ok = q.ToUSD(capital); !ok {
		return nil
	}
	if v.MoneyMarketGain, ok = q.ToUSD(mmGain); !ok {
		return nil
	}
	if caucionNet != nil {
		if usd, ok := q.ToUSD(*caucionNet); ok {
			v.CaucionNet = &usd
		}
	}
	if b, ok := BestBond(EligibleBonds(bonds)); ok {
		if usd, ok := q.ToUSD(*b.HorizonAdjustedGain); ok {
			v.LecapGain = &usd
		}
	}
	return v
}
