package domain

import "time"

// FXQuote es la cotización del dólar oficial. Sólo se usa para mostrar montos en USD.
type FXQuote struct {
	Buy       float64   `json:"buy"`
	Sell      float64   `json:"sell"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid devuelve true si la cotización sirve para convertir.
func (q FXQuote) Valid() bool {
	return q.Sell > 0 && isFinite(q.Sell)
}

// ToUSD convierte un monto en ARS a USD al tipo vendedor.
// ok=false si la cotización no es válida o el resultado no es finito.
func (q FXQuote) ToUSD(amountARS float64) (float64, bool) {
	if !q.Valid() {
		return 0, false
	}
	usd := amountARS / q.Sell
	if !isFinite(usd) {
		return 0, false
	}
	return usd, true
}
