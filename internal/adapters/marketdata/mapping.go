package marketdata

import (
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
)

// Headers con los que se escriben los precios en vivo sobre una fila de la tabla.
// Son el primer candidato de su campo, así que ganan sobre cualquier columna vieja.
const (
	livePriceHeader  = "Precio"
	liveChangeHeader = "Var %"
	tickerHeader     = "Ticker"
)

var tickerFieldNames = []string{"Ticker", "Especie", "Símbolo", "Simbolo"}

// dateLayouts son los formatos de fecha vistos en las fuentes.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// mapOffers convierte las filas del libro de cauciones a domain.MarketOffer.
// Las filas sin plazo se descartan.
func mapOffers(raw []caucionOffer) []domain.MarketOffer {
	offers := make([]domain.MarketOffer, 0, len(raw))
	for _, r := range raw {
		days, ok := r.Plazo.Float()
		if !ok {
			continue
		}
		rate := r.TasaPromedio.Ptr()
		if rate == nil {
			rate = r.Tasa.Ptr()
		}
		offers = append(offers, domain.MarketOffer{
			Currency:       strings.ToUpper(strings.TrimSpace(r.Moneda)),
			DaysToMaturity: days,
			MaturityDate:   normalizeDate(r.FechaVencimiento),
			SettlementRate: rate,
			TradedQty:      r.MontoOperado.Ptr(),
		})
	}
	return offers
}

// mapFX convierte la cotización del dólar oficial.
func mapFX(r fxResponse) domain.FXQuote {
	q := domain.FXQuote{}
	q.Buy, _ = r.Compra.Float()
	q.Sell, _ = r.Venta.Float()
	if t, ok := parseDate(r.FechaActualizacion); ok {
		q.UpdatedAt = t
	}
	return q
}

// mergeBonds reconcilia la tabla exportada con el mapa de precios en vivo.
//
//   - cada fila de la tabla con ticker se convierte en un BondRow
//   - el precio y la variación en vivo pisan los de la tabla
//   - los tickers que sólo están en el mapa de precios se agregan como filas
//     mínimas (ticker, precio, variación), ordenadas por ticker
//
// Con table nil todas las filas salen del mapa de precios.
func mergeBonds(table *bondTable, prices priceMap) []domain.BondRow {
	live := make(map[string]priceQuote, len(prices))
	for t, q := range prices {
		if n := domain.NormalizeTicker(t); n != "" {
			live[n] = q
		}
	}

	var rows []domain.BondRow
	seen := make(map[string]bool)
	if table != nil {
		for _, cells := range table.Rows {
			fields := rowFields(table.Headers, cells)
			ticker := domain.NormalizeTicker(domain.ResolveField(fields, tickerFieldNames))
			if ticker == "" {
				continue
			}
			if q, ok := live[ticker]; ok {
				applyLive(fields, q)
			}
			seen[ticker] = true
			rows = append(rows, domain.BondRow{Ticker: ticker, Fields: fields})
		}
	}

	var missing []string
	for t := range live {
		if !seen[t] {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)

	for _, t := range missing {
		fields := map[string]string{tickerHeader: t}
		applyLive(fields, live[t])
		rows = append(rows, domain.BondRow{Ticker: t, Fields: fields})
	}
	return rows
}

// rowFields arma el mapa header → celda. Celdas de más se ignoran;
// headers sin celda quedan ausentes.
func rowFields(headers []string, cells []rawValue) map[string]string {
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || i >= len(cells) {
			continue
		}
		fields[h] = cells[i].String()
	}
	return fields
}

func applyLive(fields map[string]string, q priceQuote) {
	if p := q.Price.String(); p != "" {
		fields[livePriceHeader] = p
	}
	if c := q.Change.String(); c != "" {
		fields[liveChangeHeader] = c
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeDate devuelve la fecha como YYYY-MM-DD, o el texto original
// si no tiene un formato conocido.
func normalizeDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(s)
}
