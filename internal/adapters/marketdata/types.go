package marketdata

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/alejandrodnm/rendimientos/internal/domain"
)

// DTOs raw de las fuentes. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// rawValue es un escalar JSON que puede llegar como número, string o null.
// Los números JSON se parsean como tales; los strings con las reglas de número local.
type rawValue struct {
	text   string
	valid  bool
	number bool // llegó como número JSON, sin comillas
}

func (v *rawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = rawValue{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rawValue{text: s, valid: true}
		return nil
	}
	*v = rawValue{text: string(b), valid: true, number: true}
	return nil
}

// String devuelve el texto original, o "" si el valor es null.
// Los números JSON salen sin exponente ("1e1" → "10") para que el parser local
// de la tabla los lea igual.
func (v rawValue) String() string {
	if v.number {
		if f, ok := v.jsonNumber(); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return strings.TrimSpace(v.text)
}

// Float parsea el valor como número no negativo. Un negativo ("-7", -40) no es
// un plazo ni una tasa válida: devuelve ok=false en vez de descartar el signo.
func (v rawValue) Float() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	if v.number {
		f, ok := v.jsonNumber()
		if !ok || f < 0 {
			return 0, false
		}
		return f, true
	}
	s := strings.TrimSpace(v.text)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−") {
		return 0, false
	}
	return domain.ParseLocaleNumber(s)
}

func (v rawValue) jsonNumber() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Ptr devuelve el número parseado o nil si no está informado.
func (v rawValue) Ptr() *float64 {
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

// --- cauciones ---

// caucionOffer es una fila del libro de cauciones.
// Algunas fuentes informan "tasa" y otras "tasaPromedio".
type caucionOffer struct {
	Moneda           string   `json:"moneda"`
	Plazo            rawValue `json:"plazo"`
	FechaVencimiento string   `json:"fechaVencimiento"`
	TasaPromedio     rawValue `json:"tasaPromedio"`
	Tasa             rawValue `json:"tasa"`
	MontoOperado     rawValue `json:"montoOperado"`
}

// --- dólar oficial ---

// fxResponse es la cotización del dólar oficial.
type fxResponse struct {
	Compra             rawValue `json:"compra"`
	Venta              rawValue `json:"venta"`
	FechaActualizacion string   `json:"fechaActualizacion"`
}

// --- LECAPs ---

// priceQuote es el precio en vivo de un ticker.
type priceQuote struct {
	Price  rawValue `json:"price"`
	Change rawValue `json:"change"`
}

// priceMap es la respuesta del endpoint de precios: ticker → cotización.
type priceMap map[string]priceQuote

// bondTable es la tabla exportada por el scraper: headers + filas de celdas.
type bondTable struct {
	Headers []string     `json:"headers"`
	Rows    [][]rawValue `json:"rows"`
}
