package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseLocaleNumber convierte un string numérico de mercado ("$ 1234,56", "118.05",
// "40 %") a float64.
//
// Reglas:
//   - descarta todo lo que no sea dígito, '.' o ','
//   - la primera ',' se toma como separador decimal (no distingue separadores de miles)
//   - devuelve ok=false si el resultado no es un número finito o el string queda vacío
//   - el resultado nunca es negativo: el signo se descarta junto con el resto del ruido
//
// Entradas con más de un separador ("1.234,56", "1,234,56") no forman un literal
// válido tras el reemplazo y se rechazan.
func ParseLocaleNumber(raw string) (float64, bool) {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			sb.WriteRune(r)
		}
	}
	cleaned := strings.Replace(sb.String(), ",", ".", 1)
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(v, 0), true
}

// ParseSignedLocaleNumber es ParseLocaleNumber respetando un signo negativo inicial.
// Se usa para variaciones de precio ("-0,35%", "−1.2").
func ParseSignedLocaleNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	negative := strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−")

	v, ok := ParseLocaleNumber(s)
	if !ok {
		return 0, false
	}
	if negative && v != 0 {
		v = -v
	}
	return v, true
}

// parseOptional devuelve un puntero al valor parseado, o nil si el campo está ausente.
func parseOptional(raw string) *float64 {
	v, ok := ParseLocaleNumber(raw)
	if !ok {
		return nil
	}
	return &v
}

// clampNonNegative reemplaza negativos y NaN por 0.
func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Float devuelve un puntero a v. Útil para construir métricas opcionales.
func Float(v float64) *float64 {
	return &v
}
