package domain

import "errors"

var (
	// ErrFeedUnavailable indica que una fuente de datos no respondió en el ciclo.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrNoData indica que todavía no hay una comparación calculada.
	ErrNoData = errors.New("no data yet")
)
