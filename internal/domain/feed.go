package domain

import "time"

// Nombres de las fuentes, usados en logs, estados y storage.
const (
	SourceCaucion = "caucion"
	SourceBonds   = "lecaps"
	SourceFX      = "dolar_oficial"
)

// Feed es el resultado de obtener una fuente: datos o error, nunca se propaga el error.
type Feed[T any] struct {
	Data      T
	Err       error
	FetchedAt time.Time
}

// Available construye un Feed exitoso.
func Available[T any](data T, at time.Time) Feed[T] {
	return Feed[T]{Data: data, FetchedAt: at}
}

// Unavailable construye un Feed fallido; Data queda en su valor cero.
func Unavailable[T any](err error, at time.Time) Feed[T] {
	if err == nil {
		err = ErrFeedUnavailable
	}
	return Feed[T]{Err: err, FetchedAt: at}
}

// OK devuelve true si la fuente respondió.
func (f Feed[T]) OK() bool {
	return f.Err == nil
}

// Snapshot agrupa las tres fuentes obtenidas en un mismo ciclo.
type Snapshot struct {
	TakenAt time.Time
	Offers  Feed[[]MarketOffer]
	Bonds   Feed[[]BondRow]
	FX      Feed[FXQuote]
}

// SourceStatus es el estado de una fuente tal como se muestra/persiste.
type SourceStatus struct {
	Source    string    `json:"source"`
	OK        bool      `json:"ok"`
	Rows      int       `json:"rows"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Statuses devuelve el estado de cada fuente en orden fijo.
func (s Snapshot) Statuses() []SourceStatus {
	fxRows := 0
	if s.FX.OK() && s.FX.Data.Valid() {
		fxRows = 1
	}
	return []SourceStatus{
		status(SourceCaucion, s.Offers.Err, len(s.Offers.Data), s.Offers.FetchedAt),
		status(SourceBonds, s.Bonds.Err, len(s.Bonds.Data), s.Bonds.FetchedAt),
		status(SourceFX, s.FX.Err, fxRows, s.FX.FetchedAt),
	}
}

func status(source string, err error, rows int, at time.Time) SourceStatus {
	st := SourceStatus{Source: source, OK: err == nil, Rows: rows, FetchedAt: at}
	if err != nil {
		st.Error = err.Error()
		st.Rows = 0
	}
	return st
}
