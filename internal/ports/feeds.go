package ports

import (
	"context"

	"github.com/alejandrodnm/rendimientos/internal/domain"
)

// OfferProvider obtiene el libro de cauciones.
type OfferProvider interface {
	// FetchOffers devuelve todas las ofertas publicadas, de cualquier moneda y plazo.
	// El filtrado por moneda y plazo lo hace el dominio.
	FetchOffers(ctx context.Context) ([]domain.MarketOffer, error)
}

// BondProvider obtiene las filas de LECAPs ya reconciliadas con los precios en vivo.
type BondProvider interface {
	FetchBonds(ctx context.Context) ([]domain.BondRow, error)
}

// FXProvider obtiene la cotización del dólar oficial.
type FXProvider interface {
	FetchFX(ctx context.Context) (domain.FXQuote, error)
}
