package marketdata

// feeds.go: una función por fuente. Cada una devuelve su error envuelto;
// el comparador decide qué hacer con una fuente caída.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/rendimientos/internal/domain"
)

// FetchOffers devuelve el libro de cauciones completo.
func (c *Client) FetchOffers(ctx context.Context) ([]domain.MarketOffer, error) {
	var raw []caucionOffer
	if err := c.get(ctx, c.feedLimiter, c.endpoints.Caucion, &raw); err != nil {
		return nil, fmt.Errorf("marketdata.FetchOffers: %w", err)
	}
	offers := mapOffers(raw)
	slog.Debug("caucion offers fetched", "raw", len(raw), "mapped", len(offers))
	return offers, nil
}

// FetchFX devuelve la cotización del dólar oficial.
func (c *Client) FetchFX(ctx context.Context) (domain.FXQuote, error) {
	var raw fxResponse
	if err := c.get(ctx, c.fxLimiter, c.endpoints.FX, &raw); err != nil {
		return domain.FXQuote{}, fmt.Errorf("marketdata.FetchFX: %w", err)
	}
	q := mapFX(raw)
	if !q.Valid() {
		return domain.FXQuote{}, fmt.Errorf("marketdata.FetchFX: invalid quote: %w", domain.ErrFeedUnavailable)
	}
	slog.Debug("fx quote fetched", "buy", q.Buy, "sell", q.Sell)
	return q, nil
}

// FetchBonds obtiene la tabla de LECAPs y el mapa de precios en vivo y los reconcilia.
// Si falla sólo la tabla, las filas salen del mapa de precios; si falla sólo el
// mapa, se usa la tabla tal cual. Si fallan ambas, devuelve error.
func (c *Client) FetchBonds(ctx context.Context) ([]domain.BondRow, error) {
	var prices priceMap
	pricesErr := c.get(ctx, c.feedLimiter, c.endpoints.BondPrices, &prices)

	var table bondTable
	tableErr := c.get(ctx, c.feedLimiter, c.endpoints.BondTable, &table)

	if pricesErr != nil && tableErr != nil {
		return nil, fmt.Errorf("marketdata.FetchBonds: %w", errors.Join(pricesErr, tableErr))
	}

	var tablePtr *bondTable
	if tableErr != nil {
		slog.Warn("bond table unavailable, using live prices only", "err", tableErr)
	} else {
		tablePtr = &table
	}
	if pricesErr != nil {
		slog.Warn("bond prices unavailable, using table prices", "err", pricesErr)
	}

	rows := mergeBonds(tablePtr, prices)
	slog.Debug("bonds fetched", "rows", len(rows), "table_rows", len(table.Rows), "prices", len(prices))
	return rows, nil
}
