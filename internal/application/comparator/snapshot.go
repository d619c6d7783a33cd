package comparator

// snapshot.go: fetch concurrente de las tres fuentes.
//
// Cada fuente corre en su goroutine dentro de un errgroup. Ninguna devuelve
// error al grupo: el error queda en el Feed de su fuente, así una fuente caída
// no cancela a las demás.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
	"golang.org/x/sync/errgroup"
)

func (c *Comparator) fetchSnapshot(ctx context.Context) domain.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	snap := domain.Snapshot{TakenAt: c.now()}

	var g errgroup.Group
	g.Go(func() error {
		snap.Offers = fetchFeed(ctx, c.now, domain.SourceCaucion, c.offers.FetchOffers)
		return nil
	})
	g.Go(func() error {
		snap.Bonds = fetchFeed(ctx, c.now, domain.SourceBonds, c.bonds.FetchBonds)
		return nil
	})
	g.Go(func() error {
		snap.FX = fetchFeed(ctx, c.now, domain.SourceFX, c.fx.FetchFX)
		return nil
	})
	_ = g.Wait()

	return snap
}

// fetchFeed llama a fetch y etiqueta el resultado como disponible o caído.
func fetchFeed[T any](ctx context.Context, now func() time.Time, source string, fetch func(context.Context) (T, error)) domain.Feed[T] {
	start := time.Now()
	data, err := fetch(ctx)
	if err != nil {
		slog.Warn("feed unavailable", "source", source, "err", err)
		return domain.Unavailable[T](err, now())
	}
	slog.Debug("feed fetched", "source", source, "duration", time.Since(start).Round(time.Millisecond))
	return domain.Available(data, now())
}
