package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/adapters/storage"
	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// runReport imprime cuántas veces ganó cada instrumento en los últimos days días
// y la última recomendación guardada.
func runReport(ctx context.Context, w io.Writer, store *storage.SQLiteStorage, days int) error {
	since := time.Now().UTC().AddDate(0, 0, -days)
	counts, err := store.WinnerCounts(ctx, since)
	if err != nil {
		return fmt.Errorf("runReport: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(w, "\nÚltimos %d días: %d comparaciones\n", days, total)

	table := tablewriter.NewWriter(w)
	table.Header("Instrumento", "Veces", "%")
	for _, inst := range []domain.Instrument{domain.InstrumentMoneyMarket, domain.InstrumentCaucion, domain.InstrumentLecap} {
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(counts[inst]) / float64(total)
		}
		table.Append(inst.String(), fmt.Sprintf("%d", counts[inst]), fmt.Sprintf("%.1f", pct))
	}
	table.Render()

	latest, err := store.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return nil
		}
		return fmt.Errorf("runReport: %w", err)
	}
	fmt.Fprintf(w, "  última: %s (%s)\n", latest.Recommendation.Label,
		latest.ComputedAt.Local().Format("2006-01-02 15:04"))
	return nil
}
