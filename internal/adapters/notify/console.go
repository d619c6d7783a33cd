package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out      io.Writer
	table    bool
	validate bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, validate bool) *Console {
	return &Console{out: os.Stdout, table: table, validate: validate}
}

// NewConsoleWriter crea un notificador que escribe en w. Se usa en tests.
func NewConsoleWriter(w io.Writer, table, validate bool) *Console {
	return &Console{out: w, table: table, validate: validate}
}

// Notify imprime la comparación en el modo configurado.
func (c *Console) Notify(_ context.Context, cmp domain.Comparison) error {
	if c.table {
		c.printFull(cmp)
	} else {
		c.printCompact(cmp)
	}

	if c.validate {
		c.printValidation(cmp)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(cmp domain.Comparison) {
	s := cmp.Settings
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] $%.0f %dd → %s", cmp.ComputedAt.Local().Format("15:04:05"),
		s.Capital, s.HorizonDays, cmp.Recommendation.Label)

	fmt.Fprintf(&sb, " | MM %.2f%% %s", s.MoneyMarketRatePct, money(cmp.MoneyMarket.Gain))
	if cmp.Caucion != nil && cmp.CaucionRatePct != nil {
		fmt.Fprintf(&sb, " | cau %.2f%% %s", *cmp.CaucionRatePct, money(cmp.Caucion.Net))
	} else {
		sb.WriteString(" | cau n/d")
	}
	if b, ok := domain.BestBond(domain.EligibleBonds(cmp.Bonds)); ok {
		fmt.Fprintf(&sb, " | %s %s", b.Ticker, money(*b.HorizonAdjustedGain))
	}
	fmt.Fprintf(&sb, " | be %s", threshold(cmp.BreakevenRatePct))

	if down := downSources(cmp.Sources); len(down) > 0 {
		fmt.Fprintf(&sb, " | sin datos: %s", strings.Join(down, ","))
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime las tablas de cauciones, LECAPs y el resumen.
func (c *Console) printFull(cmp domain.Comparison) {
	s := cmp.Settings
	fmt.Fprintf(c.out, "\n[%s] capital $%.2f, horizonte %d días, base %d (settings v%d)\n",
		cmp.ComputedAt.Local().Format("2006-01-02 15:04:05"), s.Capital, s.HorizonDays, s.BaseDays, cmp.SettingsVersion)

	c.printOffers(cmp)
	c.printBonds(cmp)
	c.printSummary(cmp)
}

func (c *Console) printOffers(cmp domain.Comparison) {
	days := cmp.BestOffers.Days()
	if len(days) == 0 {
		fmt.Fprintln(c.out, "  cauciones: sin ofertas")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Plazo", "Vto", "TNA", "Monto")
	for _, d := range days {
		o := cmp.BestOffers[d]
		rate := "n/d"
		if r, ok := cmp.BestOffers.RateFor(d); ok {
			rate = fmt.Sprintf("%.2f%%", r)
		}
		qty := "n/d"
		if o.TradedQty != nil {
			qty = fmt.Sprintf("%.0f", *o.TradedQty)
		}
		mark := ""
		if d == cmp.Settings.HorizonDays {
			mark = " *"
		}
		table.Append(fmt.Sprintf("%dd%s", d, mark), o.MaturityDate, rate, qty)
	}
	table.Render()

	curve := cmp.Curve
	weight := "simple"
	if curve.WeightedByQty {
		weight = "ponderado por monto"
	}
	fmt.Fprintf(c.out, "  curva: promedio %.2f%% (%s), desvío %.2f, máx %.2f%% a %dd\n",
		curve.MeanRatePct, weight, curve.StdDevPct, curve.MaxRatePct, curve.MaxRateDays)
}

func (c *Console) printBonds(cmp domain.Comparison) {
	if len(cmp.Bonds) == 0 {
		fmt.Fprintln(c.out, "  LECAPs: sin favoritos con datos")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Días", "Precio", "TNA", "TEM", "Unid", "Ganancia", "Al horizonte")
	for _, b := range cmp.Bonds {
		days := "n/d"
		if b.MaturityDays != nil {
			days = fmt.Sprintf("%d", *b.MaturityDays)
		}
		horizon := "fuera"
		if b.HorizonEligible {
			horizon = optMoney(b.HorizonAdjustedGain)
		}
		table.Append(
			b.Ticker,
			days,
			optNumber(b.PriceWithFee, "%.2f"),
			optNumber(b.AnnualizedRatePct, "%.2f%%"),
			optNumber(b.PeriodicRatePct, "%.2f%%"),
			fmt.Sprintf("%d", b.UnitsBought),
			optMoney(b.GainAmount),
			horizon,
		)
	}
	table.Render()
}

func (c *Console) printSummary(cmp domain.Comparison) {
	rec := cmp.Recommendation

	table := tablewriter.NewWriter(c.out)
	table.Header("Instrumento", "Tasa", "Ganancia", "Extra vs MM")
	table.Append("FCI Money Market",
		fmt.Sprintf("%.2f%%", cmp.Settings.MoneyMarketRatePct),
		money(cmp.MoneyMarket.Gain),
		"-",
	)

	caucionRate, caucionGain := "n/d", "n/d"
	if cmp.CaucionRatePct != nil {
		caucionRate = fmt.Sprintf("%.2f%% (%s)", *cmp.CaucionRatePct, cmp.CaucionRateSource)
	}
	if cmp.Caucion != nil {
		caucionGain = money(cmp.Caucion.Net)
	}
	table.Append("Caución", caucionRate, caucionGain, optMoney(rec.CaucionExtra))

	if b, ok := domain.BestBond(domain.EligibleBonds(cmp.Bonds)); ok {
		table.Append("LECAP "+b.Ticker,
			optNumber(b.AnnualizedRatePct, "%.2f%%"),
			money(*b.HorizonAdjustedGain),
			optMoney(rec.LecapExtra),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  caución de equilibrio: %s (ganancia mínima extra $%.2f)\n",
		threshold(cmp.BreakevenRatePct), cmp.Settings.MinExtraProfit)
	if cmp.USD != nil {
		fmt.Fprintf(c.out, "  USD oficial %.2f: capital US$%.2f, MM US$%.2f\n",
			cmp.USD.Rate, cmp.USD.Capital, cmp.USD.MoneyMarketGain)
	}
	fmt.Fprintf(c.out, "  → Recomendación: %s\n", rec.Label)
}

// printValidation imprime el estado de cada fuente y los favoritos con datos incompletos.
func (c *Console) printValidation(cmp domain.Comparison) {
	fmt.Fprintln(c.out, "\n  VALIDACIÓN")

	table := tablewriter.NewWriter(c.out)
	table.Header("Fuente", "OK", "Filas", "Error")
	for _, st := range cmp.Sources {
		ok := "sí"
		if !st.OK {
			ok = "NO"
		}
		table.Append(st.Source, ok, fmt.Sprintf("%d", st.Rows), st.Error)
	}
	table.Render()

	shown := domain.NewFavoriteSet()
	for _, b := range cmp.Bonds {
		shown = append(shown, b.Ticker)
		if missing := missingFields(b); len(missing) > 0 {
			fmt.Fprintf(c.out, "  %s: falta %s\n", b.Ticker, strings.Join(missing, ", "))
		}
	}
	for _, fav := range domain.FavoriteSet(cmp.Settings.Favorites).Sorted() {
		if !shown.Contains(fav) {
			fmt.Fprintf(c.out, "  %s: sin fila en la tabla de LECAPs\n", fav)
		}
	}
}

// --- helpers ---

func missingFields(b domain.DerivedBondMetrics) []string {
	var missing []string
	if b.MaturityDays == nil {
		missing = append(missing, "días")
	}
	if b.Price == nil {
		missing = append(missing, "precio")
	}
	if b.RedemptionValue == nil {
		missing = append(missing, "pago final")
	}
	return missing
}

func downSources(sources []domain.SourceStatus) []string {
	var down []string
	for _, st := range sources {
		if !st.OK {
			down = append(down, st.Source)
		}
	}
	return down
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func optMoney(v *float64) string {
	if v == nil {
		return "n/d"
	}
	return money(*v)
}

func optNumber(v *float64, format string) string {
	if v == nil {
		return "n/d"
	}
	return fmt.Sprintf(format, *v)
}

func threshold(r domain.RateThreshold) string {
	if !r.Attainable() {
		return "inalcanzable"
	}
	return fmt.Sprintf("%.2f%%", float64(r))
}
