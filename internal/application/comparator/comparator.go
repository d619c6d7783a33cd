package comparator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/alejandrodnm/rendimientos/internal/ports"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Config contiene la configuración del comparador.
type Config struct {
	Interval time.Duration  // intervalo entre ciclos si no hay Schedule
	Schedule string         // expresión cron (ej. "*/5 10-17 * * MON-FRI"); vacío = Interval
	Location *time.Location // zona horaria del Schedule; nil = Local
	Timeout  time.Duration  // límite de cada ciclo de fetch
	DryRun   bool           // un solo ciclo
}

// Comparator es el orquestador: fetch concurrente → Compare → notify + persist.
type Comparator struct {
	cfg      Config
	offers   ports.OfferProvider
	bonds    ports.BondProvider
	fx       ports.FXProvider
	storage  ports.Storage
	notifier ports.Notifier

	mu             sync.RWMutex
	settings       domain.Settings
	snapshot       *domain.Snapshot
	last           *domain.Comparison
	previousWinner *domain.Recommendation

	now   func() time.Time
	newID func() string
}

// New crea un Comparator con todas las dependencias inyectadas.
// storage puede ser nil (modo dry-run sin persistencia).
func New(
	cfg Config,
	settings domain.Settings,
	offers ports.OfferProvider,
	bonds ports.BondProvider,
	fx ports.FXProvider,
	storage ports.Storage,
	notifier ports.Notifier,
) *Comparator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Comparator{
		cfg:      cfg,
		settings: settings.Sanitize(),
		offers:   offers,
		bonds:    bonds,
		fx:       fx,
		storage:  storage,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Run ejecuta el loop de comparación hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (c *Comparator) Run(ctx context.Context) error {
	slog.Info("comparator starting",
		"interval", c.cfg.Interval,
		"schedule", c.cfg.Schedule,
		"timeout", c.cfg.Timeout,
		"dry_run", c.cfg.DryRun,
	)

	if err := c.runCycle(ctx); err != nil {
		slog.Error("comparison cycle failed", "err", err)
		if c.cfg.DryRun {
			return err
		}
	}

	if c.cfg.DryRun {
		return nil
	}

	if c.cfg.Schedule != "" {
		return c.runScheduled(ctx)
	}

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("comparator stopped")
			return nil
		case <-ticker.C:
			if err := c.runCycle(ctx); err != nil {
				slog.Error("comparison cycle failed", "err", err)
			}
		}
	}
}

// runScheduled corre los ciclos según la expresión cron hasta que ctx se cancele.
// Los disparos que llegan con un ciclo en curso se saltean.
func (c *Comparator) runScheduled(ctx context.Context) error {
	loc := c.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	sched := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := sched.AddFunc(c.cfg.Schedule, func() {
		if err := c.runCycle(ctx); err != nil {
			slog.Error("comparison cycle failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("comparator.Run: schedule %q: %w", c.cfg.Schedule, err)
	}

	sched.Start()
	slog.Info("comparator scheduled", "schedule", c.cfg.Schedule, "location", loc.String())

	<-ctx.Done()
	<-sched.Stop().Done()
	slog.Info("comparator stopped")
	return nil
}

// RunOnce ejecuta exactamente un ciclo de fetch + comparación, sin notificar ni persistir.
func (c *Comparator) RunOnce(ctx context.Context) (domain.Comparison, error) {
	return c.cycle(ctx)
}

// Last devuelve la última comparación calculada. ok=false si todavía no hubo ciclos.
func (c *Comparator) Last() (domain.Comparison, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return domain.Comparison{}, false
	}
	return *c.last, true
}

// Settings devuelve los parámetros vigentes.
func (c *Comparator) Settings() domain.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// UpdateSettings reemplaza los parámetros con una versión nueva y recalcula la
// comparación sobre el último snapshot, sin volver a consultar las fuentes.
// Devuelve domain.ErrNoData si todavía no hay snapshot.
func (c *Comparator) UpdateSettings(ctx context.Context, s domain.Settings) (domain.Comparison, error) {
	c.mu.Lock()
	s = s.Sanitize()
	s.Version = c.settings.Version + 1
	c.settings = s
	snap := c.snapshot
	c.mu.Unlock()

	slog.Info("settings updated", "version", s.Version, "capital", s.Capital, "horizon_days", s.HorizonDays)

	if snap == nil {
		return domain.Comparison{}, domain.ErrNoData
	}
	cmp := c.compare(s, *snap)
	c.publish(ctx, cmp)
	return cmp, nil
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (c *Comparator) runCycle(ctx context.Context) error {
	start := time.Now()

	cmp, err := c.cycle(ctx)
	if err != nil {
		return err
	}
	c.publish(ctx, cmp)

	slog.Info("comparison cycle complete",
		"winner", cmp.Recommendation.Winner.String(),
		"label", cmp.Recommendation.Label,
		"offers", len(cmp.BestOffers),
		"bonds", len(cmp.Bonds),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch concurrente → Compare. Sólo falla si todas las fuentes caen.
func (c *Comparator) cycle(ctx context.Context) (domain.Comparison, error) {
	snap := c.fetchSnapshot(ctx)

	if !snap.Offers.OK() && !snap.Bonds.OK() && !snap.FX.OK() {
		return domain.Comparison{}, fmt.Errorf("comparator.cycle: %w",
			errors.Join(domain.ErrFeedUnavailable, snap.Offers.Err, snap.Bonds.Err, snap.FX.Err))
	}

	c.mu.Lock()
	c.snapshot = &snap
	settings := c.settings
	c.mu.Unlock()

	return c.compare(settings, snap), nil
}

func (c *Comparator) compare(s domain.Settings, snap domain.Snapshot) domain.Comparison {
	cmp := domain.Compare(s, snap)
	cmp.ID = c.newID()
	return cmp
}

// publish guarda la comparación como la última, alerta si cambió el ganador,
// notifica y persiste. Los errores de notifier y storage sólo se loguean.
func (c *Comparator) publish(ctx context.Context, cmp domain.Comparison) {
	c.mu.Lock()
	c.last = &cmp
	prev := c.previousWinner
	rec := cmp.Recommendation
	c.previousWinner = &rec
	c.mu.Unlock()

	emitWinnerChange(prev, rec)

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, cmp); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	if c.storage != nil {
		if err := c.storage.SaveComparison(ctx, cmp); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}
}

// emitWinnerChange registra una alerta cuando la recomendación cambia de instrumento
// o de LECAP respecto del ciclo anterior.
func emitWinnerChange(prev *domain.Recommendation, cur domain.Recommendation) {
	if prev == nil {
		return
	}
	if prev.Winner == cur.Winner && prev.SupportingTicker == cur.SupportingTicker {
		return
	}

	attrs := []any{
		"from", prev.Label,
		"to", cur.Label,
	}
	if cur.CaucionExtra != nil {
		attrs = append(attrs, "caucion_extra", fmt.Sprintf("$%.2f", *cur.CaucionExtra))
	}
	if cur.LecapExtra != nil {
		attrs = append(attrs, "lecap_extra", fmt.Sprintf("$%.2f", *cur.LecapExtra))
	}
	slog.Warn("RECOMMENDATION CHANGED", attrs...)
}
