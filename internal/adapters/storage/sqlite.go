package storage

// sqlite.go: historial de comparaciones.
//
// Estrategia:
//   - `comparisons`: una fila por ciclo. Las columnas planas (ganador, ganancias,
//     tasa de equilibrio) sirven para consultar sin decodificar; `payload` guarda
//     la comparación completa en JSON y es lo que se devuelve al leer.
//   - `computed_at` en milisegundos unix: ordena y filtra por rango sin depender
//     del formato de fecha del driver.
//   - Schema versionado con goose (migrations/*.sql embebidas).
//   - Cache en memoria de la última comparación: GetLatest no toca la DB.
//   - Prune automático al arrancar: comparaciones de más de 90 días.

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const retention = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db     *sql.DB
	mu     sync.Mutex
	latest *domain.Comparison
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica las migraciones y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if n, err := s.pruneOld(context.Background()); err != nil {
		slog.Warn("storage: prune old comparisons failed", "err", err)
	} else if n > 0 {
		slog.Debug("storage: pruned old comparisons", "rows", n)
	}
	return s, nil
}

// goose guarda FS y dialecto en variables globales.
var migrateMu sync.Mutex

// migrate aplica las migraciones pendientes.
func migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migrate: dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}

// SaveComparison persiste una comparación. Si no tiene ID se le asigna un UUID.
// Guardar dos veces el mismo ID reemplaza la fila.
func (s *SQLiteStorage) SaveComparison(ctx context.Context, c domain.Comparison) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ComputedAt.IsZero() {
		c.ComputedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("storage.SaveComparison: marshal %s: %w", c.ID, err)
	}

	var caucionNet *float64
	if c.Caucion != nil {
		caucionNet = &c.Caucion.Net
	}
	var breakeven *float64
	if c.BreakevenRatePct.Attainable() {
		v := float64(c.BreakevenRatePct)
		breakeven = &v
	}
	var lecapGain *float64
	if b, ok := domain.BestBond(domain.EligibleBonds(c.Bonds)); ok {
		lecapGain = b.HorizonAdjustedGain
	}
	var ticker *string
	if c.Recommendation.SupportingTicker != "" {
		ticker = &c.Recommendation.SupportingTicker
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO comparisons
			(id, computed_at, settings_version, capital, horizon_days, winner, label,
			 supporting_ticker, caucion_rate_pct, caucion_net, money_market_gain,
			 best_lecap_gain, breakeven_pct, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			computed_at       = excluded.computed_at,
			settings_version  = excluded.settings_version,
			capital           = excluded.capital,
			horizon_days      = excluded.horizon_days,
			winner            = excluded.winner,
			label             = excluded.label,
			supporting_ticker = excluded.supporting_ticker,
			caucion_rate_pct  = excluded.caucion_rate_pct,
			caucion_net       = excluded.caucion_net,
			money_market_gain = excluded.money_market_gain,
			best_lecap_gain   = excluded.best_lecap_gain,
			breakeven_pct     = excluded.breakeven_pct,
			payload           = excluded.payload
	`,
		c.ID,
		c.ComputedAt.UTC().UnixMilli(),
		c.SettingsVersion,
		c.Settings.Capital,
		c.Settings.HorizonDays,
		c.Recommendation.Winner.String(),
		c.Recommendation.Label,
		ticker,
		c.CaucionRatePct,
		caucionNet,
		c.MoneyMarket.Gain,
		lecapGain,
		breakeven,
		string(payload),
	); err != nil {
		return fmt.Errorf("storage.SaveComparison: insert %s: %w", c.ID, err)
	}

	s.mu.Lock()
	if s.latest == nil || !c.ComputedAt.Before(s.latest.ComputedAt) {
		saved := c
		s.latest = &saved
	}
	s.mu.Unlock()
	return nil
}

// GetLatest devuelve la comparación más reciente, o domain.ErrNoData si no hay ninguna.
func (s *SQLiteStorage) GetLatest(ctx context.Context) (domain.Comparison, error) {
	s.mu.Lock()
	cached := s.latest
	s.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM comparisons ORDER BY computed_at DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Comparison{}, domain.ErrNoData
	}
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("storage.GetLatest: query: %w", err)
	}

	c, err := decodeComparison(payload)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("storage.GetLatest: %w", err)
	}

	s.mu.Lock()
	s.latest = &c
	s.mu.Unlock()
	return c, nil
}

// GetHistory devuelve las comparaciones con computed_at en [from, to],
// de la más reciente a la más antigua.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Comparison, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM comparisons
		WHERE computed_at BETWEEN ? AND ?
		ORDER BY computed_at DESC
	`, from.UTC().UnixMilli(), to.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Comparison
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}
		c, err := decodeComparison(payload)
		if err != nil {
			return nil, fmt.Errorf("storage.GetHistory: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// WinnerCounts devuelve cuántas veces ganó cada instrumento desde since.
func (s *SQLiteStorage) WinnerCounts(ctx context.Context, since time.Time) (map[domain.Instrument]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT winner, COUNT(*)
		FROM comparisons
		WHERE computed_at >= ?
		GROUP BY winner
	`, since.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.WinnerCounts: query: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Instrument]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("storage.WinnerCounts: scan row: %w", err)
		}
		var inst domain.Instrument
		if err := inst.UnmarshalText([]byte(name)); err != nil {
			continue
		}
		counts[inst] = n
	}
	return counts, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func decodeComparison(payload string) (domain.Comparison, error) {
	var c domain.Comparison
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return domain.Comparison{}, fmt.Errorf("decode payload: %w", err)
	}
	return c, nil
}

// pruneOld elimina comparaciones de más de 90 días y devuelve cuántas borró.
func (s *SQLiteStorage) pruneOld(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM comparisons WHERE computed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage.pruneOld: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
