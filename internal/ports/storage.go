package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
)

// Storage persiste el historial de comparaciones.
type Storage interface {
	// SaveComparison persiste una comparación. Si no tiene ID se le asigna uno.
	SaveComparison(ctx context.Context, c domain.Comparison) error

	// GetLatest devuelve la última comparación guardada, o domain.ErrNoData.
	GetLatest(ctx context.Context) (domain.Comparison, error)

	// GetHistory devuelve las comparaciones calculadas en el rango de tiempo dado,
	// de la más reciente a la más antigua.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Comparison, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
