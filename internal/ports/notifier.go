package ports

import (
	"context"

	"github.com/alejandrodnm/rendimientos/internal/domain"
)

// Notifier presenta el resultado de una comparación al usuario.
type Notifier interface {
	// Notify muestra la comparación.
	// En la implementación de consola, imprime tablas formateadas.
	Notify(ctx context.Context, c domain.Comparison) error
}
