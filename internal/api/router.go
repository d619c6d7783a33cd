package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/alejandrodnm/rendimientos/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Comparisons es lo que la API necesita del comparador.
type Comparisons interface {
	Last() (domain.Comparison, bool)
	Settings() domain.Settings
	UpdateSettings(ctx context.Context, s domain.Settings) (domain.Comparison, error)
}

// NewRouter arma el router con todos los endpoints.
// history puede ser nil: /api/history responde 503 y /api/comparison sólo
// usa la comparación en memoria.
func NewRouter(cmp Comparisons, history ports.Storage, allowedOrigins []string) http.Handler {
	h := &handler{cmp: cmp, history: history}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(newCORS(allowedOrigins).Handler)

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/comparison", h.comparison)
		r.Get("/offers", h.offers)
		r.Get("/bonds", h.bonds)
		r.Get("/history", h.historyRange)
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)
	})

	return r
}

func newCORS(allowedOrigins []string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
}

// requestLogger loguea cada request con slog en nivel debug.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Server es el servidor HTTP de la API.
type Server struct {
	srv *http.Server
}

// NewServer crea un Server escuchando en addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run sirve hasta que ctx se cancele y luego hace shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("api.Server.Run: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api.Server.Run: shutdown: %w", err)
	}
	slog.Info("api server stopped")
	return nil
}
