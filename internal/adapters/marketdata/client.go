package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// El scraper local tolera ráfagas cortas; las APIs públicas no.
	feedRatePerSec = 5
	fxRatePerSec   = 1

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Endpoints son las URLs completas de cada fuente.
type Endpoints struct {
	Caucion    string
	BondPrices string
	BondTable  string
	FX         string
}

// Client es el HTTP client de las fuentes de mercado con rate limiting y retries.
// Implementa ports.OfferProvider, ports.BondProvider y ports.FXProvider.
type Client struct {
	http        *http.Client
	endpoints   Endpoints
	feedLimiter *rate.Limiter
	fxLimiter   *rate.Limiter
	retryWait   time.Duration
}

// Option modifica un Client al construirlo.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client por defecto (timeout 10s).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryWait cambia la espera base del backoff. En tests se usa 0.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// NewClient crea un Client para los endpoints dados.
func NewClient(endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		endpoints:   endpoints,
		feedLimiter: rate.NewLimiter(feedRatePerSec, 5),
		fxLimiter:   rate.NewLimiter(fxRatePerSec, 2),
		retryWait:   baseRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	if url == "" {
		return fmt.Errorf("empty url")
	}
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// 429 y 5xx se reintentan; otros 4xx fallan de inmediato.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by feed", "url", resp.Request.URL.String(), "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	if wait <= 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
