package polymarket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

const (
	defaultDataBase = "https://data-api.polymarket.com"

	// Data API /positions: margen amplio bajo el límite documentado.
	defaultRatePerSec = 5
	defaultBurst      = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Config configura el cliente de la Data API.
type Config struct {
	DataBase          string
	RequestsPerSecond float64
	PageLimit         int // posiciones por página
	MaxPages          int
}

// Client es el HTTP client de la Data API de Polymarket con rate limiting y retries.
// Implementa ports.PositionProvider.
type Client struct {
	http      *http.Client
	dataBase  string
	limiter   *rate.Limiter
	pageLimit int
	maxPages  int
	retryWait time.Duration
	now       func() time.Time
}

// NewClient crea un Client. Los campos vacíos de cfg usan los valores de producción.
func NewClient(cfg Config) *Client {
	if cfg.DataBase == "" {
		cfg.DataBase = defaultDataBase
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRatePerSec
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	return &Client{
		// El timeout real lo pone el contexto del poll; este es un tope de seguridad.
		http:      &http.Client{Timeout: 60 * time.Second},
		dataBase:  cfg.DataBase,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), defaultBurst),
		pageLimit: cfg.PageLimit,
		maxPages:  cfg.MaxPages,
		retryWait: baseRetryWait,
		now:       time.Now,
	}
}

// get hace un GET con rate limiting y retries y devuelve el body crudo.
// Los errores son *domain.FetchError.
func (c *Client) get(ctx context.Context, address, url string) ([]byte, error) {
	fail := func(kind domain.FetchErrorKind, err error) error {
		return &domain.FetchError{Kind: kind, Address: address, Err: err}
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(limiterKind(ctx), fmt.Errorf("rate limiter: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fail(domain.FetchUnavailable, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return nil, fail(domain.FetchTimeout, err)
			}
			if attempt == maxRetries {
				return nil, fail(domain.FetchUnavailable, fmt.Errorf("request failed after %d retries: %w", maxRetries, err))
			}
			c.sleep(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			slog.Warn("rate limited by data API", "attempt", attempt+1, "wallet", domain.ShortAddress(address))
			if attempt == maxRetries {
				return nil, fail(domain.FetchRateLimited, fmt.Errorf("status 429 after %d retries", maxRetries))
			}
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, fail(domain.FetchUnavailable, fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries))
			}
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, fail(domain.FetchNotFound, fmt.Errorf("status 404"))

		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fail(domain.FetchUnavailable, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body)))
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return nil, fail(domain.FetchTimeout, err)
			}
			return nil, fail(domain.FetchUnavailable, fmt.Errorf("read body: %w", err))
		}
		return body, nil
	}
	return nil, fail(domain.FetchUnavailable, fmt.Errorf("exhausted %d retries", maxRetries))
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// limiterKind clasifica un fallo de limiter.Wait: sin error en el contexto
// significa que la espera no cabía antes del deadline.
func limiterKind(ctx context.Context) domain.FetchErrorKind {
	switch {
	case ctx.Err() == nil:
		return domain.FetchRateLimited
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.FetchTimeout
	}
	return domain.FetchUnavailable
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
