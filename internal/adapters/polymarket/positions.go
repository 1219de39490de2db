package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

const (
	positionsPath    = "/positions"
	defaultPageLimit = 500
	defaultMaxPages  = 10
	pageSkewAttempts = 2
)

// errPageSkew indica que una posición apareció en dos páginas de la misma lectura.
var errPageSkew = errors.New("position repeated across pages")

// FetchPositions devuelve el snapshot de posiciones abiertas de una wallet.
// Pagina con limit/offset hasta recibir una página incompleta.
//
// Si se alcanza maxPages con la última página llena, el resultado estaría truncado
// y las posiciones que faltan se leerían como cerradas: se devuelve Malformed.
//
// El orden por CURRENT cambia entre páginas: si una key se repite, otra pudo quedar
// sin leer. Se relee todo una vez y, si vuelve a pasar, se devuelve Malformed.
func (c *Client) FetchPositions(ctx context.Context, address string) (domain.Snapshot, error) {
	var err error
	for attempt := 0; attempt < pageSkewAttempts; attempt++ {
		var snap domain.Snapshot
		snap, err = c.readPages(ctx, address)
		if !errors.Is(err, errPageSkew) {
			return snap, err
		}
		slog.Warn("positions moved between pages, rereading",
			"wallet", domain.ShortAddress(address),
			"attempt", attempt+1,
		)
	}
	return domain.Snapshot{}, &domain.FetchError{Kind: domain.FetchMalformed, Address: address, Err: err}
}

// readPages hace una lectura paginada completa.
func (c *Client) readPages(ctx context.Context, address string) (domain.Snapshot, error) {
	capturedAt := c.now().UTC()
	var all []domain.Position
	seen := make(map[domain.OutcomeKey]int)

	for page := 0; page < c.maxPages; page++ {
		q := url.Values{}
		q.Set("user", address)
		q.Set("sizeThreshold", "0")
		q.Set("sortBy", "CURRENT")
		q.Set("sortDirection", "DESC")
		q.Set("limit", strconv.Itoa(c.pageLimit))
		q.Set("offset", strconv.Itoa(page*c.pageLimit))

		body, err := c.get(ctx, address, c.dataBase+positionsPath+"?"+q.Encode())
		if err != nil {
			return domain.Snapshot{}, err
		}

		positions, n, err := parsePositions(body)
		if err != nil {
			return domain.Snapshot{}, &domain.FetchError{Kind: domain.FetchMalformed, Address: address, Err: err}
		}
		for _, p := range positions {
			if prev, ok := seen[p.Key]; ok && prev != page {
				return domain.Snapshot{}, fmt.Errorf("%w: %s/%s on pages %d and %d",
					errPageSkew, p.Key.MarketID, p.Key.OutcomeID, prev, page)
			}
			seen[p.Key] = page
		}
		all = append(all, positions...)

		slog.Debug("fetched positions page",
			"wallet", domain.ShortAddress(address),
			"page", page,
			"count", n,
			"total", len(all),
		)

		if n < c.pageLimit {
			return domain.NewSnapshot(capturedAt, all), nil
		}
	}

	return domain.Snapshot{}, &domain.FetchError{
		Kind:    domain.FetchMalformed,
		Address: address,
		Err:     fmt.Errorf("more than %d positions, result would be truncated", c.maxPages*c.pageLimit),
	}
}
