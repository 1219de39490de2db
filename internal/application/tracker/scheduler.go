package tracker

// scheduler.go: loop de polling de todas las wallets del watchlist.
//
// Cada tick lanza un ciclo por wallet: Fetch → Diff → Emit → UpdateSnapshot.
//   - Como mucho un ciclo en vuelo por wallet. Si el ciclo anterior sigue vivo al
//     llegar el tick, el nuevo se salta (sin cola).
//   - Los ciclos de wallets distintas corren en paralelo, limitados por un semáforo
//     de Workers para respetar el rate limit de la Data API.
//   - Un fetch fallido no toca LastSnapshot ni genera eventos.
//   - Ningún fallo de una wallet aborta otra ni el loop.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/alejandrodnm/polytracker/internal/application/watchlist"
	"github.com/alejandrodnm/polytracker/internal/domain"
	"github.com/alejandrodnm/polytracker/internal/ports"
)

// Config contiene la configuración del scheduler.
type Config struct {
	Interval     time.Duration
	Workers      int           // fetches concurrentes máximos
	FetchTimeout time.Duration // timeout por wallet, incluye retries
	EmitTimeout  time.Duration // timeout por alerta
	Diff         domain.DiffOptions
}

// DefaultConfig devuelve valores sensatos para producción.
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		Workers:      4,
		FetchTimeout: 10 * time.Second,
		EmitTimeout:  10 * time.Second,
	}
}

// CycleResult resume el ciclo de una wallet.
type CycleResult struct {
	Wallet   string
	Events   int
	Baseline bool // primer snapshot de la wallet, sin alertas
	Err      error
}

// Scheduler es el orquestador del polling.
type Scheduler struct {
	cfg       Config
	store     *watchlist.Store
	positions ports.PositionProvider
	notifier  ports.Notifier
	sem       *semaphore.Weighted

	mu       sync.Mutex
	inFlight map[string]struct{} // entry.ID con ciclo en curso

	wg sync.WaitGroup
}

// New crea un Scheduler con las dependencias inyectadas.
func New(cfg Config, store *watchlist.Store, positions ports.PositionProvider, notifier ports.Notifier) *Scheduler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.EmitTimeout <= 0 {
		cfg.EmitTimeout = def.EmitTimeout
	}
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		positions: positions,
		notifier:  notifier,
		sem:       semaphore.NewWeighted(int64(cfg.Workers)),
		inFlight:  make(map[string]struct{}),
	}
}

// Run ejecuta el loop hasta que el contexto se cancele. El primer tick es inmediato.
// Al salir espera a que terminen los ciclos en vuelo.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"interval", s.cfg.Interval,
		"workers", s.cfg.Workers,
		"fetch_timeout", s.cfg.FetchTimeout,
	)
	defer s.wg.Wait()

	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// RunOnce hace un ciclo para cada wallet y espera a que terminen todos.
func (s *Scheduler) RunOnce(ctx context.Context) []CycleResult {
	entries := s.store.List()
	results := make([]CycleResult, len(entries))

	var wg sync.WaitGroup
	for i, e := range entries {
		if !s.claim(e.ID) {
			results[i] = CycleResult{Wallet: e.DisplayName, Err: errCycleInFlight}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.release(e.ID)
			results[i] = s.pollWallet(ctx, e)
		}()
	}
	wg.Wait()
	return results
}

var errCycleInFlight = errors.New("previous cycle still in flight")

// tick lanza un ciclo por cada wallet sin ciclo en curso. No bloquea.
func (s *Scheduler) tick(ctx context.Context) {
	entries := s.store.List()
	launched, skipped := 0, 0

	for _, e := range entries {
		if !s.claim(e.ID) {
			skipped++
			slog.Debug("cycle still running, skipping tick", "wallet", e.DisplayName)
			continue
		}
		launched++
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release(e.ID)
			s.pollWallet(ctx, e)
		}()
	}

	slog.Debug("tick", "wallets", len(entries), "launched", launched, "skipped", skipped)
}

// pollWallet ejecuta el ciclo completo de una wallet. Nunca hace panic hacia arriba:
// un panic en un adapter se registra y el ciclo termina.
func (s *Scheduler) pollWallet(ctx context.Context, e domain.WalletEntry) (res CycleResult) {
	res.Wallet = e.DisplayName
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("poll cycle panicked", "wallet", e.DisplayName, "panic", r)
			res.Err = errors.New("cycle panicked")
		}
	}()

	snap, err := s.fetch(ctx, e.Address)
	if err != nil {
		res.Err = err
		var fe *domain.FetchError
		kind := "unknown"
		if errors.As(err, &fe) {
			kind = fe.Kind.String()
		}
		slog.Warn("fetch positions failed",
			"wallet", e.DisplayName,
			"address", domain.ShortAddress(e.Address),
			"kind", kind,
			"err", err,
		)
		return res
	}

	// Diffing: el baseline se relee del store, nunca de una copia previa.
	current, ok := s.store.Get(e.DisplayName)
	if !ok || current.ID != e.ID {
		slog.Debug("wallet removed mid-cycle, discarding poll", "wallet", e.DisplayName)
		return res
	}
	res.Baseline = current.LastSnapshot == nil
	events := domain.DiffWith(s.cfg.Diff, current.LastSnapshot, snap)
	res.Events = len(events)

	// Emitting: best-effort, un fallo no deshace el UpdateSnapshot.
	for _, ev := range events {
		s.emit(ctx, domain.Alert{WalletName: current.DisplayName, Address: current.Address, Event: ev})
	}

	if err := s.store.UpdateSnapshotFor(ctx, current, snap); err != nil {
		if watchlist.IsNotFound(err) {
			slog.Debug("wallet removed before snapshot update", "wallet", e.DisplayName)
			return res
		}
		slog.Warn("snapshot persisted late", "wallet", e.DisplayName, "err", err)
	}

	slog.Debug("poll cycle complete",
		"wallet", e.DisplayName,
		"positions", snap.Len(),
		"events", len(events),
		"baseline", res.Baseline,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res
}

// fetch toma un slot del pool y pide las posiciones con FetchTimeout.
func (s *Scheduler) fetch(ctx context.Context, address string) (domain.Snapshot, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return domain.Snapshot{}, err
	}
	defer s.sem.Release(1)

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.positions.FetchPositions(fetchCtx, address)
}

func (s *Scheduler) emit(ctx context.Context, alert domain.Alert) {
	emitCtx, cancel := context.WithTimeout(ctx, s.cfg.EmitTimeout)
	defer cancel()

	if err := s.notifier.Notify(emitCtx, alert); err != nil {
		slog.Warn("alert delivery failed",
			"wallet", alert.WalletName,
			"event", alert.Event.Kind().String(),
			"outcome", alert.Event.OutcomeKey().String(),
			"err", err,
		)
	}
}

func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}
