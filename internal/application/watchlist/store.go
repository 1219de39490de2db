package watchlist

// store.go: watchlist en memoria respaldado por ports.WatchlistStorage.
//
// Concurrencia:
//   - s.mu protege solo el map de entries y la tabla de locks; se mantiene lo justo
//     para leer o reemplazar un puntero, nunca durante I/O.
//   - Cada nombre (normalizado) tiene su propio mutex: las operaciones sobre el mismo
//     nombre quedan estrictamente ordenadas, las de nombres distintos no se bloquean.
//   - Los WalletEntry son valores inmutables: una mutación construye uno nuevo y
//     reemplaza el puntero, así Get/List nunca ven un estado a medias.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polytracker/internal/domain"
	"github.com/alejandrodnm/polytracker/internal/ports"
)

// Store es el dueño de los WalletEntry. Se pasa explícitamente al scheduler y al
// procesador de comandos.
type Store struct {
	persist ports.WatchlistStorage
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*domain.WalletEntry // NameKey → entry
	locks   map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	refs int
}

// Open carga el watchlist desde persist.
func Open(ctx context.Context, persist ports.WatchlistStorage) (*Store, error) {
	loaded, err := persist.LoadWatchlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("watchlist.Open: %w", &domain.PersistenceError{Op: "load", Err: err})
	}

	s := &Store{
		persist: persist,
		now:     time.Now,
		entries: make(map[string]*domain.WalletEntry, len(loaded)),
		locks:   make(map[string]*nameLock),
	}
	for i := range loaded {
		e := loaded[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		key := domain.NameKey(e.DisplayName)
		if prev, ok := s.entries[key]; ok {
			return nil, fmt.Errorf("watchlist.Open: %w: %q and %q", domain.ErrDuplicateName, prev.DisplayName, e.DisplayName)
		}
		s.entries[key] = &e
	}

	slog.Info("watchlist loaded", "wallets", len(s.entries))
	return s, nil
}

// Add empieza a seguir una wallet. Rechaza nombres duplicados (sin mayúsculas)
// sin tocar el estado. Solo devuelve éxito tras persistir.
func (s *Store) Add(ctx context.Context, address, name string) (domain.WalletEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.WalletEntry{}, domain.ErrInvalidName
	}
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return domain.WalletEntry{}, err
	}

	key := domain.NameKey(name)
	unlock := s.lock(key)
	defer unlock()

	if _, ok := s.lookup(key); ok {
		return domain.WalletEntry{}, fmt.Errorf("%w: %q", domain.ErrDuplicateName, name)
	}

	entry := domain.WalletEntry{
		ID:          uuid.New().String(),
		Address:     addr,
		DisplayName: name,
		AddedAt:     s.now().UTC(),
	}
	if err := s.persist.SaveWallet(ctx, entry); err != nil {
		return domain.WalletEntry{}, &domain.PersistenceError{Op: "save", Name: name, Err: err}
	}

	s.mu.Lock()
	s.entries[key] = &entry
	s.mu.Unlock()
	return entry, nil
}

// Remove deja de seguir la wallet con ese nombre.
func (s *Store) Remove(ctx context.Context, name string) (domain.WalletEntry, error) {
	key := domain.NameKey(name)
	unlock := s.lock(key)
	defer unlock()

	entry, ok := s.lookup(key)
	if !ok {
		return domain.WalletEntry{}, fmt.Errorf("%w: %q", domain.ErrNotFound, name)
	}
	if err := s.persist.DeleteWallet(ctx, entry.DisplayName); err != nil {
		return domain.WalletEntry{}, &domain.PersistenceError{Op: "delete", Name: entry.DisplayName, Err: err}
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return entry, nil
}

// Get devuelve la wallet con ese nombre.
func (s *Store) Get(name string) (domain.WalletEntry, bool) {
	return s.lookup(domain.NameKey(name))
}

// FindByAddress devuelve la primera wallet (por AddedAt) con esa dirección.
func (s *Store) FindByAddress(address string) (domain.WalletEntry, bool) {
	addr := strings.ToLower(strings.TrimSpace(address))
	for _, e := range s.List() {
		if e.Address == addr {
			return e, true
		}
	}
	return domain.WalletEntry{}, false
}

// List devuelve las wallets ordenadas por AddedAt (y nombre para empates).
func (s *Store) List() []domain.WalletEntry {
	s.mu.RLock()
	out := make([]domain.WalletEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return domain.NameKey(out[i].DisplayName) < domain.NameKey(out[j].DisplayName)
	})
	return out
}

// Len devuelve el número de wallets en seguimiento.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// UpdateSnapshot reemplaza el último snapshot de la wallet.
//
// Si la wallet ya no existe devuelve ErrNotFound y no hace nada. Si falla la
// persistencia el snapshot en memoria SÍ se actualiza (el próximo diff debe ser
// correcto) y se devuelve un *PersistenceError; la siguiente escritura lo pone al día.
func (s *Store) UpdateSnapshot(ctx context.Context, name string, snap domain.Snapshot) error {
	return s.updateSnapshot(ctx, name, "", snap)
}

// UpdateSnapshotFor es UpdateSnapshot comprobando además que el entry sigue siendo
// el mismo (mismo ID). Un poll en vuelo para una wallet borrada y re-añadida con el
// mismo nombre no debe pisar el baseline del entry nuevo.
func (s *Store) UpdateSnapshotFor(ctx context.Context, entry domain.WalletEntry, snap domain.Snapshot) error {
	return s.updateSnapshot(ctx, entry.DisplayName, entry.ID, snap)
}

func (s *Store) updateSnapshot(ctx context.Context, name, id string, snap domain.Snapshot) error {
	key := domain.NameKey(name)
	unlock := s.lock(key)
	defer unlock()

	cur, ok := s.lookup(key)
	if !ok || (id != "" && cur.ID != id) {
		return fmt.Errorf("%w: %q", domain.ErrNotFound, name)
	}

	next := cur
	next.LastSnapshot = &snap

	s.mu.Lock()
	s.entries[key] = &next
	s.mu.Unlock()

	if err := s.persist.SaveWallet(ctx, next); err != nil {
		return &domain.PersistenceError{Op: "save", Name: cur.DisplayName, Err: err}
	}
	return nil
}

// IsNotFound es un atajo para errors.Is(err, domain.ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func (s *Store) lookup(key string) (domain.WalletEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return domain.WalletEntry{}, false
	}
	return *e, true
}

// lock toma el mutex del nombre y devuelve la función para soltarlo.
// Los locks sin usuarios se eliminan para que la tabla no crezca sin límite.
func (s *Store) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &nameLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}
