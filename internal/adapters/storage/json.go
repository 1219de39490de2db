package storage

// json.go: watchlist en un único fichero JSON.
//
// Formato: objeto nombre → {id, address, addedAt, lastSnapshot}.
// Cada mutación reescribe el fichero entero: temp en el mismo directorio → fsync →
// rename. Un crash deja el fichero anterior o el nuevo, nunca uno truncado.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

type namedRecord struct {
	name string
	rec  walletRecord
}

// JSONWatchlist implementa ports.WatchlistStorage sobre un fichero JSON.
type JSONWatchlist struct {
	path string

	mu      sync.Mutex
	wallets map[string]namedRecord // NameKey → registro
}

// NewJSONWatchlist abre el fichero en path. Si no existe, empieza vacío y lo crea
// en la primera escritura.
func NewJSONWatchlist(path string) (*JSONWatchlist, error) {
	s := &JSONWatchlist{path: path, wallets: make(map[string]namedRecord)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.NewJSONWatchlist: read %q: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var raw map[string]walletRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("storage.NewJSONWatchlist: decode %q: %w", path, err)
	}
	for name, rec := range raw {
		key := domain.NameKey(name)
		if prev, ok := s.wallets[key]; ok {
			return nil, fmt.Errorf("storage.NewJSONWatchlist: %q and %q differ only in case", prev.name, name)
		}
		s.wallets[key] = namedRecord{name: name, rec: rec}
	}
	return s, nil
}

// LoadWatchlist devuelve las wallets del fichero.
func (s *JSONWatchlist) LoadWatchlist(_ context.Context) ([]domain.WalletEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.wallets))
	for k := range s.wallets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.WalletEntry, 0, len(keys))
	for _, k := range keys {
		nr := s.wallets[k]
		e, err := fromRecord(nr.name, nr.rec)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadWatchlist: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveWallet inserta o reemplaza la wallet y reescribe el fichero.
func (s *JSONWatchlist) SaveWallet(_ context.Context, entry domain.WalletEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NameKey(entry.DisplayName)
	prev, had := s.wallets[key]
	s.wallets[key] = namedRecord{name: entry.DisplayName, rec: toRecord(entry)}

	if err := s.flush(); err != nil {
		if had {
			s.wallets[key] = prev
		} else {
			delete(s.wallets, key)
		}
		return fmt.Errorf("storage.SaveWallet %q: %w", entry.DisplayName, err)
	}
	return nil
}

// DeleteWallet borra la wallet y reescribe el fichero.
func (s *JSONWatchlist) DeleteWallet(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NameKey(name)
	prev, had := s.wallets[key]
	if !had {
		return nil
	}
	delete(s.wallets, key)

	if err := s.flush(); err != nil {
		s.wallets[key] = prev
		return fmt.Errorf("storage.DeleteWallet %q: %w", name, err)
	}
	return nil
}

// Close no tiene nada que liberar: cada escritura ya es durable.
func (s *JSONWatchlist) Close() error { return nil }

// flush escribe el map completo de forma atómica. Requiere s.mu.
func (s *JSONWatchlist) flush() error {
	out := make(map[string]walletRecord, len(s.wallets))
	for _, nr := range s.wallets {
		out[nr.name] = nr.rec
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op tras un rename exitoso

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}
	return nil
}

// syncDir hace durable la entrada del directorio tras un rename.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
