package storage

// sqlite.go: watchlist en SQLite (modernc, pure Go, sin CGo).
//
// Una fila por wallet, clave = nombre normalizado. El snapshot va como JSON en una
// columna: se lee y escribe entero, nunca se consulta por dentro.
// Cada SaveWallet es un único UPSERT, atómico por sí mismo.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallets (
    name_key     TEXT PRIMARY KEY,
    id           TEXT     NOT NULL,
    display_name TEXT     NOT NULL,
    address      TEXT     NOT NULL,
    added_at     DATETIME NOT NULL,
    snapshot     TEXT,
    updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_wallets_added ON wallets(added_at);
`

// SQLiteWatchlist implementa ports.WatchlistStorage usando SQLite.
type SQLiteWatchlist struct {
	db *sql.DB
}

// NewSQLiteWatchlist abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteWatchlist(path string) (*SQLiteWatchlist, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteWatchlist: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteWatchlist: apply schema: %w", err)
	}
	return &SQLiteWatchlist{db: db}, nil
}

// LoadWatchlist devuelve todas las wallets, por orden de alta.
func (s *SQLiteWatchlist) LoadWatchlist(ctx context.Context) ([]domain.WalletEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, address, added_at, snapshot FROM wallets ORDER BY added_at, name_key`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadWatchlist: query: %w", err)
	}
	defer rows.Close()

	var out []domain.WalletEntry
	for rows.Next() {
		var (
			rec      walletRecord
			name     string
			snapshot sql.NullString
		)
		if err := rows.Scan(&rec.ID, &name, &rec.Address, &rec.AddedAt, &snapshot); err != nil {
			return nil, fmt.Errorf("storage.LoadWatchlist: scan: %w", err)
		}
		if snapshot.Valid {
			var snap snapshotRecord
			if err := json.Unmarshal([]byte(snapshot.String), &snap); err != nil {
				return nil, fmt.Errorf("storage.LoadWatchlist: decode snapshot of %q: %w", name, err)
			}
			rec.LastSnapshot = &snap
		}
		e, err := fromRecord(name, rec)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadWatchlist: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadWatchlist: rows: %w", err)
	}
	return out, nil
}

// SaveWallet hace upsert de la wallet por nombre normalizado.
func (s *SQLiteWatchlist) SaveWallet(ctx context.Context, entry domain.WalletEntry) error {
	rec := toRecord(entry)

	var snapshot sql.NullString
	if rec.LastSnapshot != nil {
		data, err := json.Marshal(rec.LastSnapshot)
		if err != nil {
			return fmt.Errorf("storage.SaveWallet: encode snapshot: %w", err)
		}
		snapshot = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallets (name_key, id, display_name, address, added_at, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name_key) DO UPDATE SET
			id           = excluded.id,
			display_name = excluded.display_name,
			address      = excluded.address,
			added_at     = excluded.added_at,
			snapshot     = excluded.snapshot,
			updated_at   = excluded.updated_at`,
		domain.NameKey(entry.DisplayName), rec.ID, entry.DisplayName, rec.Address,
		rec.AddedAt, snapshot, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveWallet %q: %w", entry.DisplayName, err)
	}
	return nil
}

// DeleteWallet borra la wallet. Borrar una inexistente no es error.
func (s *SQLiteWatchlist) DeleteWallet(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM wallets WHERE name_key = ?`, domain.NameKey(name)); err != nil {
		return fmt.Errorf("storage.DeleteWallet %q: %w", name, err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteWatchlist) Close() error {
	return s.db.Close()
}
