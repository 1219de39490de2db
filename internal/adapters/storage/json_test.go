package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polytracker/internal/adapters/storage"
)

func TestJSONWatchlist_MissingFileStartsEmpty(t *testing.T) {
	db, err := storage.NewJSONWatchlist(filepath.Join(t.TempDir(), "nested", "watchlist.json"))
	require.NoError(t, err)

	loaded, err := db.LoadWatchlist(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// la primera escritura crea el directorio
	require.NoError(t, db.SaveWallet(context.Background(), makeEntry("whale1", false)))
}

func TestJSONWatchlist_FileLayoutAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")
	ctx := context.Background()

	db, err := storage.NewJSONWatchlist(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveWallet(ctx, makeEntry("Whale1", true)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "Whale1")
	assert.Equal(t, addr, raw["Whale1"]["address"])
	assert.Contains(t, raw["Whale1"], "addedAt")
	assert.Contains(t, raw["Whale1"], "lastSnapshot")

	// sin temporales huérfanos tras el rename
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	reopened, err := storage.NewJSONWatchlist(path)
	require.NoError(t, err)
	loaded, err := reopened.LoadWatchlist(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Whale1", loaded[0].DisplayName)
}

func TestJSONWatchlist_CorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"whale1": {`), 0o644))

	_, err := storage.NewJSONWatchlist(path)
	assert.Error(t, err)
}

func TestJSONWatchlist_CaseCollisionFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	body := `{"Whale": {"address": "0x1111111111111111111111111111111111111111"},
	          "whale": {"address": "0x2222222222222222222222222222222222222222"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := storage.NewJSONWatchlist(path)
	assert.ErrorContains(t, err, "differ only in case")
}

func TestJSONWatchlist_WriteFailureKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")
	ctx := context.Background()

	db, err := storage.NewJSONWatchlist(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveWallet(ctx, makeEntry("whale1", false)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// el destino pasa a ser un directorio no vacío: el rename falla
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "block"), 0o755))

	err = db.SaveWallet(ctx, makeEntry("whale2", false))
	require.Error(t, err)

	loaded, err := db.LoadWatchlist(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1, "failed write must not leak into memory")
	assert.Equal(t, "whale1", loaded[0].DisplayName)

	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, os.WriteFile(path, before, 0o644))
	assert.NoError(t, db.DeleteWallet(ctx, "whale1"))
}
