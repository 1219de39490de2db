package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrDuplicateName  = errors.New("wallet name already tracked")
	ErrNotFound       = errors.New("wallet not found")
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrInvalidName    = errors.New("invalid wallet name")
)

// WalletEntry es una wallet en seguimiento. La posee el watchlist store;
// LastSnapshot se reemplaza entero al final de cada poll exitoso.
type WalletEntry struct {
	ID           string // uuid; distingue un re-add con el mismo nombre
	Address      string
	DisplayName  string
	AddedAt      time.Time
	LastSnapshot *Snapshot // nil hasta el primer poll exitoso
}

// NameKey normaliza un nombre para comparar sin mayúsculas.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeAddress valida una dirección 0x de 20 bytes y la devuelve en minúsculas.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// ShortAddress devuelve "0x1234…abcd" para mostrar en mensajes.
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// PersistenceError envuelve un fallo del backend durable del watchlist.
type PersistenceError struct {
	Op   string // "save" | "delete" | "load"
	Name string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
