package httpapi

// server.go: API HTTP para gestionar el watchlist sin Telegram.
//
//	GET    /healthz
//	GET    /wallets
//	GET    /wallets/{name}
//	POST   /wallets          {"address": "0x…", "name": "whale1"}
//	DELETE /wallets/{name}   nombre o dirección
//
// Si se configura apiKey, todas las rutas salvo /healthz exigen X-API-Key.

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/alejandrodnm/polytracker/internal/application/commands"
	"github.com/alejandrodnm/polytracker/internal/application/watchlist"
	"github.com/alejandrodnm/polytracker/internal/domain"
)

// Server expone el Processor y el Store por HTTP.
type Server struct {
	processor *commands.Processor
	store     *watchlist.Store
	apiKey    string
	accessLog io.Writer
	timeout   time.Duration
}

// NewServer crea el servidor. accessLog nil desactiva el log de accesos.
func NewServer(processor *commands.Processor, store *watchlist.Store, apiKey string, accessLog io.Writer) *Server {
	return &Server{
		processor: processor,
		store:     store,
		apiKey:    apiKey,
		accessLog: accessLog,
		timeout:   8 * time.Second,
	}
}

// Handler devuelve el router con recovery y logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/wallets", s.authenticate(s.listWallets)).Methods(http.MethodGet)
	r.HandleFunc("/wallets", s.authenticate(s.addWallet)).Methods(http.MethodPost)
	r.HandleFunc("/wallets/{name}", s.authenticate(s.getWallet)).Methods(http.MethodGet)
	r.HandleFunc("/wallets/{name}", s.authenticate(s.removeWallet)).Methods(http.MethodDelete)

	var h http.Handler = r
	if s.accessLog != nil {
		h = handlers.LoggingHandler(s.accessLog, h)
	}
	return handlers.RecoveryHandler()(h)
}

// Run sirve en addr hasta que ctx se cancele; luego hace shutdown ordenado.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("http api stopped")
		return nil
	}
}

// --- handlers ---

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "wallets": s.store.Len()})
}

func (s *Server) listWallets(w http.ResponseWriter, _ *http.Request) {
	entries := s.store.List()
	out := make([]walletView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newWalletView(e, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	e, ok := s.store.Get(name)
	if !ok {
		e, ok = s.store.FindByAddress(name)
	}
	if !ok {
		writeErr(w, http.StatusNotFound, "wallet not found")
		return
	}
	writeJSON(w, http.StatusOK, newWalletView(e, true))
}

type addRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

func (s *Server) addWallet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var req addRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res := s.processor.Add(ctx, req.Address, req.Name)
	if res.Err != nil {
		writeErr(w, statusFor(res.Err), res.Err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newWalletView(*res.Entry, false))
}

func (s *Server) removeWallet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res := s.processor.Remove(ctx, mux.Vars(r)["name"])
	if res.Err != nil {
		writeErr(w, statusFor(res.Err), res.Err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newWalletView(*res.Entry, false))
}

func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	if s.apiKey == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// statusFor traduce errores de dominio a códigos HTTP.
func statusFor(err error) int {
	var pe *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrInvalidAddress), errors.Is(err, domain.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
