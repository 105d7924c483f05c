// Package server exposes read-only ledger state and Prometheus metrics over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stakingLedger/internal/model"
	"stakingLedger/internal/staking"
)

// Reader is the query side of the ledger.
type Reader interface {
	Pool(ctx context.Context, addr common.Address) (*model.Pool, error)
	Depositor(ctx context.Context, addr common.Address) (*model.Depositor, error)
	TokenAccount(ctx context.Context, addr common.Address) (*model.TokenAccount, error)
	Mint(ctx context.Context, addr common.Address) (*model.Mint, error)
}

type Server struct {
	reader Reader
	logger *zap.Logger
	http   *http.Server
}

func New(addr string, reader Reader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{reader: reader, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pools/{address}", s.handlePool)
	mux.HandleFunc("GET /depositors/{address}", s.handleDepositor)
	mux.HandleFunc("GET /accounts/{address}", s.handleAccount)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	pool, err := s.reader.Pool(r.Context(), addr)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pool)
}

func (s *Server) handleDepositor(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	depositor, err := s.reader.Depositor(r.Context(), addr)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, depositor)
}

type accountResponse struct {
	*model.TokenAccount
	Decimals uint8  `json:"decimals"`
	Balance  string `json:"balance"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	account, err := s.reader.TokenAccount(r.Context(), addr)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	mint, err := s.reader.Mint(r.Context(), account.Mint)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, accountResponse{
		TokenAccount: account,
		Decimals:     mint.Decimals,
		Balance:      model.FormatAmount(account.Amount, mint.Decimals),
	})
}

func (s *Server) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch staking.CodeOf(err) {
	case staking.CodeAccountNotFound, staking.CodeInvalidAccount:
		s.writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Error("lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	value := r.PathValue("address")
	if !common.IsHexAddress(value) {
		s.writeJSONError(w, "invalid address", http.StatusBadRequest)
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response failed", zap.Int("status", status), zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, map[string]string{"error": message})
}
