// Package server exposes the wallet service over HTTP.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/driftwallet/drift/log"
	"github.com/driftwallet/drift/service"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server is the HTTP front of the two engines.
type Server struct {
	bitcoin  *service.BitcoinEngine
	ethereum *service.EthereumEngine
	router   *mux.Router
	server   *http.Server
	logger   zerolog.Logger
}

// New creates the HTTP server and wires its routes.
func New(port int, bitcoin *service.BitcoinEngine, ethereum *service.EthereumEngine) *Server {
	s := &Server{
		bitcoin:  bitcoin,
		ethereum: ethereum,
		logger:   log.WithComponent("server"),
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/wallets", s.handleCreateWallet).Methods(http.MethodPost)

	v1.HandleFunc("/bitcoin/send", s.handleBitcoinSend).Methods(http.MethodPost)
	v1.HandleFunc("/bitcoin/balance/{address}", s.handleBitcoinBalance).Methods(http.MethodGet)
	v1.HandleFunc("/bitcoin/transaction/{hash}", s.handleBitcoinTransaction).Methods(http.MethodGet)
	v1.HandleFunc("/bitcoin/transactions/{address}", s.handleBitcoinTransactions).Methods(http.MethodGet)

	v1.HandleFunc("/evm/{chain}/send", s.handleEVMSend).Methods(http.MethodPost)
	v1.HandleFunc("/evm/{chain}/balance/{address}", s.handleEVMBalance).Methods(http.MethodGet)
	v1.HandleFunc("/evm/{chain}/fees", s.handleEVMFees).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router = r
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Sends block on external confirmation and can legitimately take
		// the full receipt timeout.
		WriteTimeout: 10 * time.Minute,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP listener and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("listening")
	return s.server.ListenAndServe()
}

// logRequests records method, path, status and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
