// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"benefits-assistant/internal/common/config"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/common/observability"
	"benefits-assistant/internal/dataset"
	"benefits-assistant/internal/ledger"
	"benefits-assistant/internal/models"
	"benefits-assistant/internal/router"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires the chat router and session ledger onto an HTTP listener.
type Server struct {
	cfg     *config.Config
	router  *router.Router
	ledger  ledger.Store
	pinger  Pinger
	dataset *dataset.Dataset
	obs     *observability.Observability
	logger  logger.Logger
	http    *http.Server
}

func New(cfg *config.Config, rt *router.Router, store ledger.Store, pinger Pinger, ds *dataset.Dataset, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		router:  rt,
		ledger:  store,
		pinger:  pinger,
		dataset: ds,
		obs:     obs,
		logger:  log,
	}
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}
	return s
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /sessions/{id}/messages", s.handleHistory)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleClear)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return withCORS(mux)
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.http.Addr,
	})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()

	sessionID := r.Header.Get("Session-Id")
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session_id")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	env := s.router.Handle(r.Context(), sessionID, body)

	s.obs.RecordRequestProcessed(r.Context(), env.Decision)
	s.obs.RecordRequestDuration(r.Context(), time.Since(start), env.Decision)

	s.logger.Info("chat request handled", map[string]interface{}{
		"request_id": requestID,
		"session_id": sessionID,
		"decision":   env.Decision,
		"status":     env.StatusCode,
		"duration":   time.Since(start).String(),
	})

	w.Header().Set("X-Request-Id", requestID)
	writeEnvelope(w, env)
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	messages, err := s.ledger.History(r.Context(), sessionID)
	if err != nil {
		s.logger.WithError(err).Error("failed to read session history", map[string]interface{}{
			"session_id": sessionID,
		})
		writeError(w, http.StatusInternalServerError, "failed to read session history")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Messages: messages})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	if err := s.ledger.Clear(r.Context(), sessionID); err != nil {
		s.logger.WithError(err).Error("failed to clear session", map[string]interface{}{
			"session_id": sessionID,
		})
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  "session store unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"dataset_records": s.dataset.Len(),
	})
}

// withCORS answers preflights and marks every response as
// cross-origin-accessible, matching the open CORS posture of the
// original deployment.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Session-Id")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, env router.Envelope) {
	for k, v := range env.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(env.StatusCode)
	w.Write(env.Body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
