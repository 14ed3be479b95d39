// Package server exposes a trained agent's decisions over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjackrl/sdk/qlearn"
)

// Server answers decision requests against a single agent. Decisions are
// serialised because exploration shares the agent's generator and the first
// lookup of a state records it in the table.
type Server struct {
	agent    *qlearn.Agent
	mu       sync.Mutex
	logger   *log.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// New builds a server for agent.
func New(agent *qlearn.Agent, logger *log.Logger) *Server {
	s := &Server{
		agent:  agent,
		logger: logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/decide", s.handleDecideQuery)
		r.Post("/decide", s.handleDecideBody)
		r.Get("/table/stats", s.handleStats)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting decision server", "addr", addr)
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
		s.logger.Info("Shutting down decision server")
		return srv.Shutdown(shutdownCtx)
	}
}

// Decide runs the agent's policy for req.
func (s *Server) Decide(req DecideRequest) (DecideResponse, error) {
	state, err := req.State()
	if err != nil {
		return DecideResponse{}, err
	}

	s.mu.Lock()
	action := s.agent.Decide(state, req.Training)
	values := s.agent.Table.Peek(state)
	s.mu.Unlock()

	return DecideResponse{
		Action: action.String(),
		State:  state.String(),
		Stand:  values.Stand,
		Hit:    values.Hit,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	size := s.agent.Table.Size()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, StatsResponse{States: size, Trained: size > 0})
}

func (s *Server) handleDecideQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req DecideRequest
	var err error
	if req.PlayerTotal, err = strconv.Atoi(q.Get("player_total")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "player_total must be an integer")
		return
	}
	if req.DealerUpCard, err = strconv.Atoi(q.Get("dealer_up_card")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "dealer_up_card must be an integer")
		return
	}
	if v := q.Get("soft"); v != "" {
		if req.Soft, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "soft must be a boolean")
			return
		}
	}
	if v := q.Get("training"); v != "" {
		if req.Training, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "training must be a boolean")
			return
		}
	}
	s.respondDecision(w, req)
}

func (s *Server) handleDecideBody(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse decide request")
		return
	}
	s.respondDecision(w, req)
}

func (s *Server) respondDecision(w http.ResponseWriter, req DecideRequest) {
	resp, err := s.Decide(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_state", err.Error())
		return
	}
	s.logger.Debug("Decision", "state", resp.State, "action", resp.Action, "training", req.Training)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	NewConnection(conn, s, s.logger).Start()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
