// Package api implements the coach HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jayden1717/fitness-companion/internal/buildinfo"
	"github.com/Jayden1717/fitness-companion/internal/store"
	"github.com/google/uuid"
)

// CoachLoop runs one coaching exchange. *agent.Loop satisfies it; tests
// substitute stubs.
type CoachLoop interface {
	Run(ctx context.Context, userID, utterance string, history []store.Turn) (string, error)
}

// HistoryStore loads and appends conversation transcripts.
type HistoryStore interface {
	History(userID string) ([]store.Turn, error)
	AppendExchange(userID, userText, assistantText string) error
}

// Linker handles the Strava OAuth handshake. *strava.Client satisfies it.
type Linker interface {
	AuthorizeURL(userID string) string
	Exchange(ctx context.Context, code, userID string) error
}

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	loop    CoachLoop
	history HistoryStore
	linker  Linker
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, loop CoachLoop, history HistoryStore, linker Linker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		port:    port,
		loop:    loop,
		history: history,
		linker:  linker,
		logger:  logger,
	}
}

// Handler builds the route table. Exposed so tests can drive the mux
// without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /coach", s.handleCoach)

	// Strava OAuth handshake
	mux.HandleFunc("GET /strava/authorize", s.handleStravaAuthorize)
	mux.HandleFunc("GET /strava/callback", s.handleStravaCallback)

	// Health endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.address, s.port),
		Handler: s.Handler(),
		// The write timeout must cover a full agent run: up to ten model
		// round-trips plus tool calls against the activity provider.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "fitness-companion",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

// CoachRequest is one user utterance addressed to the coach.
type CoachRequest struct {
	UserID    string `json:"user_id"`
	Utterance string `json:"utterance"`
}

// CoachResponse carries the coaching answer. Failures travel in the
// advice text, never in the transport status.
type CoachResponse struct {
	Advice string `json:"advice"`
}

// handleCoach orchestrates one exchange: load history, run the loop,
// persist the completed turn, shape the response. Every failure past
// request parsing is converted to apology text with a success-shaped
// status — the conversational client must never see a transport error.
func (s *Server) handleCoach(w http.ResponseWriter, r *http.Request) {
	var req CoachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Utterance == "" {
		s.errorResponse(w, http.StatusBadRequest, "user_id and utterance are required")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	history, err := s.history.History(req.UserID)
	if err != nil {
		s.logger.Error("history load failed", "user", req.UserID, "error", err)
		writeJSON(w, CoachResponse{Advice: apology(err)}, s.logger)
		return
	}

	advice, err := s.loop.Run(r.Context(), req.UserID, req.Utterance, history)
	if err != nil {
		s.logger.Error("coaching loop failed", "user", req.UserID, "error", err)
		writeJSON(w, CoachResponse{Advice: apology(err)}, s.logger)
		return
	}

	if err := s.history.AppendExchange(req.UserID, req.Utterance, advice); err != nil {
		// The answer is already in hand; losing one history turn is
		// preferable to discarding the response.
		s.logger.Error("history append failed", "user", req.UserID, "error", err)
	}

	writeJSON(w, CoachResponse{Advice: advice}, s.logger)
}

// apology renders an uncaught failure as response text, trading
// diagnostic precision for client robustness.
func apology(err error) string {
	return fmt.Sprintf("I encountered an error: %v", err)
}

// handleStravaAuthorize redirects the user to the Strava consent page.
// GET /strava/authorize?user_id=...
func (s *Server) handleStravaAuthorize(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.errorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}
	http.Redirect(w, r, s.linker.AuthorizeURL(userID), http.StatusFound)
}

// handleStravaCallback completes the OAuth handshake: exchanges the
// authorization code for tokens and persists them for the user carried
// in the state parameter. Unlike /coach this endpoint reports real
// statuses — it answers the provider's redirect, not the voice client.
func (s *Server) handleStravaCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.errorResponse(w, http.StatusBadRequest, "missing code")
		return
	}

	userID := r.URL.Query().Get("state")
	if userID == "" {
		userID = r.URL.Query().Get("user_id")
	}
	if userID == "" {
		s.errorResponse(w, http.StatusBadRequest, "missing user id")
		return
	}

	if err := s.linker.Exchange(r.Context(), code, userID); err != nil {
		s.logger.Error("strava auth failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusBadGateway, "Strava auth failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"status":  "Authenticated",
		"user_id": userID,
	}, s.logger)
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}
