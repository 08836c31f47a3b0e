package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/farllirs/botpanel/internal/bot"
	"github.com/farllirs/botpanel/internal/store"
)

// Server is the administrative HTTP API the panel frontend talks to.
// Failures are conveyed in the response body, the HTTP status is always
// 200 for API routes.
type Server struct {
	addr     string
	registry *bot.Registry
	store    *store.Store
	sessions *SessionStore
	validate *validator.Validate
	limiter  *ipLimiter
	log      zerolog.Logger
}

func NewServer(port int, registry *bot.Registry, st *store.Store, sessions *SessionStore, log zerolog.Logger) *Server {
	return &Server{
		addr:     fmt.Sprintf(":%d", port),
		registry: registry,
		store:    st,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  newIPLimiter(),
		log:      log.With().Str("component", "panel").Logger(),
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.routes(mux)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.withRequestLog(s.withRateLimit(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("Shutting down panel server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.log.Info().Str("addr", s.addr).Msg("Panel API listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("panel server exited: %w", err)
	}
	return nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/bots", s.handleBots)
	mux.HandleFunc("GET /api/servers", s.handleServers)
	mux.HandleFunc("POST /api/config", s.handleConfig)
	mux.HandleFunc("POST /api/disconnect", s.handleDisconnect)
	mux.HandleFunc("GET /api/restore-sessions", s.handleRestoreSessions)
	mux.HandleFunc("GET /api/commands", s.handleListCommands)
	mux.HandleFunc("POST /api/commands", s.handleSaveCommand)
	mux.HandleFunc("DELETE /api/commands/{trigger}", s.handleDeleteCommand)
	mux.HandleFunc("GET /api/command-variants", s.handleListVariants)
	mux.HandleFunc("POST /api/command-variants", s.handleSaveVariant)
	mux.HandleFunc("DELETE /api/command-variants/{command}/{variant}", s.handleDeleteVariant)
}

// payload is one API response body.
type payload map[string]any

func (s *Server) writeJSON(w http.ResponseWriter, body payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) ok(w http.ResponseWriter, body payload) {
	if body == nil {
		body = payload{}
	}
	body["success"] = true
	s.writeJSON(w, body)
}

func (s *Server) fail(w http.ResponseWriter, message string) {
	s.writeJSON(w, payload{"success": false, "message": message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.fail(w, "Invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.fail(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		e := verrs[0]
		switch e.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", e.Field())
		case "required_without":
			return "Response or code is required"
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
		default:
			return fmt.Sprintf("%s is invalid", e.Field())
		}
	}
	return "Invalid request"
}

func botIDParam(r *http.Request) string {
	if id := r.URL.Query().Get("botId"); id != "" {
		return id
	}
	return bot.DefaultBotID
}
