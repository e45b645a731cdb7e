// internal/httpserver/server.go
//
// HTTP wiring for the game server.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access log).
//   - Public endpoints: "/", "/health", "/catalog", "/stats".
//   - Game endpoints (optional auth): /games, /games/{id}, /games/{id}/answer,
//     /games/{id}/replay, plus the WebSocket front-end at /ws.
//   - Account endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Sessions live in the orchestrator's store; the history database only
//     records ownership, progress and outcomes, best effort.
//   - Optional auth decorates requests with the player when a valid token is
//     present; guests get an anonymous cookie so their games can be claimed
//     after signup/login.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/internal/config"
	"github.com/robalobadob/gamezone/internal/game"
	"github.com/robalobadob/gamezone/internal/history"
	"github.com/robalobadob/gamezone/internal/orchestrator"
	"github.com/robalobadob/gamezone/internal/store"
)

// Server bundles the router, the orchestrator and the history store.
type Server struct {
	r        *chi.Mux
	orch     *orchestrator.Orchestrator
	hist     *history.Store // nil disables accounts and history
	cfg      config.Config
	limiters *limiterSet // per-client buckets for the HTTP game routes
}

// New constructs a Server, builds its orchestrator over st, installs
// middleware and registers routes.
func New(st store.Store, hist *history.Store, gameCfg orchestrator.Config, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), hist: hist, cfg: cfg, limiters: newLimiterSet(cfg)}
	s.orch = orchestrator.New(st, gameCfg, s.historyHooks())

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(accessLog)
	s.r.Use(s.cors)

	// WebSocket sessions are long-lived; they sit outside the request timeout.
	s.r.With(s.withOptionalAuth, s.withAnonID).Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"gamezone","endpoints":["/health","/catalog","POST /games","POST /games/{id}/answer","/ws","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/catalog", s.handleCatalog)

		// Games: optional auth (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth, s.withAnonID)
			r.With(s.rateLimit).Post("/games", s.handleNewGame)
			r.Get("/games/{id}", s.handleGetGame)
			r.With(s.rateLimit).Post("/games/{id}/answer", s.handleAnswer)
			r.With(s.rateLimit).Post("/games/{id}/replay", s.handleReplay)
			r.Delete("/games/{id}", s.handleReset)
		})

		if s.hist != nil {
			r.Get("/stats", s.handleStats)
			s.mountAuthRoutes(r)
		}

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Orchestrator exposes the orchestrator the server drives.
func (s *Server) Orchestrator() *orchestrator.Orchestrator { return s.orch }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one debug line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorCode maps core errors onto an HTTP status and a wire code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidSelection):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, game.ErrInvalidResponse):
		return http.StatusBadRequest, "invalid_response"
	case errors.Is(err, game.ErrFinished):
		return http.StatusConflict, "game_finished"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, err error) {
	status, code := errorCode(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	http.Error(w, `{"error":"`+code+`"}`, status)
}
