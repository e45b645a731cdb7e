// internal/httpserver/games.go
//
// Game routes: selection, turns, replay and reset. Each handler validates
// its input at the boundary (game choice, yes/no answer) before calling the
// orchestrator, which only ever sees validated values.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/internal/game"
	"github.com/robalobadob/gamezone/internal/history"
	"github.com/robalobadob/gamezone/internal/orchestrator"
)

// newGameReq is the payload for POST /games.
type newGameReq struct {
	Game string `json:"game"` // "number" | "word"
}

// handleNewGame starts a session and returns its first step.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	step, err := s.orch.SelectGame(r.Context(), req.Game)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

// handleGetGame returns the pending step (e.g. after a page reload).
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	step, err := s.orch.Current(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// answerReq is the payload for POST /games/{id}/answer.
type answerReq struct {
	Answer string `json:"answer"` // "yes" | "no"
}

// handleAnswer applies one yes/no answer.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	a, err := game.ParseAnswer(req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	step, err := s.orch.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// handleReplay discards the session and starts the same game again.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	step, err := s.orch.Replay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

// handleReset discards the session. Always 204, even for unknown IDs.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// catalogRes is returned by GET /catalog.
type catalogRes struct {
	Words       []string         `json:"words"`
	Categories  []string         `json:"categories"`
	NumberRange game.NumberRange `json:"numberRange"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c := s.orch.Catalog()
	writeJSON(w, http.StatusOK, catalogRes{
		Words:       c.Words(),
		Categories:  c.Vocabulary(),
		NumberRange: s.orch.NumberRange(),
	})
}

// handleStats returns per-game stats over every finished session.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.hist.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": stats})
}

// historyHooks persists session progress when a history store is configured.
// Failures are logged and never fail the turn.
func (s *Server) historyHooks() orchestrator.Hooks {
	if s.hist == nil {
		return orchestrator.Hooks{}
	}
	return orchestrator.Hooks{
		Started: func(ctx context.Context, sess *game.Session) {
			if err := s.hist.RecordStart(ctx, sess, ownerFrom(ctx)); err != nil {
				log.Warn().Err(err).Str("session", sess.ID).Msg("record session start")
			}
		},
		Answered: func(ctx context.Context, sess *game.Session) {
			if err := s.hist.RecordProgress(ctx, sess); err != nil {
				log.Warn().Err(err).Str("session", sess.ID).Msg("record session progress")
			}
		},
	}
}

// ownerFrom picks the player or anonymous id placed in ctx by middleware.
func ownerFrom(ctx context.Context) history.Owner {
	if me, _ := ctx.Value(ctxUserKey{}).(*authUser); me != nil {
		return history.Owner{PlayerID: me.ID}
	}
	anon, _ := ctx.Value(ctxAnonKey{}).(string)
	return history.Owner{AnonymousID: anon}
}
