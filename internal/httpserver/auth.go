// internal/httpserver/auth.go
//
// Player accounts: signup/login/logout, JWT cookies, optional auth and the
// anonymous cookie that lets guest games be claimed later.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/internal/history"
)

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Context keys.
type (
	ctxUserKey struct{}
	ctxAnonKey struct{}
)

const anonCookieName = "gamezone_anon"

// credentials is the payload for signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, currentUser(r.Context()))
		})
		r.Get("/stats/me", s.handleMyStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

// handleSignup creates a player, sets the auth cookie and claims guest games.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	p, err := s.hist.CreatePlayer(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, history.ErrUsernameTaken) {
			http.Error(w, `{"error":"username_taken"}`, http.StatusConflict)
			return
		}
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		http.Error(w, string(b), http.StatusBadRequest)
		return
	}
	if !s.issueSession(w, r, p) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": p.ID, "username": p.Username, "createdAt": p.CreatedAt})
}

// handleLogin checks credentials, sets the auth cookie and claims guest games.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	p, err := s.hist.PlayerByUsername(r.Context(), body.Username)
	if err != nil || !p.CheckPassword(body.Password) {
		http.Error(w, `{"error":"invalid_credentials"}`, http.StatusUnauthorized)
		return
	}
	if !s.issueSession(w, r, p) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": p.ID, "username": p.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.CookieName, "", time.Time{}, -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r.Context())
	stats, err := s.hist.PlayerStats(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("player", me.ID).Msg("load player stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": me.ID, "games": stats})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r.Context())
	rows, err := s.hist.Recent(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Str("player", me.ID).Msg("load recent games")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// issueSession signs a token, sets the auth cookie and moves any guest games
// to the player. It reports false after writing an error response.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, p *history.Player) bool {
	tok, exp, err := s.signJWT(p.ID, p.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, exp, 0)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		if err := s.hist.ClaimAnonymous(r.Context(), c.Value, p.ID); err != nil {
			log.Warn().Err(err).Msg("claim anonymous games")
		}
	}
	return true
}

// --------------------------- middleware ------------------------------------

// withOptionalAuth decorates requests with the player if a valid JWT is
// present. It never rejects a request.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.userFromToken(r); u != nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth enforces a valid JWT for a player that still exists.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.userFromToken(r)
		if u == nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

// withAnonID gives guests a stable anonymous id (cookie) and puts it in ctx.
func (s *Server) withAnonID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			id := ""
			if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
				id = c.Value
			} else {
				id = uuid.NewString()
				s.setCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour), 0)
			}
			r = r.WithContext(context.WithValue(r.Context(), ctxAnonKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(ctx context.Context) *authUser {
	u, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return u
}

// userFromToken validates the bearer/cookie token and loads its player.
func (s *Server) userFromToken(r *http.Request) *authUser {
	if s.hist == nil {
		return nil
	}
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil
	}
	p, err := s.hist.PlayerByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return &authUser{ID: p.ID, Username: p.Username}
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT carrying id/username, valid JWTExpiresDays.
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	days := s.cfg.JWTExpiresDays
	if days <= 0 {
		days = 14
	}
	now := time.Now()
	exp := now.Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// setCookie writes an HttpOnly cookie; maxAge < 0 deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time, maxAge int) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	})
}

// bearerOrCookie extracts a token from the Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
