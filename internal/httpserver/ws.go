// internal/httpserver/ws.go
//
// WebSocket front-end. A connection owns at most one session at a time and
// drives it with small JSON messages:
//
//	{"action":"select","game":"word"}
//	{"action":"answer","answer":"yes"}
//	{"action":"current"} | {"action":"replay"} | {"action":"reset"}
//
// Every message gets exactly one reply: {"step":{...}} or {"error":"code"}.
// The session is reset when the connection closes. Each connection has its
// own rate limit bucket.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/internal/game"
)

type wsRequest struct {
	Action string `json:"action"`
	Game   string `json:"game,omitempty"`
	Answer string `json:"answer,omitempty"`
}

type wsResponse struct {
	Step  *game.StepResult `json:"step,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if u, err := url.Parse(s.cfg.ClientOrigin); err == nil && u.Host != "" {
		opts.OriginPatterns = []string{u.Host}
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept")
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	limiter := newLimiter(s.cfg)
	var handle string
	defer func() {
		if handle != "" {
			_ = s.orch.Reset(context.WithoutCancel(ctx), handle)
		}
	}()

	for {
		var req wsRequest
		if err := wsjson.Read(ctx, c, &req); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		if !limiter.Allow() {
			if err := wsjson.Write(ctx, c, wsResponse{Error: "rate_limited"}); err != nil {
				return
			}
			continue
		}
		res := s.dispatchWS(ctx, &handle, req)
		if err := wsjson.Write(ctx, c, res); err != nil {
			return
		}
	}
}

var errNoSession = errors.New("no session")

// dispatchWS runs one message against the connection's session handle.
func (s *Server) dispatchWS(ctx context.Context, handle *string, req wsRequest) wsResponse {
	var (
		step game.StepResult
		err  error
	)
	switch req.Action {
	case "select":
		// The running game is only replaced once the new one exists.
		step, err = s.orch.SelectGame(ctx, req.Game)
		if err == nil {
			if *handle != "" {
				_ = s.orch.Reset(ctx, *handle)
			}
			*handle = step.SessionID
		}
	case "answer":
		if *handle == "" {
			err = errNoSession
			break
		}
		var a game.Answer
		if a, err = game.ParseAnswer(req.Answer); err == nil {
			step, err = s.orch.SubmitAnswer(ctx, *handle, a)
		}
	case "current":
		if *handle == "" {
			err = errNoSession
			break
		}
		step, err = s.orch.Current(ctx, *handle)
	case "replay":
		if *handle == "" {
			err = errNoSession
			break
		}
		if step, err = s.orch.Replay(ctx, *handle); err == nil {
			*handle = step.SessionID
		}
	case "reset":
		if *handle != "" {
			err = s.orch.Reset(ctx, *handle)
			*handle = ""
		}
		if err == nil {
			return wsResponse{}
		}
	default:
		return wsResponse{Error: "unknown_action"}
	}
	if errors.Is(err, errNoSession) {
		return wsResponse{Error: "no_session"}
	}
	if err != nil {
		_, code := errorCode(err)
		return wsResponse{Error: code}
	}
	return wsResponse{Step: &step}
}
