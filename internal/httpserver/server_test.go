package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/gamezone/assets"
	"github.com/robalobadob/gamezone/internal/config"
	"github.com/robalobadob/gamezone/internal/game"
	"github.com/robalobadob/gamezone/internal/history"
	"github.com/robalobadob/gamezone/internal/orchestrator"
	"github.com/robalobadob/gamezone/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		CookieName:     "gz_token",
		ClientOrigin:   "http://localhost:5173",
		AppEnv:         "test",
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, history.Migrate(db, assets.Migrations()))

	s := New(store.NewMemoryStore(), history.NewStore(db), orchestrator.Config{}, cfg)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// call sends a JSON request and decodes the JSON response into out (if non-nil).
func call(t *testing.T, c *http.Client, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

type errBody struct {
	Error string `json:"error"`
}

// playNumber plays a number game for target and returns the final step.
func playNumber(t *testing.T, c *http.Client, base string, target int) game.StepResult {
	t.Helper()
	var step game.StepResult
	require.Equal(t, http.StatusCreated, call(t, c, "POST", base+"/games", map[string]string{"game": "number"}, &step))
	for !step.Terminal() {
		mid, err := strconv.Atoi(step.Proposal.Subject)
		require.NoError(t, err)
		ans := "no"
		if target > mid {
			ans = "yes"
		}
		require.Equal(t, http.StatusOK,
			call(t, c, "POST", base+"/games/"+step.SessionID+"/answer", map[string]string{"answer": ans}, &step))
	}
	return step
}

func TestHealthAndCatalog(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t)

	var health map[string]bool
	assert.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/health", nil, &health))
	assert.True(t, health["ok"])

	var cat catalogRes
	assert.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/catalog", nil, &cat))
	assert.Len(t, cat.Words, 8)
	assert.Contains(t, cat.Categories, "animal")
	assert.Equal(t, game.DefaultNumberRange, cat.NumberRange)

	var nf errBody
	assert.Equal(t, http.StatusNotFound, call(t, c, "GET", ts.URL+"/nope", nil, &nf))
	assert.Equal(t, "not_found", nf.Error)

	var quoted map[string]string
	assert.Equal(t, http.StatusNotFound, call(t, c, "GET", ts.URL+`/say%22hi%22`, nil, &quoted))
	assert.Equal(t, `/say"hi"`, quoted["path"])
}

func TestNumberGameOverHTTP(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t)

	step := playNumber(t, c, ts.URL, 37)
	assert.Equal(t, game.StatusSolved, step.Status)
	assert.Equal(t, "37", step.Value)
	id := step.SessionID

	var e errBody
	assert.Equal(t, http.StatusConflict,
		call(t, c, "POST", ts.URL+"/games/"+id+"/answer", map[string]string{"answer": "yes"}, &e))
	assert.Equal(t, "game_finished", e.Error)

	var cur game.StepResult
	assert.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/games/"+id, nil, &cur))
	assert.Equal(t, step, cur)

	assert.Equal(t, http.StatusNoContent, call(t, c, "DELETE", ts.URL+"/games/"+id, nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, c, "DELETE", ts.URL+"/games/"+id, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, c, "GET", ts.URL+"/games/"+id, nil, &e))
}

func TestBoundaryValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t)

	var e errBody
	assert.Equal(t, http.StatusBadRequest, call(t, c, "POST", ts.URL+"/games", map[string]string{"game": "banana"}, &e))
	assert.Equal(t, "invalid_selection", e.Error)

	var step game.StepResult
	require.Equal(t, http.StatusCreated, call(t, c, "POST", ts.URL+"/games", map[string]string{"game": "word"}, &step))
	assert.Equal(t, game.ProposalCategory, step.Proposal.Kind)

	assert.Equal(t, http.StatusBadRequest,
		call(t, c, "POST", ts.URL+"/games/"+step.SessionID+"/answer", map[string]string{"answer": "maybe"}, &e))
	assert.Equal(t, "invalid_response", e.Error)

	var cur game.StepResult
	require.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/games/"+step.SessionID, nil, &cur))
	assert.Zero(t, cur.Attempts, "rejected input must not reach the engine")

	assert.Equal(t, http.StatusNotFound,
		call(t, c, "POST", ts.URL+"/games/missing/answer", map[string]string{"answer": "yes"}, &e))

	var replay game.StepResult
	require.Equal(t, http.StatusCreated, call(t, c, "POST", ts.URL+"/games/"+step.SessionID+"/replay", nil, &replay))
	assert.NotEqual(t, step.SessionID, replay.SessionID)
	assert.Equal(t, game.KindWord, replay.Game)
}

func TestAccountsClaimGuestHistory(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t)

	// Play as a guest first; the anonymous cookie ties the game to this client.
	playNumber(t, c, ts.URL, 12)

	var e errBody
	assert.Equal(t, http.StatusUnauthorized, call(t, c, "GET", ts.URL+"/auth/me", nil, &e))

	creds := map[string]string{"username": "player_one", "password": "hunter2hunter2"}
	require.Equal(t, http.StatusCreated, call(t, c, "POST", ts.URL+"/auth/signup", creds, nil))
	assert.Equal(t, http.StatusConflict, call(t, c, "POST", ts.URL+"/auth/signup", creds, &e))
	assert.Equal(t, "username_taken", e.Error)

	var me authUser
	require.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/auth/me", nil, &me))
	assert.Equal(t, "player_one", me.Username)

	playNumber(t, c, ts.URL, 50)

	var mine []history.GameRow
	require.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/games/mine", nil, &mine))
	require.Len(t, mine, 2)
	values := []string{mine[0].Value, mine[1].Value}
	assert.ElementsMatch(t, []string{"12", "50"}, values)

	var stats struct {
		Games []history.Stats `json:"games"`
	}
	require.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/stats/me", nil, &stats))
	require.Len(t, stats.Games, 1)
	assert.Equal(t, 2, stats.Games[0].Played)
	assert.Equal(t, 2, stats.Games[0].Solved)

	require.Equal(t, http.StatusOK, call(t, c, "POST", ts.URL+"/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, c, "GET", ts.URL+"/auth/me", nil, &e))

	bad := map[string]string{"username": "player_one", "password": "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, call(t, c, "POST", ts.URL+"/auth/login", bad, &e))
	require.Equal(t, http.StatusOK, call(t, c, "POST", ts.URL+"/auth/login", creds, nil))
	require.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/auth/me", nil, &me))

	var global struct {
		Games []history.Stats `json:"games"`
	}
	require.Equal(t, http.StatusOK, call(t, c, "GET", ts.URL+"/stats", nil, &global))
	require.Len(t, global.Games, 1)
	assert.Equal(t, "number", global.Games[0].Game)
}

// primeGuest makes one unthrottled request so the client holds an
// anonymous cookie before it hits rate-limited routes.
func primeGuest(t *testing.T, c *http.Client, base string) {
	t.Helper()
	require.Equal(t, http.StatusNotFound, call(t, c, "GET", base+"/games/missing", nil, nil))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSec = 0.001
	cfg.RateLimitBurst = 1
	ts := newTestServer(t, cfg)
	c := newClient(t)
	primeGuest(t, c, ts.URL)

	assert.Equal(t, http.StatusCreated, call(t, c, "POST", ts.URL+"/games", map[string]string{"game": "number"}, nil))
	var e errBody
	assert.Equal(t, http.StatusTooManyRequests, call(t, c, "POST", ts.URL+"/games", map[string]string{"game": "number"}, &e))
	assert.Equal(t, "rate_limited", e.Error)
}

func TestRateLimitIsPerClient(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSec = 0.001
	cfg.RateLimitBurst = 3
	ts := newTestServer(t, cfg)
	a, b := newClient(t), newClient(t)
	primeGuest(t, a, ts.URL)
	primeGuest(t, b, ts.URL)

	newGame := map[string]string{"game": "number"}
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, call(t, a, "POST", ts.URL+"/games", newGame, nil))
	}
	var e errBody
	assert.Equal(t, http.StatusTooManyRequests, call(t, a, "POST", ts.URL+"/games", newGame, &e))
	assert.Equal(t, "rate_limited", e.Error)

	assert.Equal(t, http.StatusCreated, call(t, b, "POST", ts.URL+"/games", newGame, nil),
		"another client keeps its own bucket")
}

func TestWebSocketWordGame(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	send := func(req wsRequest) wsResponse {
		t.Helper()
		require.NoError(t, wsjson.Write(ctx, conn, req))
		var res wsResponse
		require.NoError(t, wsjson.Read(ctx, conn, &res))
		return res
	}

	res := send(wsRequest{Action: "answer", Answer: "yes"})
	assert.Equal(t, "no_session", res.Error)

	res = send(wsRequest{Action: "select", Game: "banana"})
	assert.Equal(t, "invalid_selection", res.Error)

	res = send(wsRequest{Action: "select", Game: "word"})
	require.NotNil(t, res.Step)
	assert.Equal(t, "object", res.Step.Proposal.Subject)
	wordID := res.Step.SessionID

	res = send(wsRequest{Action: "answer", Answer: "perhaps"})
	assert.Equal(t, "invalid_response", res.Error)

	// A bad selection mid-game leaves the running game in place.
	res = send(wsRequest{Action: "select", Game: "banana"})
	assert.Equal(t, "invalid_selection", res.Error)
	res = send(wsRequest{Action: "current"})
	require.NotNil(t, res.Step, res.Error)
	assert.Equal(t, wordID, res.Step.SessionID)
	assert.Equal(t, "object", res.Step.Proposal.Subject)

	for _, a := range []string{"no", "yes", "no", "yes"} {
		res = send(wsRequest{Action: "answer", Answer: a})
		require.NotNil(t, res.Step, res.Error)
	}
	assert.Equal(t, game.StatusSolved, res.Step.Status)
	assert.Equal(t, "tiger", res.Step.Value)

	res = send(wsRequest{Action: "answer", Answer: "yes"})
	assert.Equal(t, "game_finished", res.Error)

	res = send(wsRequest{Action: "replay"})
	require.NotNil(t, res.Step)
	assert.Equal(t, game.StatusAwaiting, res.Step.Status)

	res = send(wsRequest{Action: "reset"})
	assert.Nil(t, res.Step)
	assert.Empty(t, res.Error)

	res = send(wsRequest{Action: "dance"})
	assert.Equal(t, "unknown_action", res.Error)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
}
