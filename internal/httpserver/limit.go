// internal/httpserver/limit.go
//
// Token-bucket throttling for game selection and answers.
// HTTP clients get one bucket each, keyed by player, then anonymous cookie,
// then remote address; every WebSocket connection gets its own bucket.

package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/robalobadob/gamezone/internal/config"
)

// limiterIdle is how long an unused client bucket is kept around.
const limiterIdle = 10 * time.Minute

// newLimiter builds one client's token bucket.
// A non-positive rate disables limiting.
func newLimiter(cfg config.Config) *rate.Limiter {
	if cfg.RateLimitPerSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), burst)
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet hands out per-client buckets and forgets idle ones.
type limiterSet struct {
	mu      sync.Mutex
	cfg     config.Config
	clients map[string]*clientLimiter
	swept   time.Time
}

func newLimiterSet(cfg config.Config) *limiterSet {
	return &limiterSet{cfg: cfg, clients: map[string]*clientLimiter{}, swept: time.Now()}
}

func (l *limiterSet) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if now.Sub(l.swept) >= limiterIdle {
		for k, c := range l.clients {
			if now.Sub(c.seen) >= limiterIdle {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{lim: newLimiter(l.cfg)}
		l.clients[key] = c
	}
	c.seen = now
	return c.lim
}

// clientKey identifies the caller for throttling. A freshly minted anonymous
// id is not trusted; callers without a cookie share their address's bucket.
func clientKey(r *http.Request) string {
	if me := currentUser(r.Context()); me != nil {
		return "player:" + me.ID
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return "anon:" + c.Value
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

// rateLimit rejects requests with 429 once the caller's bucket is empty.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiters.get(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"error":"rate_limited"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
