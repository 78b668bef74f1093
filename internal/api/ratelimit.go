package api

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// limiterPool keeps one token bucket per client for the simulation
// endpoints. Defaults are generous; tune with RATE_RPS / RATE_BURST.
type limiterPool struct {
	mu    sync.Mutex
	perIP map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func newLimiterPool() *limiterPool {
	rps := 10.0
	burst := 20
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return &limiterPool{perIP: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (l *limiterPool) allow(clientKey string) bool {
	l.mu.Lock()
	lim := l.perIP[clientKey]
	if lim == nil {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.perIP[clientKey] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// allowRequest applies the per-client limit, answering 429 when exceeded.
func (s *Server) allowRequest(w http.ResponseWriter, r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !s.limits.allow(host) {
		writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "slow down", r.URL.Path)
		return false
	}
	return true
}
