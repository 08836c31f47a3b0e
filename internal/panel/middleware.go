package panel

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ipLimiter applies a per-client token bucket to the API. Buckets are kept
// per remote IP for as long as the process lives; the panel has a handful
// of operators, not the open internet.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

func newIPLimiter() *ipLimiter {
	return &ipLimiter{clients: make(map[string]*rate.Limiter)}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.clients[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(20), 40)
		l.clients[ip] = lim
	}
	return lim.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			s.fail(w, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestLog tags every request with an id and logs it on completion.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.Debug().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", clientIP(r)).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
