package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/portcullisgw/portcullis/internal/metrics"
	"github.com/portcullisgw/portcullis/internal/ratelimit"
)

// GlobalRateLimit returns the admission-control middleware that runs before
// authentication: one fixed window per client address, shared by
// authenticated and unauthenticated requests alike. Rejections carry a
// Retry-After hint and never consult credentials.
func GlobalRateLimit(l *ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := l.Admit(sourceAddr(r))
			m.RateLimitKeys.Set(float64(l.Len()))
			if !ok {
				m.RateLimitedTotal.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
				writeAuthError(w, http.StatusTooManyRequests, "Rate limit exceeded. Retry later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sourceAddr returns the client address the limiter keys on. RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func sourceAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns an HTTP middleware that limits requests per IP address
// to the specified number per minute. Used for tighter per-route ceilings on
// top of the global limiter.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitByHeader returns an HTTP middleware that limits requests by a
// specific header value (e.g., X-API-Key) to the specified number per
// minute. Useful for per-key rate limiting.
func RateLimitByHeader(headerName string, requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return r.Header.Get(headerName), nil
		}),
	)
}
