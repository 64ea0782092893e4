package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/anemia-api/config"
	"github.com/giygas/anemia-api/logging"
	"github.com/giygas/anemia-api/metrics"
	"github.com/juju/ratelimit"
)

// Token bucket settings per client
const (
	bucketRate         = 3
	bucketCapacity     = 1000
	bucketIdleInterval = 5 * time.Minute
)

// RealIPMiddleware extracts the real IP from X-Forwarded-For header
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first IP from the comma-separated list
			if idx := strings.Index(xff, ","); idx != -1 {
				xff = xff[:idx]
			}
			r.RemoteAddr = strings.TrimSpace(xff)
		} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			r.RemoteAddr = host
		}
		next.ServeHTTP(w, r)
	})
}

// BlockDirectAccessMiddleware rejects requests that did not come through
// the reverse proxy. Localhost is always allowed; allowDirect disables the
// check entirely.
func BlockDirectAccessMiddleware(allowDirect bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowDirect || r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != "" {
				next.ServeHTTP(w, r)
				return
			}

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if host == "127.0.0.1" || host == "::1" || host == "localhost" {
				next.ServeHTTP(w, r)
				return
			}

			logging.Warn("Direct access blocked", "remote_addr", r.RemoteAddr, "user_agent", r.Header.Get("User-Agent"))
			respondWithJSON(w, http.StatusForbidden, errorBody(http.StatusForbidden, "Direct access not allowed"))
		})
	}
}

// RequestSizeMiddleware limits the size of request headers and body
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check Content-Length header if present
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if length, err := strconv.ParseInt(contentLength, 10, 64); err == nil && length > cfg.MaxRequestBody {
					logging.Warn("Request body too large",
						"content_length", length,
						"max_allowed", cfg.MaxRequestBody,
						"remote_addr", r.RemoteAddr,
						"user_agent", r.UserAgent())

					respondWithJSON(w, http.StatusRequestEntityTooLarge, errorBody(http.StatusRequestEntityTooLarge,
						fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody)))
					return
				}
			}

			// Check header size (rough estimate)
			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}

			if headerSize > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithJSON(w, http.StatusRequestHeaderFieldsTooLarge, errorBody(http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize)))
				return
			}

			// Chunked bodies carry no Content-Length
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter manages per-client rate limiting
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
		stop:    make(chan struct{}),
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(bucketRate, bucketCapacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// removeIdle drops clients whose buckets have refilled completely
func (rl *RateLimiter) removeIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return removed
}

// startCleanup removes idle clients periodically until Stop is called
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := rl.removeIdle(); removed > 0 {
					logging.Debug("Rate limiter cleanup", "removed_clients", removed)
				}
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// HasSingleParam reports whether exactly one non-empty query parameter is
// present and it is one of allowed
func HasSingleParam(values url.Values, allowed []string) bool {
	present := 0
	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		present++
		if present > 1 {
			return false
		}
		found := false
		for _, name := range allowed {
			if key == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return present == 1
}

func getTokenCost(r *http.Request) int64 {
	path := r.URL.Path
	query := r.URL.Query()

	switch path {
	case "/health", "/metrics":
		return 5
	case "/v1/diagnosis", "/v1/prescriptions":
		return 10
	case "/v1/screenings":
		return 20
	case "/v1/adult-supplement":
		return 5
	case "/v1/supplements":
		if HasSingleParam(query, []string{"formulation"}) {
			return 10
		}
		if len(query) == 0 {
			return 20
		}
		return 5
	}

	switch {
	case strings.HasPrefix(path, "/v1/supplements/"):
		return 5
	case strings.HasPrefix(path, "/v1/locations/"):
		return 5
	}

	return 5
}

// RateLimitHandler implements rate limiting using token bucket
func (rl *RateLimiter) RateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(r.RemoteAddr)
		tokenCost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketRate))

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			respondWithJSON(w, http.StatusTooManyRequests, errorBody(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

func errorBody(code int, message string) map[string]any {
	return map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logging.Error("Failed to encode JSON response", "error", err)
		}
	}
}
