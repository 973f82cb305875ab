package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterIdleThreshold = 1 * time.Hour
	cleanupInterval      = 30 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands each client a token bucket of capacity submissions that
// refills evenly over window.
type RateLimiter struct {
	mu          sync.Mutex
	capacity    int
	limit       rate.Limit
	window      time.Duration
	clients     map[string]*clientLimiter
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter starts a limiter and its background cleanup. Call Stop to
// release the goroutine.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	rl := newRateLimiter(capacity, window, time.Now)
	go rl.cleanupLoop()
	return rl
}

func newRateLimiter(capacity int, window time.Duration, now func() time.Time) *RateLimiter {
	var limit rate.Limit
	if capacity > 0 && window > 0 {
		limit = rate.Every(window / time.Duration(capacity))
	}
	return &RateLimiter{
		capacity:    capacity,
		limit:       limit,
		window:      window,
		clients:     make(map[string]*clientLimiter),
		now:         now,
		stopCleanup: make(chan struct{}),
	}
}

func (r *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, client := range r.clients {
		if now.Sub(client.lastSeen) > limiterIdleThreshold {
			delete(r.clients, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
}

func (r *RateLimiter) client(key string, now time.Time) *clientLimiter {
	client, ok := r.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.capacity)}
		r.clients[key] = client
	}
	client.lastSeen = now
	return client
}

// Allow takes a token for key and reports whether one was available.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	return r.client(key, now).limiter.AllowN(now, 1)
}

// retryAfter is the time until key's bucket holds a token again.
func (r *RateLimiter) retryAfter(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[key]
	if !ok {
		return 0
	}
	now := r.now()
	reservation := client.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return r.window
	}
	defer reservation.CancelAt(now)
	return reservation.DelayFrom(now)
}

// clientKey identifies the caller. middleware.RealIP has already replaced
// RemoteAddr with the forwarded address when one was sent.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds renders wait for the Retry-After header in whole seconds,
// never less than one.
func retryAfterSeconds(wait time.Duration) string {
	seconds := int(wait.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func (h *handler) rateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !h.limiter.Allow(key) {
			h.logger.Warn("rate limit exceeded",
				zap.String("op", "server.rateLimit"),
				zap.String("client", key),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", retryAfterSeconds(h.limiter.retryAfter(key)))
			h.writeJSON(w, http.StatusTooManyRequests, envelope{
				Message: "Too many submissions, please try again shortly",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
