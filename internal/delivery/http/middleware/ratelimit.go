package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	h "eventticketing/internal/delivery/http/helpers"
)

// RateLimiter keeps one token bucket per caller. Scanners hammering the
// check-in route get 429 instead of piling onto the database.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	buckets   map[string]*callerBucket
}

type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Bounds on how long a bucket is kept after its last request.
const (
	minIdle = time.Minute
	maxIdle = 24 * time.Hour
)

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		idle:      refillTime(perSecond, burst),
		lastSweep: time.Now(),
		now:       time.Now,
		buckets:   make(map[string]*callerBucket),
	}
}

// refillTime is how long an untouched bucket takes to fill up again. A bucket
// idle that long is indistinguishable from a new one.
func refillTime(perSecond float64, burst int) time.Duration {
	if perSecond <= 0 {
		return minIdle
	}
	secs := float64(burst) / perSecond
	if secs >= maxIdle.Seconds() {
		return maxIdle
	}
	return max(time.Duration(secs*float64(time.Second)), minIdle)
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &callerBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep drops buckets idle for at least l.idle. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// Len reports how many caller buckets are live.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Limit keys the bucket on the authenticated user, falling back to the remote address.
// Rejected calls carry Retry-After in whole seconds.
func (l *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if userID, ok := UserIDFromContext(r.Context()); ok {
			key = userID
		}
		res := l.bucket(key).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeRateLimited, "too many requests, slow down")
			return
		}
		next(w, r)
	}
}
