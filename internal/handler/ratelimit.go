package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	sweepEvery = 5 * time.Minute
	bucketIdle = 10 * time.Minute
)

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

// clientBuckets holds one token bucket per client address.
type clientBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	now     func() time.Time
}

func newClientBuckets(rps, burst int) *clientBuckets {
	return &clientBuckets{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (cb *clientBuckets) allow(client string) bool {
	cb.mu.Lock()
	b, ok := cb.buckets[client]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(cb.rps, cb.burst)}
		cb.buckets[client] = b
	}
	b.seen = cb.now()
	cb.mu.Unlock()

	return b.tokens.Allow()
}

// sweep forgets clients idle for longer than bucketIdle.
func (cb *clientBuckets) sweep() {
	cutoff := cb.now().Add(-bucketIdle)
	cb.mu.Lock()
	defer cb.mu.Unlock()
	for client, b := range cb.buckets {
		if b.seen.Before(cutoff) {
			delete(cb.buckets, client)
		}
	}
}

func (cb *clientBuckets) size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.buckets)
}

// RateLimiter throttles each client IP to rps requests per second with bursts
// up to burst. Rejected requests get 429 and a Retry-After header. Idle
// clients are swept until ctx ends.
func RateLimiter(ctx context.Context, rps, burst int) gin.HandlerFunc {
	cb := newClientBuckets(rps, burst)

	go func() {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				cb.sweep()
			}
		}
	}()

	return func(c *gin.Context) {
		if cb.allow(c.ClientIP()) {
			c.Next()
			return
		}
		throttledTotal.Inc()
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
	}
}
