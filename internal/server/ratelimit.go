package server

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateLimited 超出限流时返回的原因。
const RateLimited = "RATE_LIMITED"

var rateLimitRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "placefinder",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
}, []string{"operation"})

// tokenBucket 令牌桶，容量为两秒的配额。
type tokenBucket struct {
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
	mu       sync.Mutex
}

func newTokenBucket(rps float64, now func() time.Time) *tokenBucket {
	if rps <= 0 {
		rps = 1
	}
	if now == nil {
		now = time.Now
	}
	return &tokenBucket{
		rate:     rps,
		capacity: rps * 2,
		tokens:   rps * 2,
		last:     now(),
		now:      now,
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// limiterMiddleware 对除健康检查外的请求限流。
func limiterMiddleware(b *tokenBucket) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (reply interface{}, err error) {
			op := ""
			if tr, ok := transport.FromServerContext(ctx); ok {
				op = tr.Operation()
			}
			if op != OperationPlacesStatus && !b.allow() {
				rateLimitRejected.WithLabelValues(op).Inc()
				return nil, errors.New(429, RateLimited, "rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
