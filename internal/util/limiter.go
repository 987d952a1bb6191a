// # internal/util/limiter.go
package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket limiter with a narrower surface than
// rate.Limiter. The advisory client throttles its outbound queries with one
// of these so a large manifest does not hammer the service.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter builds a limiter allowing r events per second with burst b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(r), b)}
}

// Allow reports whether one event may happen now.
func (l *Limiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until one token is available or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.WaitN(ctx, 1)
}
