package server

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter caps the rate of queries admitted into the search.Coordinator,
// grounded on the pack's token-bucket admission pattern (e.g.
// custodia-labs-sercha-cli's GitHub/Google rate limiters), generalized
// here to gate incoming queries rather than outgoing API calls — a
// concern the teacher's single-process cserver never needed since it
// never ran as a long-lived, multi-client service.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter returns a Limiter admitting at most qps queries per second,
// with burst allowed up to burst queries.
func NewLimiter(qps float64, burst int) *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(qps), burst)}
}

// Wait blocks until the query may proceed, or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}

// Allow reports whether a query may proceed immediately, consuming a
// token if so, without blocking.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}
