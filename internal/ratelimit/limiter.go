// Package ratelimit throttles probe requests per client address with a token
// bucket. Every allowed request opens a database session, so the limiter is
// the only thing standing between a busy client and the database.
package ratelimit

import "time"

// Limiter decides whether a client may run another probe. Implementations
// must be safe for concurrent use.
type Limiter interface {
	// Allow consumes a token for key and reports the bucket state.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines.
	Close()
}

// Info is the bucket state reported in X-RateLimit-* headers.
type Info struct {
	Limit      int           // Requests per minute
	Remaining  int           // Whole tokens left
	ResetAt    time.Time     // When the bucket is full again
	RetryAfter time.Duration // Set only when denied
}
