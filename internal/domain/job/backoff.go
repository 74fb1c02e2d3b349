package job

import (
	"errors"
	"time"
)

// ErrInvalidBackoffBase indicates the configured base delay is not positive.
var ErrInvalidBackoffBase = errors.New("backoff base delay must be positive")

// BackoffPolicy computes retry delays for failed jobs: exponential doubling
// from a base delay, capped at a ceiling so outage retries stay bounded.
type BackoffPolicy struct {
	base time.Duration
	cap  time.Duration
}

// NewBackoffPolicy constructs a BackoffPolicy with the provided base delay and cap.
// A non-positive cap disables capping.
func NewBackoffPolicy(base, ceiling time.Duration) (*BackoffPolicy, error) {
	if base <= 0 {
		return nil, ErrInvalidBackoffBase
	}
	return &BackoffPolicy{base: base, cap: ceiling}, nil
}

// MustNewBackoffPolicy is like NewBackoffPolicy but panics on invalid input.
// Intended for hard-coded defaults.
func MustNewBackoffPolicy(base, ceiling time.Duration) *BackoffPolicy {
	p, err := NewBackoffPolicy(base, ceiling)
	if err != nil {
		panic(err)
	}
	return p
}

// Base returns the configured base delay.
func (p *BackoffPolicy) Base() time.Duration {
	if p == nil {
		return 0
	}
	return p.base
}

// Delay returns the delay to apply before the attempt following the given
// number of completed attempts: base * 2^attempts, capped.
func (p *BackoffPolicy) Delay(attempts int) time.Duration {
	if p == nil {
		return 0
	}
	if attempts < 0 {
		attempts = 0
	}

	delay := p.base
	for range attempts {
		delay *= 2
		if p.cap > 0 && delay >= p.cap {
			return p.cap
		}
		// Guard against overflow for absurd attempt counts.
		if delay <= 0 {
			if p.cap > 0 {
				return p.cap
			}
			return p.base
		}
	}
	if p.cap > 0 && delay > p.cap {
		return p.cap
	}
	return delay
}
