// Package job holds queue-domain policies: lease resolution, retry backoff,
// and job-availability notification.
package job

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidDefaultLease indicates the configured default lease duration is not positive.
var ErrInvalidDefaultLease = errors.New("default lease must be positive")

// LeaseSource identifies how a lease duration was resolved.
type LeaseSource string

const (
	// LeaseSourceExplicit indicates the caller supplied a positive duration.
	LeaseSourceExplicit LeaseSource = "explicit"
	// LeaseSourceDefault indicates the default duration was used.
	LeaseSourceDefault LeaseSource = "default"
	// LeaseSourceClamped indicates the requested duration was clamped to the minimum supported value.
	LeaseSourceClamped LeaseSource = "clamped"
)

// LeasePolicy normalises lease durations for job reservations and heartbeats.
type LeasePolicy struct {
	defaultLease time.Duration
}

// NewLeasePolicy constructs a LeasePolicy with the provided default lease duration.
func NewLeasePolicy(defaultLease time.Duration) (*LeasePolicy, error) {
	if defaultLease <= 0 {
		return nil, ErrInvalidDefaultLease
	}
	return &LeasePolicy{defaultLease: defaultLease}, nil
}

// Default returns the configured default lease duration.
func (p *LeasePolicy) Default() time.Duration {
	if p == nil {
		return 0
	}
	return p.defaultLease
}

// LeaseDecision captures the outcome of resolving a lease request.
type LeaseDecision struct {
	Seconds   int
	Source    LeaseSource
	Requested time.Duration
}

// Clamped reports whether the requested value was clamped to the minimum supported duration.
func (d LeaseDecision) Clamped() bool {
	return d.Source == LeaseSourceClamped
}

// Resolve normalises the requested duration to a whole number of seconds.
// Zero requests fall back to the default; sub-second and negative requests
// clamp to one second.
func (p *LeasePolicy) Resolve(request time.Duration) LeaseDecision {
	if p == nil {
		return LeaseDecision{Source: LeaseSourceDefault, Requested: request}
	}

	switch {
	case request > 0:
		seconds, clamped := wholeSeconds(request)
		source := LeaseSourceExplicit
		if clamped {
			source = LeaseSourceClamped
		}
		return LeaseDecision{Seconds: seconds, Source: source, Requested: request}
	case request == 0:
		seconds, _ := wholeSeconds(p.defaultLease)
		return LeaseDecision{Seconds: seconds, Source: LeaseSourceDefault, Requested: request}
	default:
		return LeaseDecision{Seconds: 1, Source: LeaseSourceClamped, Requested: request}
	}
}

func wholeSeconds(d time.Duration) (int, bool) {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return 1, true
	}
	if seconds > int64(math.MaxInt) {
		return math.MaxInt, true
	}
	return int(seconds), false
}
