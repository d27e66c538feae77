// Package util contains utility analyzer functionality.
package util

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	initialTimeoutLowerBound = 0
	maximumTimeoutUpperBound = math.MaxInt64 / 2
)

// Backoff implements retry backoff on failure.
type Backoff struct {
	initialTimeout time.Duration
	currentTimeout time.Duration
	maximumTimeout time.Duration
}

// NewBackoff returns a new backoff.
func NewBackoff(initialTimeout time.Duration, maximumTimeout time.Duration) (*Backoff, error) {
	if initialTimeout <= initialTimeoutLowerBound {
		return nil, fmt.Errorf(
			"initial timeout %fs less than lower bound %ds",
			initialTimeout.Seconds(),
			initialTimeoutLowerBound,
		)
	}
	if maximumTimeout < initialTimeout || maximumTimeout >= maximumTimeoutUpperBound {
		return nil, fmt.Errorf(
			"maximum timeout %fs outside [%fs, %ds)",
			maximumTimeout.Seconds(),
			initialTimeout.Seconds(),
			maximumTimeoutUpperBound,
		)
	}
	return &Backoff{initialTimeout, initialTimeout, maximumTimeout}, nil
}

// Wait sleeps for the current interval, or until ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	select {
	case <-time.After(b.currentTimeout):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failure doubles the interval, up to the maximum.
func (b *Backoff) Failure() {
	b.currentTimeout *= 2
	if b.currentTimeout > b.maximumTimeout {
		b.currentTimeout = b.maximumTimeout
	}
}

// Success resets the interval.
func (b *Backoff) Success() {
	b.currentTimeout = b.initialTimeout
}

// Timeout returns the backoff timeout.
func (b *Backoff) Timeout() time.Duration {
	return b.currentTimeout
}
