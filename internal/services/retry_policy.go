package services

import (
	"time"
)

// defaultRetryDelays is the escalating backoff table applied between send
// attempts: 1 minute, 5 minutes, 15 minutes.
var defaultRetryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

// RetryPolicy maps attempt counts to backoff delays and terminal-failure
// decisions. Pure and side-effect free so it is independently testable.
type RetryPolicy struct {
	delays      []time.Duration
	maxAttempts int
}

// NewRetryPolicy builds a policy over the default backoff table. A
// non-positive ceiling falls back to the table length.
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = len(defaultRetryDelays)
	}
	return &RetryPolicy{
		delays:      defaultRetryDelays,
		maxAttempts: maxAttempts,
	}
}

// NextDelay returns the backoff delay for the given zero-based attempt
// index. Indexes past the end of the table clamp to the last entry.
func (p *RetryPolicy) NextDelay(attemptIndex int) time.Duration {
	if attemptIndex < 0 {
		attemptIndex = 0
	}
	if attemptIndex >= len(p.delays) {
		attemptIndex = len(p.delays) - 1
	}
	return p.delays[attemptIndex]
}

// IsExhausted reports whether the attempt budget has been used up
func (p *RetryPolicy) IsExhausted(attempts int) bool {
	return attempts >= p.maxAttempts
}

// MaxAttempts returns the configured attempt ceiling
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}
