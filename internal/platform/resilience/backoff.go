package resilience

import (
	"context"
	"time"
)

// BackoffPolicy describes the retry budget of one logical request.
type BackoffPolicy struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Initial:     time.Second,
		Max:         60 * time.Second,
		MaxAttempts: 8,
	}
}

func NormalizeBackoffPolicy(p BackoffPolicy) BackoffPolicy {
	defaults := DefaultBackoffPolicy()
	if p.Initial <= 0 {
		p.Initial = defaults.Initial
	}
	if p.Max <= 0 {
		p.Max = defaults.Max
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = defaults.MaxAttempts
	}
	return p
}

// Schedule starts a fresh delay sequence. Callers take one per logical request.
func (p BackoffPolicy) Schedule() *BackoffSchedule {
	p = NormalizeBackoffPolicy(p)
	return &BackoffSchedule{policy: p, current: p.Initial}
}

// BackoffSchedule yields Initial, 2*Initial, 4*Initial ... capped at Max.
// It is not safe for concurrent use.
type BackoffSchedule struct {
	policy   BackoffPolicy
	current  time.Duration
	attempts int
}

// Next returns the current exponential delay and advances the counter.
func (s *BackoffSchedule) Next() time.Duration {
	out := s.current
	next := s.current * 2
	if next > s.policy.Max || next <= 0 {
		next = s.policy.Max
	}
	s.current = next
	return out
}

// Override consumes one exponential step but reports the server supplied delay instead.
func (s *BackoffSchedule) Override(d time.Duration) time.Duration {
	s.Next()
	if d < 0 {
		return 0
	}
	return d
}

// Attempt registers one more attempt and reports whether it is within budget.
func (s *BackoffSchedule) Attempt() bool {
	if s.attempts >= s.policy.MaxAttempts {
		return false
	}
	s.attempts++
	return true
}

func (s *BackoffSchedule) Attempts() int {
	return s.attempts
}

// Remaining reports whether another attempt would still be allowed.
func (s *BackoffSchedule) Remaining() bool {
	return s.attempts < s.policy.MaxAttempts
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
