package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type BreakerState string

const (
	BreakerClosed  BreakerState = "closed"
	BreakerOpen    BreakerState = "open"
	BreakerProbing BreakerState = "probing"
)

type BreakerConfig struct {
	Enabled   bool
	Threshold int
	Cooldown  time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:   true,
		Threshold: 3,
		Cooldown:  2 * time.Minute,
	}
}

// Breaker trips after Threshold consecutive failures and stays open for Cooldown.
// After the cooldown exactly one probe is let through; its outcome closes or reopens it.
// A nil *Breaker allows everything.
type Breaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration

	state    BreakerState
	failures int
	openedAt time.Time
	now      func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	defaults := DefaultBreakerConfig()
	if cfg.Threshold < 1 {
		cfg.Threshold = defaults.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaults.Cooldown
	}
	return &Breaker{
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		state:     BreakerClosed,
		now:       time.Now,
	}
}

func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = BreakerProbing
		return nil
	case BreakerProbing:
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (b *Breaker) Success() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.openedAt = time.Time{}
}

func (b *Breaker) Failure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == BreakerProbing || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
}

// Release hands back a probe slot without judging the dependency, e.g. on caller cancellation.
func (b *Breaker) Release() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerProbing {
		b.state = BreakerOpen
		b.openedAt = b.now().Add(-b.cooldown)
	}
}

func (b *Breaker) State() BreakerState {
	if b == nil {
		return BreakerClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
