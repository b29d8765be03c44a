package endpoint

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// NextBackoffDelay returns the retry delay for attempt N (1-based). With
// jitter the delay is scaled by a factor in [0.5, 1.5).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay)
	if attempt > 1 {
		delay *= math.Pow(math.Max(cfg.Multiplier, 1.0), float64(attempt-1))
	}
	if cfg.MaxDelay > 0 {
		delay = math.Min(delay, float64(cfg.MaxDelay))
	}
	if cfg.Jitter {
		f := 1.0
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

// retrier tracks consecutive transient failures of the read loop.
type retrier struct {
	cfg     BackoffConfig
	rng     *rand.Rand
	attempt int
}

func newRetrier(cfg BackoffConfig) *retrier {
	return &retrier{cfg: cfg, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *retrier) reset() { r.attempt = 0 }

// wait sleeps for the next delay. It returns ctx.Err() if ctx ends first.
func (r *retrier) wait(ctx context.Context) (time.Duration, error) {
	r.attempt++
	delay := NextBackoffDelay(r.cfg, r.attempt, r.rng)
	if delay <= 0 {
		return 0, ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return delay, ctx.Err()
	case <-t.C:
		return delay, nil
	}
}
