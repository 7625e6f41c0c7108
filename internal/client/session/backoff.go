package session

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// linearBackoff waits base*n after the n-th failed attempt. It stops, rather
// than shortening a wait, once the next wait would push the sum of all waits
// past budget. Time spent inside attempts is not counted.
func linearBackoff(base, budget time.Duration) retry.Backoff {
	var (
		attempt int64
		waited  time.Duration
	)
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		d := time.Duration(attempt) * base
		if waited+d > budget {
			return 0, true
		}
		waited += d
		return d, false
	})
}

// refreshBackoff allows cfg.MaxRetries attempts in total, separated by
// linearly growing waits whose sum stays within cfg.MaxRetryWait.
func refreshBackoff(cfg Config) retry.Backoff {
	b := linearBackoff(cfg.RetryBaseDelay, cfg.MaxRetryWait)
	return retry.WithMaxRetries(uint64(cfg.MaxRetries-1), b)
}
