package session

import (
	"errors"
	"fmt"
	"time"
)

// Config is the refresh policy. It is fixed for the coordinator's lifetime.
type Config struct {
	// MaxRetries is the number of re-authentication attempts per refresh.
	MaxRetries int
	// RetryBaseDelay is multiplied by the attempt number to get the wait
	// before the next attempt.
	RetryBaseDelay time.Duration
	// MaxRetryWait caps the sum of the waits between attempts. A refresh
	// whose next wait would exceed it gives up early; waits are never
	// shortened and time spent inside attempts does not count.
	MaxRetryWait time.Duration
	// IdleTimeout ends a session that has not been refreshed for this long.
	IdleTimeout time.Duration
	// PreemptiveLead is how long before expiry a token is refreshed.
	PreemptiveLead time.Duration
	// TokenLifetime is the assumed upstream token lifetime.
	TokenLifetime time.Duration
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
		MaxRetryWait:   30 * time.Second,
		IdleTimeout:    30 * time.Minute,
		PreemptiveLead: time.Minute,
		TokenLifetime:  10 * time.Minute,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries))
	}
	if c.RetryBaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry base delay must be positive, got %s", c.RetryBaseDelay))
	}
	if c.MaxRetryWait <= 0 {
		errs = append(errs, fmt.Errorf("max retry wait must be positive, got %s", c.MaxRetryWait))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout))
	}
	if c.TokenLifetime <= 0 {
		errs = append(errs, fmt.Errorf("token lifetime must be positive, got %s", c.TokenLifetime))
	}
	if c.PreemptiveLead < 0 || c.PreemptiveLead >= c.TokenLifetime {
		errs = append(errs, fmt.Errorf("preemptive lead must be in [0, token lifetime), got %s", c.PreemptiveLead))
	}
	return errors.Join(errs...)
}
