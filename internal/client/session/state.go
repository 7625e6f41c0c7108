package session

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/models"
)

var (
	ErrNoSession        = errors.New("no session")
	ErrNoCredentials    = errors.New("no saved credentials")
	ErrRefreshExhausted = errors.New("refresh retries exhausted")
)

type State int

const (
	StateNoSession State = iota
	StateValid
	StateRefreshPending
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateNoSession:
		return "no session"
	case StateValid:
		return "valid"
	case StateRefreshPending:
		return "refresh pending"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// Status is a snapshot of the coordinator.
type Status struct {
	State  State
	Record *models.TokenRecord
}

// needsRefresh reports whether rec is within the preemptive window before
// expiry or has been idle for the whole idle timeout.
func needsRefresh(rec *models.TokenRecord, now time.Time, cfg Config) bool {
	if !now.Before(rec.ExpiresAt.Add(-cfg.PreemptiveLead)) {
		return true
	}
	return now.Sub(rec.LastRefresh) >= cfg.IdleTimeout
}
