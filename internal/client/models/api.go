package models

import "time"

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	BetLogin    string `json:"bet_login"`
	BetPassword string `json:"bet_password"`
}

// LoginResponse is the body returned by POST /api/login.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	UserLogin string `json:"user_login"`
	Token     string `json:"token"`
	UserRole  string `json:"user_role"`
	IsAdmin   bool   `json:"is_admin"`
}

// UserInfo is returned by GET /api/user-info.
type UserInfo struct {
	UserLogin string  `json:"user_login"`
	UserRole  string  `json:"user_role"`
	IsAdmin   bool    `json:"is_admin"`
	Balance   float64 `json:"balance"`
}

// BetConfig is the user's betting configuration (GET/PUT /api/bet-config).
type BetConfig struct {
	Stake       float64  `json:"stake"`
	MinOdds     float64  `json:"min_odds"`
	MaxOdds     float64  `json:"max_odds"`
	AutoExecute bool     `json:"auto_execute"`
	Sports      []string `json:"sports"`
}

// Odds are decimal odds for the three outcomes of a match.
type Odds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Match is an upcoming event listed by GET /api/matches.
type Match struct {
	ID       string    `json:"id"`
	Sport    string    `json:"sport"`
	Home     string    `json:"home"`
	Away     string    `json:"away"`
	StartsAt time.Time `json:"starts_at"`
	Odds     Odds      `json:"odds"`
}

// Selection names the outcome a bet is placed on.
type Selection string

const (
	SelectionHome Selection = "home"
	SelectionDraw Selection = "draw"
	SelectionAway Selection = "away"
)

// Valid reports whether s is one of the known outcomes.
func (s Selection) Valid() bool {
	switch s {
	case SelectionHome, SelectionDraw, SelectionAway:
		return true
	}
	return false
}

// BetRequest is the body of POST /api/bets.
type BetRequest struct {
	MatchID   string    `json:"match_id"`
	Selection Selection `json:"selection"`
	Stake     float64   `json:"stake"`
}

// BetReceipt is the response to POST /api/bets.
type BetReceipt struct {
	BetID        string  `json:"bet_id"`
	Status       string  `json:"status"`
	AcceptedOdds float64 `json:"accepted_odds"`
}

// AutoExecuteRequest toggles automatic bet execution (POST /api/auto-execute).
type AutoExecuteRequest struct {
	Enabled bool `json:"enabled"`
}

// AutoExecuteResponse acknowledges an AutoExecuteRequest.
type AutoExecuteResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}
