// Package models defines client-side data models used by betclient.
package models

import "time"

// TokenRecord is the persisted session state. Its absence means logged out.
type TokenRecord struct {
	// Token is the opaque bearer credential.
	Token string `json:"token"`

	// UserLogin is the identity owning Token.
	UserLogin string `json:"userLogin"`

	// ExpiresAt is estimated from a fixed assumed token lifetime, never
	// parsed from Token.
	ExpiresAt time.Time `json:"-"`

	// LastRefresh is the time of the last successful (re)authentication.
	LastRefresh time.Time `json:"-"`
}

// Credentials is the login/password pair kept for silent re-authentication.
type Credentials struct {
	Login    string `json:"betLogin"`
	Password string `json:"betPassword"`
}

// LoginResult is the successful outcome of POST /api/login.
type LoginResult struct {
	Token     string
	UserLogin string
	UserRole  string
	IsAdmin   bool
	Message   string
}

// NewTokenRecord builds the record for a token obtained at now.
func NewTokenRecord(token, userLogin string, now time.Time, lifetime time.Duration) *TokenRecord {
	return &TokenRecord{
		Token:       token,
		UserLogin:   userLogin,
		ExpiresAt:   now.Add(lifetime),
		LastRefresh: now,
	}
}

// Clone returns a copy safe to hand out of a lock.
func (r *TokenRecord) Clone() *TokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
