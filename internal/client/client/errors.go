package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired means there is no usable session anymore. The caller
	// must send the user back to login.
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnavailable    = errors.New("server unavailable")
)

// AuthenticationError is a 401/403 answer to an authenticated call. It never
// leaves Gateway.Do.
type AuthenticationError struct {
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
}

func (e *AuthenticationError) Is(target error) bool { return target == ErrUnauthorized }

// NetworkError is a transport level failure: nothing was received from the server.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }

// RequestError is any other non-2xx response.
type RequestError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed: %s", e.Status)
	}
	return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
}

// LoginError carries the upstream reason a login attempt was refused.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Message == "" {
		return "login failed"
	}
	return "login failed: " + e.Message
}

func (e *LoginError) Unwrap() error { return e.Err }
