// Package client talks to the betting backend over HTTP/JSON.
//
// # Overview
//
// The package provides:
//  1. Gateway, the single choke point for authenticated calls. It asks its
//     Session for a valid token before every call, attaches it as a bearer
//     credential, and on a 401/403 answer asks the Session to refresh once and
//     re-issues the call with the new token.
//  2. AuthAPI, the unauthenticated login exchange and the best-effort logout.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Callers of Gateway.Do only ever see success, ErrSessionExpired, a
// *NetworkError (matches ErrUnavailable) or a *RequestError. AuthAPI.Login
// fails with *LoginError.
//
// Concurrency & Contexts
//
// Gateway and AuthAPI are safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
