// Package cli provides the betclient command-line client.
//
// Each invocation is one short-lived process: configuration is loaded, the
// local database is opened, a session persisted by an earlier run is
// restored, and a single command runs against the backend.
//
// Commands:
//   - login / logout / status
//   - whoami, matches
//   - bet-config get|set, bet place, auto-execute on|off
//
// A call that ends in client.ErrSessionExpired is reported in one place, by
// Execute, with "session expired, please log in again".
package cli
