// Package services contains application services for the betclient CLI.
// This file defines the authentication service: login, logout and session
// restore on startup.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/dmitrijs2005/betclient/internal/client/session"
	"github.com/dmitrijs2005/betclient/internal/common"
	"github.com/dmitrijs2005/betclient/internal/logging"
)

var ErrEmptyCredentials = errors.New("login and password are required")

// AuthAPI is the server side of login and logout.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server, then install and persist the
//     session together with the credentials used for silent refresh.
//   - Logout: best-effort server logout, then always clear the local session.
//   - Restore: pick up a session persisted by an earlier run.
//   - Status: report the current session state.
type AuthService interface {
	Login(ctx context.Context, login string, password []byte) (*models.TokenRecord, error)
	Logout(ctx context.Context)
	Restore(ctx context.Context)
	Status() session.Status
}

type authService struct {
	api     AuthAPI
	session *session.Coordinator
	log     logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API and
// session coordinator.
func NewAuthService(api AuthAPI, coord *session.Coordinator, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &authService{api: api, session: coord, log: log.With("component", "auth")}
}

// Login fails with *client.LoginError when the server refuses. The password
// slice is wiped before returning.
func (a *authService) Login(ctx context.Context, login string, password []byte) (*models.TokenRecord, error) {
	defer common.WipeByteArray(password)

	if login == "" || len(password) == 0 {
		return nil, ErrEmptyCredentials
	}
	creds := models.Credentials{Login: login, Password: string(password)}

	res, err := a.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	rec := a.session.Establish(ctx, res, creds)
	a.log.Info(ctx, "logged in", "user", rec.UserLogin)
	return rec, nil
}

// Logout never fails: a server error is logged and the local session is
// cleared regardless. Logging out twice is harmless.
func (a *authService) Logout(ctx context.Context) {
	if token := a.session.Token(); token != "" {
		if err := a.api.Logout(ctx, token); err != nil {
			a.log.Warn(ctx, "server logout failed", "error", err)
		}
	}
	a.session.Terminate(ctx)
}

func (a *authService) Restore(ctx context.Context) {
	a.session.Restore(ctx)
}

func (a *authService) Status() session.Status {
	return a.session.Status()
}
