package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/dmitrijs2005/betclient/internal/logging"
	"github.com/dmitrijs2005/betclient/internal/netx"
)

const (
	loginPath  = "/api/login"
	logoutPath = "/api/logout"
)

// AuthAPI performs the login exchange directly, outside the Gateway's
// refresh path. It is also the re-authenticator used by session refresh.
type AuthAPI struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

func NewAuthAPI(baseURL string, httpClient *http.Client, log logging.Logger) *AuthAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.Nop()
	}
	return &AuthAPI{baseURL: baseURL, http: httpClient, log: log}
}

// Login exchanges creds for a bearer token. Every failure, including an
// unreachable server, is a *LoginError.
func (a *AuthAPI) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	payload, err := encodeBody(models.LoginRequest{BetLogin: creds.Login, BetPassword: creds.Password})
	if err != nil {
		return nil, &LoginError{Err: err}
	}

	req, err := newRequest(ctx, a.baseURL, http.MethodPost, loginPath, "", payload)
	if err != nil {
		return nil, &LoginError{Err: err}
	}

	resp, err := a.http.Do(req)
	if err != nil {
		err = transportError("POST "+loginPath, err)
		return nil, &LoginError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	var lr models.LoginResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&lr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := lr.Message
		if decodeErr != nil || msg == "" {
			msg = resp.Status
		}
		return nil, &LoginError{
			Message: msg,
			Err:     &RequestError{StatusCode: resp.StatusCode, Status: resp.Status},
		}
	}
	if decodeErr != nil {
		return nil, &LoginError{Message: "malformed response", Err: decodeErr}
	}
	if !lr.Success {
		return nil, &LoginError{Message: lr.Message}
	}
	if lr.Token == "" {
		return nil, &LoginError{Message: "no token in response"}
	}

	userLogin := lr.UserLogin
	if userLogin == "" {
		userLogin = creds.Login
	}
	return &models.LoginResult{
		Token:     lr.Token,
		UserLogin: userLogin,
		UserRole:  lr.UserRole,
		IsAdmin:   lr.IsAdmin,
		Message:   lr.Message,
	}, nil
}

// Logout asks the server to invalidate token.
func (a *AuthAPI) Logout(ctx context.Context, token string) error {
	req, err := newRequest(ctx, a.baseURL, http.MethodPost, logoutPath, token, nil)
	if err != nil {
		return err
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return transportError("POST "+logoutPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       netx.BodySnippet(resp.Body, netx.DefaultSnippetLimit),
		}
	}
	drain(resp.Body)
	return nil
}
