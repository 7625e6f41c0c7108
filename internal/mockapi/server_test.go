package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts...)
	s.AddUser("alice", "secret", "user", 100)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func login(t *testing.T, srv *httptest.Server, user, password string) models.LoginResponse {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/login", "", models.LoginRequest{BetLogin: user, BetPassword: password})
	var lr models.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	return lr
}

func TestLogin(t *testing.T) {
	s, srv := newTestServer(t)

	ok := login(t, srv, "alice", "secret")
	assert.True(t, ok.Success)
	assert.Equal(t, "alice", ok.UserLogin)
	assert.NotEmpty(t, ok.Token)

	bad := login(t, srv, "alice", "nope")
	assert.False(t, bad.Success)
	assert.Empty(t, bad.Token)
	assert.Equal(t, "invalid login or password", bad.Message)

	assert.Equal(t, 2, s.LoginCalls())
}

func TestFailNextLogins(t *testing.T) {
	s, srv := newTestServer(t)
	s.FailNextLogins(1)

	resp := call(t, srv, http.MethodPost, "/api/login", "", models.LoginRequest{BetLogin: "alice", BetPassword: "secret"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	assert.True(t, login(t, srv, "alice", "secret").Success)
}

func TestAuthenticatedEndpoints_RequireToken(t *testing.T) {
	_, srv := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/user-info", "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/user-info", "garbage", nil).StatusCode)

	token := login(t, srv, "alice", "secret").Token
	resp := call(t, srv, http.MethodGet, "/api/user-info", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info models.UserInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, models.UserInfo{UserLogin: "alice", UserRole: "user", Balance: 100}, info)
}

func TestExpiredToken_Rejected(t *testing.T) {
	base := time.Now()
	var offset atomic.Int64
	clock := func() time.Time { return base.Add(time.Duration(offset.Load())) }
	s, srv := newTestServer(t, WithClock(clock), WithTokenTTL(time.Minute))

	token, err := s.IssueToken("alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/matches", token, nil).StatusCode)

	offset.Store(int64(2 * time.Minute))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/matches", token, nil).StatusCode)
}

func TestRejectNextRequests(t *testing.T) {
	s, srv := newTestServer(t)
	token := login(t, srv, "alice", "secret").Token
	s.RejectNextRequests(1)

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/matches", token, nil).StatusCode)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/matches", token, nil).StatusCode)
	assert.Equal(t, 2, s.Requests("/api/matches"))
}

func TestLogout_RevokesToken(t *testing.T) {
	_, srv := newTestServer(t)
	token := login(t, srv, "alice", "secret").Token

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/logout", token, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/user-info", token, nil).StatusCode)
}

func TestBetConfig(t *testing.T) {
	_, srv := newTestServer(t)
	token := login(t, srv, "alice", "secret").Token

	want := models.BetConfig{Stake: 25, MinOdds: 1.5, MaxOdds: 3, Sports: []string{"hockey"}}
	resp := call(t, srv, http.MethodPut, "/api/bet-config", token, want)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/bet-config", token, nil)
	var got models.BetConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, want, got)

	bad := models.BetConfig{Stake: 10, MinOdds: 3, MaxOdds: 2}
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, srv, http.MethodPut, "/api/bet-config", token, bad).StatusCode)
}

func TestMatches_FilterBySport(t *testing.T) {
	_, srv := newTestServer(t)
	token := login(t, srv, "alice", "secret").Token

	resp := call(t, srv, http.MethodGet, "/api/matches?sport=hockey", token, nil)
	var matches []models.Match
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "hockey", matches[0].Sport)
}

func TestPlaceBet(t *testing.T) {
	_, srv := newTestServer(t)
	token := login(t, srv, "alice", "secret").Token

	resp := call(t, srv, http.MethodPost, "/api/bets", token,
		models.BetRequest{MatchID: "m-1001", Selection: models.SelectionDraw, Stake: 40})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt models.BetReceipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	assert.Equal(t, "accepted", receipt.Status)
	assert.Equal(t, 3.25, receipt.AcceptedOdds)
	assert.NotEmpty(t, receipt.BetID)

	tests := []struct {
		name string
		req  models.BetRequest
		code int
	}{
		{"unknown match", models.BetRequest{MatchID: "nope", Selection: models.SelectionHome, Stake: 1}, http.StatusNotFound},
		{"bad selection", models.BetRequest{MatchID: "m-1001", Selection: "x", Stake: 1}, http.StatusUnprocessableEntity},
		{"over balance", models.BetRequest{MatchID: "m-1001", Selection: models.SelectionHome, Stake: 61}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, call(t, srv, http.MethodPost, "/api/bets", token, tt.req).StatusCode)
		})
	}
}

func TestAutoExecute(t *testing.T) {
	_, srv := newTestServer(t)
	token := login(t, srv, "alice", "secret").Token

	resp := call(t, srv, http.MethodPost, "/api/auto-execute", token, models.AutoExecuteRequest{Enabled: true})
	var ack models.AutoExecuteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.True(t, ack.Enabled)

	resp = call(t, srv, http.MethodGet, "/api/bet-config", token, nil)
	var cfg models.BetConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))
	assert.True(t, cfg.AutoExecute)
}

func TestWithSecret_TokensSurviveRestart(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	_, first := newTestServer(t, WithSecret(secret))
	token := login(t, first, "alice", "secret").Token
	require.NotEmpty(t, token)

	_, restarted := newTestServer(t, WithSecret(secret))
	resp := call(t, restarted, http.MethodGet, "/api/user-info", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, other := newTestServer(t)
	resp = call(t, other, http.MethodGet, "/api/user-info", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
