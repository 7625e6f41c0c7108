package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/client"
	"github.com/dmitrijs2005/betclient/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_PersistsSessionAndAttachesBearer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.auth.Login(ctx, "alice", []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.UserLogin)

	stored, err := f.store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.Token, stored.Token)
	assert.Equal(t, "alice", stored.UserLogin)
	assert.True(t, stored.ExpiresAt.Equal(t0.Add(10*time.Minute)))

	creds, err := f.store.ReadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", creds.Password)

	_, err = f.bets.UserInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer " + rec.Token}, f.bearers.get("/api/user-info"))
	assert.Equal(t, session.StateValid, f.auth.Status().State)
}

func TestLogin_WipesPassword(t *testing.T) {
	f := newFixture(t)
	pw := []byte("secret")

	_, err := f.auth.Login(context.Background(), "alice", pw)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, len(pw)), pw)
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, "alice", []byte("wrong"))

	var le *client.LoginError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "invalid login or password", le.Message)
	rec, err := f.store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, session.StateNoSession, f.auth.Status().State)
}

func TestLogin_EmptyCredentials_NoServerCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), "", []byte("x"))
	require.ErrorIs(t, err, ErrEmptyCredentials)
	_, err = f.auth.Login(context.Background(), "alice", nil)
	require.ErrorIs(t, err, ErrEmptyCredentials)

	assert.Zero(t, f.mock.LoginCalls())
}

func TestGateway_SingleRetryOn401(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.mock.RejectNextRequests(1)

	_, err := f.bets.UserInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, f.mock.LoginCalls(), "login plus exactly one refresh")
	assert.Equal(t, 2, f.mock.Requests("/api/user-info"), "original plus one retry")
	seen := f.bearers.get("/api/user-info")
	assert.NotEqual(t, seen[0], seen[1], "retry carries the refreshed token")
}

func TestGateway_401Twice_SessionExpired(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.mock.RejectNextRequests(2)

	_, err := f.bets.UserInfo(context.Background())

	require.ErrorIs(t, err, client.ErrSessionExpired)
	assert.Equal(t, 2, f.mock.LoginCalls())
	assert.Equal(t, 2, f.mock.Requests("/api/user-info"))
}

func TestRefreshExhausted_ClearsSessionBeforeRequest(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.clock.Advance(10 * time.Minute)
	f.mock.FailNextLogins(f.cfg.MaxRetries)

	_, err := f.bets.UserInfo(context.Background())

	require.ErrorIs(t, err, client.ErrSessionExpired)
	assert.Equal(t, 1+f.cfg.MaxRetries, f.mock.LoginCalls())
	assert.Zero(t, f.mock.Requests("/api/user-info"))
	assert.Equal(t, session.StateExpired, f.auth.Status().State)

	rec, err := f.store.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
	creds, err := f.store.ReadCredentials(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestConcurrentRequests_OneRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.clock.Advance(9*time.Minute + time.Second)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.bets.UserInfo(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.mock.LoginCalls())
	assert.Equal(t, n, f.mock.Requests("/api/user-info"))
}

func TestLogout_ClearsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t)
	token := f.coord.Token()

	f.auth.Logout(ctx)

	assert.Equal(t, []string{"Bearer " + token}, f.bearers.get("/api/logout"))
	assert.Equal(t, session.StateNoSession, f.auth.Status().State)
	rec, err := f.store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = f.bets.UserInfo(ctx)
	require.ErrorIs(t, err, client.ErrSessionExpired)
	assert.Zero(t, f.mock.Requests("/api/user-info"))
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)

	f.auth.Logout(context.Background())
	f.auth.Logout(context.Background())

	assert.Empty(t, f.bearers.get("/api/logout"), "no server call without a session")
	assert.Equal(t, session.StateNoSession, f.auth.Status().State)
}

func TestLogout_ServerDown_StillClears(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.Close()

	f.auth.Logout(context.Background())

	rec, err := f.store.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, session.StateNoSession, f.auth.Status().State)
}

func TestRestore_AcrossRestart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	token := f.coord.Token()

	f.wire(t)
	assert.Equal(t, session.StateNoSession, f.auth.Status().State)
	f.auth.Restore(context.Background())

	assert.Equal(t, session.StateValid, f.auth.Status().State)
	assert.Equal(t, token, f.coord.Token())
	_, err := f.bets.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.mock.LoginCalls())
}

func TestNetworkError_NotRetried(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.Close()

	_, err := f.bets.UserInfo(context.Background())

	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.False(t, errors.Is(err, client.ErrSessionExpired))
	assert.Equal(t, session.StateValid, f.auth.Status().State)
}
