package services

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/client"
	"github.com/dmitrijs2005/betclient/internal/client/session"
	"github.com/dmitrijs2005/betclient/internal/client/store"
	"github.com/dmitrijs2005/betclient/internal/common"
	"github.com/dmitrijs2005/betclient/internal/cryptox"
	"github.com/dmitrijs2005/betclient/internal/mockapi"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// bearerLog records the Authorization header of every request per path.
type bearerLog struct {
	mu   sync.Mutex
	seen map[string][]string
}

func (b *bearerLog) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.seen[r.URL.Path] = append(b.seen[r.URL.Path], r.Header.Get(common.AuthorizationHeaderName))
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *bearerLog) get(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seen[path]...)
}

type fixture struct {
	mock    *mockapi.Server
	srv     *httptest.Server
	db      *sql.DB
	store   *store.TokenStore
	clock   *clock
	bearers *bearerLog
	cfg     session.Config

	coord *session.Coordinator
	auth  AuthService
	bets  BettingService
}

func testSessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mock := mockapi.New()
	mock.AddUser("alice", "secret", "user", 100)
	bearers := &bearerLog{seen: map[string][]string{}}
	srv := httptest.NewServer(bearers.wrap(mock.Handler()))
	t.Cleanup(srv.Close)

	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		mock:    mock,
		srv:     srv,
		db:      db,
		store:   store.New(db, cryptox.DeriveDeviceKey([]byte("m"), []byte("salt"))),
		clock:   &clock{now: t0},
		bearers: bearers,
		cfg:     testSessionConfig(),
	}
	f.wire(t)
	return f
}

// wire builds a fresh process over the same database and backend.
func (f *fixture) wire(t *testing.T) {
	t.Helper()

	api := client.NewAuthAPI(f.srv.URL, f.srv.Client(), nil)
	coord, err := session.New(f.store, api, f.cfg, nil, session.WithClock(f.clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { coord.Close() })

	f.coord = coord
	f.auth = NewAuthService(api, coord, nil)
	f.bets = NewBettingService(client.NewGateway(f.srv.URL, coord, client.WithHTTPClient(f.srv.Client())))
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.auth.Login(context.Background(), "alice", []byte("secret"))
	require.NoError(t, err)
}
