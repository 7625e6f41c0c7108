package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		MaxRetryWait:   time.Second,
		IdleTimeout:    30 * time.Minute,
		PreemptiveLead: time.Minute,
		TokenLifetime:  10 * time.Minute,
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore struct {
	mu       sync.Mutex
	rec      *models.TokenRecord
	creds    *models.Credentials
	readErr  error
	writeErr error
	clears   int
}

func (s *memStore) Read(context.Context) (*models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.rec.Clone(), nil
}

func (s *memStore) Write(_ context.Context, rec *models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.rec = rec.Clone()
	return nil
}

func (s *memStore) ReadCredentials(context.Context) (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, nil
	}
	c := *s.creds
	return &c, nil
}

func (s *memStore) Save(_ context.Context, rec *models.TokenRecord, creds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.rec = rec.Clone()
	s.creds = &creds
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.rec = nil
	s.creds = nil
	return nil
}

func (s *memStore) snapshot() (*models.TokenRecord, *models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone(), s.creds
}

type fakeAuth struct {
	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{}
	delay time.Duration
}

func (a *fakeAuth) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	a.mu.Lock()
	a.calls++
	n, gate, err, delay := a.calls, a.gate, a.err, a.delay
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.LoginResult{Token: fmt.Sprintf("T%d", n+1), UserLogin: creds.Login}, nil
}

func (a *fakeAuth) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

var errRejected = errors.New("rejected")

var aliceCreds = models.Credentials{Login: "alice", Password: "secret"}

// storedSession returns a store holding T1 for alice with the given times.
func storedSession(expiresAt, lastRefresh time.Time) *memStore {
	c := aliceCreds
	return &memStore{
		rec:   &models.TokenRecord{Token: "T1", UserLogin: "alice", ExpiresAt: expiresAt, LastRefresh: lastRefresh},
		creds: &c,
	}
}

func newTestCoordinator(t *testing.T, st Store, auth Authenticator, cfg Config, opts ...Option) *Coordinator {
	t.Helper()
	c, err := New(st, auth, cfg, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}
