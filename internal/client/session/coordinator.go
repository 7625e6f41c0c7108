// Package session keeps the authenticated session alive.
//
// A Coordinator owns the current TokenRecord and the saved credentials. It
// refreshes the token before it expires or after the session has idled, by
// logging in again with the saved credentials. Concurrent callers that need a
// refresh while one is running share its outcome: N requests hitting a stale
// token produce exactly one re-authentication.
//
// An idle timer ends the session when no refresh has happened for
// Config.IdleTimeout. It is rearmed on every login and refresh.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/dmitrijs2005/betclient/internal/logging"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const (
	meterName  = "github.com/dmitrijs2005/betclient/internal/client/session"
	refreshKey = "refresh"
)

// Authenticator logs in with saved credentials.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error)
}

// Store is the durable copy of the session.
type Store interface {
	Read(ctx context.Context) (*models.TokenRecord, error)
	Write(ctx context.Context, rec *models.TokenRecord) error
	ReadCredentials(ctx context.Context) (*models.Credentials, error)
	Save(ctx context.Context, rec *models.TokenRecord, creds models.Credentials) error
	Clear(ctx context.Context) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithExpiryHandler registers fn to be called after the session was ended by
// the idle timer or by a failed refresh. It is not called on logout.
func WithExpiryHandler(fn func(reason string)) Option {
	return func(c *Coordinator) { c.onExpire = fn }
}

// WithMeterProvider replaces the global otel meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Coordinator) { c.meter = mp.Meter(meterName) }
}

// Coordinator is safe for concurrent use. One instance serves the whole
// process.
type Coordinator struct {
	store Store
	auth  Authenticator
	cfg   Config
	log   logging.Logger

	now        func() time.Time
	newBackoff func() retry.Backoff
	onExpire   func(reason string)
	meter      metric.Meter
	refreshes  metric.Int64Counter

	group singleflight.Group

	// mu guards the fields below and orders store writes with them.
	mu            sync.Mutex
	record        *models.TokenRecord
	creds         *models.Credentials
	expired       bool
	refreshing    bool
	epoch         uint64
	cancelRefresh context.CancelFunc
	timer         *time.Timer
	timerGen      uint64
}

// New builds a Coordinator with no session; call Restore or Establish next.
func New(store Store, auth Authenticator, cfg Config, log logging.Logger, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if log == nil {
		log = logging.Nop()
	}

	c := &Coordinator{
		store: store,
		auth:  auth,
		cfg:   cfg,
		log:   log.With("component", "session"),
		now:   time.Now,
		meter: otel.GetMeterProvider().Meter(meterName),
	}
	c.newBackoff = func() retry.Backoff { return refreshBackoff(c.cfg) }
	for _, o := range opts {
		o(c)
	}

	counter, err := c.meter.Int64Counter("betclient.session.refreshes",
		metric.WithDescription("Session refreshes by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create refresh counter: %w", err)
	}
	c.refreshes = counter
	return c, nil
}

// Restore loads a session persisted by an earlier process. Unreadable data is
// treated as no session. The idle timer is armed for what is left of the
// idle window; an already idle session is left for the next EnsureValidToken.
func (c *Coordinator) Restore(ctx context.Context) {
	rec, err := c.store.Read(ctx)
	if err != nil {
		c.log.Warn(ctx, "stored session unreadable, starting logged out", "error", err)
		return
	}
	if rec == nil {
		return
	}
	creds, err := c.store.ReadCredentials(ctx)
	if err != nil {
		c.log.Warn(ctx, "stored credentials unreadable", "error", err)
		creds = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.record = rec
	c.creds = creds
	c.expired = false
	if left := rec.LastRefresh.Add(c.cfg.IdleTimeout).Sub(c.now()); left > 0 {
		c.armTimerLocked(left)
	}
	c.log.Debug(ctx, "session restored", "user", rec.UserLogin, "expires_at", rec.ExpiresAt)
}

// Establish installs a fresh login result. The session is usable even if
// persisting it fails.
func (c *Coordinator) Establish(ctx context.Context, res *models.LoginResult, creds models.Credentials) *models.TokenRecord {
	rec := models.NewTokenRecord(res.Token, res.UserLogin, c.now(), c.cfg.TokenLifetime)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	if c.cancelRefresh != nil {
		c.cancelRefresh()
	}
	c.record = rec
	c.creds = &creds
	c.expired = false
	c.armTimerLocked(c.cfg.IdleTimeout)

	if err := c.store.Save(ctx, rec, creds); err != nil {
		c.log.Warn(ctx, "failed to persist session", "error", err)
	}
	return rec.Clone()
}

// EnsureValidToken reports whether a usable token is held. It refreshes a
// stale token first, joining a refresh already in flight. Without a session it
// returns false at once.
func (c *Coordinator) EnsureValidToken(ctx context.Context) bool {
	c.mu.Lock()
	rec := c.record
	c.mu.Unlock()

	if rec == nil {
		return false
	}
	stale := func(r *models.TokenRecord) bool { return needsRefresh(r, c.now(), c.cfg) }
	if !stale(rec) {
		return true
	}
	return c.refresh(ctx, stale)
}

// HandleExpiredToken is called after staleToken was rejected by the server.
// If the coordinator already holds a different token, that one is newer and
// no refresh is made.
func (c *Coordinator) HandleExpiredToken(ctx context.Context, staleToken string) bool {
	c.mu.Lock()
	rec := c.record
	c.mu.Unlock()

	if rec == nil {
		return false
	}
	rejected := func(r *models.TokenRecord) bool { return staleToken == "" || r.Token == staleToken }
	if !rejected(rec) {
		return true
	}
	return c.refresh(ctx, rejected)
}

// Token returns the current bearer token, or "" without a session.
func (c *Coordinator) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return ""
	}
	return c.record.Token
}

// Status reports the current state with a copy of the record.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.record == nil && c.expired:
		return Status{State: StateExpired}
	case c.record == nil:
		return Status{State: StateNoSession}
	case c.refreshing:
		return Status{State: StateRefreshPending, Record: c.record.Clone()}
	}
	return Status{State: StateValid, Record: c.record.Clone()}
}

// Terminate ends the session: memory and store are cleared, the idle timer
// is stopped and a running refresh is abandoned. Terminating without a
// session is a no-op apart from clearing the (empty) store.
func (c *Coordinator) Terminate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminateLocked(ctx)
	c.expired = false
}

// Close stops the idle timer and keeps the session, persisted or not, for the
// next process.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

// refresh runs performRefresh once for all concurrent callers. The work is
// detached from ctx so one caller giving up does not fail the others; the
// caller itself stops waiting when ctx is done.
//
// A caller may join a flight started for another reason (staleness versus a
// rejected token) that settled without replacing the token it needs gone. It
// then waits for one more flight of its own.
func (c *Coordinator) refresh(ctx context.Context, stillNeeded func(*models.TokenRecord) bool) bool {
	ok := c.awaitRefresh(ctx, stillNeeded)
	if ok && c.pending(stillNeeded) {
		ok = c.awaitRefresh(ctx, stillNeeded)
	}
	return ok
}

func (c *Coordinator) awaitRefresh(ctx context.Context, stillNeeded func(*models.TokenRecord) bool) bool {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return nil, c.performRefresh(detached, stillNeeded)
	})

	select {
	case res := <-ch:
		return res.Err == nil
	case <-ctx.Done():
		return false
	}
}

// pending reports whether a session is held that stillNeeded still rejects.
func (c *Coordinator) pending(stillNeeded func(*models.TokenRecord) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record != nil && stillNeeded(c.record)
}

// supersededLocked reports whether a login that replaced the session during a
// refresh left a token the refresh's caller can use.
func (c *Coordinator) supersededLocked(stillNeeded func(*models.TokenRecord) bool) bool {
	return c.record != nil && !stillNeeded(c.record)
}

func (c *Coordinator) performRefresh(ctx context.Context, stillNeeded func(*models.TokenRecord) bool) error {
	c.mu.Lock()
	if c.record == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if !stillNeeded(c.record) {
		c.mu.Unlock()
		return nil
	}
	creds := c.creds
	epoch := c.epoch
	user := c.record.UserLogin
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelRefresh = cancel
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.cancelRefresh = nil
		c.mu.Unlock()
	}()

	if creds == nil {
		c.log.Warn(ctx, "cannot refresh session without saved credentials", "user", user)
		c.fail(ctx, epoch, "no saved credentials")
		return ErrNoCredentials
	}

	c.log.Debug(ctx, "refreshing session", "user", user)

	attempt := 0
	var res *models.LoginResult
	err := retry.Do(ctx, c.newBackoff(), func(ctx context.Context) error {
		attempt++
		r, err := c.auth.Login(ctx, *creds)
		if err != nil {
			c.log.Warn(ctx, "session refresh attempt failed",
				"attempt", attempt, "max_attempts", c.cfg.MaxRetries, "error", err)
			return retry.RetryableError(err)
		}
		res = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.count(ctx, "abandoned")
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.supersededLocked(stillNeeded) {
				return nil
			}
			return ErrNoSession
		}
		c.log.Warn(ctx, "session refresh failed, logging out", "user", user, "attempts", attempt, "error", err)
		c.fail(ctx, epoch, "refresh failed")
		c.mu.Lock()
		superseded := c.supersededLocked(stillNeeded)
		c.mu.Unlock()
		if superseded {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrRefreshExhausted, err)
	}

	rec := models.NewTokenRecord(res.Token, res.UserLogin, c.now(), c.cfg.TokenLifetime)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.count(ctx, "abandoned")
		if c.supersededLocked(stillNeeded) {
			return nil
		}
		return ErrNoSession
	}
	c.record = rec
	c.armTimerLocked(c.cfg.IdleTimeout)
	if err := c.store.Write(ctx, rec); err != nil {
		c.log.Warn(ctx, "failed to persist refreshed session", "error", err)
	}
	c.count(ctx, "success")
	c.log.Info(ctx, "session refreshed", "user", rec.UserLogin, "attempts", attempt)
	return nil
}

// fail ends the session after a failed refresh unless it was already
// replaced or ended meanwhile.
func (c *Coordinator) fail(ctx context.Context, epoch uint64, reason string) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.terminateLocked(ctx)
	c.expired = true
	c.mu.Unlock()

	c.count(ctx, "failure")
	c.notifyExpired(reason)
}

func (c *Coordinator) terminateLocked(ctx context.Context) {
	c.stopTimerLocked()
	c.epoch++
	c.record = nil
	c.creds = nil

	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Warn(ctx, "failed to clear stored session", "error", err)
	}
	if c.cancelRefresh != nil {
		c.cancelRefresh()
	}
}

// armTimerLocked replaces the idle timer. A timer that was already firing
// when it got replaced sees a different generation and does nothing.
func (c *Coordinator) armTimerLocked(d time.Duration) {
	c.stopTimerLocked()
	gen := c.timerGen
	c.timer = time.AfterFunc(d, func() { c.onIdle(gen) })
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Coordinator) onIdle(gen uint64) {
	ctx := context.Background()

	c.mu.Lock()
	if gen != c.timerGen || c.record == nil {
		c.mu.Unlock()
		return
	}
	c.log.Info(ctx, "session idle timeout", "user", c.record.UserLogin)
	c.timer = nil
	c.terminateLocked(ctx)
	c.expired = true
	c.mu.Unlock()

	c.notifyExpired("idle timeout")
}

func (c *Coordinator) notifyExpired(reason string) {
	if c.onExpire != nil {
		c.onExpire(reason)
	}
}

func (c *Coordinator) count(ctx context.Context, outcome string) {
	c.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
