// Package mockapi is an in-memory betting backend speaking the same HTTP/JSON
// contract as the real one. It issues short-lived HS256 bearer tokens and can
// be told to fail logins or reject authenticated calls, which makes session
// refresh observable in tests and during local development.
package mockapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/dmitrijs2005/betclient/internal/common"
	"github.com/dmitrijs2005/betclient/internal/logging"
	"github.com/gorilla/mux"
)

// DefaultTokenTTL matches the lifetime the client assumes.
const DefaultTokenTTL = 10 * time.Minute

type user struct {
	password string
	role     string
	isAdmin  bool
	balance  float64
	config   models.BetConfig
}

type Option func(*Server)

func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithSecret sets the HS256 signing key, so tokens outlive a restart.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithMatches(matches []models.Match) Option {
	return func(s *Server) { s.matches = matches }
}

type Server struct {
	log      logging.Logger
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	router   *mux.Router

	mu           sync.Mutex
	users        map[string]*user
	matches      []models.Match
	revoked      map[string]bool
	failLogins   int
	unauthorized int
	loginCalls   int
	requests     map[string]int
}

func New(opts ...Option) *Server {
	s := &Server{
		log:      logging.Nop(),
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
		users:    make(map[string]*user),
		revoked:  make(map[string]bool),
		requests: make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	if s.secret == nil {
		s.secret = common.GenerateRandByteArray(32)
	}
	if s.matches == nil {
		s.matches = defaultMatches(s.now())
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.countRequests)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireToken)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/user-info", s.handleUserInfo).Methods(http.MethodGet)
	api.HandleFunc("/bet-config", s.handleGetBetConfig).Methods(http.MethodGet)
	api.HandleFunc("/bet-config", s.handlePutBetConfig).Methods(http.MethodPut)
	api.HandleFunc("/matches", s.handleMatches).Methods(http.MethodGet)
	api.HandleFunc("/bets", s.handlePlaceBet).Methods(http.MethodPost)
	api.HandleFunc("/auto-execute", s.handleAutoExecute).Methods(http.MethodPost)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// AddUser registers an account with a starting balance and default bet config.
func (s *Server) AddUser(login, password, role string, balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[login] = &user{
		password: password,
		role:     role,
		isAdmin:  role == "admin",
		balance:  balance,
		config:   models.BetConfig{Stake: 10, MinOdds: 1.2, MaxOdds: 5, Sports: []string{"football"}},
	}
}

// FailNextLogins answers the next n login calls with 503.
func (s *Server) FailNextLogins(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogins = n
}

// RejectNextRequests answers the next n authenticated calls with 401,
// whatever token they carry.
func (s *Server) RejectNextRequests(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unauthorized = n
}

func (s *Server) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

// Requests returns how many calls reached path.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// IssueToken mints a valid token for login without a login call.
func (s *Server) IssueToken(login string, ttl time.Duration) (string, error) {
	tok, _, err := GenerateToken(login, s.secret, s.now(), ttl)
	return tok, err
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping mock API server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info(ctx, "Starting mock API server", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func defaultMatches(now time.Time) []models.Match {
	day := now.Truncate(time.Hour).Add(24 * time.Hour)
	return []models.Match{
		{ID: "m-1001", Sport: "football", Home: "Riga FC", Away: "RFS", StartsAt: day,
			Odds: models.Odds{Home: 2.10, Draw: 3.25, Away: 3.40}},
		{ID: "m-1002", Sport: "football", Home: "Valmiera", Away: "Auda", StartsAt: day.Add(2 * time.Hour),
			Odds: models.Odds{Home: 1.75, Draw: 3.60, Away: 4.50}},
		{ID: "m-2001", Sport: "hockey", Home: "Dinamo Riga", Away: "Zemgale", StartsAt: day.Add(3 * time.Hour),
			Odds: models.Odds{Home: 1.60, Draw: 4.20, Away: 4.80}},
	}
}
