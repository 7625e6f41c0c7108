package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dmitrijs2005/betclient/internal/client/client"
	"github.com/dmitrijs2005/betclient/internal/client/config"
	"github.com/dmitrijs2005/betclient/internal/client/services"
	"github.com/dmitrijs2005/betclient/internal/client/session"
	"github.com/dmitrijs2005/betclient/internal/client/store"
	"github.com/dmitrijs2005/betclient/internal/filex"
	"github.com/dmitrijs2005/betclient/internal/logging"
)

// Streams are the standard streams a command reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App holds the services one CLI invocation works with.
type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB
	coord  *session.Coordinator

	authService    services.AuthService
	bettingService services.BettingService

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local database under c.DataDir and wires the session
// coordinator, the HTTP gateway and the services on top of it.
func NewApp(ctx context.Context, c *config.Config, s Streams) (*App, error) {
	log := logging.New(c.LogLevel, c.LogFormat, s.Err)

	dir, err := filex.EnsureDataDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, c.DBFile))
	if err != nil {
		return nil, err
	}

	tokens, err := store.Open(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	authAPI := client.NewAuthAPI(c.BaseURL, httpClient, log)

	coord, err := session.New(tokens, authAPI, c.RefreshConfig(), log,
		session.WithExpiryHandler(func(reason string) {
			log.Warn(context.Background(), "session ended", "reason", reason)
		}))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gw := client.NewGateway(c.BaseURL, coord, client.WithHTTPClient(httpClient), client.WithLogger(log))

	return &App{
		config:         c,
		log:            log,
		db:             db,
		coord:          coord,
		authService:    services.NewAuthService(authAPI, coord, log),
		bettingService: services.NewBettingService(gw),
		reader:         bufio.NewReader(s.In),
		out:            s.Out,
	}, nil
}

// Close stops the idle timer and closes the database.
func (a *App) Close() error {
	a.coord.Close()
	return a.db.Close()
}
