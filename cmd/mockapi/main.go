package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/betclient/internal/logging"
	"github.com/dmitrijs2005/betclient/internal/mockapi"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:8080", "listen address")
	user := pflag.String("user", "alice", "seeded account login")
	password := pflag.String("password", "secret", "seeded account password")
	balance := pflag.Float64("balance", 100, "seeded account balance")
	ttl := pflag.Duration("token-ttl", mockapi.DefaultTokenTTL, "issued token lifetime")
	secret := pflag.String("secret", "", "token signing key; random when empty")
	level := pflag.String("log-level", "info", "log level")
	pflag.Parse()

	logger := logging.New(*level, "text", os.Stderr)

	opts := []mockapi.Option{mockapi.WithLogger(logger), mockapi.WithTokenTTL(*ttl)}
	if *secret != "" {
		opts = append(opts, mockapi.WithSecret([]byte(*secret)))
	}
	srv := mockapi.New(opts...)
	srv.AddUser(*user, *password, "user", *balance)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := srv.Run(ctx, *addr); err != nil {
		log.Fatalf("%v", err)
	}
}
