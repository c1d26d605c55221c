// Command catalogue-mock serves an in-memory library catalogue with the
// HTTP API the libcat client talks to. It is meant for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/libcat/internal/buildinfo"
	"github.com/dmitrijs2005/libcat/internal/logging"
	"github.com/dmitrijs2005/libcat/internal/mockserver"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		address  string
		secret   string
		logLevel string
		tokenTTL time.Duration
		seed     bool
	)

	flagSet := pflag.NewFlagSet("catalogue-mock", pflag.ContinueOnError)
	flagSet.StringVarP(&address, "addr", "a", "127.0.0.1:9000", "listen address")
	flagSet.StringVar(&secret, "secret", "", "token signing key (random when empty, so tokens die with the process)")
	flagSet.DurationVar(&tokenTTL, "token-ttl", mockserver.DefaultTokenTTL, "access token lifetime")
	flagSet.BoolVar(&seed, "seed", false, "start with a few demo books")
	flagSet.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	buildinfo.PrintBuildData(os.Stderr)

	opts := []mockserver.Option{
		mockserver.WithTokenTTL(tokenTTL),
		mockserver.WithLogger(logger.With("module", "catalogue_mock")),
	}
	if secret != "" {
		opts = append(opts, mockserver.WithSecret([]byte(secret)))
	}
	srv := mockserver.New(opts...)
	if seed {
		srv.Store().Seed(mockserver.DemoBooks...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := srv.Run(ctx, address); err != nil {
		logger.Error(ctx, "server failed", "error", err)
		return 1
	}
	return 0
}
