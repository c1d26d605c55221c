// Command libcat is the interactive library catalogue client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/libcat/internal/buildinfo"
	"github.com/dmitrijs2005/libcat/internal/client/cli"
	"github.com/dmitrijs2005/libcat/internal/client/config"
	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/logging"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Printf("Usage: %s [flags]\n\n%s", common.AppName, config.Usage())
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewTextLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting", "version", buildinfo.Version(), "server", cfg.ServerURL)

	app, err := cli.NewApp(ctx, cfg, cli.WithLogger(logger))
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "run", "error", err)
		return 1
	}
	return 0
}
